package models

import (
	"fmt"
	"strings"
)

// Result is the outcome recorded on a check row.
type Result string

const (
	ResultPass   Result = "PASS"
	ResultWarn   Result = "WARN"
	ResultFail   Result = "FAIL"
	ResultReview Result = "REVIEW"
	ResultNA     Result = "N/A"
)

// Results lists every result in display order.
var Results = []Result{ResultPass, ResultWarn, ResultFail, ResultReview, ResultNA}

// IsVerdict reports whether r can be produced by the rule engine.
// REVIEW and N/A only come out of the merge step.
func (r Result) IsVerdict() bool {
	return r == ResultPass || r == ResultWarn || r == ResultFail
}

func (r Result) String() string {
	return string(r)
}

// ParseResult parses a result case-insensitively.
func ParseResult(s string) (Result, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PASS":
		return ResultPass, nil
	case "WARN":
		return ResultWarn, nil
	case "FAIL":
		return ResultFail, nil
	case "REVIEW":
		return ResultReview, nil
	case "N/A", "NA":
		return ResultNA, nil
	default:
		return "", fmt.Errorf("unknown result: %q", s)
	}
}
