package models

import "strings"

// CheckType classifies how a checklist item maps to automation.
type CheckType string

const (
	CheckTypeURLReadable  CheckType = "url_readable"
	CheckTypeViewport     CheckType = "viewport"
	CheckTypeFavicon      CheckType = "favicon"
	CheckTypeCTAAboveFold CheckType = "cta_above_fold"
	CheckTypeSpeedManual  CheckType = "speed_manual"
	CheckTypeStickyManual CheckType = "sticky_manual"
	CheckTypeManual       CheckType = "manual"
	CheckTypeAuto         CheckType = "auto" // synthetic rows for unmatched verdicts
)

// IsReviewVariant reports whether the type names something that can only
// be partly automated and always needs a human look.
func (t CheckType) IsReviewVariant() bool {
	return t != CheckTypeManual && strings.HasSuffix(string(t), "_manual")
}

// ChecklistItem is one row of the checklist table after ingestion.
// TipNorm is the join key against the automation mapping and the feedback store.
type ChecklistItem struct {
	Category    string    `json:"category" yaml:"category"`
	Tip         string    `json:"tip" yaml:"tip"`
	TipNorm     string    `json:"tip_norm" yaml:"-"`
	Priority    string    `json:"priority" yaml:"priority"`
	Difficulty  string    `json:"difficulty" yaml:"difficulty"`
	Explanation string    `json:"explanation" yaml:"explanation"`
	CheckType   CheckType `json:"check_type" yaml:"check_type,omitempty"`
}
