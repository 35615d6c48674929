// Package report renders analysis runs for humans and machines. Every
// renderer keeps the run's row order and field values unchanged.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joescharf/cro/internal/models"
)

// Format is a report output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
)

// Formats lists the supported formats.
var Formats = []Format{FormatMarkdown, FormatHTML, FormatJSON, FormatCSV}

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown report format %q (want markdown, html, json or csv)", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Render writes run to w in format f.
func Render(w io.Writer, run *models.Run, f Format) error {
	switch f {
	case FormatMarkdown:
		return Markdown(w, run)
	case FormatHTML:
		return HTML(w, run)
	case FormatJSON:
		return JSON(w, run)
	case FormatCSV:
		return CSV(w, run)
	}
	return fmt.Errorf("unknown report format %q", f)
}

// FormatScore renders a summary score, or "n/a" when nothing was scorable.
func FormatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}

// CountsString renders counts as a JSON object in result order.
func CountsString(counts map[models.Result]int) string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for _, r := range models.Results {
		n, ok := counts[r]
		if !ok {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%q: %d", r, n)
	}
	b.WriteByte('}')
	return b.String()
}

// Markdown writes the run as a markdown document with one section per row.
func Markdown(w io.Writer, run *models.Run) error {
	var b strings.Builder
	b.WriteString("# CRO Landing Page Report\n\n")
	fmt.Fprintf(&b, "- URL: %s\n", run.Summary.URL)
	fmt.Fprintf(&b, "- Score (0-1): %s\n", FormatScore(run.Summary.Score))
	fmt.Fprintf(&b, "- Counts: %s\n\n", CountsString(run.Summary.Counts))
	b.WriteString("## Checks\n")
	for _, r := range run.Checks {
		fmt.Fprintf(&b, "\n### %s  \n", r.Tip)
		fmt.Fprintf(&b, "*Category:* %s  \n", r.Category)
		fmt.Fprintf(&b, "*Result:* **%s**  \n", r.Result)
		fmt.Fprintf(&b, "*Evidence:* %s  \n", r.Evidence)
		fmt.Fprintf(&b, "*Type:* %s  \n", r.CheckType)
		fmt.Fprintf(&b, "*Priority:* %s  \n", r.Priority)
		fmt.Fprintf(&b, "*Difficulty:* %s  \n", r.Difficulty)
		if r.Explanation != "" {
			b.WriteString(r.Explanation)
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type jsonReport struct {
	Summary models.Summary    `json:"summary"`
	Checks  []models.CheckRow `json:"checks"`
}

// JSON writes {"summary": ..., "checks": [...]}.
func JSON(w io.Writer, run *models.Run) error {
	checks := run.Checks
	if checks == nil {
		checks = []models.CheckRow{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{Summary: run.Summary, Checks: checks})
}

// CSVHeader is the header row of CSV reports.
var CSVHeader = []string{
	"category", "tip", "tip_norm", "priority", "difficulty", "explanation",
	"check_type", "result", "evidence", "auto_check",
}

// CSV writes one record per row under CSVHeader.
func CSV(w io.Writer, run *models.Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range run.Checks {
		rec := []string{
			r.Category, r.Tip, r.TipNorm, r.Priority, r.Difficulty, r.Explanation,
			string(r.CheckType), string(r.Result), r.Evidence, string(r.AutoCheck),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
