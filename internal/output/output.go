package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/joescharf/cro/internal/models"
)

// UI provides colored output and respects verbose/dry-run modes.
type UI struct {
	Verbose bool
	DryRun  bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("\u2713")
	warningPrefix = color.New(color.FgHiYellow).Sprint("\u26a0")
	errorPrefix   = color.New(color.FgHiRed).Sprint("\u2717")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  \u2192")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// Green returns a green-colored string.
func Green(s string) string { return green(s) }

// Yellow returns a yellow-colored string.
func Yellow(s string) string { return yellow(s) }

// Red returns a red-colored string.
func Red(s string) string { return red(s) }

// ResultColor returns the result colored by severity.
func ResultColor(r models.Result) string {
	s := string(r)
	switch r {
	case models.ResultPass:
		return green(s)
	case models.ResultWarn:
		return yellow(s)
	case models.ResultFail:
		return red(s)
	case models.ResultReview:
		return cyan(s)
	default:
		return s
	}
}

// ScoreColor formats a 0-1 score as a colored percentage, or "n/a".
func ScoreColor(score *float64) string {
	if score == nil {
		return "n/a"
	}
	s := fmt.Sprintf("%.1f%%", *score*100)
	switch {
	case *score >= 0.8:
		return green(s)
	case *score >= 0.5:
		return yellow(s)
	default:
		return red(s)
	}
}

// WeightColor formats a tip weight, green when it promotes and red when it demotes.
func WeightColor(w float64) string {
	s := fmt.Sprintf("%+.3f", w)
	switch {
	case w > 0:
		return green(s)
	case w < 0:
		return red(s)
	default:
		return s
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

func (u *UI) DryRunMsg(format string, a ...any) {
	if u.DryRun {
		u.Warning("[DRY-RUN] "+format, a...)
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "\u2026"
	}
	return string(r[:n-1]) + "\u2026"
}

// RunSummary prints the header lines of a run.
func (u *UI) RunSummary(run *models.Run) {
	fmt.Fprintf(u.Out, "%s %s\n", cyan("URL:"), run.URL)
	if run.ID != "" {
		fmt.Fprintf(u.Out, "%s %s\n", cyan("Run:"), run.ID)
	}
	fmt.Fprintf(u.Out, "%s %s\n", cyan("Score:"), ScoreColor(run.Summary.Score))

	var counts []string
	for _, r := range models.Results {
		if n := run.Summary.Counts[r]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s=%d", ResultColor(r), n))
		}
	}
	fmt.Fprintf(u.Out, "%s %s\n\n", cyan("Counts:"), strings.Join(counts, " "))
}

// RunTable prints a run's check rows in order.
func (u *UI) RunTable(run *models.Run) error {
	table := u.Table([]string{"#", "Category", "Tip", "Result", "Evidence", "Priority"})
	for i, r := range run.Checks {
		if err := table.Append([]string{
			fmt.Sprintf("%d", i+1),
			r.Category,
			r.Tip,
			ResultColor(r.Result),
			Truncate(r.Evidence, 60),
			r.Priority,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
