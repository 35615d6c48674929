package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joescharf/cro/internal/models"
	"github.com/joescharf/cro/internal/report"
)

// formatTable is the terminal-only output format.
const formatTable = "table"

// validateFormat accepts "table" or any report format.
func validateFormat(format string) error {
	if format == formatTable {
		return nil
	}
	_, err := report.ParseFormat(format)
	return err
}

// renderRun prints run in format to w.
func renderRun(w io.Writer, run *models.Run, format string) error {
	if format == formatTable {
		tableUI := *ui
		tableUI.Out = w
		tableUI.RunSummary(run)
		return tableUI.RunTable(run)
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	return report.Render(w, run, f)
}

// writeRun renders run to path, or to stdout when path is empty. When path
// is a directory the file is named after the run.
func writeRun(run *models.Run, format, path string) error {
	if path == "" {
		return renderRun(ui.Out, run, format)
	}

	if format == formatTable {
		format = string(report.FormatMarkdown)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		f, _ := report.ParseFormat(format)
		path = filepath.Join(path, fmt.Sprintf("cro_report_%s.%s", run.ID, f.Extension()))
	}

	if dryRun {
		ui.DryRunMsg("Would write %s report to %s", format, path)
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := renderRun(f, run, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	ui.Success("Report written to %s", path)
	return nil
}
