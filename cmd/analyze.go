package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	analyzeFormat    string
	analyzeOut       string
	analyzeChecklist string
	analyzeNoSave    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>...",
	Short: "Evaluate one or more landing pages",
	Long: `Fetch each page, run the automated checks, merge them with the
(weighted) checklist and print the scored report.

Runs are saved to the history so they can be rated with 'cro feedback'.
Several URLs are analyzed in parallel (analyze.concurrency); with --out
and more than one URL, --out must be a directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return analyzeRun(cmd.Context(), args)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", formatTable, "Output format: table, markdown, html, json, csv")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Write the report to a file (or directory for several URLs)")
	analyzeCmd.Flags().StringVar(&analyzeChecklist, "checklist", "", "Checklist file (.xlsx, .csv, .yaml)")
	analyzeCmd.Flags().Float64("alpha", 1.0, "Weight strength of learned feedback")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "Do not store the run in the history")
	_ = viper.BindPFlag("weighting.alpha", analyzeCmd.Flags().Lookup("alpha"))
	rootCmd.AddCommand(analyzeCmd)
}

func analyzeRun(ctx context.Context, urls []string) error {
	if err := validateFormat(analyzeFormat); err != nil {
		return err
	}
	if len(urls) > 1 && analyzeOut != "" {
		if info, err := os.Stat(analyzeOut); err != nil || !info.IsDir() {
			return fmt.Errorf("--out must be an existing directory when analyzing %d URLs", len(urls))
		}
	}

	a, _, err := newAnalyzer(analyzeChecklist)
	if err != nil {
		return err
	}

	save := !analyzeNoSave && !dryRun
	if dryRun && !analyzeNoSave {
		ui.DryRunMsg("Runs will not be saved")
	}

	failed := 0
	for i, o := range a.AnalyzeAll(ctx, urls) {
		if o.Err != nil {
			ui.Error("%s: %v", o.URL, o.Err)
			failed++
			continue
		}
		if save {
			s, err := getStore()
			if err != nil {
				return err
			}
			if err := s.CreateRun(ctx, o.Run); err != nil {
				return fmt.Errorf("save run: %w", err)
			}
			ui.VerboseLog("Saved run %s", o.Run.ID)
		}
		if i > 0 && analyzeOut == "" {
			fmt.Fprintln(ui.Out)
		}
		if err := writeRun(o.Run, analyzeFormat, analyzeOut); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(urls))
	}
	return nil
}
