package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/cro/internal/models"
	"github.com/joescharf/cro/internal/output"
	"github.com/joescharf/cro/internal/store"
)

var (
	historyLimit int
	historyURL   string
	showFormat   string
	showOut      string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored analysis runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun(cmd.Context())
	},
}

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Re-render a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRun(cmd.Context(), args[0])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteRun(cmd.Context(), args[0])
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Show at most this many runs")
	historyCmd.Flags().StringVar(&historyURL, "url", "", "Only runs of this URL")

	showCmd.Flags().StringVarP(&showFormat, "format", "f", formatTable, "Output format: table, markdown, html, json, csv")
	showCmd.Flags().StringVarP(&showOut, "out", "o", "", "Write the report to a file")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
}

func historyRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	runs, err := s.ListRuns(ctx, store.RunListFilter{URL: historyURL, Limit: historyLimit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		ui.Info("No runs yet. Try: cro analyze <url>")
		return nil
	}

	table := ui.Table([]string{"ID", "Created", "URL", "Score", "Counts"})
	for _, r := range runs {
		_ = table.Append([]string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			output.Truncate(r.URL, 50),
			output.ScoreColor(r.Summary.Score),
			countsShort(r.Summary.Counts),
		})
	}
	return table.Render()
}

// countsShort renders counts compactly, e.g. "P5 W2 F1 R6".
func countsShort(counts map[models.Result]int) string {
	var parts []string
	for _, r := range models.Results {
		if n := counts[r]; n > 0 {
			label := string(r[0])
			if r == models.ResultNA {
				label = "NA"
			}
			parts = append(parts, fmt.Sprintf("%s%d", label, n))
		}
	}
	return strings.Join(parts, " ")
}

func showRun(ctx context.Context, id string) error {
	if err := validateFormat(showFormat); err != nil {
		return err
	}
	s, err := getStore()
	if err != nil {
		return err
	}
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}
	return writeRun(run, showFormat, showOut)
}

func deleteRun(ctx context.Context, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would delete run %s", id)
		return nil
	}
	if err := s.DeleteRun(ctx, id); err != nil {
		return err
	}
	ui.Success("Deleted run %s", id)
	return nil
}
