package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/cro/internal/feedback"
	"github.com/joescharf/cro/internal/output"
)

var (
	feedbackRating  int
	feedbackSuccess bool
	feedbackComment string
	feedbackLimit   int
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <run-id>",
	Short: "Rate a stored run (1-5) to teach checklist weights",
	Long: `Record a rating for a stored analysis run.

The rating is mapped to a reward in [-1, 1] (3 is neutral) and folded into
the running mean of every checklist tip the run contains. Tips need ten
ratings before their learned weight applies in full.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return feedbackRun(cmd.Context(), args[0])
	},
}

var feedbackRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute tip statistics from the feedback log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return feedbackRebuildRun()
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded feedback events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return feedbackListRun()
	},
}

func init() {
	feedbackCmd.Flags().IntVarP(&feedbackRating, "rating", "r", 0, "Rating from 1 (useless) to 5 (very useful)")
	feedbackCmd.Flags().BoolVar(&feedbackSuccess, "success", false, "The report helped complete the task")
	feedbackCmd.Flags().StringVarP(&feedbackComment, "comment", "m", "", "Free-text comment")
	_ = feedbackCmd.MarkFlagRequired("rating")

	feedbackListCmd.Flags().IntVar(&feedbackLimit, "limit", 20, "Show at most this many events (0 for all)")

	feedbackCmd.AddCommand(feedbackRebuildCmd)
	feedbackCmd.AddCommand(feedbackListCmd)
	rootCmd.AddCommand(feedbackCmd)
}

func feedbackRun(ctx context.Context, runID string) error {
	if _, err := feedback.Reward(feedbackRating); err != nil {
		return err
	}

	s, err := getStore()
	if err != nil {
		return err
	}
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	fb, err := getFeedbackStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would record rating %d for run %s (%d tips)", feedbackRating, run.ID, len(run.Checks))
		return nil
	}

	event := feedback.EventForRun(run, feedbackRating, feedbackSuccess, feedbackComment)
	if err := fb.Record(event); err != nil {
		return err
	}
	ui.Success("Recorded rating %d (reward %+.2f) for %s", event.Rating, event.Reward, run.URL)
	ui.VerboseLog("Event %s appended to %s", event.ID, fb.LogPath())
	return nil
}

func feedbackRebuildRun() error {
	fb, err := getFeedbackStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would rebuild %s from %s", fb.StatsPath(), fb.LogPath())
		return nil
	}

	snap, err := fb.Rebuild()
	if err != nil {
		return err
	}
	ui.Success("Rebuilt statistics from %d events (%d tips)", snap.Global.N, len(snap.TipStats))
	return nil
}

func feedbackListRun() error {
	fb, err := getFeedbackStore()
	if err != nil {
		return err
	}
	events, err := fb.Events()
	if err != nil {
		return err
	}
	if len(events) == 0 {
		ui.Info("No feedback recorded yet")
		return nil
	}

	if feedbackLimit > 0 && len(events) > feedbackLimit {
		events = events[len(events)-feedbackLimit:]
	}

	table := ui.Table([]string{"Time", "Run", "URL", "Rating", "Reward", "Success", "Comment"})
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		_ = table.Append([]string{
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.RunID,
			output.Truncate(e.URL, 40),
			fmt.Sprintf("%d", e.Rating),
			output.WeightColor(e.Reward),
			fmt.Sprintf("%t", e.TaskSuccess),
			output.Truncate(e.Comment, 40),
		})
	}
	return table.Render()
}
