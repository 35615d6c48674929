package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/cro/internal/output"
	"github.com/joescharf/cro/internal/weighting"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show learned per-tip statistics and weights",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return weightsRun()
	},
}

func init() {
	rootCmd.AddCommand(weightsCmd)
}

func weightsRun() error {
	fb, err := getFeedbackStore()
	if err != nil {
		return err
	}
	snap := fb.Stats()
	alpha := viper.GetFloat64("weighting.alpha")

	ui.Info("%d feedback events, alpha %.2f", snap.Global.N, alpha)
	rows := weighting.Table(snap.TipStats, alpha)
	if len(rows) == 0 {
		ui.Info("No tips have been rated yet")
		return nil
	}

	table := ui.Table([]string{"Tip", "N", "Mean reward", "Trust", "Weight"})
	for _, r := range rows {
		_ = table.Append([]string{
			r.Tip,
			fmt.Sprintf("%d", r.N),
			fmt.Sprintf("%+.3f", r.MeanReward),
			fmt.Sprintf("%.0f%%", weighting.Shrink(r.N)*100),
			output.WeightColor(r.Weight),
		})
	}
	return table.Render()
}
