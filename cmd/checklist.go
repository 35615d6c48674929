package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/cro/internal/checklist"
	"github.com/joescharf/cro/internal/output"
	"github.com/joescharf/cro/internal/weighting"
)

var checklistPath string

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Show the checklist in weighted order",
	Long: `Show the checklist in the order the next analysis will use, with each
tip's automation kind and learned weight.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checklistRun()
	},
}

func init() {
	checklistCmd.Flags().StringVar(&checklistPath, "checklist", "", "Checklist file (.xlsx, .csv, .yaml)")
	rootCmd.AddCommand(checklistCmd)
}

func checklistRun() error {
	a, fb, err := newAnalyzer(checklistPath)
	if err != nil {
		return err
	}
	weights := weighting.Weights(fb.Stats().TipStats, viper.GetFloat64("weighting.alpha"))
	cl := a.Checklist()

	table := ui.Table([]string{"#", "Category", "Tip", "Priority", "Type", "Check", "Weight"})
	for i, it := range cl.Items {
		name, _ := checklist.VerdictFor(it.CheckType)
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			it.Category,
			it.Tip,
			it.Priority,
			string(it.CheckType),
			string(name),
			output.WeightColor(weights[it.TipNorm]),
		})
	}
	return table.Render()
}
