package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joescharf/cro/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an MCP client analyze pages, rate runs and inspect learned
weights. Configure it with:

  {
    "mcpServers": {
      "cro": { "command": "cro", "args": ["mcp"] }
    }
  }

Available tools: cro_analyze, cro_submit_feedback, cro_tip_weights,
cro_list_runs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol.
		ui.Out = os.Stderr

		a, fb, err := newAnalyzer("")
		if err != nil {
			return err
		}
		s, err := getStore()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals()...)
		defer stop()
		return mcp.NewServer(s, a, fb).ServeStdio(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
