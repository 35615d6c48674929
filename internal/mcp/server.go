package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/cro/internal/analyzer"
	"github.com/joescharf/cro/internal/feedback"
	"github.com/joescharf/cro/internal/models"
	"github.com/joescharf/cro/internal/report"
	"github.com/joescharf/cro/internal/store"
	"github.com/joescharf/cro/internal/weighting"
)

// Server exposes the analyzer, run history and feedback store as MCP tools.
type Server struct {
	store    store.Store
	analyzer *analyzer.Analyzer
	feedback *feedback.Store
	logger   *slog.Logger
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(s store.Store, a *analyzer.Analyzer, fb *feedback.Store) *Server {
	return &Server{
		store:    s,
		analyzer: a,
		feedback: fb,
		logger:   slog.Default(),
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("cro", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.analyzeTool())
	srv.AddTool(s.submitFeedbackTool())
	srv.AddTool(s.tipWeightsTool())
	srv.AddTool(s.listRunsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// cro_analyze
func (s *Server) analyzeTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("cro_analyze",
		mcp.WithDescription("Fetch a landing page and evaluate it against the CRO checklist. Returns the run (id, summary with score and counts, ordered checks) as JSON, or a rendered report when format is markdown or csv."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Landing page URL")),
		mcp.WithString("format", mcp.Description("Output format: json (default), markdown or csv")),
		mcp.WithBoolean("save", mcp.Description("Persist the run so it can receive feedback (default true)")),
	)
	return tool, s.handleAnalyze
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil || url == "" {
		return mcp.NewToolResultError("missing required parameter: url"), nil
	}

	format := report.FormatJSON
	if v := request.GetString("format", ""); v != "" {
		f, err := report.ParseFormat(v)
		if err != nil || f == report.FormatHTML {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported format: %s", v)), nil
		}
		format = f
	}

	run, err := s.analyzer.Analyze(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	if request.GetBool("save", true) {
		if err := s.store.CreateRun(ctx, run); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save run: %v", err)), nil
		}
	}

	if format == report.FormatJSON {
		return jsonResult(run)
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, run, format); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render report: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// cro_submit_feedback
func (s *Server) submitFeedbackTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("cro_submit_feedback",
		mcp.WithDescription("Rate a stored analysis run from 1 (useless) to 5 (very useful). The rating updates the learned weight of every checklist tip in the run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID returned by cro_analyze")),
		mcp.WithNumber("rating", mcp.Required(), mcp.Description("Integer rating 1-5")),
		mcp.WithBoolean("task_success", mcp.Description("Whether the report helped complete the task")),
		mcp.WithString("comment", mcp.Description("Free-text comment")),
	)
	return tool, s.handleSubmitFeedback
}

func (s *Server) handleSubmitFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := request.RequireString("run_id")
	if err != nil || runID == "" {
		return mcp.NewToolResultError("missing required parameter: run_id"), nil
	}
	rating, err := request.RequireFloat("rating")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: rating"), nil
	}
	if rating != float64(int(rating)) {
		return mcp.NewToolResultError(fmt.Sprintf("%v: got %v", feedback.ErrInvalidRating, rating)), nil
	}

	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("run not found: %s", runID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load run: %v", err)), nil
	}

	event := feedback.EventForRun(run, int(rating), request.GetBool("task_success", false), request.GetString("comment", ""))
	if err := s.feedback.Record(event); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record feedback: %v", err)), nil
	}
	s.logger.Info("feedback recorded", "run", run.ID, "rating", event.Rating)

	return jsonResult(map[string]any{
		"id":     event.ID,
		"run_id": event.RunID,
		"rating": event.Rating,
		"reward": event.Reward,
		"ts":     event.Timestamp,
	})
}

// cro_tip_weights
func (s *Server) tipWeightsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("cro_tip_weights",
		mcp.WithDescription("List learned per-tip statistics (sample count, mean reward) and the resulting weights, heaviest first."),
	)
	return tool, s.handleTipWeights
}

func (s *Server) handleTipWeights(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.feedback.Stats()
	return jsonResult(map[string]any{
		"alpha":  s.analyzer.Alpha(),
		"events": snap.Global.N,
		"tips":   weighting.Table(snap.TipStats, s.analyzer.Alpha()),
	})
}

// cro_list_runs
func (s *Server) listRunsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("cro_list_runs",
		mcp.WithDescription("List stored analysis runs, newest first, with id, url, score, counts and created_at."),
		mcp.WithString("url", mcp.Description("Only runs of this exact URL")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	)
	return tool, s.handleListRuns
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.store.ListRuns(ctx, store.RunListFilter{
		URL:   request.GetString("url", ""),
		Limit: request.GetInt("limit", 20),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}

	type runOut struct {
		ID        string                `json:"id"`
		URL       string                `json:"url"`
		Score     *float64              `json:"score"`
		Counts    map[models.Result]int `json:"counts"`
		CreatedAt string                `json:"created_at"`
	}
	out := make([]runOut, len(runs))
	for i, r := range runs {
		out[i] = runOut{
			ID:        r.ID,
			URL:       r.URL,
			Score:     r.Summary.Score,
			Counts:    r.Summary.Counts,
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	return jsonResult(out)
}
