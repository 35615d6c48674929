package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/cro/internal/analyzer"
	"github.com/joescharf/cro/internal/checklist"
	"github.com/joescharf/cro/internal/feedback"
	"github.com/joescharf/cro/internal/models"
	"github.com/joescharf/cro/internal/rules"
	"github.com/joescharf/cro/internal/store"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockStore implements store.Store in memory.
type mockStore struct {
	runs []*models.Run

	createErr error
	listErr   error
}

func (m *mockStore) CreateRun(_ context.Context, run *models.Run) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.runs = append(m.runs, run)
	return nil
}
func (m *mockStore) GetRun(_ context.Context, id string) (*models.Run, error) {
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("run %s: %w", id, store.ErrNotFound)
}
func (m *mockStore) ListRuns(_ context.Context, f store.RunListFilter) ([]*models.Run, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		r := m.runs[i]
		if f.URL != "" && r.URL != f.URL {
			continue
		}
		out = append(out, r)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}
func (m *mockStore) DeleteRun(_ context.Context, _ string) error { return nil }
func (m *mockStore) Migrate(_ context.Context) error             { return nil }
func (m *mockStore) Close() error                                { return nil }

type pageFetcher map[string]string

func (f pageFetcher) Fetch(_ context.Context, url string) (string, error) {
	html, ok := f[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: unexpected status 404 Not Found", url)
	}
	return html, nil
}

const landingPage = `<html><head><title>Pricing plans for small teams</title>
<meta name="viewport" content="width=device-width"><link rel="icon" href="/f.ico"></head>
<body><h1>Pricing</h1><a class="btn" href="/go">Start now</a></body></html>`

const landingURL = "https://example.com/pricing-plans"

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T) (*Server, *mockStore, *feedback.Store) {
	t.Helper()
	dir := t.TempDir()
	ms := &mockStore{}
	fb := feedback.NewStore(filepath.Join(dir, "feedback.jsonl"), filepath.Join(dir, "feedback_stats.json"))
	cl, err := checklist.Default()
	require.NoError(t, err)

	a := analyzer.New(pageFetcher{landingURL: landingPage}, rules.NewEngine(rules.DefaultConfig()), cl, fb, analyzer.Options{Alpha: 1})
	srv := NewServer(ms, a, fb)
	require.NotNil(t, srv)
	return srv, ms, fb
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcpgo.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target), "failed to parse result JSON: %s", text)
}

func analyze(t *testing.T, srv *Server) models.Run {
	t.Helper()
	result, err := srv.handleAnalyze(context.Background(), callToolReq("cro_analyze", map[string]any{"url": landingURL}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	var run models.Run
	resultJSON(t, result, &run)
	return run
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestNewServer(t *testing.T) {
	srv, _, _ := newTestServer(t)
	require.NotNil(t, srv.MCPServer(), "MCPServer() should return non-nil")
}

func TestHandleAnalyze(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	run := analyze(t, srv)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, landingURL, run.URL)
	assert.Len(t, run.Checks, 17)
	require.Len(t, ms.runs, 1)
	assert.Equal(t, run.ID, ms.runs[0].ID)
}

func TestHandleAnalyze_NoSave(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	result, err := srv.handleAnalyze(context.Background(), callToolReq("cro_analyze", map[string]any{"url": landingURL, "save": false}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Empty(t, ms.runs)
}

func TestHandleAnalyze_Markdown(t *testing.T) {
	srv, _, _ := newTestServer(t)
	result, err := srv.handleAnalyze(context.Background(), callToolReq("cro_analyze", map[string]any{"url": landingURL, "format": "markdown"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "# CRO Landing Page Report")
}

func TestHandleAnalyze_Errors(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	ctx := context.Background()

	result, err := srv.handleAnalyze(ctx, callToolReq("cro_analyze", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "url")

	result, err = srv.handleAnalyze(ctx, callToolReq("cro_analyze", map[string]any{"url": landingURL, "format": "html"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = srv.handleAnalyze(ctx, callToolReq("cro_analyze", map[string]any{"url": "https://missing.example.com/"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "analysis failed")

	ms.createErr = errors.New("disk full")
	result, err = srv.handleAnalyze(ctx, callToolReq("cro_analyze", map[string]any{"url": landingURL}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "disk full")
}

func TestHandleSubmitFeedback(t *testing.T) {
	srv, _, fb := newTestServer(t)
	run := analyze(t, srv)

	result, err := srv.handleSubmitFeedback(context.Background(), callToolReq("cro_submit_feedback", map[string]any{
		"run_id":       run.ID,
		"rating":       float64(1),
		"task_success": false,
		"comment":      "missed the hero copy",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var out struct {
		ID     string  `json:"id"`
		RunID  string  `json:"run_id"`
		Reward float64 `json:"reward"`
	}
	resultJSON(t, result, &out)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, run.ID, out.RunID)
	assert.Equal(t, -1.0, out.Reward)

	snap := fb.Stats()
	assert.Equal(t, 1, snap.Global.N)
	assert.Equal(t, -1.0, snap.TipStats["sticky cta"].MeanReward)
}

func TestHandleSubmitFeedback_Errors(t *testing.T) {
	srv, _, fb := newTestServer(t)
	run := analyze(t, srv)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing run", map[string]any{"rating": float64(3)}, "run_id"},
		{"missing rating", map[string]any{"run_id": run.ID}, "rating"},
		{"fractional rating", map[string]any{"run_id": run.ID, "rating": 3.5}, "rating must be"},
		{"out of range", map[string]any{"run_id": run.ID, "rating": float64(9)}, "rating must be"},
		{"unknown run", map[string]any{"run_id": "nope", "rating": float64(3)}, "run not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleSubmitFeedback(ctx, callToolReq("cro_submit_feedback", tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}

	events, err := fb.Events()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestHandleTipWeights(t *testing.T) {
	srv, _, fb := newTestServer(t)
	run := analyze(t, srv)

	stored := &models.Run{ID: run.ID, URL: run.URL, Checks: run.Checks}
	for i := 0; i < 5; i++ {
		require.NoError(t, fb.Record(feedback.EventForRun(stored, 5, true, "")))
	}

	result, err := srv.handleTipWeights(context.Background(), callToolReq("cro_tip_weights", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out struct {
		Alpha  float64 `json:"alpha"`
		Events int     `json:"events"`
		Tips   []struct {
			Tip    string  `json:"tip"`
			N      int     `json:"n"`
			Weight float64 `json:"weight"`
		} `json:"tips"`
	}
	resultJSON(t, result, &out)
	assert.Equal(t, 5, out.Events)
	require.Len(t, out.Tips, 17)
	assert.Equal(t, 5, out.Tips[0].N)
	assert.InDelta(t, 0.5, out.Tips[0].Weight, 1e-9)
}

func TestHandleListRuns(t *testing.T) {
	srv, ms, _ := newTestServer(t)
	first := analyze(t, srv)
	second := analyze(t, srv)

	result, err := srv.handleListRuns(context.Background(), callToolReq("cro_list_runs", nil))
	require.NoError(t, err)
	var out []struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	resultJSON(t, result, &out)
	require.Len(t, out, 2)
	assert.Equal(t, second.ID, out[0].ID)
	assert.Equal(t, first.ID, out[1].ID)

	result, err = srv.handleListRuns(context.Background(), callToolReq("cro_list_runs", map[string]any{"limit": float64(1)}))
	require.NoError(t, err)
	resultJSON(t, result, &out)
	assert.Len(t, out, 1)

	ms.listErr = errors.New("locked")
	result, err = srv.handleListRuns(context.Background(), callToolReq("cro_list_runs", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
