package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/cro/internal/analyzer"
	"github.com/joescharf/cro/internal/checklist"
	"github.com/joescharf/cro/internal/feedback"
	"github.com/joescharf/cro/internal/metrics"
	"github.com/joescharf/cro/internal/models"
	"github.com/joescharf/cro/internal/rules"
	"github.com/joescharf/cro/internal/store"
)

const testPage = `<html><head><title>Pricing plans for small teams</title>
<meta name="viewport" content="width=device-width"><link rel="icon" href="/f.ico"></head>
<body><h1>Pricing</h1><a class="btn" href="/go">Start now</a></body></html>`

type pageFetcher map[string]string

func (f pageFetcher) Fetch(_ context.Context, url string) (string, error) {
	html, ok := f[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: unexpected status 404 Not Found", url)
	}
	return html, nil
}

func setupTestServer(t *testing.T) (*Server, store.Store, *feedback.Store) {
	t.Helper()
	dir := t.TempDir()

	s, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	fb := feedback.NewStore(filepath.Join(dir, "feedback.jsonl"), filepath.Join(dir, "feedback_stats.json"))
	cl, err := checklist.Default()
	require.NoError(t, err)

	pages := pageFetcher{"https://example.com/pricing-plans": testPage}
	a := analyzer.New(pages, rules.NewEngine(rules.DefaultConfig()), cl, fb, analyzer.Options{Alpha: 1})

	return NewServer(s, a, fb, metrics.New()), s, fb
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func analyzeOne(t *testing.T, h http.Handler) models.Run {
	t.Helper()
	w := do(t, h, "POST", "/api/v1/analyze", `{"url":"https://example.com/pricing-plans"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var run models.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	return run
}

func TestAnalyze_SavesRun(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	router := srv.Router()

	run := analyzeOne(t, router)
	assert.NotEmpty(t, run.ID)
	assert.Len(t, run.Checks, 17)
	require.NotNil(t, run.Summary.Score)

	saved, err := st.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Checks, saved.Checks)
}

func TestAnalyze_NoSave(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	router := srv.Router()

	w := do(t, router, "POST", "/api/v1/analyze", `{"url":"https://example.com/pricing-plans","save":false}`)
	require.Equal(t, http.StatusCreated, w.Code)

	runs, err := st.ListRuns(context.Background(), store.RunListFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestAnalyze_Validation(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	router := srv.Router()

	assert.Equal(t, http.StatusBadRequest, do(t, router, "POST", "/api/v1/analyze", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, "POST", "/api/v1/analyze", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, "POST", "/api/v1/analyze", `{"link":"x"}`).Code)
}

func TestAnalyze_FetchFailure(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	w := do(t, srv.Router(), "POST", "/api/v1/analyze", `{"url":"https://missing.example.com/"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "404")
}

func TestAnalyze_Batch(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	w := do(t, srv.Router(), "POST", "/api/v1/analyze",
		`{"urls":["https://example.com/pricing-plans","https://missing.example.com/"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var results []batchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.NotNil(t, results[0].Run)
	assert.Empty(t, results[0].Error)
	assert.Nil(t, results[1].Run)
	assert.Contains(t, results[1].Error, "404")
}

func TestRuns_ListGetDelete(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	router := srv.Router()

	w := do(t, router, "GET", "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	run := analyzeOne(t, router)

	w = do(t, router, "GET", "/api/v1/runs?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []models.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	assert.Equal(t, http.StatusBadRequest, do(t, router, "GET", "/api/v1/runs?limit=abc", "").Code)

	assert.Equal(t, http.StatusOK, do(t, router, "GET", "/api/v1/runs/"+run.ID, "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, router, "DELETE", "/api/v1/runs/"+run.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, "GET", "/api/v1/runs/"+run.ID, "").Code)
}

func TestRunReport(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	router := srv.Router()
	run := analyzeOne(t, router)

	w := do(t, router, "GET", "/api/v1/runs/"+run.ID+"/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown"))
	assert.Contains(t, w.Body.String(), "# CRO Landing Page Report")

	w = do(t, router, "GET", "/api/v1/runs/"+run.ID+"/report?format=html", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".html")

	assert.Equal(t, http.StatusBadRequest, do(t, router, "GET", "/api/v1/runs/"+run.ID+"/report?format=pdf", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, "GET", "/api/v1/runs/nope/report", "").Code)
}

func TestSubmitFeedback(t *testing.T) {
	srv, _, fb := setupTestServer(t)
	router := srv.Router()
	run := analyzeOne(t, router)

	w := do(t, router, "POST", "/api/v1/runs/"+run.ID+"/feedback", `{"rating":5,"task_success":true,"comment":"great"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var event models.FeedbackEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	assert.Equal(t, 1.0, event.Reward)
	assert.Equal(t, run.ID, event.RunID)

	snap := fb.Stats()
	assert.Equal(t, 1, snap.Global.N)
	assert.Equal(t, 1, snap.TipStats["favicon"].N)
	assert.Equal(t, 1.0, snap.TipStats["favicon"].MeanReward)
}

func TestSubmitFeedback_Errors(t *testing.T) {
	srv, _, fb := setupTestServer(t)
	router := srv.Router()
	run := analyzeOne(t, router)

	for _, rating := range []int{0, 6} {
		w := do(t, router, "POST", "/api/v1/runs/"+run.ID+"/feedback", fmt.Sprintf(`{"rating":%d}`, rating))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w := do(t, router, "POST", "/api/v1/runs/nope/feedback", `{"rating":3}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	events, err := fb.Events()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWeightsAndChecklist(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	router := srv.Router()
	run := analyzeOne(t, router)

	for i := 0; i < 10; i++ {
		w := do(t, router, "POST", "/api/v1/runs/"+run.ID+"/feedback", `{"rating":5}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(t, router, "GET", "/api/v1/weights", "")
	require.Equal(t, http.StatusOK, w.Code)
	var weights weightsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &weights))
	assert.Equal(t, 10, weights.Events)
	assert.Equal(t, 1.0, weights.Alpha)
	require.NotEmpty(t, weights.Tips)
	assert.InDelta(t, 1.0, weights.Tips[0].Weight, 1e-9)

	w = do(t, router, "GET", "/api/v1/checklist", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []checklistRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 10)
	for _, r := range rows {
		assert.InDelta(t, 1.0, r.Weight, 1e-9, r.TipNorm)
	}
	assert.Equal(t, models.CheckViewport, rows[1].AutoCheck)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	router := srv.Router()
	analyzeOne(t, router)

	w := do(t, router, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cro_analyses_total{outcome="ok"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	w := do(t, srv.Router(), "OPTIONS", "/api/v1/runs", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
