package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joescharf/cro/internal/analyzer"
	"github.com/joescharf/cro/internal/checklist"
	"github.com/joescharf/cro/internal/feedback"
	"github.com/joescharf/cro/internal/metrics"
	"github.com/joescharf/cro/internal/models"
	"github.com/joescharf/cro/internal/report"
	"github.com/joescharf/cro/internal/store"
	"github.com/joescharf/cro/internal/weighting"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server provides the REST API handlers.
type Server struct {
	store    store.Store
	analyzer *analyzer.Analyzer
	feedback *feedback.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewServer creates a new API server. m may be nil to disable /metrics.
func NewServer(s store.Store, a *analyzer.Analyzer, fb *feedback.Store, m *metrics.Metrics) *Server {
	return &Server{
		store:    s,
		analyzer: a,
		feedback: fb,
		metrics:  m,
		logger:   slog.Default(),
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/analyze", s.analyze)

	mux.HandleFunc("GET /api/v1/runs", s.listRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", s.getRun)
	mux.HandleFunc("DELETE /api/v1/runs/{id}", s.deleteRun)
	mux.HandleFunc("GET /api/v1/runs/{id}/report", s.runReport)
	mux.HandleFunc("POST /api/v1/runs/{id}/feedback", s.submitFeedback)

	mux.HandleFunc("GET /api/v1/weights", s.weights)
	mux.HandleFunc("GET /api/v1/checklist", s.checklist)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return s.logRequests(corsMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store and validation errors to status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, feedback.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// --- Analyze ---

type analyzeRequest struct {
	URL  string   `json:"url"`
	URLs []string `json:"urls"`
	Save *bool    `json:"save"`
}

type batchResult struct {
	URL   string      `json:"url"`
	Run   *models.Run `json:"run,omitempty"`
	Error string      `json:"error,omitempty"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	save := req.Save == nil || *req.Save

	if len(req.URLs) == 0 {
		if strings.TrimSpace(req.URL) == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}
		run, err := s.analyzer.Analyze(r.Context(), req.URL)
		s.observe(run, err)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if save {
			if err := s.store.CreateRun(r.Context(), run); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusCreated, run)
		return
	}

	outcomes := s.analyzer.AnalyzeAll(r.Context(), req.URLs)
	results := make([]batchResult, 0, len(outcomes))
	for _, o := range outcomes {
		s.observe(o.Run, o.Err)
		res := batchResult{URL: o.URL, Run: o.Run}
		if o.Err == nil && save {
			if err := s.store.CreateRun(r.Context(), o.Run); err != nil {
				o.Err = err
			}
		}
		if o.Err != nil {
			res.Run = nil
			res.Error = o.Err.Error()
		}
		results = append(results, res)
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) observe(run *models.Run, err error) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.ObserveAnalysis(err, nil)
		return
	}
	s.metrics.ObserveAnalysis(nil, run.Summary.Score)
}

// --- Runs ---

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunListFilter{URL: r.URL.Query().Get("url")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRun(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runReport(w http.ResponseWriter, r *http.Request) {
	format := report.FormatMarkdown
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := report.ParseFormat(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, run, format); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="cro_report_`+run.ID+`.`+format.Extension()+`"`)
	_, _ = w.Write(buf.Bytes())
}

// --- Feedback ---

type feedbackRequest struct {
	Rating      int    `json:"rating"`
	TaskSuccess bool   `json:"task_success"`
	Comment     string `json:"comment"`
}

func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := feedback.Reward(req.Rating); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	event := feedback.EventForRun(run, req.Rating, req.TaskSuccess, req.Comment)
	if err := s.feedback.Record(event); err != nil {
		writeStoreError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveFeedback(event.Rating)
	}
	s.logger.Info("feedback recorded", "run", run.ID, "rating", event.Rating, "reward", event.Reward)
	writeJSON(w, http.StatusCreated, event)
}

// --- Weights & checklist ---

type weightsResponse struct {
	Alpha  float64               `json:"alpha"`
	Events int                   `json:"events"`
	Tips   []weighting.TipWeight `json:"tips"`
}

func (s *Server) weights(w http.ResponseWriter, r *http.Request) {
	snap := s.feedback.Stats()
	writeJSON(w, http.StatusOK, weightsResponse{
		Alpha:  s.analyzer.Alpha(),
		Events: snap.Global.N,
		Tips:   weighting.Table(snap.TipStats, s.analyzer.Alpha()),
	})
}

type checklistRow struct {
	models.ChecklistItem
	AutoCheck models.CheckName `json:"auto_check,omitempty"`
	Weight    float64          `json:"weight"`
}

func (s *Server) checklist(w http.ResponseWriter, r *http.Request) {
	weights := weighting.Weights(s.feedback.Stats().TipStats, s.analyzer.Alpha())
	cl := s.analyzer.Checklist()

	rows := make([]checklistRow, 0, cl.Len())
	for _, it := range cl.Items {
		name, _ := checklist.VerdictFor(it.CheckType)
		rows = append(rows, checklistRow{ChecklistItem: it, AutoCheck: name, Weight: weights[it.TipNorm]})
	}
	writeJSON(w, http.StatusOK, rows)
}
