// Package analyzer runs one landing page through the full evaluation:
// fetch, parse, rule engine, weighted checklist, merge and score.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/joescharf/cro/internal/checklist"
	"github.com/joescharf/cro/internal/document"
	"github.com/joescharf/cro/internal/feedback"
	"github.com/joescharf/cro/internal/models"
	"github.com/joescharf/cro/internal/rules"
	"github.com/joescharf/cro/internal/scoring"
	"github.com/joescharf/cro/internal/weighting"
)

// DefaultConcurrency bounds AnalyzeAll when Options.Concurrency is unset.
const DefaultConcurrency = 4

// Fetcher returns the HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// StatsSource supplies the learned tip statistics used for reordering.
type StatsSource interface {
	Stats() *feedback.Snapshot
}

// Options tunes an Analyzer.
type Options struct {
	Alpha       float64
	Concurrency int
	Logger      *slog.Logger
}

// Analyzer evaluates pages against a checklist.
type Analyzer struct {
	fetcher   Fetcher
	engine    *rules.Engine
	checklist *checklist.Checklist
	stats     StatsSource
	opts      Options

	now func() time.Time
}

// New returns an Analyzer. stats may be nil, in which case every tip weighs 0.
func New(f Fetcher, engine *rules.Engine, cl *checklist.Checklist, stats StatsSource, opts Options) *Analyzer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Analyzer{
		fetcher:   f,
		engine:    engine,
		checklist: cl,
		stats:     stats,
		opts:      opts,
		now:       time.Now,
	}
}

// Alpha returns the weighting strength.
func (a *Analyzer) Alpha() float64 {
	return a.opts.Alpha
}

// Checklist returns the checklist in its current weighted order.
func (a *Analyzer) Checklist() *checklist.Checklist {
	return weighting.Reorder(a.checklist, a.weights())
}

// Analyze fetches url and evaluates it.
func (a *Analyzer) Analyze(ctx context.Context, url string) (*models.Run, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}

	start := a.now()
	html, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		a.opts.Logger.Warn("fetch failed", "url", url, "error", err)
		return nil, err
	}

	run, err := a.AnalyzeHTML(url, html)
	if err != nil {
		return nil, err
	}
	a.opts.Logger.Info("analyzed page",
		"url", url,
		"rows", len(run.Checks),
		"elapsed", a.now().Sub(start).Round(time.Millisecond),
	)
	return run, nil
}

// AnalyzeHTML evaluates already-fetched markup as if it were served at url.
func (a *Analyzer) AnalyzeHTML(url, html string) (*models.Run, error) {
	doc, err := document.ParseString(html)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	verdicts := a.engine.Run(doc, url)
	ordered := weighting.Reorder(a.checklist, a.weights())
	rows := scoring.Merge(ordered.Items, verdicts)

	return &models.Run{
		ID:        ulid.Make().String(),
		URL:       url,
		Summary:   scoring.Summarize(url, rows),
		Checks:    rows,
		CreatedAt: a.now().UTC(),
	}, nil
}

// Outcome is the result of one URL in a batch.
type Outcome struct {
	URL string
	Run *models.Run
	Err error
}

// AnalyzeAll evaluates urls with bounded concurrency. A failing URL does
// not stop the others; outcomes come back in input order.
func (a *Analyzer) AnalyzeAll(ctx context.Context, urls []string) []Outcome {
	out := make([]Outcome, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			run, err := a.Analyze(ctx, u)
			out[i] = Outcome{URL: u, Run: run, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (a *Analyzer) weights() map[string]float64 {
	if a.stats == nil {
		return nil
	}
	snap := a.stats.Stats()
	if snap == nil {
		return nil
	}
	return weighting.Weights(snap.TipStats, a.opts.Alpha)
}
