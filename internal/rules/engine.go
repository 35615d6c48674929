// Package rules holds the automated landing page checks. Every check is a
// pure function of the page (or the raw URL) and returns exactly one verdict.
package rules

import (
	"slices"

	"github.com/joescharf/cro/internal/document"
	"github.com/joescharf/cro/internal/models"
)

// Page is the parsed document surface the checks read from.
type Page interface {
	Title() string
	Meta(name string) (content string, found bool)
	HeadLinks() []document.HeadLink
	Headings(level int) []string
	Images() []document.Image
	Forms() int
	FormControls() int
	Labels() int
	Scripts() []document.Script
	BodyHTML() string
}

// DefaultFoldChars is how much of the serialized body counts as "above the fold".
const DefaultFoldChars = 2000

// DefaultCTAWords is the action-word list used to recognise call-to-action links.
var DefaultCTAWords = []string{
	"start", "gratis", "free", "try", "proef", "demo", "offerte", "aanvraag",
	"koop", "bestel", "aanmelden", "download", "inschrijven", "contact",
	"quote", "order", "subscribe", "buy", "sign up",
}

// Config tunes the engine.
type Config struct {
	FoldChars int
	CTAWords  []string
	Disabled  []models.CheckName
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		FoldChars: DefaultFoldChars,
		CTAWords:  slices.Clone(DefaultCTAWords),
	}
}

// Engine runs the enabled checks against a page.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine. Zero values in cfg fall back to the defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.FoldChars <= 0 {
		cfg.FoldChars = DefaultFoldChars
	}
	if len(cfg.CTAWords) == 0 {
		cfg.CTAWords = slices.Clone(DefaultCTAWords)
	}
	return &Engine{cfg: cfg}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

type namedCheck struct {
	name models.CheckName
	run  func(p Page, rawURL string) models.Verdict
}

func (e *Engine) checks() []namedCheck {
	return []namedCheck{
		{models.CheckTitleLength, func(p Page, _ string) models.Verdict { return TitleLength(p) }},
		{models.CheckMetaDescription, func(p Page, _ string) models.Verdict { return MetaDescription(p) }},
		{models.CheckH1Present, func(p Page, _ string) models.Verdict { return H1Presence(p) }},
		{models.CheckViewport, func(p Page, _ string) models.Verdict { return Viewport(p) }},
		{models.CheckFavicon, func(p Page, _ string) models.Verdict { return Favicon(p) }},
		{models.CheckCanonical, func(p Page, _ string) models.Verdict { return Canonical(p) }},
		{models.CheckImageAlts, func(p Page, _ string) models.Verdict { return ImageAlts(p) }},
		{models.CheckCTAAboveFold, func(p Page, _ string) models.Verdict { return CTAAboveFold(p, e.cfg.FoldChars, e.cfg.CTAWords) }},
		{models.CheckFormsLabels, func(p Page, _ string) models.Verdict { return FormsLabels(p) }},
		{models.CheckAnalytics, func(p Page, _ string) models.Verdict { return Analytics(p) }},
		{models.CheckURLReadable, func(_ Page, rawURL string) models.Verdict { return URLReadability(rawURL) }},
	}
}

// Run evaluates every enabled check in a fixed order.
func (e *Engine) Run(p Page, rawURL string) []models.Verdict {
	var verdicts []models.Verdict
	for _, c := range e.checks() {
		if slices.Contains(e.cfg.Disabled, c.name) {
			continue
		}
		verdicts = append(verdicts, c.run(p, rawURL))
	}
	return verdicts
}
