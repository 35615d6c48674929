package rules

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joescharf/cro/internal/document"
	"github.com/joescharf/cro/internal/models"
)

var trackerMarkers = []string{"gtag(", "googletagmanager.com", "fbq(", "clarity(", "hotjar", "datalayer"}

var (
	schemeRE  = regexp.MustCompile(`https?://`)
	urlWordRE = regexp.MustCompile(`[a-z0-9\-]+`)
)

func verdict(name models.CheckName, result models.Result, evidence string) models.Verdict {
	return models.Verdict{Name: name, Result: result, Evidence: evidence}
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// TitleLength passes when the normalized title is 10-65 characters long.
func TitleLength(p Page) models.Verdict {
	t := document.NormalizeText(p.Title())
	l := utf8.RuneCountInString(t)
	res := models.ResultPass
	if l < 10 || l > 65 {
		res = models.ResultWarn
	}
	return verdict(models.CheckTitleLength, res, fmt.Sprintf("%d chars: %s", l, truncate(t, 120)))
}

// MetaDescription fails without a description and warns outside 50-160 characters.
func MetaDescription(p Page) models.Verdict {
	content, _ := p.Meta("description")
	d := document.NormalizeText(content)
	if d == "" {
		return verdict(models.CheckMetaDescription, models.ResultFail, "Not found")
	}
	l := utf8.RuneCountInString(d)
	res := models.ResultPass
	if l < 50 || l > 160 {
		res = models.ResultWarn
	}
	return verdict(models.CheckMetaDescription, res, fmt.Sprintf("%d chars: %s", l, truncate(d, 160)))
}

// H1Presence fails when the page has no <h1>.
func H1Presence(p Page) models.Verdict {
	h1s := p.Headings(1)
	if len(h1s) == 0 {
		return verdict(models.CheckH1Present, models.ResultFail, "No H1 found")
	}
	shown := h1s
	if len(shown) > 3 {
		shown = shown[:3]
	}
	return verdict(models.CheckH1Present, models.ResultPass, fmt.Sprintf("H1(s): %q", shown))
}

// Viewport fails without a viewport meta tag and warns unless it sets width=device-width.
func Viewport(p Page) models.Verdict {
	content, found := p.Meta("viewport")
	if !found {
		return verdict(models.CheckViewport, models.ResultFail, "Missing meta viewport")
	}
	content = strings.ToLower(content)
	res := models.ResultWarn
	if strings.Contains(content, "width=device-width") {
		res = models.ResultPass
	}
	return verdict(models.CheckViewport, res, content)
}

func findLink(p Page, relToken string) (document.HeadLink, bool) {
	for _, l := range p.HeadLinks() {
		if strings.Contains(strings.ToLower(l.Rel), relToken) {
			return l, true
		}
	}
	return document.HeadLink{}, false
}

// Favicon warns when no <link rel*=icon> exists.
func Favicon(p Page) models.Verdict {
	l, ok := findLink(p, "icon")
	if !ok {
		return verdict(models.CheckFavicon, models.ResultWarn, "No <link rel='icon'> found")
	}
	return verdict(models.CheckFavicon, models.ResultPass, truncate(l.HTML, 140))
}

// Canonical warns when no canonical link exists. The tag is optional.
func Canonical(p Page) models.Verdict {
	l, ok := findLink(p, "canonical")
	if !ok {
		return verdict(models.CheckCanonical, models.ResultWarn, "Missing <link rel='canonical'> (optional)")
	}
	return verdict(models.CheckCanonical, models.ResultPass, l.Href)
}

// ImageAlts grades the share of images with a non-empty alt text.
// A page without images passes.
func ImageAlts(p Page) models.Verdict {
	imgs := p.Images()
	if len(imgs) == 0 {
		return verdict(models.CheckImageAlts, models.ResultPass, "No <img> tags")
	}
	withAlt := 0
	for _, img := range imgs {
		if strings.TrimSpace(img.Alt) != "" {
			withAlt++
		}
	}
	pct := float64(withAlt) / float64(len(imgs)) * 100
	res := models.ResultFail
	switch {
	case pct >= 80:
		res = models.ResultPass
	case pct >= 50:
		res = models.ResultWarn
	}
	return verdict(models.CheckImageAlts, res, fmt.Sprintf("%d/%d (%.0f%%) have alt", withAlt, len(imgs), pct))
}

// CTAAboveFold looks for a call-to-action link in the first foldChars
// characters of the serialized body.
func CTAAboveFold(p Page, foldChars int, words []string) models.Verdict {
	snippet := truncate(p.BodyHTML(), foldChars)
	found := false
	if early, err := document.ParseString(snippet); err == nil {
		for _, a := range early.Anchors() {
			if IsCTALike(a, words) {
				found = true
				break
			}
		}
	}
	if found {
		return verdict(models.CheckCTAAboveFold, models.ResultPass, "Found early CTA")
	}
	return verdict(models.CheckCTAAboveFold, models.ResultWarn, "Not detected early")
}

// IsCTALike scores a link: a button-ish role or class, an action word in the
// text, or a mailto/#contact target each count one point. One point is enough.
func IsCTALike(a document.Anchor, words []string) bool {
	text := strings.ToLower(strings.TrimSpace(a.Text))
	class := strings.ToLower(strings.Join(a.Classes, " "))
	role := strings.ToLower(a.Role)
	href := strings.ToLower(a.Href)

	score := 0
	if strings.Contains(role, "button") || strings.Contains(class, "button") || strings.Contains(class, "btn") {
		score++
	}
	for _, w := range words {
		if w != "" && strings.Contains(text, strings.ToLower(w)) {
			score++
			break
		}
	}
	if strings.HasPrefix(href, "#contact") || strings.HasPrefix(href, "mailto:") {
		score++
	}
	return score >= 1
}

// FormsLabels passes when forms exist and there is at least one label per
// three form controls, rounded up.
func FormsLabels(p Page) models.Verdict {
	forms, inputs, labels := p.Forms(), p.FormControls(), p.Labels()
	if forms == 0 || inputs == 0 {
		return verdict(models.CheckFormsLabels, models.ResultWarn, "No forms/inputs detected")
	}
	need := int(math.Ceil(float64(inputs) / 3))
	res := models.ResultWarn
	if labels >= max(1, need) {
		res = models.ResultPass
	}
	return verdict(models.CheckFormsLabels, res, fmt.Sprintf("forms=%d, inputs=%d, labels=%d", forms, inputs, labels))
}

// Analytics passes when a known tracker shows up in any script src or body.
func Analytics(p Page) models.Verdict {
	var parts []string
	for _, s := range p.Scripts() {
		parts = append(parts, s.Src+" "+s.Text)
	}
	all := strings.ToLower(strings.Join(parts, " "))
	for _, m := range trackerMarkers {
		if strings.Contains(all, m) {
			return verdict(models.CheckAnalytics, models.ResultPass, "Detected common tracker")
		}
	}
	return verdict(models.CheckAnalytics, models.ResultWarn, "No tracker detected")
}

// URLReadability scores the raw URL on path length, absence of a query
// string, and readable path words. Two of three points pass.
func URLReadability(rawURL string) models.Verdict {
	path := schemeRE.ReplaceAllString(rawURL, "")
	if i := strings.Index(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	pathLen := utf8.RuneCountInString(path)
	hasQuery := strings.Contains(rawURL, "?")
	wordy := 0
	for _, w := range urlWordRE.FindAllString(strings.ToLower(path), -1) {
		if len(w) >= 3 {
			wordy++
		}
	}

	score := 0
	if pathLen <= 80 {
		score++
	}
	if !hasQuery {
		score++
	}
	if wordy >= 2 {
		score++
	}

	res := models.ResultWarn
	if score >= 2 {
		res = models.ResultPass
	}
	query := "no"
	if hasQuery {
		query = "yes"
	}
	return verdict(models.CheckURLReadable, res, fmt.Sprintf("path_len=%d, query=%s, words≥3=%d", pathLen, query, wordy))
}
