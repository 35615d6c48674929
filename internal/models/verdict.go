package models

// CheckName is the stable identifier of an automated check.
type CheckName string

const (
	CheckTitleLength     CheckName = "title-length"
	CheckMetaDescription CheckName = "meta-description"
	CheckH1Present       CheckName = "h1-present"
	CheckViewport        CheckName = "viewport"
	CheckFavicon         CheckName = "favicon"
	CheckCanonical       CheckName = "canonical"
	CheckImageAlts       CheckName = "image-alts"
	CheckCTAAboveFold    CheckName = "cta-above-fold"
	CheckFormsLabels     CheckName = "forms-labels"
	CheckAnalytics       CheckName = "analytics"
	CheckURLReadable     CheckName = "url-readable"
)

// CheckNames lists the automated checks in the order the engine runs them.
var CheckNames = []CheckName{
	CheckTitleLength,
	CheckMetaDescription,
	CheckH1Present,
	CheckViewport,
	CheckFavicon,
	CheckCanonical,
	CheckImageAlts,
	CheckCTAAboveFold,
	CheckFormsLabels,
	CheckAnalytics,
	CheckURLReadable,
}

var checkLabels = map[CheckName]string{
	CheckTitleLength:     "Title length 10–65",
	CheckMetaDescription: "Meta description 50–160",
	CheckH1Present:       "H1 present",
	CheckViewport:        "Mobile responsiveness meta",
	CheckFavicon:         "Favicon link",
	CheckCanonical:       "Canonical link",
	CheckImageAlts:       "Image alts coverage",
	CheckCTAAboveFold:    "CTA above the fold (approx.)",
	CheckFormsLabels:     "Forms & labels present",
	CheckAnalytics:       "Analytics/trust snippet",
	CheckURLReadable:     "Logical, readable URL",
}

// Label returns the human-readable name of the check.
func (c CheckName) Label() string {
	if l, ok := checkLabels[c]; ok {
		return l
	}
	return string(c)
}

// Valid reports whether c is one of the known checks.
func (c CheckName) Valid() bool {
	_, ok := checkLabels[c]
	return ok
}

// Verdict is one rule engine result. Result is always PASS, WARN or FAIL.
type Verdict struct {
	Name     CheckName `json:"name"`
	Result   Result    `json:"result"`
	Evidence string    `json:"evidence"`
}
