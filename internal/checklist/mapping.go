package checklist

import (
	"strings"

	"github.com/joescharf/cro/internal/models"
)

// tipTypes maps normalized checklist labels to their automation kind.
// Labels not listed here are manual.
var tipTypes = map[string]models.CheckType{
	"logische url":                            models.CheckTypeURLReadable,
	"mobiele responsiviteit":                  models.CheckTypeViewport,
	"favicon":                                 models.CheckTypeFavicon,
	"inhoud boven de vouw":                    models.CheckTypeCTAAboveFold,
	"laadsnelheid van pagina":                 models.CheckTypeSpeedManual,
	"compatibiliteit tussen browsers":         models.CheckTypeManual,
	"sticky cta":                              models.CheckTypeStickyManual,
	"leadmeldingswaarschuwingen":              models.CheckTypeManual,
	"duidelijke berichten in de hero-sectie":  models.CheckTypeManual,
	"productiekwaliteit en professionaliteit": models.CheckTypeManual,
}

// typeVerdicts maps automated kinds to the check whose verdict they take.
var typeVerdicts = map[models.CheckType]models.CheckName{
	models.CheckTypeURLReadable:  models.CheckURLReadable,
	models.CheckTypeViewport:     models.CheckViewport,
	models.CheckTypeFavicon:      models.CheckFavicon,
	models.CheckTypeCTAAboveFold: models.CheckCTAAboveFold,
}

var knownTypes = map[models.CheckType]bool{
	models.CheckTypeURLReadable:  true,
	models.CheckTypeViewport:     true,
	models.CheckTypeFavicon:      true,
	models.CheckTypeCTAAboveFold: true,
	models.CheckTypeSpeedManual:  true,
	models.CheckTypeStickyManual: true,
	models.CheckTypeManual:       true,
	models.CheckTypeAuto:         true,
}

// NormalizeTip returns the join key for a checklist label: lower case with
// whitespace runs collapsed and the ends trimmed.
func NormalizeTip(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// TypeForTip looks up the automation kind of a normalized label.
func TypeForTip(tipNorm string) models.CheckType {
	if t, ok := tipTypes[tipNorm]; ok {
		return t
	}
	return models.CheckTypeManual
}

// VerdictFor returns the check an automated kind reads its result from.
func VerdictFor(t models.CheckType) (models.CheckName, bool) {
	name, ok := typeVerdicts[t]
	return name, ok
}

// ParseCheckType normalizes an explicit check type cell. ok is false for
// values outside the known set; the value is still returned so the merge
// step can treat it as an unmapped kind.
func ParseCheckType(s string) (t models.CheckType, ok bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "-", "_")
	v = strings.ReplaceAll(v, " ", "_")
	t = models.CheckType(v)
	return t, knownTypes[t]
}
