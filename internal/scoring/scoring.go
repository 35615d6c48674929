// Package scoring joins rule engine verdicts to checklist items and
// computes the aggregate score of the merged rows.
package scoring

import (
	"math"

	"github.com/joescharf/cro/internal/checklist"
	"github.com/joescharf/cro/internal/models"
)

// Evidence used for rows that need a human.
const (
	EvidenceReviewRecommended = "Manual review recommended (cannot be fully automated)."
	EvidenceManual            = "Manual assessment needed (content/UX/technical)."
)

// resultValues maps results to score contributions. N/A is absent on
// purpose: those rows count neither up nor down.
var resultValues = map[models.Result]float64{
	models.ResultPass:   1.0,
	models.ResultWarn:   0.5,
	models.ResultFail:   0.0,
	models.ResultReview: 0.5,
}

// Merge produces one row per checklist item, in checklist order, followed by
// one row for every verdict no item consumed.
func Merge(items []models.ChecklistItem, verdicts []models.Verdict) []models.CheckRow {
	byName := make(map[models.CheckName]models.Verdict, len(verdicts))
	for _, v := range verdicts {
		byName[v.Name] = v
	}
	consumed := make(map[models.CheckName]bool)

	rows := make([]models.CheckRow, 0, len(items)+len(verdicts))
	for _, it := range items {
		row := models.CheckRow{
			Category:    it.Category,
			Tip:         it.Tip,
			TipNorm:     it.TipNorm,
			Priority:    it.Priority,
			Difficulty:  it.Difficulty,
			Explanation: it.Explanation,
			CheckType:   it.CheckType,
			Result:      models.ResultNA,
		}

		switch {
		case it.CheckType == models.CheckTypeManual:
			row.Result = models.ResultReview
			row.Evidence = EvidenceManual
		default:
			name, mapped := checklist.VerdictFor(it.CheckType)
			v, live := byName[name]
			switch {
			case mapped && live:
				row.Result = v.Result
				row.Evidence = v.Evidence
				row.AutoCheck = v.Name
				consumed[v.Name] = true
			case mapped, it.CheckType.IsReviewVariant():
				row.Result = models.ResultReview
				row.Evidence = EvidenceReviewRecommended
			}
		}
		rows = append(rows, row)
	}

	for _, v := range verdicts {
		if consumed[v.Name] {
			continue
		}
		label := v.Name.Label()
		rows = append(rows, models.CheckRow{
			Category:  models.ExtraCategory,
			Tip:       label,
			TipNorm:   checklist.NormalizeTip(label),
			CheckType: models.CheckTypeAuto,
			Result:    v.Result,
			Evidence:  v.Evidence,
			AutoCheck: v.Name,
		})
	}
	return rows
}

// Score is the mean contribution over all rows except N/A. ok is false when
// no row is scorable.
func Score(rows []models.CheckRow) (score float64, ok bool) {
	var sum float64
	n := 0
	for _, r := range rows {
		v, scorable := resultValues[r.Result]
		if !scorable {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Summarize builds the run summary. The score is rounded to three decimals.
func Summarize(url string, rows []models.CheckRow) models.Summary {
	s := models.Summary{URL: url, Counts: make(map[models.Result]int)}
	for _, r := range rows {
		s.Counts[r.Result]++
	}
	if score, ok := Score(rows); ok {
		rounded := math.Round(score*1000) / 1000
		s.Score = &rounded
	}
	return s
}
