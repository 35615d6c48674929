// Package weighting turns learned tip statistics into weights and uses them
// to reorder a checklist. It only changes row order, never results or score.
package weighting

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/joescharf/cro/internal/checklist"
	"github.com/joescharf/cro/internal/models"
)

// FullTrustSamples is the sample count at which a tip's weight is no longer damped.
const FullTrustSamples = 10

// UnrankedPriority stands in for priorities that are not numbers.
const UnrankedPriority = 9999

// Shrink damps a weight linearly until FullTrustSamples samples exist.
func Shrink(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(1, float64(n)/FullTrustSamples)
}

// Weight is alpha * shrink(n) * mean reward. A tip without samples weighs 0.
func Weight(st models.TipStats, alpha float64) float64 {
	s := Shrink(st.N)
	if s == 0 {
		return 0
	}
	return alpha * s * st.MeanReward
}

// Weights computes the weight of every tip with statistics.
func Weights(stats map[string]models.TipStats, alpha float64) map[string]float64 {
	out := make(map[string]float64, len(stats))
	for tip, st := range stats {
		out[tip] = Weight(st, alpha)
	}
	return out
}

// PriorityValue parses a priority cell. Anything that is not a finite
// number ranks last.
func PriorityValue(p string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return UnrankedPriority
	}
	return v
}

// Reorder returns a copy of cl sorted by learned weight. With a priority
// column the order is ascending priority minus weight; without one it is
// descending weight. Ties keep their original order.
func Reorder(cl *checklist.Checklist, weights map[string]float64) *checklist.Checklist {
	out := cl.Clone()
	items := out.Items

	keys := make(map[int]float64, len(items))
	idx := make([]int, len(items))
	for i, it := range items {
		idx[i] = i
		w := weights[it.TipNorm]
		if out.HasPriority {
			keys[i] = PriorityValue(it.Priority) - w
		} else {
			keys[i] = -w
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]] < keys[idx[b]]
	})

	sorted := make([]models.ChecklistItem, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	out.Items = sorted
	return out
}

// TipWeight is one row of the learned weight table.
type TipWeight struct {
	Tip        string  `json:"tip"`
	N          int     `json:"n"`
	MeanReward float64 `json:"mean_reward"`
	Weight     float64 `json:"weight"`
}

// Table lists every tip with statistics, heaviest first. Equal weights
// sort by tip.
func Table(stats map[string]models.TipStats, alpha float64) []TipWeight {
	out := make([]TipWeight, 0, len(stats))
	for tip, st := range stats {
		out = append(out, TipWeight{Tip: tip, N: st.N, MeanReward: st.MeanReward, Weight: Weight(st, alpha)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Tip < out[j].Tip
	})
	return out
}
