package feedback

import (
	"github.com/joescharf/cro/internal/checklist"
	"github.com/joescharf/cro/internal/models"
)

// GlobalStats counts every folded event.
type GlobalStats struct {
	N int `json:"n"`
}

// Snapshot is the statistics projection of the event log.
type Snapshot struct {
	TipStats map[string]models.TipStats `json:"tip_stats"`
	Global   GlobalStats                `json:"global"`
}

// NewSnapshot returns an empty projection.
func NewSnapshot() *Snapshot {
	return &Snapshot{TipStats: make(map[string]models.TipStats)}
}

// Fold applies one event. Each distinct tip in the event gets one
// incremental-mean update; the global count moves once per event.
func (s *Snapshot) Fold(e models.FeedbackEvent) {
	if s.TipStats == nil {
		s.TipStats = make(map[string]models.TipStats)
	}
	seen := make(map[string]bool)
	for _, row := range e.Checks {
		tip := row.TipNorm
		if tip == "" {
			tip = checklist.NormalizeTip(row.Tip)
		}
		if tip == "" || seen[tip] {
			continue
		}
		seen[tip] = true

		st := s.TipStats[tip]
		st.N++
		st.MeanReward += (e.Reward - st.MeanReward) / float64(st.N)
		s.TipStats[tip] = st
	}
	s.Global.N++
}
