package models

import "time"

// FeedbackEvent is one user-submitted rating of an analysis run.
// Events are append-only and never rewritten.
type FeedbackEvent struct {
	ID          string     `json:"id"`
	RunID       string     `json:"run_id,omitempty"`
	URL         string     `json:"url"`
	Rating      int        `json:"rating"`
	Reward      float64    `json:"reward"`
	TaskSuccess bool       `json:"task_success"`
	Comment     string     `json:"comment"`
	Summary     Summary    `json:"summary"`
	Checks      []CheckRow `json:"checks"`
	Timestamp   time.Time  `json:"ts"`
}

// TipStats holds the running reward statistics of one checklist tip.
type TipStats struct {
	N          int     `json:"n"`
	MeanReward float64 `json:"mean_reward"`
}
