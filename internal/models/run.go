package models

import "time"

// Run is a persisted analysis: the summary plus the ordered check rows.
type Run struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Summary   Summary    `json:"summary"`
	Checks    []CheckRow `json:"checks"`
	CreatedAt time.Time  `json:"created_at"`
}
