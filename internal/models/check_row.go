package models

// ExtraCategory is the category of rows created for verdicts no checklist item consumed.
const ExtraCategory = "Automated (extra)"

// CheckRow is a checklist-aligned row of the merged output.
type CheckRow struct {
	Category    string    `json:"category"`
	Tip         string    `json:"tip"`
	TipNorm     string    `json:"tip_norm"`
	Priority    string    `json:"priority"`
	Difficulty  string    `json:"difficulty"`
	Explanation string    `json:"explanation"`
	CheckType   CheckType `json:"check_type"`
	Result      Result    `json:"result"`
	Evidence    string    `json:"evidence"`
	AutoCheck   CheckName `json:"auto_check"`
}

// Summary aggregates a set of check rows. Score is nil when no row is scorable.
type Summary struct {
	URL    string         `json:"url"`
	Score  *float64       `json:"score"`
	Counts map[Result]int `json:"counts"`
}
