package feedback

import "github.com/joescharf/cro/internal/models"

// EventForRun builds an event rating run. The event carries the run's
// summary and rows so the statistics can be replayed without the run store.
func EventForRun(run *models.Run, rating int, success bool, comment string) *models.FeedbackEvent {
	return &models.FeedbackEvent{
		RunID:       run.ID,
		URL:         run.URL,
		Rating:      rating,
		TaskSuccess: success,
		Comment:     comment,
		Summary:     run.Summary,
		Checks:      run.Checks,
	}
}
