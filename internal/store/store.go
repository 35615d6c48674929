package store

import (
	"context"
	"errors"

	"github.com/joescharf/cro/internal/models"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// RunListFilter specifies filters for listing runs.
type RunListFilter struct {
	URL   string
	Limit int
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	CreateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, filter RunListFilter) ([]*models.Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
