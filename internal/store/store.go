package store

import (
	"context"

	"github.com/sells-group/station-search/internal/model"
)

// RunParams describes a run at the moment it starts.
type RunParams struct {
	Kind      string
	Dataset   string
	Latitude  float64
	Longitude float64
	StartDate string
	EndDate   string
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind   string          `json:"kind,omitempty"`
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the run log.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, params RunParams) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, stations []model.RankedStation, halfLengthKM float64) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stations accepted by a run
	ListRunStations(ctx context.Context, runID string) ([]model.RankedStation, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
