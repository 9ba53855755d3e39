// Package store persists build runs and the wide per-region tables.
// Two drivers are available: sqlite for the default single-analyst setup
// and postgres for a shared one.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/model"
)

// ErrNotFound is returned when a run or wide table does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for the pipeline and server.
type Store interface {
	// Build runs
	CreateRun(ctx context.Context) (*model.BuildRun, error)
	CompleteRun(ctx context.Context, runID string, rowCounts map[string]int) error
	FailRun(ctx context.Context, runID string, cause error) error
	ListRuns(ctx context.Context, limit int) ([]model.BuildRun, error)

	// Wide tables, one per level
	SaveWideTable(ctx context.Context, level model.Level, t *dataset.WideTable) error
	LoadWideTable(ctx context.Context, level model.Level) (*dataset.WideTable, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open builds a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
