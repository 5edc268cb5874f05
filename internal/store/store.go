// Package store persists zone statistics rows keyed by parameter pair, along
// with the bookkeeping of sweep runs.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/damsweep/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store is the result store. Putting an existing key overwrites its row.
type Store interface {
	// Rows
	PutRow(ctx context.Context, runID string, row model.ZoneStatsRow) error
	GetRow(ctx context.Context, key string) (*model.StoredRow, error)
	ListRows(ctx context.Context) ([]model.StoredRow, error)
	CountRows(ctx context.Context) (int, error)

	// Runs
	CreateRun(ctx context.Context, points int) (*model.Run, error)
	FinishRun(ctx context.Context, run *model.Run) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open opens and migrates the store for driver. dsn is a file path for
// SQLite and a connection string for Postgres.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case DriverSQLite, "":
		s, err = NewSQLite(dsn)
	case DriverPostgres:
		s, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const defaultListLimit = 100
