package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/damsweep/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS zone_stats (
	key            TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL,
	n_length       INTEGER NOT NULL,
	n_width        INTEGER NOT NULL,
	slope_max      REAL,
	households_sum REAL NOT NULL,
	population_sum REAL NOT NULL,
	footprint_sum  REAL NOT NULL,
	contact_sum    REAL NOT NULL,
	buildings_sum  REAL NOT NULL,
	written_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sweep_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	points      INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_zone_stats_pair ON zone_stats(n_length, n_width);
CREATE INDEX IF NOT EXISTS idx_sweep_runs_started ON sweep_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutRow(ctx context.Context, runID string, row model.ZoneStatsRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO zone_stats (key, run_id, n_length, n_width, slope_max,
			households_sum, population_sum, footprint_sum, contact_sum, buildings_sum, written_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			run_id = excluded.run_id, n_length = excluded.n_length, n_width = excluded.n_width,
			slope_max = excluded.slope_max, households_sum = excluded.households_sum,
			population_sum = excluded.population_sum, footprint_sum = excluded.footprint_sum,
			contact_sum = excluded.contact_sum, buildings_sum = excluded.buildings_sum,
			written_at = excluded.written_at`,
		row.Key(), runID, row.NLength, row.NWidth, row.SlopeMax,
		row.HouseholdsSum, row.PopulationSum, row.FootprintSum, row.ContactSum, row.BuildingsSum,
		time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: put row %s", row.Key())
}

const sqliteRowColumns = `key, run_id, n_length, n_width, slope_max,
	households_sum, population_sum, footprint_sum, contact_sum, buildings_sum, written_at`

func (s *SQLiteStore) GetRow(ctx context.Context, key string) (*model.StoredRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRowColumns+` FROM zone_stats WHERE key = ?`, key)
	r, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get row %s", key)
	}
	return r, nil
}

func (s *SQLiteStore) ListRows(ctx context.Context) ([]model.StoredRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteRowColumns+` FROM zone_stats ORDER BY n_length, n_width`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rows")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.StoredRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list rows iterate")
}

func (s *SQLiteStore) CountRows(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM zone_stats`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count rows")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, points int) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Status:    model.RunStatusRunning,
		Points:    points,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sweep_runs (id, status, points, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, string(run.Status), run.Points, run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *model.Run) error {
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sweep_runs SET status = ?, succeeded = ?, failed = ?, finished_at = ? WHERE id = ?`,
		string(run.Status), run.Succeeded, run.Failed, *run.FinishedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", run.ID)
	}
	return checkRowsAffected(res, "run", run.ID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, points, succeeded, failed, started_at, finished_at FROM sweep_runs WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		var (
			r        model.Run
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Status, &r.Points, &r.Succeeded, &r.Failed, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRow(row scannable) (*model.StoredRow, error) {
	var (
		r     model.StoredRow
		slope sql.NullFloat64
	)
	err := row.Scan(&r.Key, &r.RunID, &r.Row.NLength, &r.Row.NWidth, &slope,
		&r.Row.HouseholdsSum, &r.Row.PopulationSum, &r.Row.FootprintSum, &r.Row.ContactSum, &r.Row.BuildingsSum,
		&r.WrittenAt)
	if err != nil {
		return nil, err
	}
	if slope.Valid {
		v := slope.Float64
		r.Row.SlopeMax = &v
	}
	return &r, nil
}
