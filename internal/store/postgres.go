package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/damsweep/internal/db"
	"github.com/sells-group/damsweep/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// A sweep has a single writer; a small pool is enough.
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS zone_stats (
	key            TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL,
	n_length       INTEGER NOT NULL,
	n_width        INTEGER NOT NULL,
	slope_max      DOUBLE PRECISION,
	households_sum DOUBLE PRECISION NOT NULL,
	population_sum DOUBLE PRECISION NOT NULL,
	footprint_sum  DOUBLE PRECISION NOT NULL,
	contact_sum    DOUBLE PRECISION NOT NULL,
	buildings_sum  DOUBLE PRECISION NOT NULL,
	written_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sweep_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	points      INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_zone_stats_pair ON zone_stats(n_length, n_width);
CREATE INDEX IF NOT EXISTS idx_sweep_runs_started ON sweep_runs(started_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// zoneStatsColumns is the column order shared by PutRow and PublishRows.
var zoneStatsColumns = []string{
	"key", "run_id", "n_length", "n_width", "slope_max",
	"households_sum", "population_sum", "footprint_sum", "contact_sum", "buildings_sum", "written_at",
}

func rowArgs(runID string, row model.ZoneStatsRow, writtenAt time.Time) []any {
	return []any{
		row.Key(), runID, row.NLength, row.NWidth, row.SlopeMax,
		row.HouseholdsSum, row.PopulationSum, row.FootprintSum, row.ContactSum, row.BuildingsSum, writtenAt,
	}
}

func (s *PostgresStore) PutRow(ctx context.Context, runID string, row model.ZoneStatsRow) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO zone_stats (key, run_id, n_length, n_width, slope_max,
			households_sum, population_sum, footprint_sum, contact_sum, buildings_sum, written_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (key) DO UPDATE SET
			run_id = EXCLUDED.run_id, n_length = EXCLUDED.n_length, n_width = EXCLUDED.n_width,
			slope_max = EXCLUDED.slope_max, households_sum = EXCLUDED.households_sum,
			population_sum = EXCLUDED.population_sum, footprint_sum = EXCLUDED.footprint_sum,
			contact_sum = EXCLUDED.contact_sum, buildings_sum = EXCLUDED.buildings_sum,
			written_at = EXCLUDED.written_at`,
		rowArgs(runID, row, time.Now().UTC())...,
	)
	return eris.Wrapf(err, "postgres: put row %s", row.Key())
}

// PublishRows bulk-upserts rows, typically copied from a local SQLite store,
// keeping each row's run and write time.
func (s *PostgresStore) PublishRows(ctx context.Context, rows []model.StoredRow) (int64, error) {
	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = rowArgs(r.RunID, r.Row, r.WrittenAt)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "zone_stats",
		Columns:      zoneStatsColumns,
		ConflictKeys: []string{"key"},
	}, data)
	return n, eris.Wrap(err, "postgres: publish rows")
}

const postgresRowColumns = `key, run_id, n_length, n_width, slope_max,
	households_sum, population_sum, footprint_sum, contact_sum, buildings_sum, written_at`

func (s *PostgresStore) GetRow(ctx context.Context, key string) (*model.StoredRow, error) {
	r, err := scanPgRow(s.pool.QueryRow(ctx, `SELECT `+postgresRowColumns+` FROM zone_stats WHERE key = $1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get row %s", key)
	}
	return r, nil
}

func (s *PostgresStore) ListRows(ctx context.Context) ([]model.StoredRow, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+postgresRowColumns+` FROM zone_stats ORDER BY n_length, n_width`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rows")
	}
	defer rows.Close()

	var out []model.StoredRow
	for rows.Next() {
		r, err := scanPgRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list rows iterate")
}

func (s *PostgresStore) CountRows(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM zone_stats`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count rows")
}

func (s *PostgresStore) CreateRun(ctx context.Context, points int) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Status:    model.RunStatusRunning,
		Points:    points,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sweep_runs (id, status, points, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, string(run.Status), run.Points, run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *model.Run) error {
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE sweep_runs SET status = $1, succeeded = $2, failed = $3, finished_at = $4 WHERE id = $5`,
		string(run.Status), run.Succeeded, run.Failed, *run.FinishedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, points, succeeded, failed, started_at, finished_at FROM sweep_runs
		 WHERE ($1 = '' OR status = $1) ORDER BY started_at DESC LIMIT $2`,
		string(filter.Status), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			r      model.Run
			status string
		)
		if err := rows.Scan(&r.ID, &status, &r.Points, &r.Succeeded, &r.Failed, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPgRow(row pgx.Row) (*model.StoredRow, error) {
	var r model.StoredRow
	err := row.Scan(&r.Key, &r.RunID, &r.Row.NLength, &r.Row.NWidth, &r.Row.SlopeMax,
		&r.Row.HouseholdsSum, &r.Row.PopulationSum, &r.Row.FootprintSum, &r.Row.ContactSum, &r.Row.BuildingsSum,
		&r.WrittenAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
