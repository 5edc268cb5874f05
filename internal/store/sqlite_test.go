package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/damsweep/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func slope(v float64) *float64 { return &v }

func TestSQLite_PutAndGetRow(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	row := model.NewZoneStatsRow(model.ParameterPair{Length: 3, Width: 5}, slope(12.5),
		model.Counts{Households: 50, Population: 120, Footprint: 1.5, Contact: 2, Buildings: 7})
	require.NoError(t, st.PutRow(ctx, "run-1", row))

	got, err := st.GetRow(ctx, "N_length_3_N_width_5")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "N_length_3_N_width_5", got.Key)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, row, got.Row)
	assert.False(t, got.WrittenAt.IsZero())
}

func TestSQLite_NilSlopeRoundTrips(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	row := model.NewZoneStatsRow(model.ParameterPair{Length: 1, Width: 1}, nil, model.Counts{})
	require.NoError(t, st.PutRow(ctx, "run-1", row))

	got, err := st.GetRow(ctx, row.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Row.SlopeMax)
}

func TestSQLite_PutOverwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	pair := model.ParameterPair{Length: 7, Width: 9}

	require.NoError(t, st.PutRow(ctx, "run-1", model.NewZoneStatsRow(pair, slope(1), model.Counts{Population: 1})))
	require.NoError(t, st.PutRow(ctx, "run-2", model.NewZoneStatsRow(pair, slope(2), model.Counts{Population: 2})))

	n, err := st.CountRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.GetRow(ctx, pair.Key())
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, 2.0, *got.Row.SlopeMax)
	assert.Equal(t, 2.0, got.Row.PopulationSum)
}

func TestSQLite_GetRowMissing(t *testing.T) {
	st := newTestSQLiteStore(t)
	got, err := st.GetRow(context.Background(), "N_length_1_N_width_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ListRowsOrdered(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, p := range []model.ParameterPair{{Length: 11, Width: 1}, {Length: 3, Width: 3}, {Length: 3, Width: 1}} {
		require.NoError(t, st.PutRow(ctx, "r", model.NewZoneStatsRow(p, nil, model.Counts{})))
	}

	rows, err := st.ListRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "N_length_3_N_width_1", rows[0].Key)
	assert.Equal(t, "N_length_3_N_width_3", rows[1].Key)
	assert.Equal(t, "N_length_11_N_width_1", rows[2].Key)
}

func TestSQLite_Runs(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, 4)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	running, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Nil(t, running[0].FinishedAt)

	run.Status = model.RunStatusPartial
	run.Succeeded, run.Failed = 3, 1
	require.NoError(t, st.FinishRun(ctx, run))
	require.NotNil(t, run.FinishedAt)

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusPartial, runs[0].Status)
	assert.Equal(t, 4, runs[0].Points)
	assert.Equal(t, 3, runs[0].Succeeded)
	assert.Equal(t, 1, runs[0].Failed)
	assert.NotNil(t, runs[0].FinishedAt)

	running, err = st.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning})
	require.NoError(t, err)
	assert.Empty(t, running)
}

func TestSQLite_FinishUnknownRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.FinishRun(context.Background(), &model.Run{ID: "nope", Status: model.RunStatusComplete})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "spatial_feats.db"))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	n, err := s.CountRows(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = Open(ctx, "hdf5", "x")
	assert.ErrorContains(t, err, "unknown driver")
}
