package db

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var zoneCfg = UpsertConfig{
	Table:        "damsweep.zone_stats",
	Columns:      []string{"key", "run_id", "slope_max"},
	ConflictKeys: []string{"key"},
}

func TestBulkUpsert_Validation(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, zoneCfg, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = BulkUpsert(context.Background(), nil, UpsertConfig{Table: "t", ConflictKeys: []string{"id"}}, [][]any{{1}})
	assert.ErrorContains(t, err, "no columns specified")

	_, err = BulkUpsert(context.Background(), nil, UpsertConfig{Table: "t", Columns: []string{"id"}}, [][]any{{1}})
	assert.ErrorContains(t, err, "no conflict keys specified")
}

func TestBulkUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer mock.Close()

	rows := [][]any{{"N_length_1_N_width_1", "r1", 2.5}, {"N_length_1_N_width_3", "r1", nil}}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_damsweep_zone_stats" (LIKE "damsweep"."zone_stats" INCLUDING DEFAULTS) ON COMMIT DROP`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom([]string{"_tmp_upsert_damsweep_zone_stats"}, zoneCfg.Columns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "damsweep"."zone_stats" ("key", "run_id", "slope_max") SELECT "key", "run_id", "slope_max" FROM "_tmp_upsert_damsweep_zone_stats" ON CONFLICT ("key") DO UPDATE SET "run_id" = EXCLUDED."run_id", "slope_max" = EXCLUDED."slope_max"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, zoneCfg, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestBulkUpsert_CopyFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom([]string{"_tmp_upsert_damsweep_zone_stats"}, zoneCfg.Columns).WillReturnError(errors.New("copy broke"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, zoneCfg, [][]any{{"k", "r", 1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy into temp table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanitizeTable(t *testing.T) {
	assert.Equal(t, `"simple"`, sanitizeTable("simple"))
	assert.Equal(t, `"damsweep"."zone_stats"`, sanitizeTable("damsweep.zone_stats"))
	assert.Equal(t, `"id", "name"`, quoteAndJoin([]string{"id", "name"}))
}
