package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/damsweep/internal/model"
)

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	sum := &Summary{
		RunID:     "run-1",
		Status:    model.RunStatusPartial,
		Points:    4,
		Succeeded: 3,
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Elapsed:   1500 * time.Millisecond,
		Failures: []PointFailure{{
			Key:    "N_length_3_N_width_1",
			Pair:   model.ParameterPair{Length: 3, Width: 1},
			Kind:   model.KindStoreWrite,
			Reason: "disk full",
		}},
	}
	opts := Options{Lengths: model.Range{Start: 1, Stop: 3, Step: 2}, Widths: model.Range{Start: 1, Stop: 3, Step: 2}}

	path, err := WriteReport(dir, NewReport(sum, opts))
	require.NoError(t, err)
	assert.Equal(t, ReportFile, path[len(path)-len(ReportFile):])

	got, err := ReadReport(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, model.RunStatusPartial, got.Status)
	assert.Equal(t, "1.5s", got.Elapsed)
	assert.Equal(t, opts.Lengths.String(), got.Length)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, model.KindStoreWrite, got.Failures[0].Kind)
	assert.Equal(t, "disk full", got.Failures[0].Reason)
	assert.True(t, sum.StartedAt.Equal(got.StartedAt))
}

func TestReadReport_Missing(t *testing.T) {
	_, err := ReadReport(t.TempDir() + "/nope.yaml")
	assert.Error(t, err)
}
