package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewZoneStatsRow(t *testing.T) {
	slope := 12.5
	row := NewZoneStatsRow(ParameterPair{Length: 3, Width: 5}, &slope, Counts{Households: 50, Population: 120})

	assert.Equal(t, "N_length_3_N_width_5", row.Key())
	assert.Equal(t, []any{3, 5, 12.5, 50.0, 120.0, 0.0, 0.0, 0.0}, row.Values())
	assert.Len(t, row.Values(), len(Columns))
}

func TestZoneStatsRow_NilSlope(t *testing.T) {
	row := NewZoneStatsRow(ParameterPair{Length: 1, Width: 1}, nil, Counts{})
	assert.Nil(t, row.Values()[2])
	assert.Equal(t, ParameterPair{Length: 1, Width: 1}, row.Pair())
}
