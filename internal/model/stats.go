package model

import "time"

// ZoneStatsRow is the aggregated result for a single grid point.
type ZoneStatsRow struct {
	NLength       int      `json:"N_length" yaml:"N_length"`
	NWidth        int      `json:"N_width" yaml:"N_width"`
	SlopeMax      *float64 `json:"Slope_max" yaml:"Slope_max"`
	HouseholdsSum float64  `json:"households_sum" yaml:"households_sum"`
	PopulationSum float64  `json:"population_sum" yaml:"population_sum"`
	FootprintSum  float64  `json:"footprint_sum" yaml:"footprint_sum"`
	ContactSum    float64  `json:"contact_sum" yaml:"contact_sum"`
	BuildingsSum  float64  `json:"buildings_sum" yaml:"buildings_sum"`
}

// Columns is the column order of a result table.
var Columns = []string{
	"N_length", "N_width", "Slope_max",
	"households_sum", "population_sum", "footprint_sum", "contact_sum", "buildings_sum",
}

// NewZoneStatsRow builds a row from a pair, an optional max slope and summed counts.
func NewZoneStatsRow(p ParameterPair, slopeMax *float64, sums Counts) ZoneStatsRow {
	return ZoneStatsRow{
		NLength:       p.Length,
		NWidth:        p.Width,
		SlopeMax:      slopeMax,
		HouseholdsSum: sums.Households,
		PopulationSum: sums.Population,
		FootprintSum:  sums.Footprint,
		ContactSum:    sums.Contact,
		BuildingsSum:  sums.Buildings,
	}
}

// Pair returns the grid point of the row.
func (r ZoneStatsRow) Pair() ParameterPair {
	return ParameterPair{Length: r.NLength, Width: r.NWidth}
}

// Key returns the store key of the row.
func (r ZoneStatsRow) Key() string {
	return r.Pair().Key()
}

// Values returns the row as a slice ordered like Columns. A missing slope is nil.
func (r ZoneStatsRow) Values() []any {
	var slope any
	if r.SlopeMax != nil {
		slope = *r.SlopeMax
	}
	return []any{
		r.NLength, r.NWidth, slope,
		r.HouseholdsSum, r.PopulationSum, r.FootprintSum, r.ContactSum, r.BuildingsSum,
	}
}

// StoredRow is a ZoneStatsRow as persisted, with its run and write time.
type StoredRow struct {
	Key       string       `json:"key"`
	RunID     string       `json:"run_id"`
	Row       ZoneStatsRow `json:"row"`
	WrittenAt time.Time    `json:"written_at"`
}
