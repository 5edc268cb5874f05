package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/damsweep/internal/geometry/geomtest"
	"github.com/sells-group/damsweep/internal/model"
	"github.com/sells-group/damsweep/internal/raster"
	"github.com/sells-group/damsweep/internal/zone"
)

// slopeGrid covers [0,100]x[-50,50] with 1m cells, all 3.0 except the cell
// centred on (10.5, 0.5), which holds 12.5.
func slopeGrid() *raster.Grid {
	g := &raster.Grid{OriginX: 0, OriginY: 50, CellWidth: 1, CellHeight: 1, Cols: 100, Rows: 100}
	g.Values = make([]float64, g.Cols*g.Rows)
	for i := range g.Values {
		g.Values[i] = 3
	}
	g.Values[49*g.Cols+10] = 12.5
	return g
}

func newLayer(t *testing.T, blocks ...model.DemographicBlock) *Layer {
	t.Helper()
	l, err := NewLayer(blocks, model.CensusFields, &geomtest.EnvelopeEngine{})
	require.NoError(t, err)
	return l
}

func regions(t *testing.T, pair model.ParameterPair, heights ...float64) []model.Region {
	t.Helper()
	dams := make([]model.DamFeature, len(heights))
	for i, h := range heights {
		h := h
		dams[i] = model.DamFeature{ID: string(rune('a' + i)), Geom: geomtest.Line(0, 0, 1000, 0), DamHeight: &h}
	}
	rs, err := zone.NewBuilder(&geomtest.EnvelopeEngine{}).Build(context.Background(), dams, pair)
	require.NoError(t, err)
	return rs
}

func TestAggregate_Scenario(t *testing.T) {
	pair := model.ParameterPair{Length: 3, Width: 5}
	layer := newLayer(t,
		model.DemographicBlock{ID: "b1", Geom: geomtest.Rect(5, -10, 15, 10), Counts: model.Counts{Households: 50, Population: 120}},
		model.DemographicBlock{ID: "far", Geom: geomtest.Rect(500, 500, 510, 510), Counts: model.Counts{Households: 999}},
	)

	row, err := New().Aggregate(context.Background(), pair, regions(t, pair, 10), slopeGrid(), layer)
	require.NoError(t, err)

	require.NotNil(t, row.SlopeMax)
	assert.Equal(t, 12.5, *row.SlopeMax)
	assert.Equal(t, 3, row.NLength)
	assert.Equal(t, 5, row.NWidth)
	assert.Equal(t, 50.0, row.HouseholdsSum)
	assert.Equal(t, 120.0, row.PopulationSum)
	assert.Zero(t, row.FootprintSum)
	assert.Zero(t, row.ContactSum)
	assert.Zero(t, row.BuildingsSum)
}

func TestAggregate_MergesRegions(t *testing.T) {
	pair := model.ParameterPair{Length: 1, Width: 1}
	layer := newLayer(t,
		model.DemographicBlock{ID: "b1", Geom: geomtest.Rect(0, -1, 2, 1), Counts: model.Counts{Population: 10, Buildings: 1}},
	)

	// Two overlapping regions both touch b1, so its counts are added twice.
	row, err := New().Aggregate(context.Background(), pair, regions(t, pair, 4, 6), slopeGrid(), layer)
	require.NoError(t, err)
	assert.Equal(t, 20.0, row.PopulationSum)
	assert.Equal(t, 2.0, row.BuildingsSum)
	require.NotNil(t, row.SlopeMax)
	assert.Equal(t, 3.0, *row.SlopeMax)
}

func TestAggregate_ZeroHeight(t *testing.T) {
	pair := model.ParameterPair{Length: 3, Width: 3}
	layer := newLayer(t,
		model.DemographicBlock{ID: "b1", Geom: geomtest.Rect(-5, -5, 5, 5), Counts: model.Counts{Households: 7}},
	)

	row, err := New().Aggregate(context.Background(), pair, regions(t, pair, 0), slopeGrid(), layer)
	require.NoError(t, err)
	assert.Nil(t, row.SlopeMax)
	assert.Equal(t, model.NewZoneStatsRow(pair, nil, model.Counts{}), row)
}

func TestAggregate_OutsideRaster(t *testing.T) {
	pair := model.ParameterPair{Length: 1, Width: 1}
	rs := []model.Region{{DamID: "x", Pair: pair, Polygon: geomtest.Rect(5000, 5000, 5010, 5010)}}

	row, err := New().Aggregate(context.Background(), pair, rs, slopeGrid(), newLayer(t))
	require.NoError(t, err)
	assert.Nil(t, row.SlopeMax)
	assert.Zero(t, row.HouseholdsSum)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	pair := model.ParameterPair{Length: 5, Width: 3}
	blocks := []model.DemographicBlock{
		{ID: "b1", Geom: geomtest.Rect(0, 0, 3, 3), Counts: model.Counts{Households: 0.1, Population: 0.7}},
		{ID: "b2", Geom: geomtest.Rect(3, -3, 9, 0), Counts: model.Counts{Households: 0.2, Footprint: 1.3}},
		{ID: "b3", Geom: geomtest.Rect(9, 0, 14, 2), Counts: model.Counts{Households: 0.3, Contact: 2}},
	}
	rs := regions(t, pair, 2, 3)

	a := New()
	first, err := a.Aggregate(context.Background(), pair, rs, slopeGrid(), newLayer(t, blocks...))
	require.NoError(t, err)
	second, err := a.Aggregate(context.Background(), pair, rs, slopeGrid(), newLayer(t, blocks...))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregate_EmptyRegions(t *testing.T) {
	_, err := New().Aggregate(context.Background(), model.ParameterPair{Length: 1, Width: 1}, nil, slopeGrid(), newLayer(t))
	require.Error(t, err)
	assert.Equal(t, model.KindAggregation, model.KindOf(err))
}

func TestNewLayer_Schema(t *testing.T) {
	_, err := NewLayer(nil, []string{"households", "population", "footprint", "buildings"}, &geomtest.EnvelopeEngine{})
	require.Error(t, err)
	assert.Equal(t, model.KindSchema, model.KindOf(err))
	assert.Contains(t, err.Error(), "contact")

	assert.NoError(t, CheckSchema([]string{"Households", "POPULATION", "footprint", "contact", "buildings", "extra"}))
}

func TestNewLayer_NilGeometry(t *testing.T) {
	_, err := NewLayer([]model.DemographicBlock{{ID: "z"}}, model.CensusFields, &geomtest.EnvelopeEngine{})
	require.Error(t, err)
	assert.Equal(t, model.KindInputLoad, model.KindOf(err))
}

func TestLayer_Match(t *testing.T) {
	layer := newLayer(t,
		model.DemographicBlock{ID: "b2", Geom: geomtest.Rect(10, 10, 20, 20)},
		model.DemographicBlock{ID: "b1", Geom: geomtest.Rect(0, 0, 10, 10)},
	)
	got, err := layer.Match(geom.NewPolygonFlat(geom.XY, []float64{5, 5, 15, 5, 15, 15, 5, 15, 5, 5}, []int{10}))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b2", got[0].ID)
	assert.Equal(t, "b1", got[1].ID)
	assert.Equal(t, 2, layer.Len())
}
