// Package aggregate reduces downstream regions to one statistics row per
// parameter pair.
package aggregate

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/damsweep/internal/geometry"
	"github.com/sells-group/damsweep/internal/model"
)

// SlopeSource computes the maximum raster value over a region. ok is false
// when no cell with data lies inside the region.
type SlopeSource interface {
	ZonalMax(region geom.T) (float64, bool)
}

// Indexer builds an intersects index over a geometry set.
type Indexer interface {
	NewIndex(geoms []geom.T) (*geometry.Index, error)
}

// Layer is the demographic polygon layer with its spatial index.
// It is read-only and shared by all grid points.
type Layer struct {
	blocks []model.DemographicBlock
	index  *geometry.Index
}

// CheckSchema returns a schema error when any canonical census field is
// missing from the layer's columns.
func CheckSchema(schema []string) error {
	have := make(map[string]bool, len(schema))
	for _, f := range schema {
		have[strings.ToLower(f)] = true
	}
	var missing []string
	for _, f := range model.CensusFields {
		if !have[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return model.Errorf(model.KindSchema, "aggregate: census layer missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NewLayer validates the schema and indexes the blocks once.
func NewLayer(blocks []model.DemographicBlock, schema []string, ix Indexer) (*Layer, error) {
	if err := CheckSchema(schema); err != nil {
		return nil, err
	}
	geoms := make([]geom.T, len(blocks))
	for i, b := range blocks {
		if b.Geom == nil {
			return nil, model.Errorf(model.KindInputLoad, "aggregate: census block %s has no geometry", b.ID)
		}
		geoms[i] = b.Geom
	}
	index, err := ix.NewIndex(geoms)
	if err != nil {
		return nil, model.NewError(model.KindInputLoad, eris.Wrap(err, "aggregate: index census blocks"))
	}
	return &Layer{blocks: blocks, index: index}, nil
}

// Len returns the number of blocks in the layer.
func (l *Layer) Len() int { return len(l.blocks) }

// Match returns the blocks intersecting region in ascending layer order.
func (l *Layer) Match(region geom.T) ([]model.DemographicBlock, error) {
	positions, err := l.index.Intersecting(region)
	if err != nil {
		return nil, err
	}
	out := make([]model.DemographicBlock, len(positions))
	for i, p := range positions {
		out[i] = l.blocks[p]
	}
	return out, nil
}

// Aggregator computes zone statistics rows.
type Aggregator struct{}

// New creates an Aggregator.
func New() *Aggregator { return &Aggregator{} }

// Aggregate merges the statistics of all regions of one parameter pair into a
// single row: the maximum slope over all regions and the sum of each region's
// intersecting census counts.
func (a *Aggregator) Aggregate(ctx context.Context, pair model.ParameterPair, regions []model.Region, slope SlopeSource, layer *Layer) (model.ZoneStatsRow, error) {
	if len(regions) == 0 {
		return model.ZoneStatsRow{}, model.Errorf(model.KindAggregation, "aggregate: no regions for %s", pair.Key())
	}
	if layer == nil {
		return model.ZoneStatsRow{}, model.Errorf(model.KindAggregation, "aggregate: no census layer")
	}

	var (
		slopeMax float64
		hasSlope bool
		sums     model.Counts
	)
	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			return model.ZoneStatsRow{}, err
		}

		if slope != nil {
			if v, ok := slope.ZonalMax(r.Polygon); ok && (!hasSlope || v > slopeMax) {
				slopeMax, hasSlope = v, true
			}
		}

		blocks, err := layer.Match(r.Polygon)
		if err != nil {
			return model.ZoneStatsRow{}, model.NewError(model.KindAggregation, eris.Wrapf(err, "aggregate: match census for dam %s", r.DamID))
		}
		var regionSum model.Counts
		for _, b := range blocks {
			regionSum = regionSum.Add(b.Counts)
		}
		sums = sums.Add(regionSum)
	}

	var maxPtr *float64
	if hasSlope {
		maxPtr = &slopeMax
	}
	return model.NewZoneStatsRow(pair, maxPtr, sums), nil
}
