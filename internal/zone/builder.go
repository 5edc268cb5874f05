// Package zone derives downstream center lines and impact regions for dams.
package zone

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/damsweep/internal/geometry"
	"github.com/sells-group/damsweep/internal/model"
)

// Geometry is the subset of the geometry engine the builder needs.
type Geometry interface {
	Substring(g geom.T, start, end float64) (geom.T, error)
	Buffer(g geom.T, distance float64, p geometry.BufferParams) (geom.T, error)
}

// Builder constructs downstream regions.
type Builder struct {
	geo    Geometry
	params geometry.BufferParams
}

// NewBuilder creates a Builder using the downstream buffer style.
func NewBuilder(geo Geometry) *Builder {
	return &Builder{geo: geo, params: geometry.DownstreamBuffer}
}

// CenterLength is the length of the downstream center line.
func CenterLength(damHeight float64, pair model.ParameterPair) float64 {
	return damHeight * float64(pair.Length)
}

// Radius is the buffer distance of the downstream region.
func Radius(damHeight float64, pair model.ParameterPair) float64 {
	return damHeight * float64(pair.Width) / 2
}

// Build returns one region per dam, in input order. Regions are never merged,
// even when they overlap.
func (b *Builder) Build(ctx context.Context, dams []model.DamFeature, pair model.ParameterPair) ([]model.Region, error) {
	if err := pair.Validate(); err != nil {
		return nil, err
	}

	regions := make([]model.Region, 0, len(dams))
	for _, d := range dams {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := b.buildOne(d, pair)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

func (b *Builder) buildOne(d model.DamFeature, pair model.ParameterPair) (model.Region, error) {
	if d.Geom == nil {
		return model.Region{}, model.Errorf(model.KindGeometry, "zone: dam %s has no geometry", d.ID)
	}
	if d.DamHeight == nil {
		return model.Region{}, model.Errorf(model.KindGeometry, "zone: dam %s has no dam height", d.ID)
	}
	height := *d.DamHeight
	if height < 0 {
		return model.Region{}, model.Errorf(model.KindGeometry, "zone: dam %s has negative dam height %g", d.ID, height)
	}

	center, err := b.geo.Substring(d.Geom, 0, CenterLength(height, pair))
	if err != nil {
		return model.Region{}, model.NewError(model.KindGeometry, eris.Wrapf(err, "zone: center line of dam %s", d.ID))
	}
	poly, err := b.geo.Buffer(center, Radius(height, pair), b.params)
	if err != nil {
		return model.Region{}, model.NewError(model.KindGeometry, eris.Wrapf(err, "zone: region of dam %s", d.ID))
	}

	return model.Region{
		DamID:      d.ID,
		DamHeight:  height,
		Pair:       pair,
		CenterLine: center,
		Polygon:    poly,
	}, nil
}
