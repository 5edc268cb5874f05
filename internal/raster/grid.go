// Package raster holds single-band rasters in memory and computes zonal
// statistics over polygons.
package raster

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Grid is a north-up single-band raster. Values are row-major starting at the
// top-left cell. Grid is read-only after construction.
type Grid struct {
	OriginX    float64 // x of the left edge
	OriginY    float64 // y of the top edge
	CellWidth  float64
	CellHeight float64 // positive; rows advance southwards
	Cols, Rows int
	Values     []float64
	NoData     float64
	HasNoData  bool
}

// Validate checks the grid dimensions are consistent.
func (g *Grid) Validate() error {
	if g.Cols <= 0 || g.Rows <= 0 {
		return eris.Errorf("raster: invalid size %dx%d", g.Cols, g.Rows)
	}
	if g.CellWidth <= 0 || g.CellHeight <= 0 {
		return eris.Errorf("raster: invalid cell size %gx%g", g.CellWidth, g.CellHeight)
	}
	if len(g.Values) != g.Cols*g.Rows {
		return eris.Errorf("raster: have %d values for %dx%d cells", len(g.Values), g.Cols, g.Rows)
	}
	return nil
}

// Extent returns the raster's bounding box.
func (g *Grid) Extent() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(
		g.OriginX, g.OriginY-float64(g.Rows)*g.CellHeight,
		g.OriginX+float64(g.Cols)*g.CellWidth, g.OriginY,
	)
}

// At returns the value of a cell and whether it holds data.
func (g *Grid) At(col, row int) (float64, bool) {
	if col < 0 || row < 0 || col >= g.Cols || row >= g.Rows {
		return 0, false
	}
	v := g.Values[row*g.Cols+col]
	return v, g.valid(v)
}

func (g *Grid) valid(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	return !g.HasNoData || v != g.NoData
}

// ZonalMax returns the maximum over cells whose centre falls inside region
// (a polygon or multipolygon). ok is false when no data cell qualifies, which
// includes regions outside the raster and empty regions.
func (g *Grid) ZonalMax(region geom.T) (float64, bool) {
	polys := polygons(region)
	if len(polys) == 0 {
		return 0, false
	}
	b := region.Bounds()
	if b.IsEmpty() {
		return 0, false
	}

	c0 := clamp(int(math.Floor((b.Min(0)-g.OriginX)/g.CellWidth)), 0, g.Cols-1)
	c1 := clamp(int(math.Ceil((b.Max(0)-g.OriginX)/g.CellWidth))-1, 0, g.Cols-1)
	r0 := clamp(int(math.Floor((g.OriginY-b.Max(1))/g.CellHeight)), 0, g.Rows-1)
	r1 := clamp(int(math.Ceil((g.OriginY-b.Min(1))/g.CellHeight))-1, 0, g.Rows-1)

	best, ok := math.Inf(-1), false
	for r := r0; r <= r1; r++ {
		cy := g.OriginY - (float64(r)+0.5)*g.CellHeight
		if cy < b.Min(1) || cy > b.Max(1) {
			continue
		}
		for c := c0; c <= c1; c++ {
			cx := g.OriginX + (float64(c)+0.5)*g.CellWidth
			if cx < b.Min(0) || cx > b.Max(0) {
				continue
			}
			v := g.Values[r*g.Cols+c]
			if !g.valid(v) || v <= best {
				continue
			}
			if containsPoint(polys, geom.Coord{cx, cy}) {
				best, ok = v, true
			}
		}
	}
	if !ok {
		return 0, false
	}
	return best, true
}

func polygons(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return nil
		}
		return []*geom.Polygon{t}
	case *geom.MultiPolygon:
		out := make([]*geom.Polygon, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			if p := t.Polygon(i); p.NumLinearRings() > 0 {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

// containsPoint tests p against each polygon's shell and holes.
func containsPoint(polys []*geom.Polygon, p geom.Coord) bool {
	for _, poly := range polys {
		shell := poly.LinearRing(0)
		if !xy.IsPointInRing(shell.Layout(), p, shell.FlatCoords()) {
			continue
		}
		inHole := false
		for i := 1; i < poly.NumLinearRings(); i++ {
			hole := poly.LinearRing(i)
			if xy.IsPointInRing(hole.Layout(), p, hole.FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
