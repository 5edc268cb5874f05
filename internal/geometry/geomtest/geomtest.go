// Package geomtest provides a pure-Go geometry engine for tests.
package geomtest

import (
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/damsweep/internal/geometry"
)

// EnvelopeEngine buffers a line into its bounding box grown by the buffer
// distance across the line's direction. For axis-aligned center lines with
// flat end caps this is the exact buffer. Indexes compare bounding boxes.
type EnvelopeEngine struct {
	Buffers atomic.Int64
}

var _ geometry.Engine = (*EnvelopeEngine)(nil)

func (e *EnvelopeEngine) Substring(g geom.T, start, end float64) (geom.T, error) {
	return geometry.Substring(g, start, end)
}

func (e *EnvelopeEngine) Buffer(g geom.T, distance float64, _ geometry.BufferParams) (geom.T, error) {
	if distance < 0 {
		return nil, eris.Errorf("geomtest: negative buffer distance %g", distance)
	}
	e.Buffers.Add(1)
	b := g.Bounds()
	if distance == 0 || b.IsEmpty() {
		return geom.NewPolygon(geom.XY), nil
	}
	dx, dy := b.Max(0)-b.Min(0), b.Max(1)-b.Min(1)
	if dx == 0 && dy == 0 {
		return geom.NewPolygon(geom.XY), nil
	}
	minX, minY, maxX, maxY := b.Min(0), b.Min(1), b.Max(0), b.Max(1)
	if dx >= dy {
		minY, maxY = minY-distance, maxY+distance
	} else {
		minX, maxX = minX-distance, maxX+distance
	}
	return Rect(minX, minY, maxX, maxY), nil
}

func (e *EnvelopeEngine) NewIndex(geoms []geom.T) (*geometry.Index, error) {
	return geometry.NewIndex(geoms, nil)
}

// Rect returns an axis-aligned rectangle polygon.
func Rect(minX, minY, maxX, maxY float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	}, []int{10})
}

// Line returns a straight 2D line through the given x,y pairs.
func Line(xy ...float64) *geom.LineString {
	return geom.NewLineStringFlat(geom.XY, xy)
}
