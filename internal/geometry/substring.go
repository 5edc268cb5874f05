package geometry

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Substring extracts the portion of a line from start to end, both measured
// along the line from its first vertex. Distances past the end of the line are
// clamped. The result is always 2D. A point input, or a result of zero length,
// yields a point at the start distance.
func Substring(g geom.T, start, end float64) (geom.T, error) {
	if g == nil {
		return nil, eris.New("geometry: substring of nil geometry")
	}
	if start < 0 || end < 0 || math.IsNaN(start) || math.IsNaN(end) {
		return nil, eris.Errorf("geometry: invalid substring range [%g, %g]", start, end)
	}
	if end < start {
		end = start
	}

	switch t := g.(type) {
	case *geom.Point:
		if t.Empty() {
			return nil, eris.New("geometry: substring of empty point")
		}
		return geom.NewPointFlat(geom.XY, []float64{t.X(), t.Y()}), nil

	case *geom.LineString:
		if t.NumCoords() == 0 {
			return nil, eris.New("geometry: substring of empty line")
		}
		flat := cut(t.FlatCoords(), t.Stride(), start, end)
		if len(flat) < 4 || flatLength(flat) == 0 {
			return pointAt(t.FlatCoords(), t.Stride(), start), nil
		}
		return geom.NewLineStringFlat(geom.XY, flat), nil

	case *geom.MultiLineString:
		if t.NumLineStrings() == 0 {
			return nil, eris.New("geometry: substring of empty multiline")
		}
		out := geom.NewMultiLineString(geom.XY)
		offset := 0.0
		for i := 0; i < t.NumLineStrings(); i++ {
			ls := t.LineString(i)
			l := ls.Length()
			lo, hi := start-offset, end-offset
			offset += l
			if hi <= 0 || lo >= l {
				continue
			}
			flat := cut(ls.FlatCoords(), ls.Stride(), math.Max(lo, 0), math.Min(hi, l))
			if len(flat) < 4 || flatLength(flat) == 0 {
				continue
			}
			if err := out.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
				return nil, eris.Wrap(err, "geometry: assemble multiline substring")
			}
		}
		if out.NumLineStrings() == 0 {
			first := t.LineString(0)
			return pointAt(first.FlatCoords(), first.Stride(), 0), nil
		}
		return out, nil

	default:
		return nil, eris.Errorf("geometry: substring unsupported for %T", g)
	}
}

// Length returns the planar length of a lineal geometry; 0 for anything else.
func Length(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.LineString:
		return t.Length()
	case *geom.MultiLineString:
		return t.Length()
	default:
		return 0
	}
}

// cut walks the vertices of a flat coordinate slice and returns the XY
// coordinates of the section [start, end].
func cut(flat []float64, stride int, start, end float64) []float64 {
	var out []float64
	walked := 0.0
	for i := 0; i+stride < len(flat); i += stride {
		x0, y0 := flat[i], flat[i+1]
		x1, y1 := flat[i+stride], flat[i+stride+1]
		seg := math.Hypot(x1-x0, y1-y0)
		if seg == 0 {
			continue
		}
		if walked+seg < start {
			walked += seg
			continue
		}
		if out == nil {
			out = append(out, lerp(x0, y0, x1, y1, (start-walked)/seg)...)
		}
		if walked+seg >= end {
			return append(out, lerp(x0, y0, x1, y1, (end-walked)/seg)...)
		}
		out = append(out, x1, y1)
		walked += seg
	}
	return out
}

func pointAt(flat []float64, stride int, d float64) *geom.Point {
	xy := cut(flat, stride, d, d)
	if len(xy) < 2 {
		// Past the end, or every segment has zero length.
		n := len(flat) - stride
		if d == 0 || n < 0 {
			n = 0
		}
		xy = []float64{flat[n], flat[n+1]}
	}
	return geom.NewPointFlat(geom.XY, xy[:2])
}

func lerp(x0, y0, x1, y1, t float64) []float64 {
	if t <= 0 {
		return []float64{x0, y0}
	}
	if t >= 1 {
		return []float64{x1, y1}
	}
	return []float64{x0 + t*(x1-x0), y0 + t*(y1-y0)}
}

func flatLength(xy []float64) float64 {
	var l float64
	for i := 2; i+1 < len(xy); i += 2 {
		l += math.Hypot(xy[i]-xy[i-2], xy[i+1]-xy[i-1])
	}
	return l
}
