package shapefile

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// ToGeom converts a shapefile shape to a 2D go-geom geometry. Lines become a
// LineString (one part) or MultiLineString; polygons always become a
// MultiPolygon. Returns nil, nil for null shapes.
func ToGeom(shape shp.Shape) (geom.T, error) {
	switch s := shape.(type) {
	case nil, *shp.Null:
		return nil, nil
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), nil
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), nil
	case *shp.PolyLine:
		return toLine(splitParts(s.NumParts, s.Parts, s.Points))
	case *shp.PolyLineZ:
		return toLine(splitParts(s.NumParts, s.Parts, s.Points))
	case *shp.PolyLineM:
		return toLine(splitParts(s.NumParts, s.Parts, s.Points))
	case *shp.Polygon:
		return toMultiPolygon(splitParts(s.NumParts, s.Parts, s.Points))
	case *shp.PolygonZ:
		return toMultiPolygon(splitParts(s.NumParts, s.Parts, s.Points))
	default:
		return nil, eris.Errorf("shapefile: unsupported shape type %T", shape)
	}
}

// splitParts slices a shapefile point array into flat XY coordinates per part.
func splitParts(numParts int32, parts []int32, points []shp.Point) [][]float64 {
	if numParts == 0 || len(points) == 0 {
		return nil
	}
	out := make([][]float64, 0, numParts)
	for i := int32(0); i < numParts; i++ {
		start := parts[i]
		end := int32(len(points))
		if i+1 < numParts {
			end = parts[i+1]
		}
		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, points[j].X, points[j].Y)
		}
		out = append(out, flat)
	}
	return out
}

func toLine(parts [][]float64) (geom.T, error) {
	var lines []*geom.LineString
	for i, flat := range parts {
		if len(flat) < 4 {
			zap.L().Debug("shapefile: skipping degenerate line part", zap.Int("part", i))
			continue
		}
		lines = append(lines, geom.NewLineStringFlat(geom.XY, flat))
	}
	switch len(lines) {
	case 0:
		return nil, nil
	case 1:
		return lines[0], nil
	}
	mls := geom.NewMultiLineString(geom.XY)
	for _, ls := range lines {
		if err := mls.Push(ls); err != nil {
			return nil, eris.Wrap(err, "shapefile: assemble multiline")
		}
	}
	return mls, nil
}

// toMultiPolygon groups rings into polygons: shapefile shells wind clockwise
// and holes counter-clockwise, each hole following its shell.
func toMultiPolygon(parts [][]float64) (geom.T, error) {
	mp := geom.NewMultiPolygon(geom.XY)
	var cur *geom.Polygon
	flush := func() error {
		if cur == nil {
			return nil
		}
		if err := mp.Push(cur); err != nil {
			return eris.Wrap(err, "shapefile: assemble multipolygon")
		}
		cur = nil
		return nil
	}

	for i, flat := range parts {
		if len(flat) < 8 {
			zap.L().Debug("shapefile: skipping degenerate ring", zap.Int("part", i))
			continue
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)
		isHole := cur != nil && xy.IsRingCounterClockwise(geom.XY, flat)
		if !isHole {
			if err := flush(); err != nil {
				return nil, err
			}
			cur = geom.NewPolygon(geom.XY)
		}
		if err := cur.Push(ring); err != nil {
			return nil, eris.Wrapf(err, "shapefile: ring %d", i)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if mp.NumPolygons() == 0 {
		return nil, nil
	}
	return mp, nil
}
