package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// GEOSEngine implements Engine on top of the GEOS library. All geometries
// live in a single GEOS context, which serializes calls internally.
type GEOSEngine struct {
	ctx *geos.Context
}

// NewGEOSEngine creates an engine with its own GEOS context.
func NewGEOSEngine() *GEOSEngine {
	return &GEOSEngine{ctx: geos.NewContext()}
}

// Substring truncates lines using go-geom coordinates; GEOS has no
// line-substring operation.
func (e *GEOSEngine) Substring(g geom.T, start, end float64) (geom.T, error) {
	return Substring(g, start, end)
}

// Buffer buffers g with the given style. A zero distance, or a flat-capped
// buffer of a point, yields an empty polygon.
func (e *GEOSEngine) Buffer(g geom.T, distance float64, p BufferParams) (geom.T, error) {
	if distance < 0 {
		return nil, eris.Errorf("geometry: negative buffer distance %g", distance)
	}
	src, err := e.toGEOS(g)
	if err != nil {
		return nil, err
	}

	params := e.ctx.NewBufferParams().
		SetQuadrantSegments(p.Segments).
		SetEndCapStyle(capStyle(p.Cap)).
		SetJoinStyle(joinStyle(p.Join)).
		SetMitreLimit(p.MitreLimit)

	return e.fromGEOS(src.BufferWithParams(params, distance))
}

// NewIndex converts geoms to GEOS once and answers exact intersects queries
// with a prepared query geometry.
func (e *GEOSEngine) NewIndex(geoms []geom.T) (*Index, error) {
	m := &geosMatcher{engine: e, items: make([]*geos.Geom, len(geoms))}
	for i, g := range geoms {
		if g == nil {
			return nil, eris.Errorf("geometry: index: nil geometry at position %d", i)
		}
		gg, err := e.toGEOS(g)
		if err != nil {
			return nil, eris.Wrapf(err, "geometry: index: position %d", i)
		}
		m.items[i] = gg
	}
	return NewIndex(geoms, m)
}

type geosMatcher struct {
	engine *GEOSEngine
	items  []*geos.Geom
}

func (m *geosMatcher) Match(query geom.T) (func(pos int) bool, error) {
	q, err := m.engine.toGEOS(query)
	if err != nil {
		return nil, err
	}
	if q.IsEmpty() {
		return func(int) bool { return false }, nil
	}
	prepared := q.Prepare()
	return func(pos int) bool {
		return prepared.Intersects(m.items[pos])
	}, nil
}

func (e *GEOSEngine) toGEOS(g geom.T) (*geos.Geom, error) {
	if g == nil {
		return nil, eris.New("geometry: nil geometry")
	}
	if empty(g) {
		gg, err := e.ctx.NewGeomFromWKT("POLYGON EMPTY")
		return gg, eris.Wrap(err, "geometry: empty geos polygon")
	}
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: encode wkb")
	}
	gg, err := e.ctx.NewGeomFromWKB(data)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode wkb into geos")
	}
	return gg, nil
}

func (e *GEOSEngine) fromGEOS(g *geos.Geom) (geom.T, error) {
	if g == nil || g.IsEmpty() {
		return geom.NewPolygon(geom.XY), nil
	}
	t, err := wkb.Unmarshal(g.ToWKB())
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode geos wkb")
	}
	return t, nil
}

// empty reports whether g has no coordinates.
func empty(g geom.T) bool {
	return len(g.FlatCoords()) == 0
}

func capStyle(c CapStyle) geos.BufCapStyle {
	switch c {
	case CapFlat:
		return geos.BufCapStyleFlat
	case CapSquare:
		return geos.BufCapStyleSquare
	default:
		return geos.BufCapStyleRound
	}
}

func joinStyle(j JoinStyle) geos.BufJoinStyle {
	switch j {
	case JoinMitre:
		return geos.BufJoinStyleMitre
	case JoinBevel:
		return geos.BufJoinStyleBevel
	default:
		return geos.BufJoinStyleRound
	}
}
