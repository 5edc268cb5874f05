package geometry

import (
	"sort"

	cgeom "github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Matcher refines bounding-box candidates into exact intersects matches.
// Match prepares a query geometry and returns a test for indexed positions.
type Matcher interface {
	Match(query geom.T) (func(pos int) bool, error)
}

// Index is an R-tree over the bounding boxes of a fixed geometry set.
// It is read-only after construction and safe for concurrent queries.
type Index struct {
	tree    *rtree.Rtree
	size    int
	matcher Matcher
}

// indexEntry is a tree item: the bounds of the geometry at pos.
type indexEntry struct {
	cgeom.Geom
	pos int
}

// NewIndex indexes geoms by position. With a nil matcher, bounding-box
// overlap is treated as intersection.
func NewIndex(geoms []geom.T, m Matcher) (*Index, error) {
	tree := rtree.NewTree(25, 50)
	for i, g := range geoms {
		if g == nil {
			return nil, eris.Errorf("geometry: index: nil geometry at position %d", i)
		}
		b, ok := toBounds(g.Bounds())
		if !ok {
			continue
		}
		tree.Insert(&indexEntry{Geom: b, pos: i})
	}
	return &Index{tree: tree, size: len(geoms), matcher: m}, nil
}

// Len returns the number of geometries the index was built from.
func (ix *Index) Len() int { return ix.size }

// Intersecting returns, in ascending order, the positions of indexed
// geometries that intersect query.
func (ix *Index) Intersecting(query geom.T) ([]int, error) {
	if query == nil {
		return nil, nil
	}
	b, ok := toBounds(query.Bounds())
	if !ok {
		return nil, nil
	}

	hits := ix.tree.SearchIntersect(b)
	if len(hits) == 0 {
		return nil, nil
	}
	positions := make([]int, 0, len(hits))
	for _, h := range hits {
		positions = append(positions, h.(*indexEntry).pos)
	}
	sort.Ints(positions)

	if ix.matcher == nil {
		return positions, nil
	}
	test, err := ix.matcher.Match(query)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: index: prepare query")
	}
	matched := positions[:0]
	for _, p := range positions {
		if test(p) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func toBounds(b *geom.Bounds) (*cgeom.Bounds, bool) {
	if b == nil || b.IsEmpty() {
		return nil, false
	}
	return &cgeom.Bounds{
		Min: cgeom.Point{X: b.Min(0), Y: b.Min(1)},
		Max: cgeom.Point{X: b.Max(0), Y: b.Max(1)},
	}, true
}
