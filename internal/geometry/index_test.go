package geometry

import (
	"fmt"
	"testing"

	cgeom "github.com/ctessum/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func rect(minX, minY, maxX, maxY float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	}, []int{10})
}

func TestIndex_BoundsOnly(t *testing.T) {
	ix, err := NewIndex([]geom.T{
		rect(0, 0, 10, 10),
		rect(20, 20, 30, 30),
		rect(5, 5, 25, 25),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Len())

	hits, err := ix.Intersecting(rect(8, 8, 9, 9))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, hits)

	hits, err = ix.Intersecting(rect(100, 100, 101, 101))
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_EmptyQuery(t *testing.T) {
	ix, err := NewIndex([]geom.T{rect(0, 0, 1, 1)}, nil)
	require.NoError(t, err)

	hits, err := ix.Intersecting(geom.NewPolygon(geom.XY))
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = ix.Intersecting(nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

type oddMatcher struct{}

func (oddMatcher) Match(geom.T) (func(int) bool, error) {
	return func(pos int) bool { return pos%2 == 1 }, nil
}

func TestIndex_MatcherRefines(t *testing.T) {
	ix, err := NewIndex([]geom.T{rect(0, 0, 1, 1), rect(0, 0, 1, 1), rect(0, 0, 1, 1)}, oddMatcher{})
	require.NoError(t, err)

	hits, err := ix.Intersecting(rect(0, 0, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, hits)
}

func TestIndex_NilGeometry(t *testing.T) {
	_, err := NewIndex([]geom.T{nil}, nil)
	assert.Error(t, err)
}

var _ cgeom.Geom = (*indexEntry)(nil)

// A 20x20 grid of unit cells splits tree nodes several times over.
func TestIndex_GridMatchesBruteForce(t *testing.T) {
	var cells []geom.T
	for i := 0; i < 20; i++ {
		for j := 0; j < 20; j++ {
			x, y := float64(i)*2, float64(j)*2
			cells = append(cells, rect(x, y, x+1, y+1))
		}
	}
	ix, err := NewIndex(cells, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, ix.Len())

	for _, q := range []*geom.Polygon{
		rect(0.5, 0.5, 4.5, 2.5),
		rect(10.2, 10.2, 10.8, 10.8),
		rect(-5, -5, 100, 100),
		rect(1.2, 1.2, 1.8, 1.8),
	} {
		t.Run(fmt.Sprint(q.FlatCoords()[:2]), func(t *testing.T) {
			var want []int
			qb := q.Bounds()
			for i, c := range cells {
				if c.Bounds().Overlaps(geom.XY, qb) {
					want = append(want, i)
				}
			}
			got, err := ix.Intersecting(q)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}
