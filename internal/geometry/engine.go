// Package geometry provides the geometry engine used to derive downstream
// regions: line truncation, buffering and intersects-indexing.
package geometry

import "github.com/twpayne/go-geom"

// CapStyle is the end-cap style of a line buffer.
type CapStyle int

const (
	CapRound CapStyle = iota
	CapFlat
	CapSquare
)

// JoinStyle is the join style between buffered segments.
type JoinStyle int

const (
	JoinRound JoinStyle = iota
	JoinMitre
	JoinBevel
)

// BufferParams controls buffer construction.
type BufferParams struct {
	Segments   int // segments per quarter circle
	Cap        CapStyle
	Join       JoinStyle
	MitreLimit float64
}

// DownstreamBuffer is the buffer style of downstream regions.
var DownstreamBuffer = BufferParams{
	Segments:   5,
	Cap:        CapFlat,
	Join:       JoinMitre,
	MitreLimit: 2,
}

// Engine is the set of geometry capabilities the sweep depends on.
// Implementations must be safe for concurrent use.
type Engine interface {
	// Substring returns the part of a line between two distances measured
	// from its start. Points and zero-length results degenerate to a point.
	Substring(g geom.T, start, end float64) (geom.T, error)

	// Buffer returns the polygon covering all points within distance of g.
	Buffer(g geom.T, distance float64, p BufferParams) (geom.T, error)

	// NewIndex builds a spatial index answering exact intersects queries.
	NewIndex(geoms []geom.T) (*Index, error)
}
