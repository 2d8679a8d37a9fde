package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/closedloop-vr/ballrig/pkg/core"
)

// PathLineString builds a linestring from the agent's recorded world
// positions, projected onto the arena floor (X/Z plane). Needs at least
// two positions.
func PathLineString(positions []core.Vec3) (geom.LineString, error) {
	if len(positions) < 2 {
		return geom.LineString{}, fmt.Errorf("path needs at least 2 points, got %d", len(positions))
	}

	flat := make([]float64, 0, len(positions)*2)
	for _, p := range positions {
		flat = append(flat, p.X, p.Z)
	}

	seq := geom.NewSequence(flat, geom.DimXY)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return geom.LineString{}, fmt.Errorf("building path linestring: %w", err)
	}
	return ls, nil
}

// PathWKT renders the recorded path as WKT, or "" when it is too short
// to form a line.
func PathWKT(positions []core.Vec3) string {
	ls, err := PathLineString(positions)
	if err != nil {
		return ""
	}
	return ls.AsText()
}
