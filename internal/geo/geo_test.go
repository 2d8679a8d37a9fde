package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closedloop-vr/ballrig/pkg/core"
)

func TestSite3857From4326(t *testing.T) {
	// Null island maps to the web-mercator origin.
	p, err := Site3857From4326(0, 0)
	require.NoError(t, err)
	xy, ok := p.XY()
	require.True(t, ok)
	assert.InDelta(t, 0, xy.X, 1e-6)
	assert.InDelta(t, 0, xy.Y, 1e-6)

	// A known landmark stays in the right ballpark.
	p, err = Site3857From4326(-77.16, 39.06)
	require.NoError(t, err)
	xy, _ = p.XY()
	assert.InDelta(t, -8.589e6, xy.X, 1e4)
	assert.InDelta(t, 4.732e6, xy.Y, 1e4)
}

func TestSite3857RejectsBadCoords(t *testing.T) {
	_, err := Site3857From4326(-200, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	_, err = Site3857From4326(0, 95)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestPathLineString(t *testing.T) {
	positions := []core.Vec3{
		{X: 0, Z: 0},
		{X: 1, Z: 0},
		{X: 1, Z: 2},
	}

	ls, err := PathLineString(positions)
	require.NoError(t, err)
	assert.Equal(t, 3, ls.Coordinates().Length())

	wkt := PathWKT(positions)
	assert.True(t, strings.HasPrefix(wkt, "LINESTRING"))
}

func TestPathTooShort(t *testing.T) {
	_, err := PathLineString([]core.Vec3{{X: 1}})
	assert.Error(t, err)
	assert.Equal(t, "", PathWKT(nil))
}
