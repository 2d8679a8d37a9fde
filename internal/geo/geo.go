// Package geo holds the small amount of geometry the rig needs: the
// lab site projected to web-mercator for session metadata, and the
// recorded arena path as a linestring for coverage analysis.
package geo

import (
	"errors"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Site3857From4326 converts a WGS84 longitude/latitude to an EPSG:3857
// point. Stored as WKT so SQLite can hold it without spatial extensions.
func Site3857From4326(longitude, latitude float64) (geom.Point, error) {
	if longitude < -180 || longitude > 180 || latitude < -90 || latitude > 90 {
		return geom.Point{}, ErrInvalidCoordinates
	}

	transform := wgs84.LonLat().To(wgs84.WebMercator())
	x, y, _ := transform(longitude, latitude, 0)

	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("building site point: %w", err)
	}
	return pt, nil
}
