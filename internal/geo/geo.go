package geo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mechgrid/turnengine/pkg/hex"
	geom "github.com/peterstace/simplefeatures/geom"
)

// BOARD POINTS
// Hexes are stored as the centre of the hex on a plane measured in hex widths,
// flat-topped with y pointing down, so traces can be drawn without the board.
// Elevation goes in Z. Geometry is written as WKB by the gorm models.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// CoordinateFromString parses "q,r" into a hex coordinate.
func CoordinateFromString(coords string) (hex.Coordinate, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return hex.Coordinate{}, ErrInvalidCoordinates
	}
	q, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return hex.Coordinate{}, ErrInvalidCoordinates
	}
	r, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return hex.Coordinate{}, ErrInvalidCoordinates
	}
	return hex.C(q, r), nil
}

// PointFromCoordinate returns the centre of c at the given elevation. On
// error the point is empty.
func PointFromCoordinate(c hex.Coordinate, elevation int) (geom.Point, error) {
	x, y := hex.Center(c)
	pt, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Z:    float64(elevation),
			Type: geom.DimXYZ,
		},
	)
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXYZ), err
	}
	return pt, nil
}

// CoordinateFromPoint returns the hex containing pt.
func CoordinateFromPoint(pt geom.Point) (hex.Coordinate, error) {
	xy, ok := pt.XY()
	if !ok {
		return hex.Coordinate{}, ErrInvalidCoordinates
	}
	return hex.Nearest(xy.X, xy.Y), nil
}
