package geo

import (
	"fmt"

	"github.com/mechgrid/turnengine/pkg/hex"
	geom "github.com/peterstace/simplefeatures/geom"
)

// PathLineString turns the hexes a path visits into a line string through their
// centres. Paths that never leave their starting hex have no line.
func PathLineString(p hex.Path) (geom.LineString, error) {
	hexes := p.Hexes()
	if len(hexes) < 2 {
		return geom.LineString{}, fmt.Errorf("path must visit at least 2 hexes, got %d", len(hexes))
	}

	flatCoords := make([]float64, 0, len(hexes)*2)
	for _, c := range hexes {
		x, y := hex.Center(c)
		flatCoords = append(flatCoords, x, y)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq)
}

// HexesFromLineString recovers the visited hexes from a line written by PathLineString.
func HexesFromLineString(ls geom.LineString) []hex.Coordinate {
	seq := ls.Coordinates()
	out := make([]hex.Coordinate, 0, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		out = append(out, hex.Nearest(xy.X, xy.Y))
	}
	return out
}

// PathLength is the planar length of the line through the visited hexes.
func PathLength(p hex.Path) float64 {
	ls, err := PathLineString(p)
	if err != nil {
		return 0
	}
	return ls.Length()
}
