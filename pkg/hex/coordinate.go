// Package hex implements the spatial substrate of the engine: hex coordinates on a
// staggered-column grid, movement pathfinding over (hex, facing) positions, line of
// sight and firing arcs.
//
// Coordinates are offset (q = column, r = row) with odd columns shifted down by half a
// hex. Distance and line math run on the derived cube coordinates.
package hex

import (
	"errors"
	"fmt"
)

// ErrNotAdjacent is returned when a direction is requested between two coordinates
// that do not share a hexside.
var ErrNotAdjacent = errors.New("adjacency violation")

// Coordinate addresses one hex on the grid.
type Coordinate struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Cube is the cube form of a coordinate. X+Y+Z is always 0.
type Cube struct {
	X, Y, Z int
}

// C is shorthand for Coordinate{Q: q, R: r}.
func C(q, r int) Coordinate {
	return Coordinate{Q: q, R: r}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Q, c.R)
}

// Cube converts the coordinate to cube form.
func (c Coordinate) Cube() Cube {
	x := c.Q
	z := c.R - (c.Q-(c.Q&1))/2
	return Cube{X: x, Y: -x - z, Z: z}
}

// Coordinate converts the cube back to grid form.
func (c Cube) Coordinate() Coordinate {
	return Coordinate{Q: c.X, R: c.Z + (c.X-(c.X&1))/2}
}

func (c Cube) add(o Cube) Cube {
	return Cube{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

func (c Cube) sub(o Cube) Cube {
	return Cube{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z}
}

// neighborOffsets holds the (dq, dr) step per facing, indexed by column parity.
var neighborOffsets = [2][6]Coordinate{
	// even columns
	{{0, -1}, {1, -1}, {1, 0}, {0, 1}, {-1, 0}, {-1, -1}},
	// odd columns
	{{0, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}},
}

// cubeDirections are the cube deltas per facing. They are parity independent.
var cubeDirections = [6]Cube{
	{0, 1, -1},  // N
	{1, 0, -1},  // NE
	{1, -1, 0},  // SE
	{0, -1, 1},  // S
	{-1, 0, 1},  // SW
	{-1, 1, 0},  // NW
}

// Neighbor returns the hex adjacent to c across the hexside faced by f.
func (c Coordinate) Neighbor(f Facing) Coordinate {
	off := neighborOffsets[c.Q&1][f.normalize()]
	return Coordinate{Q: c.Q + off.Q, R: c.R + off.R}
}

// Neighbors returns all six adjacent hexes, indexed by facing.
func (c Coordinate) Neighbors() [6]Coordinate {
	var out [6]Coordinate
	for f := North; f <= NorthWest; f++ {
		out[f] = c.Neighbor(f)
	}
	return out
}

// Direction returns the facing that leads from from to the adjacent hex to.
func Direction(from, to Coordinate) (Facing, error) {
	delta := to.Cube().sub(from.Cube())
	for i, d := range cubeDirections {
		if d == delta {
			return Facing(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s is not next to %s", ErrNotAdjacent, to, from)
}

// MustDirection is like Direction but panics when the hexes are not adjacent.
// Callers are expected to have checked adjacency already.
func MustDirection(from, to Coordinate) Facing {
	f, err := Direction(from, to)
	if err != nil {
		panic(err)
	}
	return f
}

// Distance is the number of hex steps between a and b.
func Distance(a, b Coordinate) int {
	d := a.Cube().sub(b.Cube())
	return max(abs(d.X), abs(d.Y), abs(d.Z))
}

// InRange returns every coordinate within radius hexes of center, center included.
// The result holds exactly 1 + 3R(R+1) coordinates for R >= 0, and nothing for a
// negative radius.
func InRange(center Coordinate, radius int) []Coordinate {
	if radius < 0 {
		return nil
	}
	origin := center.Cube()
	out := make([]Coordinate, 0, 1+3*radius*(radius+1))
	for dx := -radius; dx <= radius; dx++ {
		lo := max(-radius, -dx-radius)
		hi := min(radius, -dx+radius)
		for dy := lo; dy <= hi; dy++ {
			out = append(out, origin.add(Cube{X: dx, Y: dy, Z: -dx - dy}).Coordinate())
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
