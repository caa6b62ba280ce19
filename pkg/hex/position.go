package hex

import "fmt"

// Facing is one of the six hexside orientations, clockwise from north.
type Facing int

const (
	North Facing = iota
	NorthEast
	SouthEast
	South
	SouthWest
	NorthWest
)

var facingNames = [6]string{"N", "NE", "SE", "S", "SW", "NW"}

func (f Facing) String() string {
	return facingNames[f.normalize()]
}

// Valid reports whether f is one of the six facings.
func (f Facing) Valid() bool {
	return f >= North && f <= NorthWest
}

func (f Facing) normalize() int {
	return ((int(f) % 6) + 6) % 6
}

// Rotate returns f turned by steps hexsides; positive is clockwise.
func (f Facing) Rotate(steps int) Facing {
	return Facing((f.normalize() + steps%6 + 6) % 6)
}

// Opposite returns the facing pointing the other way.
func (f Facing) Opposite() Facing {
	return f.Rotate(3)
}

// TurnCost is the number of hexside turns needed to go from facing a to facing b,
// taking the shorter way round.
func TurnCost(a, b Facing) int {
	d := abs(a.normalize() - b.normalize())
	return min(d, 6-d)
}

// Position is a hex together with the facing of whatever stands in it.
type Position struct {
	Coordinate
	Facing Facing `json:"facing"`
}

// P is shorthand for a Position at (q, r) facing f.
func P(q, r int, f Facing) Position {
	return Position{Coordinate: C(q, r), Facing: f}
}

func (p Position) String() string {
	return fmt.Sprintf("%s %s", p.Coordinate, p.Facing)
}

// Forward returns the position one hex ahead, keeping the facing.
func (p Position) Forward() Position {
	return Position{Coordinate: p.Neighbor(p.Facing), Facing: p.Facing}
}

// Turn returns the position turned in place by steps hexsides.
func (p Position) Turn(steps int) Position {
	return Position{Coordinate: p.Coordinate, Facing: p.Facing.Rotate(steps)}
}
