package hex

import "math"

// LOSTieEpsilon is how close (in hex widths) the sightline must pass to two hex
// centres for both hexes to count as lying on it.
var LOSTieEpsilon = 0.05

// SightSegment is one slot along a sightline. Alt is set when the line runs exactly
// along the hexside between Main and Alt; the defender picks which one applies.
type SightSegment struct {
	Main Coordinate  `json:"main"`
	Alt  *Coordinate `json:"alt,omitempty"`
}

// Options returns the hexes of the slot, one or two.
func (s SightSegment) Options() []Coordinate {
	if s.Alt == nil {
		return []Coordinate{s.Main}
	}
	return []Coordinate{s.Main, *s.Alt}
}

// Equal compares two slots. A two-option slot {A,B} equals {B,A}.
func (s SightSegment) Equal(o SightSegment) bool {
	switch {
	case s.Alt == nil && o.Alt == nil:
		return s.Main == o.Main
	case s.Alt == nil || o.Alt == nil:
		return false
	default:
		return (s.Main == o.Main && *s.Alt == *o.Alt) || (s.Main == *o.Alt && *s.Alt == o.Main)
	}
}

// point is a location on the plane in hex-width units (flat-topped hexes, y down).
type point struct {
	x, y float64
}

func center(c Coordinate) point {
	return point{
		x: 1.5 * float64(c.Q),
		y: math.Sqrt(3) * (float64(c.R) + 0.5*float64(c.Q&1)),
	}
}

func (p point) dist(o point) float64 {
	return math.Hypot(p.x-o.x, p.y-o.y)
}

// nearest rounds a plane point to the hex containing it.
func nearest(p point) Coordinate {
	fx := p.x / 1.5
	fz := p.y/math.Sqrt(3) - fx/2
	fy := -fx - fz

	rx, ry, rz := math.Round(fx), math.Round(fy), math.Round(fz)
	dx, dy, dz := math.Abs(rx-fx), math.Abs(ry-fy), math.Abs(rz-fz)
	switch {
	case dx > dy && dx > dz:
		rx = -ry - rz
	case dy > dz:
		ry = -rx - rz
	default:
		rz = -rx - ry
	}
	return Cube{X: int(rx), Y: int(ry), Z: int(rz)}.Coordinate()
}

// Center is the centre of c on the plane, in hex-width units with y pointing down.
func Center(c Coordinate) (x, y float64) {
	p := center(c)
	return p.x, p.y
}

// Nearest is the hex containing the plane point (x, y).
func Nearest(x, y float64) Coordinate {
	return nearest(point{x: x, y: y})
}

// Sightline returns the slots on the straight line from a to b, both ends included.
func Sightline(a, b Coordinate) []SightSegment {
	n := Distance(a, b)
	if n == 0 {
		return []SightSegment{{Main: a}}
	}
	pa, pb := center(a), center(b)
	out := make([]SightSegment, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		p := point{x: pa.x + (pb.x-pa.x)*t, y: pa.y + (pb.y-pa.y)*t}
		main := nearest(p)
		seg := SightSegment{Main: main}
		if i > 0 && i < n {
			d := p.dist(center(main))
			for _, nb := range main.Neighbors() {
				if math.Abs(p.dist(center(nb))-d) <= LOSTieEpsilon {
					alt := nb
					seg.Alt = &alt
					break
				}
			}
		}
		out = append(out, seg)
	}
	return out
}

// LineOfSight reports whether a can see b across board. The sight ceiling at each
// intervening hex is interpolated between the two endpoint ceilings by distance; a
// hex whose own ceiling rises above it blocks. When a slot has two options the
// defender picks, so either option blocking is enough. Off-board endpoints never
// see anything.
func LineOfSight(board *Board, a, b Coordinate) bool {
	from, ok := board.Cell(a)
	if !ok {
		return false
	}
	to, ok := board.Cell(b)
	if !ok {
		return false
	}
	n := Distance(a, b)
	if n <= 1 {
		return true
	}
	hFrom, hTo := float64(from.Ceiling()), float64(to.Ceiling())
	line := Sightline(a, b)
	for i := 1; i < len(line)-1; i++ {
		t := float64(i) / float64(n)
		limit := hFrom + (hTo-hFrom)*t
		for _, c := range line[i].Options() {
			if blocks(board, c, limit) {
				return false
			}
		}
	}
	return true
}

func blocks(board *Board, c Coordinate, limit float64) bool {
	cell, ok := board.Cell(c)
	if !ok {
		return false
	}
	return float64(cell.Ceiling()) > limit
}
