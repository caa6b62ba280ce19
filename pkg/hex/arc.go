package hex

import "math"

// Arc is a firing arc relative to a unit's facing.
type Arc int

const (
	ArcForward Arc = iota
	ArcLeft
	ArcRight
	ArcRear
)

var arcNames = [...]string{"forward", "left", "right", "rear"}

func (a Arc) String() string {
	if a < ArcForward || a > ArcRear {
		return "unknown"
	}
	return arcNames[a]
}

// ArcEpsilon widens the arc boundaries (in degrees) so a target sitting exactly on
// 60 or 120 degrees lands on the same side every time.
var ArcEpsilon = 1e-4

// facingVector is the plane direction from a hex centre to the centre of its
// neighbor across facing f.
func facingVector(f Facing) point {
	angle := float64(f.normalize())*math.Pi/3 - math.Pi/2
	return point{x: math.Cos(angle), y: math.Sin(angle)}
}

// ArcOf classifies target relative to a unit at origin facing f. The target must
// not be the origin hex itself; for that case ArcForward is returned.
//
// Forward covers up to 60 degrees either side of the facing, Left and Right up to
// 120 degrees split by which side of the facing line the target falls, and Rear
// the rest.
func ArcOf(origin Coordinate, f Facing, target Coordinate) Arc {
	if origin == target {
		return ArcForward
	}
	fv := facingVector(f)
	o, t := center(origin), center(target)
	tv := point{x: t.x - o.x, y: t.y - o.y}

	cos := (fv.x*tv.x + fv.y*tv.y) / math.Hypot(tv.x, tv.y)
	cos = math.Max(-1, math.Min(1, cos))
	deg := math.Acos(cos) * 180 / math.Pi

	switch {
	case deg <= 60+ArcEpsilon:
		return ArcForward
	case deg > 120+ArcEpsilon:
		return ArcRear
	}
	// y grows downward, so a positive cross product means clockwise of the facing.
	if fv.x*tv.y-fv.y*tv.x > 0 {
		return ArcRight
	}
	return ArcLeft
}

// InArc returns the hexes within radius of origin that fall in arc for a unit facing f.
// The origin hex is never part of any arc.
func InArc(origin Coordinate, f Facing, arc Arc, radius int) []Coordinate {
	var out []Coordinate
	for _, c := range InRange(origin, radius) {
		if c == origin {
			continue
		}
		if ArcOf(origin, f, c) == arc {
			out = append(out, c)
		}
	}
	return out
}
