package hex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func drawCoordinate(t *rapid.T, label string) Coordinate {
	return C(rapid.IntRange(-40, 40).Draw(t, label+".q"), rapid.IntRange(-40, 40).Draw(t, label+".r"))
}

func TestCubeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := drawCoordinate(t, "c")
		cube := c.Cube()
		if cube.X+cube.Y+cube.Z != 0 {
			t.Fatalf("cube %v does not sum to zero", cube)
		}
		if got := cube.Coordinate(); got != c {
			t.Fatalf("round trip %v -> %v -> %v", c, cube, got)
		}
	})
}

func TestDistance_Symmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a, b := drawCoordinate(t, "a"), drawCoordinate(t, "b")
		if Distance(a, b) != Distance(b, a) {
			t.Fatalf("distance(%v,%v)=%d but distance(%v,%v)=%d", a, b, Distance(a, b), b, a, Distance(b, a))
		}
		if (Distance(a, b) == 0) != (a == b) {
			t.Fatalf("distance zero must mean equal: %v %v", a, b)
		}
	})
}

func TestDistance_TriangleInequality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a, b, c := drawCoordinate(t, "a"), drawCoordinate(t, "b"), drawCoordinate(t, "c")
		if Distance(a, c) > Distance(a, b)+Distance(b, c) {
			t.Fatalf("triangle inequality broken for %v %v %v", a, b, c)
		}
	})
}

func TestNeighbor_DirectionInverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawCoordinate(t, "a")
		f := Facing(rapid.IntRange(0, 5).Draw(t, "facing"))
		n := a.Neighbor(f)
		got, err := Direction(a, n)
		if err != nil {
			t.Fatalf("direction(%v,%v): %v", a, n, err)
		}
		if got != f {
			t.Fatalf("direction(%v, neighbor %s) = %s", a, f, got)
		}
		if Distance(a, n) != 1 {
			t.Fatalf("neighbor %v of %v is %d away", n, a, Distance(a, n))
		}
		if back := n.Neighbor(f.Opposite()); back != a {
			t.Fatalf("opposite step from %v lands on %v, want %v", n, back, a)
		}
	})
}

func TestNeighbor_ParityTables(t *testing.T) {
	even := C(2, 2)
	assert.Equal(t, C(2, 1), even.Neighbor(North))
	assert.Equal(t, C(3, 1), even.Neighbor(NorthEast))
	assert.Equal(t, C(3, 2), even.Neighbor(SouthEast))
	assert.Equal(t, C(2, 3), even.Neighbor(South))
	assert.Equal(t, C(1, 2), even.Neighbor(SouthWest))
	assert.Equal(t, C(1, 1), even.Neighbor(NorthWest))

	odd := C(3, 2)
	assert.Equal(t, C(3, 1), odd.Neighbor(North))
	assert.Equal(t, C(4, 2), odd.Neighbor(NorthEast))
	assert.Equal(t, C(4, 3), odd.Neighbor(SouthEast))
	assert.Equal(t, C(3, 3), odd.Neighbor(South))
	assert.Equal(t, C(2, 3), odd.Neighbor(SouthWest))
	assert.Equal(t, C(2, 2), odd.Neighbor(NorthWest))
}

func TestDirection_NotAdjacent(t *testing.T) {
	_, err := Direction(C(0, 0), C(2, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAdjacent))

	_, err = Direction(C(1, 1), C(1, 1))
	assert.ErrorIs(t, err, ErrNotAdjacent)

	assert.Panics(t, func() { MustDirection(C(0, 0), C(0, 5)) })
}

func TestInRange_Cardinality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		center := drawCoordinate(t, "center")
		radius := rapid.IntRange(0, 8).Draw(t, "radius")
		got := InRange(center, radius)
		if want := 1 + 3*radius*(radius+1); len(got) != want {
			t.Fatalf("InRange(%v,%d) has %d hexes, want %d", center, radius, len(got), want)
		}
		seen := make(map[Coordinate]bool, len(got))
		for _, c := range got {
			if seen[c] {
				t.Fatalf("duplicate %v", c)
			}
			seen[c] = true
			if d := Distance(center, c); d > radius {
				t.Fatalf("%v is %d from centre, radius %d", c, d, radius)
			}
		}
	})
}

func TestInRange_Negative(t *testing.T) {
	assert.Empty(t, InRange(C(0, 0), -1))
}

func TestScenario_EvenColumnOrigin(t *testing.T) {
	origin := C(0, 0)
	assert.Equal(t, 2, Distance(origin, C(2, 0)))

	ring := InRange(origin, 1)
	require.Len(t, ring, 7)
	var around []Coordinate
	for _, c := range ring {
		if c != origin {
			around = append(around, c)
		}
	}
	require.Len(t, around, 6)
	for _, c := range around {
		assert.Equal(t, 1, Distance(origin, c), "hex %v", c)
	}
}

func TestTurnCost(t *testing.T) {
	tests := []struct {
		a, b Facing
		want int
	}{
		{North, North, 0},
		{North, NorthEast, 1},
		{North, NorthWest, 1},
		{North, SouthEast, 2},
		{North, South, 3},
		{SouthWest, NorthEast, 3},
		{NorthWest, NorthEast, 2},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"->"+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, TurnCost(tt.a, tt.b))
			assert.Equal(t, tt.want, TurnCost(tt.b, tt.a))
		})
	}
}

func TestFacingRotate(t *testing.T) {
	assert.Equal(t, NorthWest, North.Rotate(-1))
	assert.Equal(t, North, NorthWest.Rotate(1))
	assert.Equal(t, South, North.Opposite())
	assert.Equal(t, NorthEast, North.Rotate(13))
}
