package hex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFindPath_StraightLine(t *testing.T) {
	b := NewBoard(10, 10)
	path := FindPath(b, P(2, 5, North), P(2, 2, AnyFacing), 10, nil)

	require.NotNil(t, path)
	assert.Equal(t, 3, path.Cost())
	assert.Equal(t, 3, path.HexesMoved())
	assert.Equal(t, P(2, 2, North), path.End())
	assert.NoError(t, path.Validate(b, 10, nil))
}

func TestFindPath_AlreadyThere(t *testing.T) {
	b := NewBoard(5, 5)
	path := FindPath(b, P(1, 1, South), P(1, 1, AnyFacing), 0, nil)
	require.NotNil(t, path)
	assert.Empty(t, path)
}

func TestFindPath_TurnInPlace(t *testing.T) {
	b := NewBoard(5, 5)
	path := FindPath(b, P(1, 1, North), P(1, 1, South), 5, nil)
	require.NotNil(t, path)
	assert.Equal(t, 3, path.Cost())
	assert.Equal(t, 0, path.HexesMoved())
	assert.Equal(t, P(1, 1, South), path.End())
}

func TestFindPath_FinalFacingCosts(t *testing.T) {
	b := NewBoard(10, 10)
	free := FindPath(b, P(4, 6, North), P(4, 3, AnyFacing), 20, nil)
	faced := FindPath(b, P(4, 6, North), P(4, 3, South), 20, nil)
	require.NotNil(t, free)
	require.NotNil(t, faced)
	assert.Equal(t, 3, free.Cost())
	assert.Equal(t, 6, faced.Cost())
	assert.Equal(t, South, faced.End().Facing)
}

func TestFindPath_OutOfBudget(t *testing.T) {
	b := NewBoard(10, 10)
	assert.Nil(t, FindPath(b, P(0, 0, South), P(0, 6, AnyFacing), 5, nil))
	assert.NotNil(t, FindPath(b, P(0, 0, South), P(0, 6, AnyFacing), 6, nil))
}

func TestFindPath_AvoidsForbidden(t *testing.T) {
	b := NewBoard(10, 10)
	forbidden := map[Coordinate]bool{C(4, 4): true}
	path := FindPath(b, P(4, 6, North), P(4, 2, AnyFacing), 20, forbidden)

	require.NotNil(t, path)
	for _, c := range path.Hexes() {
		assert.NotEqual(t, C(4, 4), c)
	}
	assert.Greater(t, path.Cost(), 4)
	assert.NoError(t, path.Validate(b, 20, forbidden))

	assert.Nil(t, FindPath(b, P(4, 6, North), P(4, 4, AnyFacing), 20, forbidden))
}

func TestFindPath_TerrainAndElevation(t *testing.T) {
	b := NewBoard(3, 6)
	b.Set(C(1, 3), 0, Terrain{Kind: HeavyWoods})
	b.Set(C(1, 2), 5)

	// (1,2) is a cliff; the cheapest way round avoids both it and the woods.
	path := FindPath(b, P(1, 5, North), P(1, 0, AnyFacing), 30, nil)
	require.NotNil(t, path)
	for _, c := range path.Hexes() {
		assert.NotEqual(t, C(1, 2), c)
	}
	assert.NoError(t, path.Validate(b, 30, nil))
}

func TestFindPath_OffBoard(t *testing.T) {
	b := NewBoard(3, 3)
	assert.Nil(t, FindPath(b, P(0, 0, North), P(7, 7, AnyFacing), 50, nil))
	assert.Nil(t, FindPath(b, P(-1, 0, North), P(1, 1, AnyFacing), 50, nil))
}

func TestFindPath_CostBound(t *testing.T) {
	b := NewBoard(12, 12)
	rapid.Check(t, func(t *rapid.T) {
		start := P(rapid.IntRange(0, 11).Draw(t, "sq"), rapid.IntRange(0, 11).Draw(t, "sr"),
			Facing(rapid.IntRange(0, 5).Draw(t, "sf")))
		target := C(rapid.IntRange(0, 11).Draw(t, "tq"), rapid.IntRange(0, 11).Draw(t, "tr"))
		budget := rapid.IntRange(0, 14).Draw(t, "budget")

		path := FindPath(b, start, Position{Coordinate: target, Facing: AnyFacing}, budget, nil)
		if Distance(start.Coordinate, target) > budget {
			if path != nil {
				t.Fatalf("found path to %v %d away with budget %d", target, Distance(start.Coordinate, target), budget)
			}
			return
		}
		if path == nil {
			return
		}
		if path.Cost() > budget {
			t.Fatalf("path cost %d over budget %d", path.Cost(), budget)
		}
		if len(path) > 0 && path.End().Coordinate != target {
			t.Fatalf("path ends at %v, want %v", path.End(), target)
		}
		if err := path.Validate(b, budget, nil); err != nil {
			t.Fatalf("returned path invalid: %v", err)
		}
	})
}

func TestReachable_MatchesFindPath(t *testing.T) {
	b := NewBoard(8, 8)
	b.Set(C(3, 3), 0, Terrain{Kind: LightWoods})
	start := P(3, 5, North)
	reach := Reachable(b, start, 4, nil)

	assert.Equal(t, 0, reach[start])
	for pos, cost := range reach {
		path := FindPath(b, start, pos, 4, nil)
		require.NotNil(t, path, "position %v reachable but no path", pos)
		assert.Equal(t, cost, path.Cost(), "position %v", pos)
	}
	_, ok := reach[P(3, 0, North)]
	assert.False(t, ok)
}

func TestReachable_Forbidden(t *testing.T) {
	b := NewBoard(5, 5)
	reach := Reachable(b, P(2, 2, North), 3, map[Coordinate]bool{C(2, 1): true})
	for pos := range reach {
		assert.NotEqual(t, C(2, 1), pos.Coordinate)
	}
}

func TestPathValidate(t *testing.T) {
	b := NewBoard(5, 5)
	good := Path{
		{From: P(2, 2, North), To: P(2, 1, North), Cost: 1},
		{From: P(2, 1, North), To: P(2, 1, NorthEast), Cost: 1},
	}
	require.NoError(t, good.Validate(b, 2, nil))
	assert.ErrorIs(t, good.Validate(b, 1, nil), ErrPathBudget)
	assert.ErrorIs(t, good.Validate(b, 5, map[Coordinate]bool{C(2, 1): true}), ErrPathForbidden)

	broken := Path{
		{From: P(2, 2, North), To: P(2, 1, North), Cost: 1},
		{From: P(2, 3, North), To: P(2, 2, North), Cost: 1},
	}
	assert.ErrorIs(t, broken.Validate(b, 5, nil), ErrPathBroken)

	jump := Path{{From: P(2, 2, North), To: P(2, 0, North), Cost: 2}}
	assert.ErrorIs(t, jump.Validate(b, 5, nil), ErrPathStep)

	lying := Path{{From: P(2, 2, North), To: P(2, 1, North), Cost: 0}}
	assert.ErrorIs(t, lying.Validate(b, 5, nil), ErrPathCost)
}
