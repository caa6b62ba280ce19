package hex

import (
	"container/heap"
	"errors"
	"fmt"
)

// Segment is one atomic step of a movement order: either a pure turn in place or
// a move into an adjacent hex (with whatever turning that step needs).
type Segment struct {
	From Position `json:"from"`
	To   Position `json:"to"`
	Cost int      `json:"cost"`
}

// Path is an ordered sequence of segments.
type Path []Segment

// Cost is the total movement points spent on the path.
func (p Path) Cost() int {
	total := 0
	for _, s := range p {
		total += s.Cost
	}
	return total
}

// Start is where the path begins. It is the zero Position for an empty path.
func (p Path) Start() Position {
	if len(p) == 0 {
		return Position{}
	}
	return p[0].From
}

// End is where the path finishes. It is the zero Position for an empty path.
func (p Path) End() Position {
	if len(p) == 0 {
		return Position{}
	}
	return p[len(p)-1].To
}

// HexesMoved counts the segments that change hex.
func (p Path) HexesMoved() int {
	n := 0
	for _, s := range p {
		if s.From.Coordinate != s.To.Coordinate {
			n++
		}
	}
	return n
}

// Hexes returns the coordinates visited, start included, without repeats for turns.
func (p Path) Hexes() []Coordinate {
	if len(p) == 0 {
		return nil
	}
	out := []Coordinate{p[0].From.Coordinate}
	for _, s := range p {
		if s.To.Coordinate != out[len(out)-1] {
			out = append(out, s.To.Coordinate)
		}
	}
	return out
}

// Path validation errors.
var (
	ErrPathBroken    = errors.New("path segments are not contiguous")
	ErrPathStep      = errors.New("illegal path step")
	ErrPathCost      = errors.New("path segment cost does not match the board")
	ErrPathBudget    = errors.New("path exceeds movement budget")
	ErrPathForbidden = errors.New("path enters a forbidden hex")
)

// Validate checks that p is a legal movement order on b: contiguous, each segment a
// turn or a single adjacent step whose declared cost matches the board, no forbidden
// hex entered, and a total within maxPoints.
func (p Path) Validate(b *Board, maxPoints int, forbidden map[Coordinate]bool) error {
	for i, s := range p {
		if i > 0 && p[i-1].To != s.From {
			return fmt.Errorf("%w: segment %d", ErrPathBroken, i)
		}
		want, err := segmentCost(b, s.From, s.To)
		if err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		if want != s.Cost {
			return fmt.Errorf("%w: segment %d costs %d, declared %d", ErrPathCost, i, want, s.Cost)
		}
		if s.To.Coordinate != s.From.Coordinate && forbidden[s.To.Coordinate] {
			return fmt.Errorf("%w: %s", ErrPathForbidden, s.To.Coordinate)
		}
	}
	if total := p.Cost(); total > maxPoints {
		return fmt.Errorf("%w: %d > %d", ErrPathBudget, total, maxPoints)
	}
	return nil
}

func segmentCost(b *Board, from, to Position) (int, error) {
	if !from.Facing.Valid() || !to.Facing.Valid() {
		return 0, fmt.Errorf("%w: invalid facing", ErrPathStep)
	}
	if from.Coordinate == to.Coordinate {
		if !b.Contains(from.Coordinate) {
			return 0, fmt.Errorf("%w: %s is off the board", ErrPathStep, from.Coordinate)
		}
		return TurnCost(from.Facing, to.Facing), nil
	}
	dir, err := Direction(from.Coordinate, to.Coordinate)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPathStep, err)
	}
	if dir != to.Facing {
		return 0, fmt.Errorf("%w: must face %s when entering %s", ErrPathStep, dir, to.Coordinate)
	}
	enter, ok := b.EnterCost(from.Coordinate, to.Coordinate)
	if !ok {
		return 0, fmt.Errorf("%w: %s cannot be entered", ErrPathStep, to.Coordinate)
	}
	return enter + TurnCost(from.Facing, dir), nil
}

// AnyFacing lets FindPath finish in whichever facing is cheapest.
const AnyFacing Facing = -1

// FindPath returns the cheapest path from start to the target hex within maxPoints,
// never entering a forbidden coordinate. When target.Facing is AnyFacing the path
// ends in whatever facing is cheapest, otherwise it ends turned to target.Facing.
// It returns nil when the target cannot be reached within budget.
func FindPath(b *Board, start, target Position, maxPoints int, forbidden map[Coordinate]bool) Path {
	if !b.Contains(start.Coordinate) || !b.Contains(target.Coordinate) || !start.Facing.Valid() {
		return nil
	}
	if forbidden[target.Coordinate] && target.Coordinate != start.Coordinate {
		return nil
	}
	anyFacing := !target.Facing.Valid()
	isGoal := func(p Position) bool {
		return p.Coordinate == target.Coordinate && (anyFacing || p.Facing == target.Facing)
	}
	if isGoal(start) {
		return Path{}
	}

	best := map[Position]int{start: 0}
	prev := map[Position]Segment{}
	open := &frontier{}
	heap.Push(open, &node{pos: start, cost: 0, priority: Distance(start.Coordinate, target.Coordinate)})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.cost > best[cur.pos] {
			continue
		}
		if isGoal(cur.pos) {
			return rebuild(prev, start, cur.pos)
		}
		for _, step := range successors(b, cur.pos, forbidden) {
			cost := cur.cost + step.Cost
			if cost > maxPoints {
				continue
			}
			if known, ok := best[step.To]; ok && known <= cost {
				continue
			}
			best[step.To] = cost
			prev[step.To] = step
			heap.Push(open, &node{
				pos:      step.To,
				cost:     cost,
				priority: cost + Distance(step.To.Coordinate, target.Coordinate),
			})
		}
	}
	return nil
}

// Reachable returns every position reachable from start within maxPoints, mapped to
// its cheapest cost. The start position is included at cost 0.
func Reachable(b *Board, start Position, maxPoints int, forbidden map[Coordinate]bool) map[Position]int {
	if !b.Contains(start.Coordinate) || !start.Facing.Valid() || maxPoints < 0 {
		return map[Position]int{}
	}
	best := map[Position]int{start: 0}
	open := &frontier{}
	heap.Push(open, &node{pos: start})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.cost > best[cur.pos] {
			continue
		}
		for _, step := range successors(b, cur.pos, forbidden) {
			cost := cur.cost + step.Cost
			if cost > maxPoints {
				continue
			}
			if known, ok := best[step.To]; ok && known <= cost {
				continue
			}
			best[step.To] = cost
			heap.Push(open, &node{pos: step.To, cost: cost, priority: cost})
		}
	}
	return best
}

// successors lists the single steps available from p: turning one hexside either way,
// or stepping into any neighbor (paying for the turn towards it).
func successors(b *Board, p Position, forbidden map[Coordinate]bool) []Segment {
	out := make([]Segment, 0, 8)
	out = append(out,
		Segment{From: p, To: p.Turn(1), Cost: 1},
		Segment{From: p, To: p.Turn(-1), Cost: 1},
	)
	for f := North; f <= NorthWest; f++ {
		next := p.Neighbor(f)
		if forbidden[next] {
			continue
		}
		enter, ok := b.EnterCost(p.Coordinate, next)
		if !ok {
			continue
		}
		out = append(out, Segment{
			From: p,
			To:   Position{Coordinate: next, Facing: f},
			Cost: enter + TurnCost(p.Facing, f),
		})
	}
	return out
}

func rebuild(prev map[Position]Segment, start, end Position) Path {
	var rev Path
	for at := end; at != start; {
		s := prev[at]
		rev = append(rev, s)
		at = s.From
	}
	out := make(Path, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out
}

type node struct {
	pos      Position
	cost     int
	priority int
	index    int
}

// frontier is a min-heap of nodes ordered by priority, then cost.
type frontier []*node

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].priority != f[j].priority {
		return f[i].priority < f[j].priority
	}
	return f[i].cost > f[j].cost
}

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
	f[i].index = i
	f[j].index = j
}

func (f *frontier) Push(x any) {
	n := x.(*node)
	n.index = len(*f)
	*f = append(*f, n)
}

func (f *frontier) Pop() any {
	old := *f
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*f = old[:len(old)-1]
	return n
}
