package hex

// TerrainKind identifies a terrain feature that can sit in a hex.
type TerrainKind string

const (
	Clear      TerrainKind = "clear"
	LightWoods TerrainKind = "light_woods"
	HeavyWoods TerrainKind = "heavy_woods"
	Rough      TerrainKind = "rough"
	Water      TerrainKind = "water"
	Building   TerrainKind = "building"
)

// Terrain is one feature in a hex. Level is the woods density, water depth or
// building height depending on the kind.
type Terrain struct {
	Kind  TerrainKind `json:"kind" yaml:"kind"`
	Level int         `json:"level,omitempty" yaml:"level,omitempty"`
}

// Height is how far the feature rises above the hex's base elevation.
func (t Terrain) Height() int {
	switch t.Kind {
	case LightWoods, HeavyWoods:
		return 2
	case Building:
		return t.Level
	default:
		return 0
	}
}

// MoveCost is the extra movement points the feature costs to enter, or -1 if the
// feature cannot be entered at all.
func (t Terrain) MoveCost() int {
	switch t.Kind {
	case Rough, LightWoods:
		return 1
	case HeavyWoods:
		return 2
	case Water:
		switch {
		case t.Level <= 0:
			return 0
		case t.Level == 1:
			return 1
		default:
			return 3
		}
	case Building:
		return -1
	default:
		return 0
	}
}

// Cell is a single hex of the board.
type Cell struct {
	Coordinate
	Elevation int       `json:"elevation"`
	Terrain   []Terrain `json:"terrain,omitempty"`
}

// Ceiling is the elevation of the tallest thing in the hex.
func (c *Cell) Ceiling() int {
	top := 0
	for _, t := range c.Terrain {
		top = max(top, t.Height())
	}
	return c.Elevation + top
}

// Has reports whether the cell carries the given terrain kind.
func (c *Cell) Has(kind TerrainKind) bool {
	for _, t := range c.Terrain {
		if t.Kind == kind {
			return true
		}
	}
	return false
}

// EntryCost is the movement cost of stepping into the cell, ignoring elevation, or
// -1 if the cell is impassable. Clear ground costs 1.
func (c *Cell) EntryCost() int {
	cost := 1
	for _, t := range c.Terrain {
		extra := t.MoveCost()
		if extra < 0 {
			return -1
		}
		cost += extra
	}
	return cost
}

// MaxClimb is the largest elevation change a ground unit can make in one step.
const MaxClimb = 2

// Board is a rectangular map of cells. It is read-only once built.
type Board struct {
	width, height int
	cells         []Cell
}

// NewBoard creates a clear, flat board of the given size.
func NewBoard(width, height int) *Board {
	width, height = max(width, 0), max(height, 0)
	b := &Board{width: width, height: height, cells: make([]Cell, width*height)}
	for q := 0; q < width; q++ {
		for r := 0; r < height; r++ {
			b.cells[b.index(C(q, r))] = Cell{Coordinate: C(q, r)}
		}
	}
	return b
}

// Width is the number of columns.
func (b *Board) Width() int { return b.width }

// Height is the number of rows.
func (b *Board) Height() int { return b.height }

// Contains reports whether c lies on the board.
func (b *Board) Contains(c Coordinate) bool {
	return c.Q >= 0 && c.Q < b.width && c.R >= 0 && c.R < b.height
}

func (b *Board) index(c Coordinate) int {
	return c.Q*b.height + c.R
}

// Cell returns the cell at c, or false if c is off the board.
func (b *Board) Cell(c Coordinate) (*Cell, bool) {
	if !b.Contains(c) {
		return nil, false
	}
	return &b.cells[b.index(c)], true
}

// Set replaces the elevation and terrain of the cell at c. It is a no-op for
// coordinates off the board and is meant for map construction only.
func (b *Board) Set(c Coordinate, elevation int, terrain ...Terrain) {
	cell, ok := b.Cell(c)
	if !ok {
		return
	}
	cell.Elevation = elevation
	cell.Terrain = append([]Terrain(nil), terrain...)
}

// EnterCost is the cost of moving from one hex into an adjacent one: the entry cost
// of the destination plus one point per level of elevation change. It returns false
// when the step is impossible.
func (b *Board) EnterCost(from, to Coordinate) (int, bool) {
	src, ok := b.Cell(from)
	if !ok {
		return 0, false
	}
	dst, ok := b.Cell(to)
	if !ok {
		return 0, false
	}
	cost := dst.EntryCost()
	if cost < 0 {
		return 0, false
	}
	climb := abs(dst.Elevation - src.Elevation)
	if climb > MaxClimb {
		return 0, false
	}
	return cost + climb, true
}

// InRange is like the package level InRange but drops coordinates off the board.
func (b *Board) InRange(center Coordinate, radius int) []Coordinate {
	all := InRange(center, radius)
	out := all[:0]
	for _, c := range all {
		if b.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// Cells returns all cells in column-major order.
func (b *Board) Cells() []Cell {
	return b.cells
}
