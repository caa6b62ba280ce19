package rules

import "github.com/mechgrid/turnengine/pkg/hex"

// Calculator is a ToHitCalculator built on a Provider.
type Calculator struct {
	Provider Provider
}

var _ ToHitCalculator = Calculator{}

// NewCalculator returns a calculator over p.
func NewCalculator(p Provider) Calculator {
	return Calculator{Provider: p}
}

// ToHitNumber sums gunnery and every modifier. Shots out of range, without
// line of sight, or into the attacker's rear arc are Impossible.
func (c Calculator) ToHitNumber(attacker Attacker, target Target, weapon Weapon, board *hex.Board) int {
	from := attacker.Position.Coordinate
	distance := hex.Distance(from, target.Position)

	band := weapon.Band(distance)
	if band == OutOfRange {
		return Impossible
	}
	if !hex.LineOfSight(board, from, target.Position) {
		return Impossible
	}
	arc := hex.ArcOf(from, attacker.Position.Facing, target.Position)
	if arc == hex.ArcRear {
		return Impossible
	}

	p := c.Provider
	n := attacker.Gunnery +
		p.AttackerMovementModifier(attacker.Mode) +
		p.TargetMovementModifier(target.HexesMoved) +
		p.RangeModifier(band, weapon.MinRange, distance) +
		p.HeatModifier(attacker.Heat)
	if target.Jumped {
		n++
	}
	if cell, ok := board.Cell(target.Position); ok {
		for _, t := range cell.Terrain {
			n += p.TerrainToHitModifier(t.Kind)
		}
	}
	if weapon.Secondary {
		n += p.SecondaryTargetModifier(arc == hex.ArcForward)
	}
	return min(n, Impossible)
}
