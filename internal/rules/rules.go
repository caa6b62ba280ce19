// Package rules holds the combat tables the game engine consults. The engine
// only depends on the Provider and ToHitCalculator interfaces; Classic is the
// standard table set.
package rules

import (
	"errors"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/mechgrid/turnengine/pkg/hex"
)

var (
	// ErrUnsupportedTonnage is returned for a tonnage missing from the structure table.
	ErrUnsupportedTonnage = errors.New("unsupported tonnage")
	// ErrUnknownAmmo is returned for an ammo type missing from the ammo table.
	ErrUnknownAmmo = errors.New("unknown ammo type")
)

// Impossible is the to-hit number of a shot that cannot be taken. No 2d6 roll meets it.
const Impossible = 13

// Location is a hit location on a mech.
type Location string

const (
	Head        Location = "head"
	CenterTorso Location = "center_torso"
	LeftTorso   Location = "left_torso"
	RightTorso  Location = "right_torso"
	LeftArm     Location = "left_arm"
	RightArm    Location = "right_arm"
	LeftLeg     Location = "left_leg"
	RightLeg    Location = "right_leg"
)

// RangeBand is the range bracket of a shot.
type RangeBand int

const (
	Minimum RangeBand = iota
	Short
	Medium
	Long
	OutOfRange
)

// Provider supplies the modifier and construction tables.
type Provider interface {
	AttackerMovementModifier(mode command.MovementMode) int
	TargetMovementModifier(hexesMoved int) int
	// RangeModifier is the modifier for band. minRange only matters for Minimum.
	RangeModifier(band RangeBand, minRange, distance int) int
	HeatModifier(heat int) int
	TerrainToHitModifier(terrain hex.TerrainKind) int
	SecondaryTargetModifier(frontArc bool) int
	StructureValues(tonnage int) (map[Location]int, error)
	AmmoRounds(ammo string) (int, error)
}

// Attacker is the firing unit's state as the calculator sees it.
type Attacker struct {
	ID uuid.UUID
	// Position carries the torso facing, which decides the firing arc.
	Position hex.Position
	Mode     command.MovementMode
	Heat     int
	Gunnery  int
}

// Target is the unit being shot at.
type Target struct {
	ID         uuid.UUID
	Position   hex.Coordinate
	HexesMoved int
	Jumped     bool
}

// Weapon is the subset of a weapon the calculator needs.
type Weapon struct {
	ID          uuid.UUID
	MinRange    int
	ShortRange  int
	MediumRange int
	LongRange   int
	Secondary   bool
}

// Band returns the range bracket for a shot over distance hexes.
func (w Weapon) Band(distance int) RangeBand {
	switch {
	case distance > w.LongRange || w.LongRange == 0:
		return OutOfRange
	case w.MinRange > 0 && distance <= w.MinRange:
		return Minimum
	case distance <= w.ShortRange:
		return Short
	case distance <= w.MediumRange:
		return Medium
	}
	return Long
}

// ToHitCalculator produces the number a 2d6 roll must meet for a shot to land.
type ToHitCalculator interface {
	ToHitNumber(attacker Attacker, target Target, weapon Weapon, board *hex.Board) int
}
