package rules

import (
	"fmt"
	"strings"

	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/mechgrid/turnengine/pkg/hex"
)

// Classic implements Provider with the standard tables.
type Classic struct{}

var _ Provider = Classic{}

func (Classic) AttackerMovementModifier(mode command.MovementMode) int {
	switch mode {
	case command.Walk:
		return 1
	case command.Run:
		return 2
	case command.Jump:
		return 3
	}
	return 0
}

func (Classic) TargetMovementModifier(hexesMoved int) int {
	switch {
	case hexesMoved <= 2:
		return 0
	case hexesMoved <= 4:
		return 1
	case hexesMoved <= 6:
		return 2
	case hexesMoved <= 9:
		return 3
	case hexesMoved <= 17:
		return 4
	case hexesMoved <= 24:
		return 5
	}
	return 6
}

func (Classic) RangeModifier(band RangeBand, minRange, distance int) int {
	switch band {
	case Minimum:
		return minRange - distance + 1
	case Medium:
		return 2
	case Long:
		return 4
	}
	return 0
}

func (Classic) HeatModifier(heat int) int {
	switch {
	case heat >= 24:
		return 4
	case heat >= 17:
		return 3
	case heat >= 13:
		return 2
	case heat >= 8:
		return 1
	}
	return 0
}

func (Classic) TerrainToHitModifier(terrain hex.TerrainKind) int {
	switch terrain {
	case hex.LightWoods:
		return 1
	case hex.HeavyWoods:
		return 2
	}
	return 0
}

func (Classic) SecondaryTargetModifier(frontArc bool) int {
	if frontArc {
		return 1
	}
	return 2
}

// structure rows: center torso, side torso, arm, leg. The head is always 3.
var structure = map[int][4]int{
	20:  {6, 5, 3, 4},
	25:  {8, 6, 4, 6},
	30:  {10, 7, 5, 7},
	35:  {11, 8, 6, 8},
	40:  {12, 10, 6, 10},
	45:  {14, 11, 7, 11},
	50:  {16, 12, 8, 12},
	55:  {18, 13, 9, 13},
	60:  {20, 14, 10, 14},
	65:  {21, 15, 10, 15},
	70:  {22, 15, 11, 15},
	75:  {23, 16, 12, 16},
	80:  {25, 17, 13, 17},
	85:  {27, 18, 14, 18},
	90:  {29, 19, 15, 19},
	95:  {30, 20, 16, 20},
	100: {31, 21, 17, 21},
}

func (Classic) StructureValues(tonnage int) (map[Location]int, error) {
	row, ok := structure[tonnage]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedTonnage, tonnage)
	}
	return map[Location]int{
		Head:        3,
		CenterTorso: row[0],
		LeftTorso:   row[1],
		RightTorso:  row[1],
		LeftArm:     row[2],
		RightArm:    row[2],
		LeftLeg:     row[3],
		RightLeg:    row[3],
	}, nil
}

// rounds per ton
var ammo = map[string]int{
	"ac2":   45,
	"ac5":   20,
	"ac10":  10,
	"ac20":  5,
	"lrm5":  24,
	"lrm10": 12,
	"lrm15": 8,
	"lrm20": 6,
	"srm2":  50,
	"srm4":  25,
	"srm6":  15,
	"mg":    200,
	"gauss": 8,
}

func (Classic) AmmoRounds(kind string) (int, error) {
	n, ok := ammo[strings.ToLower(kind)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAmmo, kind)
	}
	return n, nil
}
