package game

import (
	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/rules"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/mechgrid/turnengine/pkg/hex"
)

// Player is a participant and the units they brought.
type Player struct {
	ID     uuid.UUID
	Name   string
	Status command.PlayerStatus
	Units  []*Unit

	// Initiative holds this round's totals by roll-number.
	Initiative []int
	TurnEnded  bool
}

// Playing reports whether the player takes part in rounds.
func (p *Player) Playing() bool { return p.Status == command.StatusPlaying }

// Undeployed counts units not yet on the board.
func (p *Player) Undeployed() int {
	n := 0
	for _, u := range p.Units {
		if !u.Deployed {
			n++
		}
	}
	return n
}

// Deployed returns the units on the board.
func (p *Player) Deployed() []*Unit {
	var out []*Unit
	for _, u := range p.Units {
		if u.Deployed {
			out = append(out, u)
		}
	}
	return out
}

// Weapon is a mounted weapon and the target declared for it this round.
type Weapon struct {
	command.WeaponData
	TargetID uuid.UUID
	Primary  bool
}

// Declared reports whether the weapon fires this round.
func (w *Weapon) Declared() bool { return w.TargetID != uuid.Nil }

// Unit is a mech on the roster.
type Unit struct {
	ID        uuid.UUID
	Owner     uuid.UUID
	Name      string
	Tonnage   int
	WalkMP    int
	JumpMP    int
	HeatSinks int
	Weapons   []*Weapon
	Structure map[rules.Location]int

	Deployed    bool
	Position    hex.Position
	TorsoFacing hex.Facing

	// Per-round state, cleared when a new round starts.
	Mode           command.MovementMode
	HexesMoved     int
	Physical       command.PhysicalAttackKind
	PhysicalTarget uuid.UUID

	Heat        int
	DamageTaken int
}

func newUnit(owner uuid.UUID, d command.UnitData, structure map[rules.Location]int) *Unit {
	u := &Unit{
		ID:        d.ID,
		Owner:     owner,
		Name:      d.Name,
		Tonnage:   d.Tonnage,
		WalkMP:    d.WalkMP,
		JumpMP:    d.JumpMP,
		HeatSinks: d.HeatSinks,
		Structure: structure,
		Mode:      command.Standstill,
	}
	for _, w := range d.Weapons {
		u.Weapons = append(u.Weapons, &Weapon{WeaponData: w})
	}
	return u
}

// RunMP is one and a half times walking MP, rounded up.
func (u *Unit) RunMP() int { return (3*u.WalkMP + 1) / 2 }

// Budget is the movement points available in mode.
func (u *Unit) Budget(mode command.MovementMode) int {
	switch mode {
	case command.Walk:
		return u.WalkMP
	case command.Run:
		return u.RunMP()
	case command.Jump:
		return u.JumpMP
	}
	return 0
}

// Weapon looks up a mounted weapon.
func (u *Unit) Weapon(id uuid.UUID) (*Weapon, bool) {
	for _, w := range u.Weapons {
		if w.ID == id {
			return w, true
		}
	}
	return nil, false
}

func (u *Unit) resetRound() {
	u.Mode = command.Standstill
	u.HexesMoved = 0
	u.Physical = ""
	u.PhysicalTarget = uuid.Nil
	u.TorsoFacing = u.Position.Facing
	for _, w := range u.Weapons {
		w.TargetID = uuid.Nil
		w.Primary = false
	}
}
