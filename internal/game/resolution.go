package game

import (
	"github.com/mechgrid/turnengine/internal/dice"
	"github.com/mechgrid/turnengine/internal/rules"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/mechgrid/turnengine/pkg/hex"
)

// enterResolution resolves every declared shot, walking initiative order, then
// each player's units, then each unit's weapons. The same declarations and dice
// always give the same sequence of results.
func (s *Session) enterResolution() {
	for _, id := range s.order {
		p, ok := s.Player(id)
		if !ok {
			continue
		}
		for _, u := range p.Units {
			for _, w := range u.Weapons {
				if !w.Declared() {
					continue
				}
				s.commit(s.resolve(u, w))
			}
		}
	}
	s.transition(successor(command.PhaseWeaponAttackResolution))
}

func (s *Session) resolve(u *Unit, w *Weapon) command.WeaponAttackResolution {
	res := command.WeaponAttackResolution{
		PlayerID: u.Owner,
		UnitID:   u.ID,
		WeaponID: w.ID,
		TargetID: w.TargetID,
	}
	target, ok := s.units[w.TargetID]
	if !ok {
		res.ToHit = rules.Impossible
		res.Impossible = true
		return res
	}

	res.ToHit = s.toHit.ToHitNumber(
		rules.Attacker{
			ID:       u.ID,
			Position: hex.Position{Coordinate: u.Position.Coordinate, Facing: u.TorsoFacing},
			Mode:     u.Mode,
			Heat:     u.Heat,
			Gunnery:  s.gunnery,
		},
		rules.Target{
			ID:         target.ID,
			Position:   target.Position.Coordinate,
			HexesMoved: target.HexesMoved,
			Jumped:     target.Mode == command.Jump,
		},
		rules.Weapon{
			ID:          w.ID,
			MinRange:    w.MinRange,
			ShortRange:  w.ShortRange,
			MediumRange: w.MediumRange,
			LongRange:   w.LongRange,
			Secondary:   !w.Primary && s.hasPrimary(u),
		},
		s.board,
	)
	if res.ToHit >= rules.Impossible {
		res.Impossible = true
		return res
	}

	res.Roll = dice.Sum(s.dice.Roll(2))
	res.Hit = res.Roll >= res.ToHit
	if res.Hit {
		res.Damage = w.Damage
	}
	return res
}

// hasPrimary reports whether the unit marked a primary target. Without one,
// no shot counts as secondary.
func (s *Session) hasPrimary(u *Unit) bool {
	for _, w := range u.Weapons {
		if w.Declared() && w.Primary {
			return true
		}
	}
	return false
}
