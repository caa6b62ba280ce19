package game

import (
	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/initiative"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/mechgrid/turnengine/pkg/hex"
)

func (s *Session) enterAction(p *ActionPhase) {
	units := map[uuid.UUID]int{}
	for _, pl := range s.playing() {
		units[pl.ID] = len(pl.Deployed())
	}
	p.steps = initiative.CalculateOrder(s.order, units)
	p.step = 0
	s.advanceAction(p)
}

// advanceAction activates the current turn step or, past the last one, leaves the phase.
func (s *Session) advanceAction(p *ActionPhase) {
	if p.step < len(p.steps) {
		st := p.steps[p.step]
		s.activate(st.Player, st.Units)
		return
	}
	s.transition(successor(p.name))
}

func (s *Session) handleAction(p *ActionPhase, cmd command.Command) bool {
	var unit uuid.UUID
	switch c := cmd.(type) {
	case command.MoveUnit:
		u, ok := s.actor(p, command.PhaseMovement, c.PlayerID, c.UnitID)
		if !ok || !s.validMove(u, c) {
			return false
		}
		unit = u.ID

	case command.WeaponConfiguration:
		u, ok := s.actor(p, command.PhaseWeaponsAttack, c.PlayerID, c.UnitID)
		if !ok || !c.TorsoFacing.Valid() || hex.TurnCost(u.Position.Facing, c.TorsoFacing) > 1 {
			return false
		}
		// Twisting does not use up the unit's action.
		s.commit(c)
		return true

	case command.WeaponAttackDeclaration:
		u, ok := s.actor(p, command.PhaseWeaponsAttack, c.PlayerID, c.UnitID)
		if !ok || !s.validDeclaration(u, c) {
			return false
		}
		unit = u.ID

	case command.PhysicalAttack:
		u, ok := s.actor(p, command.PhasePhysicalAttack, c.PlayerID, c.UnitID)
		if !ok || !s.validPhysical(u, c) {
			return false
		}
		unit = u.ID

	default:
		return false
	}

	s.commit(cmd)
	p.acted[unit] = true
	if s.unitsToMove == 0 {
		p.step++
		s.advanceAction(p)
	}
	return true
}

// actor returns the unit a command acts with if the phase, player and unit all allow it.
func (s *Session) actor(p *ActionPhase, phase command.Phase, player, unit uuid.UUID) (*Unit, bool) {
	if p.name != phase || !s.isActive(player) || s.unitsToMove == 0 {
		return nil, false
	}
	u, ok := s.units[unit]
	if !ok || u.Owner != player || !u.Deployed || p.acted[u.ID] {
		return nil, false
	}
	return u, true
}

// enemyHexes are the hexes a unit owned by player may not enter.
func (s *Session) enemyHexes(player uuid.UUID) map[hex.Coordinate]bool {
	out := map[hex.Coordinate]bool{}
	for _, u := range s.units {
		if u.Deployed && u.Owner != player {
			out[u.Position.Coordinate] = true
		}
	}
	return out
}

func (s *Session) validMove(u *Unit, c command.MoveUnit) bool {
	switch c.Mode {
	case command.Standstill:
		return len(c.Path) == 0
	case command.Walk, command.Run:
		if len(c.Path) == 0 || c.Path.Start() != u.Position {
			return false
		}
		if err := c.Path.Validate(s.board, u.Budget(c.Mode), s.enemyHexes(u.Owner)); err != nil {
			s.log.Debug("invalid path", "unit", u.ID, "error", err)
			return false
		}
	case command.Jump:
		if !s.validJump(u, c.Path) {
			return false
		}
	default:
		return false
	}
	if other, taken := s.occupant(c.Path.End().Coordinate); taken && other.ID != u.ID {
		return false
	}
	return true
}

// validJump accepts a single segment straight to any passable hex within jump
// range. Terrain on the way does not matter and the landing facing is free.
func (s *Session) validJump(u *Unit, path hex.Path) bool {
	if u.JumpMP <= 0 || len(path) != 1 {
		return false
	}
	seg := path[0]
	d := hex.Distance(seg.From.Coordinate, seg.To.Coordinate)
	if seg.From != u.Position || d < 1 || d > u.JumpMP || seg.Cost != d || !seg.To.Facing.Valid() {
		return false
	}
	cell, ok := s.board.Cell(seg.To.Coordinate)
	return ok && cell.EntryCost() >= 0
}

func (s *Session) validDeclaration(u *Unit, c command.WeaponAttackDeclaration) bool {
	seen := map[uuid.UUID]bool{}
	for _, t := range c.Targets {
		if _, ok := u.Weapon(t.WeaponID); !ok || seen[t.WeaponID] {
			return false
		}
		seen[t.WeaponID] = true
		target, ok := s.units[t.TargetID]
		if !ok || !target.Deployed || target.Owner == u.Owner {
			return false
		}
	}
	return true
}

func (s *Session) validPhysical(u *Unit, c command.PhysicalAttack) bool {
	switch c.AttackKind {
	case command.NoPhysicalAttack:
		return true
	case command.Punch, command.Kick:
		target, ok := s.units[c.TargetID]
		if !ok || !target.Deployed || target.Owner == u.Owner {
			return false
		}
		return hex.Distance(u.Position.Coordinate, target.Position.Coordinate) == 1
	}
	return false
}
