package game

import (
	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/initiative"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/mechgrid/turnengine/pkg/hex"
)

// apply mutates state for a command both roles have agreed to accept. It never
// validates; the authority has done that before committing, and replicas trust
// the authority.
func (s *Session) apply(cmd command.Command) {
	switch c := cmd.(type) {
	case command.Join:
		s.applyJoin(c)
	case command.UpdatePlayerStatus:
		if p, ok := s.Player(c.PlayerID); ok {
			p.Status = c.Status
		}
	case command.DeployUnit:
		if u, ok := s.units[c.UnitID]; ok {
			u.Deployed = true
			u.Position = c.Position
			u.TorsoFacing = c.Position.Facing
		}
		s.consume(c.PlayerID)
	case command.MoveUnit:
		if u, ok := s.units[c.UnitID]; ok {
			u.Mode = c.Mode
			u.HexesMoved = c.Path.HexesMoved()
			if c.Mode == command.Jump && len(c.Path) > 0 {
				u.HexesMoved = hex.Distance(c.Path.Start().Coordinate, c.Path.End().Coordinate)
			}
			if len(c.Path) > 0 {
				u.Position = c.Path.End()
				u.TorsoFacing = u.Position.Facing
			}
		}
		s.consume(c.PlayerID)
	case command.ChangeActivePlayer:
		s.active, _ = s.Player(c.PlayerID)
		s.unitsToMove = c.UnitsToMove
		s.emit(Event{Kind: ActivePlayerChanged, Player: c.PlayerID})
	case command.ChangePhase:
		s.applyPhase(c)
	case command.DiceRolled:
		s.applyRoll(c)
	case command.WeaponConfiguration:
		if u, ok := s.units[c.UnitID]; ok {
			u.TorsoFacing = c.TorsoFacing
		}
	case command.WeaponAttackDeclaration:
		if u, ok := s.units[c.UnitID]; ok {
			for _, t := range c.Targets {
				if w, ok := u.Weapon(t.WeaponID); ok {
					w.TargetID = t.TargetID
					w.Primary = t.Primary
				}
			}
		}
		s.consume(c.PlayerID)
	case command.WeaponAttackResolution:
		if c.Hit {
			if target, ok := s.units[c.TargetID]; ok {
				target.DamageTaken += c.Damage
			}
		}
	case command.PhysicalAttack:
		if u, ok := s.units[c.UnitID]; ok {
			u.Physical = c.AttackKind
			u.PhysicalTarget = c.TargetID
		}
		s.consume(c.PlayerID)
	case command.TurnEnded:
		if p, ok := s.Player(c.PlayerID); ok {
			p.TurnEnded = true
		}
	case command.HeatUpdated:
		if u, ok := s.units[c.UnitID]; ok {
			u.Heat = c.Heat
		}
	}

	s.applied++
	s.emit(Event{Kind: CommandApplied, Command: cmd, Player: commandPlayer(cmd)})
	s.refreshSnapshot()
}

func (s *Session) applyJoin(c command.Join) {
	if _, exists := s.Player(c.PlayerID); exists {
		return
	}
	p := &Player{ID: c.PlayerID, Name: c.Name, Status: command.StatusJoining}
	for _, d := range c.Units {
		structure, _ := s.rules.StructureValues(d.Tonnage)
		u := newUnit(p.ID, d, structure)
		p.Units = append(p.Units, u)
		s.units[u.ID] = u
	}
	s.players = append(s.players, p)
}

// consume spends one unit of the active player's quota.
func (s *Session) consume(player uuid.UUID) {
	if s.isActive(player) && s.unitsToMove > 0 {
		s.unitsToMove--
	}
}

func (s *Session) applyPhase(c command.ChangePhase) {
	if s.phase.Name() != c.Phase {
		if next := newPhase(c.Phase); next != nil {
			s.phase = next
		}
	}
	s.active = nil
	s.unitsToMove = 0

	switch c.Phase {
	case command.PhaseInitiative:
		s.startRound()
	case command.PhaseEnd:
		for _, p := range s.players {
			p.TurnEnded = false
		}
	}

	s.emit(Event{Kind: PhaseChanged})
	if c.Turn != s.turn {
		s.turn = c.Turn
		s.emit(Event{Kind: TurnChanged})
	}
}

// startRound clears per-round state and opens a fresh roll-off.
func (s *Session) startRound() {
	var ids []uuid.UUID
	for _, p := range s.players {
		p.Initiative = nil
		for _, u := range p.Units {
			u.resetRound()
		}
		if p.Playing() {
			ids = append(ids, p.ID)
		}
	}
	s.roll = initiative.NewTracker(ids)
	s.order = nil
	if s.roll.Done() {
		s.order = s.roll.Order()
	}
}

func (s *Session) applyRoll(c command.DiceRolled) {
	if p, ok := s.Player(c.PlayerID); ok {
		p.Initiative = append(p.Initiative, c.Total)
	}
	if s.roll == nil {
		return
	}
	if err := s.roll.Record(c.PlayerID, c.Total); err != nil {
		s.log.Warn("initiative roll out of sequence", "player", c.PlayerID, "error", err)
		return
	}
	if s.roll.Done() {
		s.order = s.roll.Order()
	}
}

// commandPlayer extracts the acting player of a command, if it has one.
func commandPlayer(cmd command.Command) uuid.UUID {
	switch c := cmd.(type) {
	case command.Join:
		return c.PlayerID
	case command.UpdatePlayerStatus:
		return c.PlayerID
	case command.DeployUnit:
		return c.PlayerID
	case command.MoveUnit:
		return c.PlayerID
	case command.RollDice:
		return c.PlayerID
	case command.ChangeActivePlayer:
		return c.PlayerID
	case command.DiceRolled:
		return c.PlayerID
	case command.WeaponConfiguration:
		return c.PlayerID
	case command.WeaponAttackDeclaration:
		return c.PlayerID
	case command.WeaponAttackResolution:
		return c.PlayerID
	case command.PhysicalAttack:
		return c.PlayerID
	case command.TurnEnded:
		return c.PlayerID
	}
	return uuid.Nil
}
