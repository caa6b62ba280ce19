package game

import (
	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/pkg/command"
)

func (s *Session) enterDeployment(p *DeploymentPhase) {
	for _, pl := range s.playing() {
		if pl.Undeployed() > 0 {
			p.order = append(p.order, pl.ID)
		}
	}
	s.dice.Shuffle(len(p.order), func(i, j int) {
		p.order[i], p.order[j] = p.order[j], p.order[i]
	})
	s.advanceDeployment(p)
}

// advanceDeployment activates the next player with units to place, or moves on.
func (s *Session) advanceDeployment(p *DeploymentPhase) {
	for ; p.next < len(p.order); p.next++ {
		pl, _ := s.Player(p.order[p.next])
		if n := pl.Undeployed(); n > 0 {
			s.activate(pl.ID, n)
			return
		}
	}
	s.transition(command.PhaseInitiative)
}

func (s *Session) handleDeployment(p *DeploymentPhase, cmd command.Command) bool {
	c, ok := cmd.(command.DeployUnit)
	if !ok || !s.isActive(c.PlayerID) {
		return false
	}
	u, ok := s.units[c.UnitID]
	if !ok || u.Owner != c.PlayerID || u.Deployed {
		return false
	}
	if !c.Position.Facing.Valid() {
		return false
	}
	cell, ok := s.board.Cell(c.Position.Coordinate)
	if !ok || cell.EntryCost() < 0 {
		return false
	}
	if _, taken := s.occupant(c.Position.Coordinate); taken {
		return false
	}

	s.commit(c)
	if s.active.Undeployed() == 0 {
		p.next++
		s.advanceDeployment(p)
	}
	return true
}

// DeploymentOrder returns the shuffled order of the deployment phase.
func (p *DeploymentPhase) DeploymentOrder() []uuid.UUID { return p.order }
