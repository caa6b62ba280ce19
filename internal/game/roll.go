package game

import (
	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/dice"
	"github.com/mechgrid/turnengine/pkg/command"
)

func (s *Session) enterInitiative() {
	if s.auto {
		for {
			player, ok := s.roll.Next()
			if !ok {
				break
			}
			s.rollFor(player)
		}
	}
	s.advanceInitiative()
}

func (s *Session) advanceInitiative() {
	if s.roll.Done() {
		s.log.Info("initiative settled", "order", s.order, "turn", s.turn)
		s.transition(command.PhaseMovement)
		return
	}
	next, _ := s.roll.Next()
	s.activate(next, 0)
}

func (s *Session) rollFor(player uuid.UUID) {
	d := s.dice.Roll(2)
	s.commit(command.DiceRolled{
		PlayerID: player,
		Round:    s.roll.Round(),
		Dice:     d,
		Total:    dice.Sum(d),
	})
}

func (s *Session) handleInitiative(cmd command.Command) bool {
	c, ok := cmd.(command.RollDice)
	if !ok || s.auto || !s.isActive(c.PlayerID) {
		return false
	}
	if next, ok := s.roll.Next(); !ok || next != c.PlayerID {
		return false
	}
	s.rollFor(c.PlayerID)
	s.advanceInitiative()
	return true
}
