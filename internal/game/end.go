package game

import "github.com/mechgrid/turnengine/pkg/command"

func (s *Session) enterEnd(p *EndPhase) {
	s.advanceEnd(p)
}

// advanceEnd activates the first player in initiative order who has not ended
// their turn. When everyone has, the next round begins.
func (s *Session) advanceEnd(p *EndPhase) {
	for _, id := range s.order {
		if !p.ended[id] {
			s.activate(id, 0)
			return
		}
	}
	s.log.Info("round complete", "turn", s.turn)
	s.transitionAt(command.PhaseInitiative, s.turn+1)
}

func (s *Session) handleEnd(p *EndPhase, cmd command.Command) bool {
	c, ok := cmd.(command.TurnEnded)
	if !ok || !s.isActive(c.PlayerID) || p.ended[c.PlayerID] {
		return false
	}
	s.commit(c)
	p.ended[c.PlayerID] = true
	s.advanceEnd(p)
	return true
}
