package game

import (
	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/pkg/command"
)

func (s *Session) handleStart(cmd command.Command) bool {
	switch c := cmd.(type) {
	case command.Join:
		if !s.validJoin(c) {
			return false
		}
		s.commit(c)
		s.log.Info("player joined", "player", c.PlayerID, "name", c.Name, "units", len(c.Units))
		return true

	case command.UpdatePlayerStatus:
		if _, ok := s.Player(c.PlayerID); !ok {
			return false
		}
		switch c.Status {
		case command.StatusJoining, command.StatusPlaying, command.StatusNotJoined:
		default:
			return false
		}
		s.commit(c)
		if s.everyonePlaying() {
			s.transition(command.PhaseDeployment)
		}
		return true
	}
	return false
}

func (s *Session) validJoin(c command.Join) bool {
	if c.PlayerID == uuid.Nil {
		return false
	}
	if _, exists := s.Player(c.PlayerID); exists {
		return false
	}
	seen := map[uuid.UUID]bool{}
	for _, u := range c.Units {
		if u.ID == uuid.Nil || seen[u.ID] {
			return false
		}
		if _, taken := s.units[u.ID]; taken {
			return false
		}
		seen[u.ID] = true
		if _, err := s.rules.StructureValues(u.Tonnage); err != nil {
			s.log.Error("rejecting join with bad unit data", "player", c.PlayerID, "unit", u.ID, "error", err)
			return false
		}
		for _, w := range u.Weapons {
			if w.Ammo == "" {
				continue
			}
			if _, err := s.rules.AmmoRounds(w.Ammo); err != nil {
				s.log.Error("rejecting join with bad unit data", "player", c.PlayerID, "unit", u.ID, "error", err)
				return false
			}
		}
	}
	return true
}

func (s *Session) everyonePlaying() bool {
	if len(s.players) == 0 {
		return false
	}
	for _, p := range s.players {
		if !p.Playing() {
			return false
		}
	}
	return true
}
