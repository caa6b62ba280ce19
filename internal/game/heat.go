package game

import "github.com/mechgrid/turnengine/pkg/command"

// movementHeat is the heat a unit builds by moving in mode.
func movementHeat(u *Unit) int {
	switch u.Mode {
	case command.Walk:
		return 1
	case command.Run:
		return 2
	case command.Jump:
		return max(3, u.HexesMoved)
	}
	return 0
}

// weaponHeat is the heat of every weapon fired this round.
func weaponHeat(u *Unit) int {
	total := 0
	for _, w := range u.Weapons {
		if w.Declared() {
			total += w.Heat
		}
	}
	return total
}

// enterHeat adds movement and weapon heat to every unit, dissipates through its
// heat sinks and publishes the result, in initiative order.
func (s *Session) enterHeat() {
	for _, id := range s.order {
		p, ok := s.Player(id)
		if !ok {
			continue
		}
		for _, u := range p.Units {
			if !u.Deployed {
				continue
			}
			generated := movementHeat(u) + weaponHeat(u)
			dissipated := min(u.Heat+generated, u.HeatSinks)
			s.commit(command.HeatUpdated{
				UnitID:     u.ID,
				Generated:  generated,
				Dissipated: dissipated,
				Heat:       u.Heat + generated - dissipated,
			})
		}
	}
	s.transition(command.PhaseEnd)
}
