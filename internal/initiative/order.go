package initiative

import "github.com/google/uuid"

// TurnStep is one slot of the alternating order: Player moves Units units.
type TurnStep struct {
	Player uuid.UUID `json:"player"`
	Units  int       `json:"units"`
}

// CalculateOrder schedules every unit of every player in order (best
// initiative first). Each wave walks players from worst initiative to best, so
// the loser moves first. A player with at least twice the units left of the
// smallest remaining force at the start of the wave moves two, otherwise one.
// A lone player moves all their units in one step.
//
// The result depends only on its arguments.
func CalculateOrder(order []uuid.UUID, units map[uuid.UUID]int) []TurnStep {
	remaining := make(map[uuid.UUID]int, len(order))
	var players []uuid.UUID
	for _, p := range order {
		if _, dup := remaining[p]; dup {
			continue
		}
		remaining[p] = max(units[p], 0)
		if remaining[p] > 0 {
			players = append(players, p)
		}
	}

	if len(players) == 1 {
		return []TurnStep{{Player: players[0], Units: remaining[players[0]]}}
	}

	var steps []TurnStep
	for {
		lowest := 0
		for _, p := range players {
			if n := remaining[p]; n > 0 && (lowest == 0 || n < lowest) {
				lowest = n
			}
		}
		if lowest == 0 {
			return steps
		}

		for i := len(players) - 1; i >= 0; i-- {
			p := players[i]
			n := remaining[p]
			if n == 0 {
				continue
			}
			move := 1
			if n >= 2*lowest {
				move = 2
			}
			remaining[p] -= move
			steps = append(steps, TurnStep{Player: p, Units: move})
		}
	}
}
