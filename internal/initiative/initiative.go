// Package initiative ranks players for a round and derives the alternating
// unit order used by the movement and attack phases.
package initiative

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// MaxRounds bounds tie rerolls. Players still tied after the last round keep
// their join order.
const MaxRounds = 32

// ErrNotPending is returned when a roll arrives from a player who is not next.
var ErrNotPending = errors.New("player is not due to roll")

// Tracker runs an initiative roll-off. Every player rolls once; players whose
// whole roll history matches another player's roll again, and only they do,
// until nobody is tied or MaxRounds is reached.
type Tracker struct {
	players []uuid.UUID
	rolls   map[uuid.UUID][]int
	round   int
	rolling []uuid.UUID
	pending []uuid.UUID
	done    bool
}

// NewTracker starts a roll-off between players, listed in join order.
func NewTracker(players []uuid.UUID) *Tracker {
	t := &Tracker{
		players: slices.Clone(players),
		rolls:   make(map[uuid.UUID][]int, len(players)),
		round:   1,
		rolling: slices.Clone(players),
		pending: slices.Clone(players),
	}
	t.done = len(players) == 0
	return t
}

// Round is the current roll-number, starting at 1.
func (t *Tracker) Round() int { return t.round }

// Done reports whether the order is settled.
func (t *Tracker) Done() bool { return t.done }

// Next returns the player due to roll.
func (t *Tracker) Next() (uuid.UUID, bool) {
	if t.done || len(t.pending) == 0 {
		return uuid.Nil, false
	}
	return t.pending[0], true
}

// Record stores total as player's roll for the current round. When the last
// pending player has rolled, ties are evaluated and either a new round starts
// for the tied players or the tracker is done.
func (t *Tracker) Record(player uuid.UUID, total int) error {
	next, ok := t.Next()
	if !ok || next != player {
		return fmt.Errorf("%w: %s", ErrNotPending, player)
	}
	t.rolls[player] = append(t.rolls[player], total)
	t.pending = t.pending[1:]
	if len(t.pending) == 0 {
		t.settle()
	}
	return nil
}

func (t *Tracker) settle() {
	tied := t.tied()
	if len(tied) == 0 || t.round >= MaxRounds {
		t.done = true
		return
	}
	t.round++
	t.rolling = tied
	t.pending = slices.Clone(tied)
}

// tied returns the players who rolled this round and share their full roll
// history with someone else who did, in join order.
func (t *Tracker) tied() []uuid.UUID {
	var out []uuid.UUID
	for i, a := range t.rolling {
		for j, b := range t.rolling {
			if i != j && slices.Equal(t.rolls[a], t.rolls[b]) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// Rolls returns player's totals by roll-number.
func (t *Tracker) Rolls(player uuid.UUID) []int {
	return slices.Clone(t.rolls[player])
}

// Order ranks players best first. Higher totals win at the first roll-number
// where two players differ, so a player who won outright in an early round
// stays ahead of everyone still tied in later ones.
func (t *Tracker) Order() []uuid.UUID {
	order := slices.Clone(t.players)
	slices.SortStableFunc(order, func(a, b uuid.UUID) int {
		return compareRolls(t.rolls[a], t.rolls[b])
	})
	return order
}

func compareRolls(a, b []int) int {
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] != b[i] {
			return cmp.Compare(b[i], a[i])
		}
	}
	return 0
}
