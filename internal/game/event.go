package game

import (
	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/pkg/command"
)

// EventKind tells listeners what changed.
type EventKind int

const (
	CommandApplied EventKind = iota
	PhaseChanged
	ActivePlayerChanged
	TurnChanged
)

func (k EventKind) String() string {
	switch k {
	case CommandApplied:
		return "command_applied"
	case PhaseChanged:
		return "phase_changed"
	case ActivePlayerChanged:
		return "active_player_changed"
	case TurnChanged:
		return "turn_changed"
	}
	return "unknown"
}

// Event is emitted synchronously after each accepted mutation.
type Event struct {
	Kind    EventKind
	Phase   command.Phase
	Turn    int
	Player  uuid.UUID
	Command command.Command
}

// Listener receives session events. It runs on the goroutine applying the
// command and must not call back into the session's mutating methods.
type Listener func(Event)
