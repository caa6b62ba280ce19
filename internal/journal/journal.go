// Package journal records every command a session applies, in order, so a
// match can be audited or replayed later.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/pkg/command"
)

// ErrNoMatch is returned when a command is recorded before StartMatch.
var ErrNoMatch = errors.New("no match in progress")

// Match describes the game being recorded.
type Match struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Authority   uuid.UUID `json:"authority"`
	BoardWidth  int       `json:"boardWidth"`
	BoardHeight int       `json:"boardHeight"`
	StartTime   time.Time `json:"startTime"`
}

// Entry is one applied command. Turn and Phase are the session's state after
// the command took effect.
type Entry struct {
	Seq       int64           `json:"seq"`
	Origin    uuid.UUID       `json:"origin"`
	Kind      command.Kind    `json:"kind"`
	Turn      int             `json:"turn"`
	Phase     command.Phase   `json:"phase"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`

	// Command is the decoded form, kept so backends need not decode Payload again.
	Command command.Command `json:"-"`
}

// NewEntry encodes cmd into an entry.
func NewEntry(seq int64, turn int, phase command.Phase, cmd command.Command) (Entry, error) {
	payload, err := command.Encode(cmd)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode %s: %w", cmd.Kind(), err)
	}
	meta := cmd.Envelope()
	return Entry{
		Seq:       seq,
		Origin:    meta.Origin,
		Kind:      cmd.Kind(),
		Turn:      turn,
		Phase:     phase,
		Timestamp: meta.Timestamp,
		Payload:   payload,
		Command:   cmd,
	}, nil
}

// Decode returns the entry's command, decoding the payload if needed.
func (e Entry) Decode() (command.Command, error) {
	if e.Command != nil {
		return e.Command, nil
	}
	return command.Decode(e.Payload)
}

// Backend is the interface every journal implementation satisfies.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Match management
	StartMatch(m Match) error
	EndMatch() error

	// Record appends an entry. Entries arrive in Seq order.
	Record(e Entry) error
}

// Exporter is implemented by backends that write a file when a match ends.
type Exporter interface {
	ExportedFilePath() string
}

// Pending is implemented by backends that write asynchronously.
type Pending interface {
	Pending() int
}

// Multi records to several backends. Every backend sees every call; errors are joined.
type Multi []Backend

func (m Multi) Init() error {
	return m.each(Backend.Init)
}

func (m Multi) Close() error {
	return m.each(Backend.Close)
}

func (m Multi) StartMatch(match Match) error {
	return m.each(func(b Backend) error { return b.StartMatch(match) })
}

func (m Multi) EndMatch() error {
	return m.each(Backend.EndMatch)
}

func (m Multi) Record(e Entry) error {
	return m.each(func(b Backend) error { return b.Record(e) })
}

// ExportedFilePath returns the first export path any member reports.
func (m Multi) ExportedFilePath() string {
	for _, b := range m {
		if ex, ok := b.(Exporter); ok && ex.ExportedFilePath() != "" {
			return ex.ExportedFilePath()
		}
	}
	return ""
}

// Pending sums the members' unwritten entries.
func (m Multi) Pending() int {
	n := 0
	for _, b := range m {
		if p, ok := b.(Pending); ok {
			n += p.Pending()
		}
	}
	return n
}

func (m Multi) each(fn func(Backend) error) error {
	var errs []error
	for _, b := range m {
		if err := fn(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a backend that records nothing.
type Discard struct{}

func (Discard) Init() error            { return nil }
func (Discard) Close() error           { return nil }
func (Discard) StartMatch(Match) error { return nil }
func (Discard) EndMatch() error        { return nil }
func (Discard) Record(Entry) error     { return nil }
