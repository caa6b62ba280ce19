package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/mechgrid/turnengine/internal/config"
	"github.com/mechgrid/turnengine/internal/journal"
)

// Backend keeps the match journal in memory and exports it to JSON when the match ends.
type Backend struct {
	cfg     config.MemoryConfig
	match   *journal.Match
	entries []journal.Entry
	turns   int

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartMatch begins recording a new match, discarding anything recorded before.
func (b *Backend) StartMatch(m journal.Match) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.match = &m
	b.entries = nil
	b.turns = 0
	b.lastExportPath = ""
	return nil
}

// Record appends an entry to the current match.
func (b *Backend) Record(e journal.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.match == nil {
		return journal.ErrNoMatch
	}
	if n := len(b.entries); n > 0 && e.Seq <= b.entries[n-1].Seq {
		return fmt.Errorf("entry %d recorded after %d", e.Seq, b.entries[n-1].Seq)
	}
	b.entries = append(b.entries, e)
	if e.Turn > b.turns {
		b.turns = e.Turn
	}
	return nil
}

// EndMatch writes the export file and closes the match.
func (b *Backend) EndMatch() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.match == nil {
		return journal.ErrNoMatch
	}
	if err := b.exportJSON(time.Now()); err != nil {
		return fmt.Errorf("failed to export match: %w", err)
	}
	b.match = nil
	return nil
}

// Entries returns a copy of the entries recorded for the current match.
func (b *Backend) Entries() []journal.Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]journal.Entry(nil), b.entries...)
}

// ExportedFilePath is the file written by the last EndMatch.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
