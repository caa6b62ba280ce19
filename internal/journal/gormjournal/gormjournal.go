// Package gormjournal stores the match journal in postgres or sqlite through gorm.
// Entries are queued by Record and written in batches by a background writer.
package gormjournal

import (
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mechgrid/turnengine/internal/config"
	"github.com/mechgrid/turnengine/internal/database"
	"github.com/mechgrid/turnengine/internal/geo"
	"github.com/mechgrid/turnengine/internal/journal"
	"github.com/mechgrid/turnengine/internal/model"
	"github.com/mechgrid/turnengine/internal/queue"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dialect selects the database.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DefaultFlushInterval is how often queued entries are written.
const DefaultFlushInterval = 2 * time.Second

// Config configures the backend.
type Config struct {
	Dialect       Dialect
	DB            config.DBConfig
	SQLite        config.SQLiteConfig
	FlushInterval time.Duration
}

// queues holds the rows waiting for the writer.
type queues struct {
	commands *queue.Queue[model.CommandRecord]
	traces   *queue.Queue[model.MovementTrace]
	phases   *queue.Queue[model.PhaseChange]
}

// Backend is a gorm-backed journal.
type Backend struct {
	cfg     Config
	manager *database.Manager
	log     zerolog.Logger

	q         queues
	matchID   atomic.Uint64
	match     model.Match
	recorded  int64
	turns     int
	lastWrite atomic.Int64

	writeMu  sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
}

// New creates a backend. The connection is opened by Init.
func New(cfg Config, log zerolog.Logger) *Backend {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		cfg:     cfg,
		manager: database.NewManager(log),
		log:     log,
		q: queues{
			commands: queue.New[model.CommandRecord](),
			traces:   queue.New[model.MovementTrace](),
			phases:   queue.New[model.PhaseChange](),
		},
		stopChan: make(chan struct{}),
	}
}

// Init connects, migrates and starts the writer. A postgres journal that
// cannot reach its server falls back to in-memory sqlite dumped to disk.
func (b *Backend) Init() error {
	var err error
	switch b.cfg.Dialect {
	case Postgres:
		err = b.manager.Connect(b.cfg.DB)
	case SQLite:
		err = b.manager.UseSQLite(b.cfg.SQLite.Path)
	default:
		return fmt.Errorf("unknown journal dialect: %q", b.cfg.Dialect)
	}
	if err != nil {
		return err
	}
	if err := b.manager.Setup(); err != nil {
		return err
	}

	b.started = true
	b.wg.Add(1)
	go b.writeLoop()

	if b.manager.InMemory && b.cfg.SQLite.DumpPath != "" && b.cfg.SQLite.DumpInterval > 0 {
		b.manager.DumpPath = b.cfg.SQLite.DumpPath
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// DB exposes the connection, mostly for queries in tests and the replay tool.
func (b *Backend) DB() *gorm.DB {
	return b.manager.DB
}

// StartMatch inserts the match row. Entries recorded afterwards belong to it.
func (b *Backend) StartMatch(m journal.Match) error {
	row := model.Match{
		MatchID:     m.ID,
		Name:        m.Name,
		Authority:   m.Authority,
		BoardWidth:  m.BoardWidth,
		BoardHeight: m.BoardHeight,
		StartTime:   m.StartTime,
	}
	if err := b.manager.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	b.writeMu.Lock()
	b.match = row
	b.recorded = 0
	b.turns = 0
	b.writeMu.Unlock()
	b.matchID.Store(uint64(row.ID))
	b.log.Info().Str("match", m.ID.String()).Uint("id", row.ID).Msg("Match started")
	return nil
}

// Record queues the entry and whatever rows derive from it.
func (b *Backend) Record(e journal.Entry) error {
	if b.matchID.Load() == 0 {
		return journal.ErrNoMatch
	}
	cmd, err := e.Decode()
	if err != nil {
		return fmt.Errorf("failed to decode entry %d: %w", e.Seq, err)
	}

	b.q.commands.Push(model.CommandRecord{
		Seq:     e.Seq,
		Time:    e.Timestamp,
		Origin:  e.Origin,
		Kind:    string(e.Kind),
		Turn:    e.Turn,
		Phase:   string(e.Phase),
		Payload: datatypes.JSON(e.Payload),
	})

	switch c := cmd.(type) {
	case command.MoveUnit:
		b.q.traces.Push(trace(e, c))
	case command.ChangePhase:
		b.q.phases.Push(model.PhaseChange{Time: e.Timestamp, Turn: c.Turn, Phase: string(c.Phase)})
	}

	b.writeMu.Lock()
	b.recorded++
	if e.Turn > b.turns {
		b.turns = e.Turn
	}
	b.writeMu.Unlock()
	return nil
}

func trace(e journal.Entry, c command.MoveUnit) model.MovementTrace {
	t := model.MovementTrace{
		Seq:        e.Seq,
		Time:       e.Timestamp,
		Turn:       e.Turn,
		PlayerID:   c.PlayerID,
		UnitID:     c.UnitID,
		Mode:       string(c.Mode),
		HexesMoved: c.Path.HexesMoved(),
		Cost:       c.Path.Cost(),
	}
	if len(c.Path) > 0 {
		if pt, err := geo.PointFromCoordinate(c.Path.Start().Coordinate, 0); err == nil {
			t.Start = pt
		}
		if pt, err := geo.PointFromCoordinate(c.Path.End().Coordinate, 0); err == nil {
			t.End = pt
		}
	}
	if ls, err := geo.PathLineString(c.Path); err == nil {
		t.Route = ls
	}
	return t
}

// EndMatch writes everything queued and closes the match row.
func (b *Backend) EndMatch() error {
	if b.matchID.Load() == 0 {
		return journal.ErrNoMatch
	}
	if err := b.Flush(); err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.match.EndTime = sql.NullTime{Time: time.Now(), Valid: true}
	b.match.Turns = b.turns
	b.match.Commands = b.recorded
	err := b.manager.DB.Model(&b.match).Select("end_time", "turns", "commands").Updates(&b.match).Error
	if err != nil {
		return fmt.Errorf("failed to close match: %w", err)
	}
	b.matchID.Store(0)

	if b.manager.InMemory && b.manager.DumpPath != "" {
		if err := b.manager.Dump(); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the background goroutines, writes what is left and disconnects.
func (b *Backend) Close() error {
	if !b.started {
		return b.manager.Close()
	}
	b.started = false
	close(b.stopChan)
	b.wg.Wait()
	err := b.Flush()
	if b.manager.InMemory && b.manager.DumpPath != "" {
		if dumpErr := b.manager.Dump(); dumpErr != nil && err == nil {
			err = dumpErr
		}
	}
	if closeErr := b.manager.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Pending is the number of rows waiting to be written.
func (b *Backend) Pending() int {
	return b.q.commands.Len() + b.q.traces.Len() + b.q.phases.Len()
}

// LastWrite is when the writer last committed a batch.
func (b *Backend) LastWrite() time.Time {
	ns := b.lastWrite.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
