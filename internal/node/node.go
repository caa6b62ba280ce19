// Package node assembles a running participant: a game session fed by a
// dispatcher lane, a transport mux and a match journal.
package node

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/dispatcher"
	"github.com/mechgrid/turnengine/internal/game"
	"github.com/mechgrid/turnengine/internal/journal"
	"github.com/mechgrid/turnengine/internal/transport"
	"github.com/mechgrid/turnengine/pkg/command"
)

// SessionLane is the dispatcher lane every command goes through, so the
// session only ever runs on one goroutine.
const SessionLane = "session"

// DefaultLaneSize is the session lane buffer.
const DefaultLaneSize = 1024

// ErrClosed is returned by Start once the node has been closed.
var ErrClosed = errors.New("node closed")

// Config assembles a node.
type Config struct {
	Session game.Config
	// Journal records applied commands. Nil records nothing.
	Journal journal.Backend
	// MatchName labels the journal match.
	MatchName        string
	LaneSize         int
	Logger           *slog.Logger
	DispatcherLogger dispatcher.Logger
}

// Node is a session wired to the network and the journal.
type Node struct {
	session *game.Session
	mux     *transport.Mux
	disp    *dispatcher.Dispatcher
	journal journal.Backend
	log     *slog.Logger

	matchName string
	seq       atomic.Int64
	failed    atomic.Int64

	mu      sync.Mutex
	started bool
	closed  bool
}

// New builds a node. The session publishes through the node's mux; any
// Publisher in cfg.Session is replaced.
func New(cfg Config) (*Node, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LaneSize <= 0 {
		cfg.LaneSize = DefaultLaneSize
	}
	if cfg.Journal == nil {
		cfg.Journal = journal.Discard{}
	}
	if cfg.DispatcherLogger == nil {
		cfg.DispatcherLogger = slogAdapter{cfg.Logger}
	}
	if cfg.Session.Logger == nil {
		cfg.Session.Logger = cfg.Logger
	}

	disp, err := dispatcher.New(cfg.DispatcherLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	n := &Node{
		mux:       transport.NewMux(cfg.Logger),
		disp:      disp,
		journal:   cfg.Journal,
		log:       cfg.Logger,
		matchName: cfg.MatchName,
	}
	cfg.Session.Publisher = n.mux
	n.session = game.New(cfg.Session)
	n.log = n.log.With("session", n.session.ID())

	n.session.OnEvent(n.record)
	n.registerHandlers(cfg.LaneSize)
	n.mux.OnCommand(n.receive)
	return n, nil
}

// registerHandlers puts every command kind on the session lane.
func (n *Node) registerHandlers(size int) {
	for _, kind := range command.Kinds {
		n.disp.Register(kind, n.handle,
			dispatcher.Lane(SessionLane),
			dispatcher.Buffered(size),
			dispatcher.Blocking(),
			dispatcher.Logged(),
		)
	}
}

// handle runs on the session lane.
func (n *Node) handle(e dispatcher.Event) (any, error) {
	if e.Local {
		return n.session.Submit(e.Command), nil
	}
	return n.session.Handle(e.Command), nil
}

// receive filters what the mux decoded and queues the rest for the session.
func (n *Node) receive(cmd command.Command) {
	origin := cmd.Envelope().Origin
	if origin == n.session.ID() {
		return
	}
	if origin == uuid.Nil {
		n.log.Warn("dropping command without origin", "kind", cmd.Kind())
		return
	}
	if _, err := n.disp.Dispatch(dispatcher.Event{Command: cmd}); err != nil {
		n.log.Warn("dropping command", "kind", cmd.Kind(), "origin", origin, "error", err)
	}
}

// record journals every applied command. It runs on the session lane.
func (n *Node) record(e game.Event) {
	if e.Kind != game.CommandApplied {
		return
	}
	entry, err := journal.NewEntry(n.seq.Add(1), e.Turn, e.Phase, e.Command)
	if err == nil {
		err = n.journal.Record(entry)
	}
	if err != nil {
		n.failed.Add(1)
		n.log.Error("failed to journal command", "kind", e.Command.Kind(), "seq", entry.Seq, "error", err)
	}
}

// Attach connects a transport.
func (n *Node) Attach(t transport.Transport) {
	n.mux.Attach(t)
}

// Start opens the journal and begins a match.
func (n *Node) Start(match journal.Match) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrClosed
	}
	if n.started {
		return nil
	}

	if err := n.journal.Init(); err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	m := match
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Name == "" {
		m.Name = n.matchName
	}
	if m.Authority == uuid.Nil && n.session.Role() == game.Authoritative {
		m.Authority = n.session.ID()
	}
	if m.BoardWidth == 0 && m.BoardHeight == 0 {
		m.BoardWidth, m.BoardHeight = n.session.Board().Width(), n.session.Board().Height()
	}
	if err := n.journal.StartMatch(m); err != nil {
		return fmt.Errorf("failed to start match: %w", err)
	}

	n.started = true
	n.log.Info("node started", "role", n.session.Role().String(), "match", m.ID)
	return nil
}

// Submit queues a local action for the session.
func (n *Node) Submit(cmd command.Command) error {
	_, err := n.disp.Dispatch(dispatcher.Event{Command: cmd, Local: true})
	return err
}

// Snapshot is the session's latest headline state.
func (n *Node) Snapshot() game.Snapshot {
	return n.session.Snapshot()
}

// ID is the session id.
func (n *Node) ID() uuid.UUID {
	return n.session.ID()
}

// OnEvent registers a session listener. Listeners run on the session lane and
// must be registered before the node receives traffic.
func (n *Node) OnEvent(l game.Listener) {
	n.session.OnEvent(l)
}

// LaneDepth is how many commands wait for the session.
func (n *Node) LaneDepth() int {
	return n.disp.Depth()
}

// JournalPending is how many journal rows wait to be written.
func (n *Node) JournalPending() int {
	if p, ok := n.journal.(journal.Pending); ok {
		return p.Pending()
	}
	return 0
}

// JournalFailures counts commands the journal could not record.
func (n *Node) JournalFailures() int64 {
	return n.failed.Load()
}

// ExportedFilePath is the journal export written when the match ended, if any.
func (n *Node) ExportedFilePath() string {
	if e, ok := n.journal.(journal.Exporter); ok {
		return e.ExportedFilePath()
	}
	return ""
}

// LogContext returns attributes describing the session's current state, for
// logging.ContextHandler.
func (n *Node) LogContext() []slog.Attr {
	snap := n.session.Snapshot()
	return []slog.Attr{
		slog.String("phase", string(snap.Phase)),
		slog.Int("turn", snap.Turn),
	}
}

// Close drains the session lane, ends the match and closes the transports
// and journal.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	started := n.started
	n.mu.Unlock()

	err := n.mux.Close()
	n.disp.Close()

	if started {
		if endErr := n.journal.EndMatch(); endErr != nil && !errors.Is(endErr, journal.ErrNoMatch) {
			err = errors.Join(err, endErr)
		}
		err = errors.Join(err, n.journal.Close())
	}
	n.log.Info("node stopped", "applied", n.session.Snapshot().Applied)
	return err
}

// slogAdapter satisfies dispatcher.Logger with a slog.Logger.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Debug(msg string, kv ...any) { a.l.Debug(msg, kv...) }
func (a slogAdapter) Info(msg string, kv ...any)  { a.l.Info(msg, kv...) }
func (a slogAdapter) Error(msg string, kv ...any) { a.l.Error(msg, kv...) }
