// Package game runs a match: the roster, the phase state machine and the
// command flow between an authoritative session and its replicas.
//
// An authoritative session validates every incoming command against the active
// phase, applies the ones it accepts, stamps them with its own id and publishes
// them. A replica applies whatever the authority publishes without checking it.
// Both roles mutate state through the same apply step, so they stay in step as
// long as commands arrive in the order the authority sent them.
package game

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/dice"
	"github.com/mechgrid/turnengine/internal/initiative"
	"github.com/mechgrid/turnengine/internal/rules"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/mechgrid/turnengine/pkg/hex"
)

// Role decides whether a session validates commands or mirrors them.
type Role int

const (
	Authoritative Role = iota
	Replica
)

func (r Role) String() string {
	if r == Replica {
		return "replica"
	}
	return "authoritative"
}

// ParseRole maps "server"/"authoritative" and "client"/"replica".
func ParseRole(s string) (Role, bool) {
	switch s {
	case "server", "authoritative":
		return Authoritative, true
	case "client", "replica":
		return Replica, true
	}
	return Authoritative, false
}

// DefaultGunnery is the to-hit base of every pilot.
const DefaultGunnery = 4

// Publisher sends commands to the other participants.
type Publisher interface {
	Publish(command.Command)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(command.Command)

func (f PublisherFunc) Publish(c command.Command) { f(c) }

// Config assembles a session. Zero values get sensible defaults.
type Config struct {
	ID   uuid.UUID
	Role Role
	// Authority, when set on a replica, is the only origin it accepts.
	Authority      uuid.UUID
	Board          *hex.Board
	Rules          rules.Provider
	ToHit          rules.ToHitCalculator
	Dice           dice.Roller
	AutoInitiative bool
	Gunnery        int
	Publisher      Publisher
	Logger         *slog.Logger
	Clock          func() time.Time
}

// Snapshot is a copy of the session's headline state, safe to read from any goroutine.
type Snapshot struct {
	ID           uuid.UUID
	Role         Role
	Phase        command.Phase
	Turn         int
	ActivePlayer uuid.UUID
	UnitsToMove  int
	Players      int
	Order        []uuid.UUID
	Applied      int64
}

// Session is one participant's view of a match. Handle and Submit must be
// called from a single goroutine at a time.
type Session struct {
	id        uuid.UUID
	role      Role
	authority uuid.UUID

	board   *hex.Board
	rules   rules.Provider
	toHit   rules.ToHitCalculator
	dice    dice.Roller
	auto    bool
	gunnery int

	publisher Publisher
	log       *slog.Logger
	clock     func() time.Time
	listeners []Listener

	players     []*Player
	units       map[uuid.UUID]*Unit
	phase       Phase
	active      *Player
	unitsToMove int
	turn        int
	roll        *initiative.Tracker
	order       []uuid.UUID
	applied     int64

	snapshot atomic.Pointer[Snapshot]
}

// New creates a session in the start phase on turn 1.
func New(cfg Config) *Session {
	s := &Session{
		id:        cfg.ID,
		role:      cfg.Role,
		authority: cfg.Authority,
		board:     cfg.Board,
		rules:     cfg.Rules,
		toHit:     cfg.ToHit,
		dice:      cfg.Dice,
		auto:      cfg.AutoInitiative,
		gunnery:   cfg.Gunnery,
		publisher: cfg.Publisher,
		log:       cfg.Logger,
		clock:     cfg.Clock,
		units:     make(map[uuid.UUID]*Unit),
		phase:     &StartPhase{},
		turn:      1,
	}
	if s.id == uuid.Nil {
		s.id = uuid.New()
	}
	if s.board == nil {
		s.board = hex.NewBoard(16, 17)
	}
	if s.rules == nil {
		s.rules = rules.Classic{}
	}
	if s.toHit == nil {
		s.toHit = rules.NewCalculator(s.rules)
	}
	if s.dice == nil {
		s.dice = dice.NewSeeded(time.Now().UnixNano())
	}
	if s.gunnery == 0 {
		s.gunnery = DefaultGunnery
	}
	if s.publisher == nil {
		s.publisher = PublisherFunc(func(command.Command) {})
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("session", s.id, "role", s.role.String())
	if s.clock == nil {
		s.clock = time.Now
	}
	s.refreshSnapshot()
	return s
}

func (s *Session) ID() uuid.UUID            { return s.id }
func (s *Session) Role() Role               { return s.role }
func (s *Session) Board() *hex.Board        { return s.board }
func (s *Session) Phase() Phase             { return s.phase }
func (s *Session) PhaseName() command.Phase { return s.phase.Name() }
func (s *Session) Turn() int                { return s.turn }
func (s *Session) UnitsToMove() int         { return s.unitsToMove }

// ActivePlayer is the player allowed to act, or nil.
func (s *Session) ActivePlayer() *Player { return s.active }

// Players returns the roster in join order.
func (s *Session) Players() []*Player { return s.players }

// Player looks up a player by id.
func (s *Session) Player(id uuid.UUID) (*Player, bool) {
	for _, p := range s.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Unit looks up a unit by id.
func (s *Session) Unit(id uuid.UUID) (*Unit, bool) {
	u, ok := s.units[id]
	return u, ok
}

// InitiativeOrder is this round's ranking, best first.
func (s *Session) InitiativeOrder() []uuid.UUID { return s.order }

// Snapshot returns the latest published headline state.
func (s *Session) Snapshot() Snapshot { return *s.snapshot.Load() }

// OnEvent registers a listener.
func (s *Session) OnEvent(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Handle processes a command that arrived from the network. Commands without an
// origin, or stamped with this session's own id, are ignored. It reports
// whether state changed.
func (s *Session) Handle(cmd command.Command) bool {
	origin := cmd.Envelope().Origin
	if origin == uuid.Nil || origin == s.id {
		return false
	}
	if s.role == Replica {
		if s.authority != uuid.Nil && origin != s.authority {
			s.log.Debug("ignoring command from non-authority", "kind", cmd.Kind(), "origin", origin)
			return false
		}
		s.apply(cmd)
		return true
	}
	return s.process(cmd)
}

// Submit proposes a local action. An authoritative session validates and
// applies it directly; a replica stamps it and sends it to the authority,
// applying nothing until the authority publishes it back.
func (s *Session) Submit(cmd command.Command) bool {
	if s.role == Replica {
		s.publisher.Publish(command.Stamp(cmd, s.id, s.clock()))
		return true
	}
	return s.process(cmd)
}

func (s *Session) process(cmd command.Command) bool {
	var ok bool
	switch p := s.phase.(type) {
	case *StartPhase:
		ok = s.handleStart(cmd)
	case *DeploymentPhase:
		ok = s.handleDeployment(p, cmd)
	case *InitiativePhase:
		ok = s.handleInitiative(cmd)
	case *ActionPhase:
		ok = s.handleAction(p, cmd)
	case *EndPhase:
		ok = s.handleEnd(p, cmd)
	}
	if !ok {
		s.log.Debug("rejected command", "kind", cmd.Kind(), "phase", s.phase.Name())
	}
	return ok
}

// enter runs the entry logic of a phase the authority has just installed.
func (s *Session) enter(next Phase) {
	switch p := next.(type) {
	case *DeploymentPhase:
		s.enterDeployment(p)
	case *InitiativePhase:
		s.enterInitiative()
	case *ActionPhase:
		s.enterAction(p)
	case *ResolutionPhase:
		s.enterResolution()
	case *HeatPhase:
		s.enterHeat()
	case *EndPhase:
		s.enterEnd(p)
	}
}

// transition replaces the current phase, announces it and enters it.
func (s *Session) transition(name command.Phase) {
	s.transitionAt(name, s.turn)
}

func (s *Session) transitionAt(name command.Phase, turn int) {
	next := newPhase(name)
	s.log.Info("phase transition", "from", s.phase.Name(), "to", name, "turn", turn)
	s.phase = next
	s.commit(command.ChangePhase{Phase: name, Turn: turn})
	s.enter(next)
}

// commit stamps cmd with this session's id, applies it and publishes it.
func (s *Session) commit(cmd command.Command) {
	cmd = command.Stamp(cmd, s.id, s.clock())
	s.apply(cmd)
	s.publisher.Publish(cmd)
}

// activate hands the turn to player with a quota of units.
func (s *Session) activate(player uuid.UUID, units int) {
	s.commit(command.ChangeActivePlayer{PlayerID: player, UnitsToMove: units})
}

func (s *Session) emit(e Event) {
	e.Phase = s.phase.Name()
	e.Turn = s.turn
	for _, l := range s.listeners {
		l(e)
	}
}

func (s *Session) refreshSnapshot() {
	snap := &Snapshot{
		ID:          s.id,
		Role:        s.role,
		Phase:       s.phase.Name(),
		Turn:        s.turn,
		UnitsToMove: s.unitsToMove,
		Players:     len(s.players),
		Order:       append([]uuid.UUID(nil), s.order...),
		Applied:     s.applied,
	}
	if s.active != nil {
		snap.ActivePlayer = s.active.ID
	}
	s.snapshot.Store(snap)
}

// playing returns the players taking part in rounds, in join order.
func (s *Session) playing() []*Player {
	var out []*Player
	for _, p := range s.players {
		if p.Playing() {
			out = append(out, p)
		}
	}
	return out
}

// occupant returns the deployed unit standing on c.
func (s *Session) occupant(c hex.Coordinate) (*Unit, bool) {
	for _, p := range s.players {
		for _, u := range p.Units {
			if u.Deployed && u.Position.Coordinate == c {
				return u, true
			}
		}
	}
	return nil, false
}

// isActive reports whether player may act right now.
func (s *Session) isActive(player uuid.UUID) bool {
	return s.active != nil && s.active.ID == player
}
