package monitor

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/game"
	"github.com/mechgrid/turnengine/pkg/command"
)

// Dependencies holds all dependencies for the monitor service. Only Session is
// required; the rest report zero when unset.
type Dependencies struct {
	Session    interface{ Snapshot() game.Snapshot }
	LaneDepth  func() int
	Pending    func() int
	Peers      func() int
	Logger     *slog.Logger
	StatusFile string
	Interval   time.Duration
}

// Status is a point-in-time report on a running node.
type Status struct {
	Time           time.Time     `json:"time"`
	Session        uuid.UUID     `json:"session"`
	Role           string        `json:"role"`
	Phase          command.Phase `json:"phase"`
	Turn           int           `json:"turn"`
	ActivePlayer   uuid.UUID     `json:"activePlayer"`
	UnitsToMove    int           `json:"unitsToMove"`
	Players        int           `json:"players"`
	Order          []uuid.UUID   `json:"order"`
	Applied        int64         `json:"applied"`
	LaneDepth      int           `json:"laneDepth"`
	JournalPending int           `json:"journalPending"`
	Peers          int           `json:"peers"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status collects the current status.
func (s *Service) Status() Status {
	snap := s.deps.Session.Snapshot()
	st := Status{
		Time:         time.Now(),
		Session:      snap.ID,
		Role:         snap.Role.String(),
		Phase:        snap.Phase,
		Turn:         snap.Turn,
		ActivePlayer: snap.ActivePlayer,
		UnitsToMove:  snap.UnitsToMove,
		Players:      snap.Players,
		Order:        snap.Order,
		Applied:      snap.Applied,
	}
	if s.deps.LaneDepth != nil {
		st.LaneDepth = s.deps.LaneDepth()
	}
	if s.deps.Pending != nil {
		st.JournalPending = s.deps.Pending()
	}
	if s.deps.Peers != nil {
		st.Peers = s.deps.Peers()
	}
	return st
}

// ServeHTTP answers GET with the status as JSON.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
		s.deps.Logger.Error("Error encoding status", "error", err)
	}
}

// Start begins rewriting the status file every interval. It is a no-op
// without a status file or when already running.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning || s.deps.StatusFile == "" {
		s.mu.Unlock()
		return nil
	}
	statusFile, err := os.Create(s.deps.StatusFile)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer statusFile.Close()
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor", "file", s.deps.StatusFile)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := writeStatus(statusFile, s.Status()); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

func writeStatus(f *os.File, st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// Stop stops the status monitor and waits for the last write to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
