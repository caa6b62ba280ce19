package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/game"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	snap game.Snapshot
}

func (f fakeSession) Snapshot() game.Snapshot { return f.snap }

var (
	sessionID = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	playerID  = uuid.MustParse("00000000-0000-0000-0000-000000000001")
)

func testService(file string) *Service {
	return NewService(Dependencies{
		Session: fakeSession{snap: game.Snapshot{
			ID:           sessionID,
			Role:         game.Authoritative,
			Phase:        command.PhaseMovement,
			Turn:         3,
			ActivePlayer: playerID,
			UnitsToMove:  2,
			Players:      2,
			Order:        []uuid.UUID{playerID},
			Applied:      41,
		}},
		LaneDepth:  func() int { return 5 },
		Pending:    func() int { return 7 },
		Peers:      func() int { return 1 },
		StatusFile: file,
		Interval:   10 * time.Millisecond,
	})
}

func TestStatus(t *testing.T) {
	st := testService("").Status()

	assert.Equal(t, sessionID, st.Session)
	assert.Equal(t, game.Authoritative.String(), st.Role)
	assert.Equal(t, command.PhaseMovement, st.Phase)
	assert.Equal(t, 3, st.Turn)
	assert.Equal(t, playerID, st.ActivePlayer)
	assert.Equal(t, 2, st.UnitsToMove)
	assert.Equal(t, int64(41), st.Applied)
	assert.Equal(t, 5, st.LaneDepth)
	assert.Equal(t, 7, st.JournalPending)
	assert.Equal(t, 1, st.Peers)
	assert.False(t, st.Time.IsZero())
}

func TestStatus_OptionalDependencies(t *testing.T) {
	s := NewService(Dependencies{Session: fakeSession{}})
	st := s.Status()
	assert.Zero(t, st.LaneDepth)
	assert.Zero(t, st.JournalPending)
	assert.Zero(t, st.Peers)
}

func TestServeHTTP(t *testing.T) {
	s := testService("")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 3, st.Turn)
	assert.Equal(t, command.PhaseMovement, st.Phase)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStartStop_WritesStatusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := testService(path)

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	// second start is a no-op
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), `"turn": 3`)
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStart_WithoutFile(t *testing.T) {
	s := testService("")
	require.NoError(t, s.Start())
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStart_BadPath(t *testing.T) {
	s := testService(filepath.Join(t.TempDir(), "missing", "status.json"))
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}
