package game

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/dice"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/mechgrid/turnengine/pkg/hex"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mech(name string) command.UnitData {
	return command.UnitData{
		ID:        uuid.New(),
		Name:      name,
		Tonnage:   50,
		WalkMP:    4,
		JumpMP:    3,
		HeatSinks: 10,
		Weapons: []command.WeaponData{{
			ID: uuid.New(), Name: "Medium Laser", Heat: 3, Damage: 5,
			ShortRange: 3, MediumRange: 6, LongRange: 9,
		}},
	}
}

// harness drives an authoritative session as if every command came from one remote client.
type harness struct {
	t      *testing.T
	server *Session
	client uuid.UUID
	sent   []command.Command
	events []Event
	// mirror, when set, receives everything the server publishes.
	mirror *Session
}

func newHarness(t *testing.T, auto bool, roller dice.Roller) *harness {
	h := &harness{t: t, client: uuid.New()}
	h.server = New(Config{
		Board:          hex.NewBoard(16, 17),
		Dice:           roller,
		AutoInitiative: auto,
		Logger:         quietLogger(),
		Clock:          func() time.Time { return testTime },
		Publisher: PublisherFunc(func(c command.Command) {
			h.sent = append(h.sent, c)
			if h.mirror != nil {
				h.mirror.Handle(c)
			}
		}),
	})
	h.server.OnEvent(func(e Event) { h.events = append(h.events, e) })
	return h
}

func (h *harness) send(c command.Command) bool {
	return h.server.Handle(command.Stamp(c, h.client, testTime))
}

// setup joins P1 with two units and P2 with three, then deploys P1 along row 2
// facing south and P2 along row 10 facing north. With automatic initiative the
// session is already in movement when it returns.
func (h *harness) setup() (p1, p2 *Player) {
	t := h.t
	id1, id2 := uuid.New(), uuid.New()
	require.True(t, h.send(command.Join{PlayerID: id1, Name: "P1", Units: []command.UnitData{mech("A1"), mech("A2")}}))
	require.True(t, h.send(command.Join{PlayerID: id2, Name: "P2", Units: []command.UnitData{mech("B1"), mech("B2"), mech("B3")}}))
	require.True(t, h.send(command.UpdatePlayerStatus{PlayerID: id1, Status: command.StatusPlaying}))
	require.Equal(t, command.PhaseStart, h.server.PhaseName())
	require.True(t, h.send(command.UpdatePlayerStatus{PlayerID: id2, Status: command.StatusPlaying}))
	require.Equal(t, command.PhaseDeployment, h.server.PhaseName())

	p1, _ = h.server.Player(id1)
	p2, _ = h.server.Player(id2)
	for i, u := range p1.Units {
		require.True(t, h.send(command.DeployUnit{PlayerID: id1, UnitID: u.ID, Position: hex.P(2+2*i, 2, hex.South)}))
	}
	for i, u := range p2.Units {
		require.True(t, h.send(command.DeployUnit{PlayerID: id2, UnitID: u.ID, Position: hex.P(2+2*i, 10, hex.North)}))
	}
	if h.server.auto {
		require.Equal(t, command.PhaseMovement, h.server.PhaseName())
	} else {
		require.Equal(t, command.PhaseInitiative, h.server.PhaseName())
	}
	return p1, p2
}

// nextUnit returns a unit of the active player that has not acted this phase.
func (h *harness) nextUnit() *Unit {
	h.t.Helper()
	p, ok := h.server.Phase().(*ActionPhase)
	require.True(h.t, ok, "not in an action phase")
	active := h.server.ActivePlayer()
	require.NotNil(h.t, active)
	for _, u := range active.Units {
		if u.Deployed && !p.acted[u.ID] {
			return u
		}
	}
	h.t.Fatalf("active player %s has no unit left to act", active.Name)
	return nil
}

// moveAll plays the movement phase; units listed in walk walk there, the rest stand still.
func (h *harness) moveAll(walk map[uuid.UUID]hex.Position) {
	for h.server.PhaseName() == command.PhaseMovement {
		u := h.nextUnit()
		cmd := command.MoveUnit{PlayerID: u.Owner, UnitID: u.ID, Mode: command.Standstill}
		if target, ok := walk[u.ID]; ok {
			cmd.Mode = command.Walk
			cmd.Path = hex.FindPath(h.server.Board(), u.Position, target, u.WalkMP, h.server.enemyHexes(u.Owner))
			require.NotNil(h.t, cmd.Path)
		}
		require.True(h.t, h.send(cmd))
	}
}

// attackAll plays the weapons attack phase; units listed in targets fire every weapon at it.
func (h *harness) attackAll(targets map[uuid.UUID]uuid.UUID) {
	for h.server.PhaseName() == command.PhaseWeaponsAttack {
		u := h.nextUnit()
		cmd := command.WeaponAttackDeclaration{PlayerID: u.Owner, UnitID: u.ID}
		if target, ok := targets[u.ID]; ok {
			for _, w := range u.Weapons {
				cmd.Targets = append(cmd.Targets, command.WeaponTarget{WeaponID: w.ID, TargetID: target, Primary: true})
			}
		}
		require.True(h.t, h.send(cmd))
	}
}

func (h *harness) physicalAll() {
	for h.server.PhaseName() == command.PhasePhysicalAttack {
		u := h.nextUnit()
		require.True(h.t, h.send(command.PhysicalAttack{PlayerID: u.Owner, UnitID: u.ID, AttackKind: command.NoPhysicalAttack}))
	}
}

func (h *harness) endAll() {
	turn := h.server.Turn()
	for h.server.PhaseName() == command.PhaseEnd && h.server.Turn() == turn {
		active := h.server.ActivePlayer()
		require.NotNil(h.t, active)
		require.True(h.t, h.send(command.TurnEnded{PlayerID: active.ID}))
	}
}

func (h *harness) rollAll() {
	for h.server.PhaseName() == command.PhaseInitiative {
		active := h.server.ActivePlayer()
		require.NotNil(h.t, active)
		require.True(h.t, h.send(command.RollDice{PlayerID: active.ID}))
	}
}

func sentOfKind[T command.Command](cmds []command.Command) []T {
	var out []T
	for _, c := range cmds {
		if v, ok := c.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
