package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/dice"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/mechgrid/turnengine/pkg/hex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReplica(authority uuid.UUID, pub Publisher) *Session {
	return New(Config{
		Role:      Replica,
		Authority: authority,
		Board:     hex.NewBoard(16, 17),
		Logger:    quietLogger(),
		Clock:     func() time.Time { return testTime },
		Publisher: pub,
	})
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"server", Authoritative, true},
		{"authoritative", Authoritative, true},
		{"client", Replica, true},
		{"replica", Replica, true},
		{"observer", Authoritative, false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "replica", Replica.String())
}

func TestSession_Defaults(t *testing.T) {
	s := New(Config{Logger: quietLogger()})
	assert.NotEqual(t, uuid.Nil, s.ID())
	assert.Equal(t, Authoritative, s.Role())
	assert.Equal(t, command.PhaseStart, s.PhaseName())
	assert.Equal(t, 1, s.Turn())
	assert.Equal(t, 16, s.Board().Width())
	assert.Nil(t, s.ActivePlayer())

	snap := s.Snapshot()
	assert.Equal(t, s.ID(), snap.ID)
	assert.Equal(t, command.PhaseStart, snap.Phase)
	assert.Zero(t, snap.Applied)
}

func TestSession_IgnoresOwnAndAnonymousCommands(t *testing.T) {
	h := newHarness(t, true, dice.NewFixed(1))
	join := command.Join{PlayerID: uuid.New(), Name: "P1"}

	assert.False(t, h.server.Handle(join), "no origin")
	assert.False(t, h.server.Handle(command.Stamp(join, h.server.ID(), testTime)), "own origin")
	assert.Empty(t, h.server.Players())
	assert.Empty(t, h.sent)

	require.True(t, h.send(join))
	assert.Len(t, h.server.Players(), 1)
}

func TestSession_CommitStampsWithAuthority(t *testing.T) {
	h := newHarness(t, true, dice.NewFixed(1))
	require.True(t, h.send(command.Join{PlayerID: uuid.New(), Name: "P1"}))
	require.Len(t, h.sent, 1)
	env := h.sent[0].Envelope()
	assert.Equal(t, h.server.ID(), env.Origin)
	assert.Equal(t, testTime, env.Timestamp)
}

func TestSession_StartPhase(t *testing.T) {
	h := newHarness(t, true, dice.NewFixed(1))
	id := uuid.New()

	assert.False(t, h.send(command.Join{PlayerID: uuid.Nil, Name: "nobody"}))
	assert.False(t, h.send(command.UpdatePlayerStatus{PlayerID: id, Status: command.StatusPlaying}), "unknown player")

	bad := mech("heavy")
	bad.Tonnage = 13
	assert.False(t, h.send(command.Join{PlayerID: id, Units: []command.UnitData{bad}}))

	noAmmo := mech("lrm")
	noAmmo.Weapons[0].Ammo = "plasma"
	assert.False(t, h.send(command.Join{PlayerID: id, Units: []command.UnitData{noAmmo}}))

	a := mech("A")
	assert.False(t, h.send(command.Join{PlayerID: id, Units: []command.UnitData{a, a}}), "duplicate unit")
	require.True(t, h.send(command.Join{PlayerID: id, Name: "P1", Units: []command.UnitData{a}}))
	assert.False(t, h.send(command.Join{PlayerID: id, Name: "again"}))
	assert.False(t, h.send(command.Join{PlayerID: uuid.New(), Units: []command.UnitData{a}}), "unit already taken")

	p, ok := h.server.Player(id)
	require.True(t, ok)
	assert.Equal(t, command.StatusJoining, p.Status)
	u, ok := h.server.Unit(a.ID)
	require.True(t, ok)
	assert.Equal(t, id, u.Owner)
	assert.Equal(t, 16, u.Structure["center_torso"])

	assert.False(t, h.send(command.UpdatePlayerStatus{PlayerID: id, Status: "dancing"}))
	assert.False(t, h.send(command.DeployUnit{PlayerID: id, UnitID: a.ID}), "wrong phase")
}

func TestSession_Deployment(t *testing.T) {
	h := newHarness(t, false, dice.NewFixed(1))
	id1, id2 := uuid.New(), uuid.New()
	a, b := mech("A"), mech("B")
	require.True(t, h.send(command.Join{PlayerID: id1, Name: "P1", Units: []command.UnitData{a}}))
	require.True(t, h.send(command.Join{PlayerID: id2, Name: "P2", Units: []command.UnitData{b}}))
	require.True(t, h.send(command.UpdatePlayerStatus{PlayerID: id1, Status: command.StatusPlaying}))
	require.True(t, h.send(command.UpdatePlayerStatus{PlayerID: id2, Status: command.StatusPlaying}))

	p, ok := h.server.Phase().(*DeploymentPhase)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{id1, id2}, p.DeploymentOrder())
	require.Equal(t, id1, h.server.ActivePlayer().ID)
	assert.Equal(t, 1, h.server.UnitsToMove())

	h.server.Board().Set(hex.C(5, 5), 0, hex.Terrain{Kind: hex.Building, Level: 2})

	tests := []struct {
		name string
		cmd  command.DeployUnit
	}{
		{"not active", command.DeployUnit{PlayerID: id2, UnitID: b.ID, Position: hex.P(1, 1, hex.North)}},
		{"not owned", command.DeployUnit{PlayerID: id1, UnitID: b.ID, Position: hex.P(1, 1, hex.North)}},
		{"off board", command.DeployUnit{PlayerID: id1, UnitID: a.ID, Position: hex.P(40, 1, hex.North)}},
		{"bad facing", command.DeployUnit{PlayerID: id1, UnitID: a.ID, Position: hex.P(1, 1, 9)}},
		{"impassable", command.DeployUnit{PlayerID: id1, UnitID: a.ID, Position: hex.P(5, 5, hex.North)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.send(tt.cmd))
		})
	}

	require.True(t, h.send(command.DeployUnit{PlayerID: id1, UnitID: a.ID, Position: hex.P(1, 1, hex.SouthEast)}))
	u, _ := h.server.Unit(a.ID)
	assert.True(t, u.Deployed)
	assert.Equal(t, hex.SouthEast, u.TorsoFacing)

	require.Equal(t, id2, h.server.ActivePlayer().ID)
	assert.False(t, h.send(command.DeployUnit{PlayerID: id2, UnitID: b.ID, Position: hex.P(1, 1, hex.North)}), "occupied")
	require.True(t, h.send(command.DeployUnit{PlayerID: id2, UnitID: b.ID, Position: hex.P(1, 2, hex.North)}))
	assert.Equal(t, command.PhaseInitiative, h.server.PhaseName())
}

func TestSession_AttackDeclarations(t *testing.T) {
	h := newHarness(t, true, dice.NewFixed(3, 3, 5, 5))
	p1, p2 := h.setup()
	h.moveAll(nil)
	require.Equal(t, command.PhaseWeaponsAttack, h.server.PhaseName())

	a1 := p1.Units[0]
	w := a1.Weapons[0].ID
	tests := []struct {
		name    string
		targets []command.WeaponTarget
	}{
		{"friendly target", []command.WeaponTarget{{WeaponID: w, TargetID: p1.Units[1].ID}}},
		{"unknown target", []command.WeaponTarget{{WeaponID: w, TargetID: uuid.New()}}},
		{"unknown weapon", []command.WeaponTarget{{WeaponID: uuid.New(), TargetID: p2.Units[0].ID}}},
		{"weapon twice", []command.WeaponTarget{{WeaponID: w, TargetID: p2.Units[0].ID}, {WeaponID: w, TargetID: p2.Units[1].ID}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.send(command.WeaponAttackDeclaration{PlayerID: p1.ID, UnitID: a1.ID, Targets: tt.targets}))
		})
	}

	// Torso twists are free but limited to one hexside.
	assert.False(t, h.send(command.WeaponConfiguration{PlayerID: p1.ID, UnitID: a1.ID, TorsoFacing: hex.North}))
	require.True(t, h.send(command.WeaponConfiguration{PlayerID: p1.ID, UnitID: a1.ID, TorsoFacing: hex.SouthWest}))
	assert.Equal(t, hex.SouthWest, a1.TorsoFacing)
	assert.Equal(t, 1, h.server.UnitsToMove())

	require.True(t, h.send(command.WeaponAttackDeclaration{PlayerID: p1.ID, UnitID: a1.ID, Targets: []command.WeaponTarget{
		{WeaponID: w, TargetID: p2.Units[0].ID, Primary: true},
	}}))
	assert.True(t, a1.Weapons[0].Declared())
	assert.Equal(t, p2.ID, h.server.ActivePlayer().ID)
}

func TestSession_PhysicalAttacks(t *testing.T) {
	h := newHarness(t, true, dice.NewFixed(3, 3, 5, 5))
	p1, p2 := h.setup()
	a1, b1 := p1.Units[0], p2.Units[0]
	h.moveAll(map[uuid.UUID]hex.Position{
		a1.ID: hex.P(2, 6, hex.AnyFacing),
		b1.ID: hex.P(2, 7, hex.AnyFacing),
	})
	h.attackAll(nil)
	require.Equal(t, command.PhasePhysicalAttack, h.server.PhaseName())
	require.Equal(t, p1.ID, h.server.ActivePlayer().ID)

	a2 := p1.Units[1]
	assert.False(t, h.send(command.PhysicalAttack{PlayerID: p1.ID, UnitID: a2.ID, TargetID: b1.ID, AttackKind: command.Punch}), "not adjacent")
	assert.False(t, h.send(command.PhysicalAttack{PlayerID: p1.ID, UnitID: a1.ID, TargetID: a2.ID, AttackKind: command.Kick}), "friendly")
	assert.False(t, h.send(command.PhysicalAttack{PlayerID: p1.ID, UnitID: a1.ID, TargetID: b1.ID, AttackKind: "headbutt"}))

	require.Equal(t, 1, hex.Distance(a1.Position.Coordinate, b1.Position.Coordinate))
	require.True(t, h.send(command.PhysicalAttack{PlayerID: p1.ID, UnitID: a1.ID, TargetID: b1.ID, AttackKind: command.Kick}))
	assert.Equal(t, command.Kick, a1.Physical)
	assert.Equal(t, b1.ID, a1.PhysicalTarget)
}

func TestSession_Events(t *testing.T) {
	h := newHarness(t, true, dice.NewFixed(3, 3, 5, 5))
	h.setup()

	counts := map[EventKind]int{}
	for _, e := range h.events {
		counts[e.Kind]++
	}
	assert.Equal(t, len(h.sent), counts[CommandApplied])
	// Deployment, initiative and movement.
	assert.Equal(t, 3, counts[PhaseChanged])
	assert.Zero(t, counts[TurnChanged])
	assert.Positive(t, counts[ActivePlayerChanged])

	last := h.events[len(h.events)-1]
	assert.Equal(t, CommandApplied, last.Kind)
	assert.Equal(t, command.PhaseMovement, last.Phase)
	assert.Equal(t, "command_applied", CommandApplied.String())

	snap := h.server.Snapshot()
	assert.Equal(t, command.PhaseMovement, snap.Phase)
	assert.Equal(t, 2, snap.Players)
	assert.Equal(t, int64(len(h.sent)), snap.Applied)
	assert.Equal(t, h.server.ActivePlayer().ID, snap.ActivePlayer)
	assert.Equal(t, h.server.InitiativeOrder(), snap.Order)
}

func TestReplica_MirrorsAuthority(t *testing.T) {
	h := newHarness(t, false, dice.NewFixed(3, 3, 5, 5))
	h.mirror = newReplica(h.server.ID(), nil)

	p1, p2 := h.setup()
	h.rollAll()
	h.moveAll(map[uuid.UUID]hex.Position{p2.Units[2].ID: hex.P(6, 9, hex.North)})
	h.attackAll(map[uuid.UUID]uuid.UUID{p1.Units[0].ID: p2.Units[0].ID})
	h.physicalAll()

	assertMirrored(t, h.server, h.mirror)
	h.endAll()
	assertMirrored(t, h.server, h.mirror)
	assert.Equal(t, 2, h.mirror.Turn())
	assert.Equal(t, h.server.Snapshot().Applied, h.mirror.Snapshot().Applied)
}

func TestReplica_MirrorsTiedRollOff(t *testing.T) {
	h := newHarness(t, true, dice.NewFixed(3, 3, 3, 3, 6, 6, 1, 1))
	h.mirror = newReplica(h.server.ID(), nil)
	h.setup()

	assertMirrored(t, h.server, h.mirror)
	assert.Len(t, h.mirror.InitiativeOrder(), 2)
}

func TestReplica_IgnoresOtherOrigins(t *testing.T) {
	authority := uuid.New()
	r := newReplica(authority, nil)

	join := command.Join{PlayerID: uuid.New(), Name: "P1"}
	assert.False(t, r.Handle(command.Stamp(join, uuid.New(), testTime)))
	assert.False(t, r.Handle(command.Stamp(join, r.ID(), testTime)))
	assert.Empty(t, r.Players())

	assert.True(t, r.Handle(command.Stamp(join, authority, testTime)))
	assert.Len(t, r.Players(), 1)
}

func TestReplica_SubmitRoundTrip(t *testing.T) {
	var server, client *Session
	var toServer []command.Command
	server = New(Config{
		Logger: quietLogger(),
		Clock:  func() time.Time { return testTime },
		Publisher: PublisherFunc(func(c command.Command) {
			client.Handle(c)
		}),
	})
	client = newReplica(server.ID(), PublisherFunc(func(c command.Command) {
		toServer = append(toServer, c)
		server.Handle(c)
	}))

	id := uuid.New()
	require.True(t, client.Submit(command.Join{PlayerID: id, Name: "P1"}))
	require.Len(t, toServer, 1)
	assert.Equal(t, client.ID(), toServer[0].Envelope().Origin)

	_, ok := client.Player(id)
	assert.True(t, ok, "applied once the authority echoed it")
	_, ok = server.Player(id)
	assert.True(t, ok)
	assert.Equal(t, int64(1), client.Snapshot().Applied)

	// Rejected proposals never come back.
	require.True(t, client.Submit(command.DeployUnit{PlayerID: id, UnitID: uuid.New()}))
	assert.Equal(t, int64(1), client.Snapshot().Applied)
}

func assertMirrored(t *testing.T, server, replica *Session) {
	t.Helper()
	assert.Equal(t, server.PhaseName(), replica.PhaseName())
	assert.Equal(t, server.Turn(), replica.Turn())
	assert.Equal(t, server.UnitsToMove(), replica.UnitsToMove())
	assert.Equal(t, server.InitiativeOrder(), replica.InitiativeOrder())
	if server.ActivePlayer() == nil {
		assert.Nil(t, replica.ActivePlayer())
	} else {
		require.NotNil(t, replica.ActivePlayer())
		assert.Equal(t, server.ActivePlayer().ID, replica.ActivePlayer().ID)
	}
	require.Len(t, replica.Players(), len(server.Players()))
	for i, sp := range server.Players() {
		rp := replica.Players()[i]
		assert.Equal(t, sp.ID, rp.ID)
		assert.Equal(t, sp.Status, rp.Status)
		assert.Equal(t, sp.Initiative, rp.Initiative)
		assert.Equal(t, sp.TurnEnded, rp.TurnEnded)
		for j, su := range sp.Units {
			ru := rp.Units[j]
			assert.Equal(t, su.Position, ru.Position, su.Name)
			assert.Equal(t, su.TorsoFacing, ru.TorsoFacing, su.Name)
			assert.Equal(t, su.Mode, ru.Mode, su.Name)
			assert.Equal(t, su.HexesMoved, ru.HexesMoved, su.Name)
			assert.Equal(t, su.Heat, ru.Heat, su.Name)
			assert.Equal(t, su.DamageTaken, ru.DamageTaken, su.Name)
		}
	}
}
