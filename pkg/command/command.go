// Package command defines the messages exchanged between game sessions.
//
// Commands are the only unit of state mutation and the only thing that crosses
// the network. Each one carries the id of the session that produced it and a
// timestamp; the rest of the fields depend on its kind.
package command

import (
	"time"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/pkg/hex"
)

// Kind is the wire discriminator written to the "$type" field.
type Kind string

// Kind constants matching the wire protocol.
const (
	KindJoin             Kind = "join"
	KindStatus           Kind = "status"
	KindDeploy           Kind = "deploy"
	KindMove             Kind = "move"
	KindRoll             Kind = "roll"
	KindChangePlayer     Kind = "change_player"
	KindChangePhase      Kind = "change_phase"
	KindDiceRolled       Kind = "dice_rolled"
	KindWeaponConfig     Kind = "weapon_config"
	KindWeaponAttack     Kind = "weapon_attack"
	KindAttackResolution Kind = "attack_resolution"
	KindPhysicalAttack   Kind = "physical_attack"
	KindTurnEnded        Kind = "turn_ended"
	KindHeatUpdated      Kind = "heat_updated"
)

// Kinds lists every kind the codec understands, in declaration order.
var Kinds = []Kind{
	KindJoin, KindStatus, KindDeploy, KindMove, KindRoll, KindChangePlayer, KindChangePhase,
	KindDiceRolled, KindWeaponConfig, KindWeaponAttack, KindAttackResolution, KindPhysicalAttack,
	KindTurnEnded, KindHeatUpdated,
}

// Meta is the envelope every command carries.
// A zero Origin marks a local bookkeeping command that is never replicated.
type Meta struct {
	Origin    uuid.UUID `json:"gameOriginId"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope returns the command's metadata.
func (m Meta) Envelope() Meta { return m }

func (Meta) sealed() {}

// Command is the closed set of game messages.
type Command interface {
	Kind() Kind
	Envelope() Meta
	// WithMeta returns a copy of the command carrying m.
	WithMeta(m Meta) Command
	sealed()
}

// WithOrigin returns a copy of c stamped with origin, keeping its timestamp.
func WithOrigin(c Command, origin uuid.UUID) Command {
	m := c.Envelope()
	m.Origin = origin
	return c.WithMeta(m)
}

// Stamp returns a copy of c stamped with origin and ts.
func Stamp(c Command, origin uuid.UUID, ts time.Time) Command {
	return c.WithMeta(Meta{Origin: origin, Timestamp: ts.UTC()})
}

// PlayerStatus is a player's readiness during the start phase.
type PlayerStatus string

const (
	StatusNotJoined PlayerStatus = "not_joined"
	StatusJoining   PlayerStatus = "joining"
	StatusPlaying   PlayerStatus = "playing"
)

// Phase names the phase of a round.
type Phase string

const (
	PhaseStart                  Phase = "start"
	PhaseDeployment             Phase = "deployment"
	PhaseInitiative             Phase = "initiative"
	PhaseMovement               Phase = "movement"
	PhaseWeaponsAttack          Phase = "weapons_attack"
	PhaseWeaponAttackResolution Phase = "weapon_attack_resolution"
	PhasePhysicalAttack         Phase = "physical_attack"
	PhaseHeat                   Phase = "heat"
	PhaseEnd                    Phase = "end"
)

// MovementMode is how a unit spends its movement points.
type MovementMode string

const (
	Standstill MovementMode = "standstill"
	Walk       MovementMode = "walk"
	Run        MovementMode = "run"
	Jump       MovementMode = "jump"
)

// WeaponData describes a weapon as carried on a join command.
type WeaponData struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Heat        int       `json:"heat" yaml:"heat"`
	Damage      int       `json:"damage" yaml:"damage"`
	MinRange    int       `json:"minRange,omitempty" yaml:"minRange"`
	ShortRange  int       `json:"shortRange" yaml:"shortRange"`
	MediumRange int       `json:"mediumRange" yaml:"mediumRange"`
	LongRange   int       `json:"longRange" yaml:"longRange"`
	Ammo        string    `json:"ammo,omitempty" yaml:"ammo"`
}

// UnitData describes a unit as carried on a join command.
type UnitData struct {
	ID        uuid.UUID    `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Tonnage   int          `json:"tonnage" yaml:"tonnage"`
	WalkMP    int          `json:"walkMP" yaml:"walkMP"`
	JumpMP    int          `json:"jumpMP,omitempty" yaml:"jumpMP"`
	HeatSinks int          `json:"heatSinks" yaml:"heatSinks"`
	Weapons   []WeaponData `json:"weapons,omitempty" yaml:"weapons"`
}

// Join adds a player and their units to a game in the start phase.
type Join struct {
	Meta
	PlayerID uuid.UUID  `json:"playerId"`
	Name     string     `json:"name"`
	Units    []UnitData `json:"units"`
}

func (Join) Kind() Kind                { return KindJoin }
func (c Join) WithMeta(m Meta) Command { c.Meta = m; return c }

// UpdatePlayerStatus changes a player's readiness.
type UpdatePlayerStatus struct {
	Meta
	PlayerID uuid.UUID    `json:"playerId"`
	Status   PlayerStatus `json:"status"`
}

func (UpdatePlayerStatus) Kind() Kind                { return KindStatus }
func (c UpdatePlayerStatus) WithMeta(m Meta) Command { c.Meta = m; return c }

// DeployUnit places a unit on the board.
type DeployUnit struct {
	Meta
	PlayerID uuid.UUID    `json:"playerId"`
	UnitID   uuid.UUID    `json:"unitId"`
	Position hex.Position `json:"position"`
}

func (DeployUnit) Kind() Kind                { return KindDeploy }
func (c DeployUnit) WithMeta(m Meta) Command { c.Meta = m; return c }

// MoveUnit commits a unit's movement for the round. An empty path with
// Standstill mode means the unit stays put.
type MoveUnit struct {
	Meta
	PlayerID uuid.UUID    `json:"playerId"`
	UnitID   uuid.UUID    `json:"unitId"`
	Mode     MovementMode `json:"mode"`
	Path     hex.Path     `json:"path"`
}

func (MoveUnit) Kind() Kind                { return KindMove }
func (c MoveUnit) WithMeta(m Meta) Command { c.Meta = m; return c }

// RollDice asks the server to roll initiative for a player.
type RollDice struct {
	Meta
	PlayerID uuid.UUID `json:"playerId"`
}

func (RollDice) Kind() Kind                { return KindRoll }
func (c RollDice) WithMeta(m Meta) Command { c.Meta = m; return c }

// ChangeActivePlayer names the player allowed to act. A nil PlayerID clears it.
type ChangeActivePlayer struct {
	Meta
	PlayerID    uuid.UUID `json:"playerId"`
	UnitsToMove int       `json:"unitsToMove"`
}

func (ChangeActivePlayer) Kind() Kind                { return KindChangePlayer }
func (c ChangeActivePlayer) WithMeta(m Meta) Command { c.Meta = m; return c }

// ChangePhase announces the phase now in effect.
type ChangePhase struct {
	Meta
	Phase Phase `json:"phase"`
	Turn  int   `json:"turn"`
}

func (ChangePhase) Kind() Kind                { return KindChangePhase }
func (c ChangePhase) WithMeta(m Meta) Command { c.Meta = m; return c }

// DiceRolled publishes an initiative roll.
type DiceRolled struct {
	Meta
	PlayerID uuid.UUID `json:"playerId"`
	Round    int       `json:"round"`
	Dice     []int     `json:"dice"`
	Total    int       `json:"total"`
}

func (DiceRolled) Kind() Kind                { return KindDiceRolled }
func (c DiceRolled) WithMeta(m Meta) Command { c.Meta = m; return c }

// WeaponConfiguration sets a unit's torso twist before it declares attacks.
// TorsoFacing equal to the unit's facing means no twist.
type WeaponConfiguration struct {
	Meta
	PlayerID    uuid.UUID  `json:"playerId"`
	UnitID      uuid.UUID  `json:"unitId"`
	TorsoFacing hex.Facing `json:"torsoFacing"`
}

func (WeaponConfiguration) Kind() Kind                { return KindWeaponConfig }
func (c WeaponConfiguration) WithMeta(m Meta) Command { c.Meta = m; return c }

// WeaponTarget pairs a weapon with the unit it fires at.
type WeaponTarget struct {
	WeaponID uuid.UUID `json:"weaponId"`
	TargetID uuid.UUID `json:"targetId"`
	Primary  bool      `json:"primary"`
}

// WeaponAttackDeclaration declares every shot a unit takes this round.
// An empty Targets list means the unit holds fire.
type WeaponAttackDeclaration struct {
	Meta
	PlayerID uuid.UUID      `json:"playerId"`
	UnitID   uuid.UUID      `json:"unitId"`
	Targets  []WeaponTarget `json:"targets"`
}

func (WeaponAttackDeclaration) Kind() Kind                { return KindWeaponAttack }
func (c WeaponAttackDeclaration) WithMeta(m Meta) Command { c.Meta = m; return c }

// WeaponAttackResolution is the server's result for one declared shot.
type WeaponAttackResolution struct {
	Meta
	PlayerID   uuid.UUID `json:"playerId"`
	UnitID     uuid.UUID `json:"unitId"`
	WeaponID   uuid.UUID `json:"weaponId"`
	TargetID   uuid.UUID `json:"targetId"`
	ToHit      int       `json:"toHit"`
	Roll       int       `json:"roll"`
	Hit        bool      `json:"hit"`
	Damage     int       `json:"damage"`
	Impossible bool      `json:"impossible,omitempty"`
}

func (WeaponAttackResolution) Kind() Kind                { return KindAttackResolution }
func (c WeaponAttackResolution) WithMeta(m Meta) Command { c.Meta = m; return c }

// PhysicalAttackKind is the kind of melee attack.
type PhysicalAttackKind string

const (
	NoPhysicalAttack PhysicalAttackKind = "none"
	Punch            PhysicalAttackKind = "punch"
	Kick             PhysicalAttackKind = "kick"
)

// PhysicalAttack declares a unit's melee action. Kind none passes.
type PhysicalAttack struct {
	Meta
	PlayerID   uuid.UUID          `json:"playerId"`
	UnitID     uuid.UUID          `json:"unitId"`
	TargetID   uuid.UUID          `json:"targetId"`
	AttackKind PhysicalAttackKind `json:"attackKind"`
}

func (PhysicalAttack) Kind() Kind                { return KindPhysicalAttack }
func (c PhysicalAttack) WithMeta(m Meta) Command { c.Meta = m; return c }

// TurnEnded marks a player done with the end phase.
type TurnEnded struct {
	Meta
	PlayerID uuid.UUID `json:"playerId"`
}

func (TurnEnded) Kind() Kind                { return KindTurnEnded }
func (c TurnEnded) WithMeta(m Meta) Command { c.Meta = m; return c }

// HeatUpdated publishes a unit's heat after the heat phase.
type HeatUpdated struct {
	Meta
	UnitID     uuid.UUID `json:"unitId"`
	Generated  int       `json:"generated"`
	Dissipated int       `json:"dissipated"`
	Heat       int       `json:"heat"`
}

func (HeatUpdated) Kind() Kind                { return KindHeatUpdated }
func (c HeatUpdated) WithMeta(m Meta) Command { c.Meta = m; return c }
