package game

import (
	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/initiative"
	"github.com/mechgrid/turnengine/pkg/command"
)

// Phase is the closed set of round phases. A transition always installs a new
// value; handlers never carry state from one phase into the next.
type Phase interface {
	Name() command.Phase
	phase()
}

// StartPhase gathers players until everyone is playing.
type StartPhase struct{}

// DeploymentPhase places units, one player at a time in a shuffled order.
type DeploymentPhase struct {
	order []uuid.UUID
	next  int
}

// InitiativePhase runs the roll-off.
type InitiativePhase struct{}

// ActionPhase is the shared shape of movement, weapons attack and physical
// attack: players act in turn order, a quota of units at a time.
type ActionPhase struct {
	name  command.Phase
	steps []initiative.TurnStep
	step  int
	acted map[uuid.UUID]bool
}

// ResolutionPhase resolves every declared weapon attack.
type ResolutionPhase struct{}

// HeatPhase applies heat to every unit.
type HeatPhase struct{}

// EndPhase waits for each player to end their turn.
type EndPhase struct {
	ended map[uuid.UUID]bool
}

func (*StartPhase) Name() command.Phase      { return command.PhaseStart }
func (*DeploymentPhase) Name() command.Phase { return command.PhaseDeployment }
func (*InitiativePhase) Name() command.Phase { return command.PhaseInitiative }
func (p *ActionPhase) Name() command.Phase   { return p.name }
func (*ResolutionPhase) Name() command.Phase { return command.PhaseWeaponAttackResolution }
func (*HeatPhase) Name() command.Phase       { return command.PhaseHeat }
func (*EndPhase) Name() command.Phase        { return command.PhaseEnd }

func (*StartPhase) phase()      {}
func (*DeploymentPhase) phase() {}
func (*InitiativePhase) phase() {}
func (*ActionPhase) phase()     {}
func (*ResolutionPhase) phase() {}
func (*HeatPhase) phase()       {}
func (*EndPhase) phase()        {}

// Steps returns the turn order of an action phase.
func (p *ActionPhase) Steps() []initiative.TurnStep { return p.steps }

// newPhase builds a fresh phase value for name, or nil for an unknown name.
func newPhase(name command.Phase) Phase {
	switch name {
	case command.PhaseStart:
		return &StartPhase{}
	case command.PhaseDeployment:
		return &DeploymentPhase{}
	case command.PhaseInitiative:
		return &InitiativePhase{}
	case command.PhaseMovement, command.PhaseWeaponsAttack, command.PhasePhysicalAttack:
		return &ActionPhase{name: name, acted: map[uuid.UUID]bool{}}
	case command.PhaseWeaponAttackResolution:
		return &ResolutionPhase{}
	case command.PhaseHeat:
		return &HeatPhase{}
	case command.PhaseEnd:
		return &EndPhase{ended: map[uuid.UUID]bool{}}
	}
	return nil
}

// successor is the phase that follows name within a round.
func successor(name command.Phase) command.Phase {
	switch name {
	case command.PhaseStart:
		return command.PhaseDeployment
	case command.PhaseDeployment:
		return command.PhaseInitiative
	case command.PhaseInitiative:
		return command.PhaseMovement
	case command.PhaseMovement:
		return command.PhaseWeaponsAttack
	case command.PhaseWeaponsAttack:
		return command.PhaseWeaponAttackResolution
	case command.PhaseWeaponAttackResolution:
		return command.PhasePhysicalAttack
	case command.PhasePhysicalAttack:
		return command.PhaseHeat
	case command.PhaseHeat:
		return command.PhaseEnd
	}
	return command.PhaseInitiative
}
