package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Match{},
	&CommandRecord{},
	&MovementTrace{},
	&PhaseChange{},
}

////////////////////////
// JOURNAL MODELS
////////////////////////

// Match is one recorded game, from the first command to the end of the session.
type Match struct {
	gorm.Model
	MatchID     uuid.UUID    `json:"matchId" gorm:"size:36;uniqueIndex"`
	Name        string       `json:"name" gorm:"size:127"`
	Authority   uuid.UUID    `json:"authority" gorm:"size:36"` // Session id of the authoritative server
	BoardWidth  int          `json:"boardWidth"`
	BoardHeight int          `json:"boardHeight"`
	StartTime   time.Time    `json:"startTime"`
	EndTime     sql.NullTime `json:"endTime"`
	Turns       int          `json:"turns"`
	Commands    int64        `json:"commands"`
}

func (*Match) TableName() string {
	return "matches"
}

// CommandRecord is one applied command in the order it was applied.
type CommandRecord struct {
	ID      uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	MatchID uint      `json:"matchId" gorm:"index:idx_command_match_seq,priority:1"`
	Match   Match     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Seq     int64     `json:"seq" gorm:"index:idx_command_match_seq,priority:2"` // Position in the match's command log
	Time    time.Time `json:"time"`                                              // Timestamp stamped by the origin
	Origin  uuid.UUID `json:"origin" gorm:"size:36"`
	Kind    string    `json:"kind" gorm:"size:32;index:idx_command_kind"`
	Turn    int       `json:"turn"`
	Phase   string    `json:"phase" gorm:"size:32"` // Phase in effect after the command was applied

	Payload datatypes.JSON `json:"payload"` // Wire encoding of the command, "$type" included
}

func (*CommandRecord) TableName() string {
	return "commands"
}

// MovementTrace is the route a unit took in one movement phase.
type MovementTrace struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	MatchID    uint      `json:"matchId" gorm:"index:idx_movement_match_id"`
	Match      Match     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Seq        int64     `json:"seq"`
	Time       time.Time `json:"time"`
	Turn       int       `json:"turn" gorm:"index:idx_movement_turn"`
	PlayerID   uuid.UUID `json:"playerId" gorm:"size:36"`
	UnitID     uuid.UUID `json:"unitId" gorm:"size:36;index:idx_movement_unit_id"`
	Mode       string    `json:"mode" gorm:"size:16"`
	HexesMoved int       `json:"hexesMoved"`
	Cost       int       `json:"cost"`

	Start geom.Point      `json:"start"` // Centre of the starting hex
	End   geom.Point      `json:"end"`   // Centre of the final hex
	Route geom.LineString `json:"route"` // Centres of every hex entered; empty when the unit never left its hex
}

func (*MovementTrace) TableName() string {
	return "movement_traces"
}

// PhaseChange marks each phase transition, for querying round timings.
type PhaseChange struct {
	ID      uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	MatchID uint      `json:"matchId" gorm:"index:idx_phase_match_id"`
	Match   Match     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Time    time.Time `json:"time"`
	Turn    int       `json:"turn"`
	Phase   string    `json:"phase" gorm:"size:32"`
}

func (*PhaseChange) TableName() string {
	return "phase_changes"
}
