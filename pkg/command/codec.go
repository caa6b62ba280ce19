package command

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TypeField is the envelope key holding the discriminator.
const TypeField = "$type"

var (
	// ErrUnknownType is returned for a "$type" the codec does not know.
	ErrUnknownType = errors.New("unknown command type")
	// ErrMalformedPayload is returned when a message is not valid for its type.
	ErrMalformedPayload = errors.New("malformed payload")
)

// ErrorHandler receives messages that could not be decoded.
type ErrorHandler func(raw []byte, err error)

// Handler receives decoded commands.
type Handler func(Command)

// Encode writes c as a JSON object with its discriminator under "$type".
func Encode(c Command) ([]byte, error) {
	if c == nil {
		return nil, errors.New("encode: nil command")
	}
	body, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Kind(), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Kind(), err)
	}
	kind, _ := json.Marshal(c.Kind())
	fields[TypeField] = kind

	return json.Marshal(fields)
}

// Decode reads the discriminator and unmarshals the rest of data into the
// matching command. Unrecognised discriminators wrap ErrUnknownType and bad
// JSON wraps ErrMalformedPayload.
func Decode(data []byte) (Command, error) {
	var head struct {
		Type *Kind `json:"$type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if head.Type == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrUnknownType, TypeField)
	}

	switch *head.Type {
	case KindJoin:
		return decodeAs[Join](data)
	case KindStatus:
		return decodeAs[UpdatePlayerStatus](data)
	case KindDeploy:
		return decodeAs[DeployUnit](data)
	case KindMove:
		return decodeAs[MoveUnit](data)
	case KindRoll:
		return decodeAs[RollDice](data)
	case KindChangePlayer:
		return decodeAs[ChangeActivePlayer](data)
	case KindChangePhase:
		return decodeAs[ChangePhase](data)
	case KindDiceRolled:
		return decodeAs[DiceRolled](data)
	case KindWeaponConfig:
		return decodeAs[WeaponConfiguration](data)
	case KindWeaponAttack:
		return decodeAs[WeaponAttackDeclaration](data)
	case KindAttackResolution:
		return decodeAs[WeaponAttackResolution](data)
	case KindPhysicalAttack:
		return decodeAs[PhysicalAttack](data)
	case KindTurnEnded:
		return decodeAs[TurnEnded](data)
	case KindHeatUpdated:
		return decodeAs[HeatUpdated](data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, *head.Type)
}

func decodeAs[T Command](data []byte) (Command, error) {
	var c T
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, c.Kind(), err)
	}
	return c, nil
}

// DecodeTo decodes data and hands the result to h, or the error to onErr.
// It never panics on bad input.
func DecodeTo(data []byte, h Handler, onErr ErrorHandler) {
	c, err := Decode(data)
	if err != nil {
		if onErr != nil {
			onErr(data, err)
		}
		return
	}
	h(c)
}
