package model

import (
	"fmt"
	"strings"
)

// Slot identifies one of the two equip positions of an actor.
type Slot int8

const (
	SlotLeft Slot = iota
	SlotRight
)

// Slots lists both slots in update order.
var Slots = [...]Slot{SlotLeft, SlotRight}

// String returns human-readable slot name
func (s Slot) String() string {
	switch s {
	case SlotLeft:
		return "LEFT"
	case SlotRight:
		return "RIGHT"
	default:
		return "UNKNOWN"
	}
}

// CastingState is the engine-reported casting state of one slot.
type CastingState int8

const (
	// CastingNone - nothing is being cast from the slot
	CastingNone CastingState = iota
	// CastingCharging - cast is ramping up and not yet held
	CastingCharging
	// CastingCharged - fully ramped cast is being held
	CastingCharged
	// CastingConcentrating - a concentration ability is being channeled
	CastingConcentrating
	// CastingReleased - the cast was let go and resolves now
	CastingReleased
)

// String returns human-readable casting state name
func (c CastingState) String() string {
	switch c {
	case CastingNone:
		return "NONE"
	case CastingCharging:
		return "CHARGING"
	case CastingCharged:
		return "CHARGED"
	case CastingConcentrating:
		return "CONCENTRATING"
	case CastingReleased:
		return "RELEASED"
	default:
		return "UNKNOWN"
	}
}

// ParseCastingState parses a casting state name (case-insensitive).
func ParseCastingState(s string) (CastingState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CastingNone, nil
	case "charging":
		return CastingCharging, nil
	case "charged":
		return CastingCharged, nil
	case "concentrating":
		return CastingConcentrating, nil
	case "released":
		return CastingReleased, nil
	default:
		return CastingNone, fmt.Errorf("unknown casting state %q", s)
	}
}

// HandState is what the engine reports for a slot: the resolved ability and its casting state.
type HandState struct {
	Ability *Ability
	State   CastingState
}

// OperationMode selects which parameter family a charge grows first.
type OperationMode int8

const (
	ModeDisabled OperationMode = iota
	ModeMagnitude
	ModeDuration
)

// String returns the mode name as used in config files and HUD messages.
func (m OperationMode) String() string {
	switch m {
	case ModeDisabled:
		return "Disabled"
	case ModeMagnitude:
		return "Magnitude"
	case ModeDuration:
		return "Duration"
	default:
		return "Unknown"
	}
}

// ParseOperationMode parses "Disabled", "Magnitude" or "Duration" (case-insensitive).
func ParseOperationMode(s string) (OperationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled":
		return ModeDisabled, nil
	case "magnitude":
		return ModeMagnitude, nil
	case "duration":
		return ModeDuration, nil
	default:
		return ModeDisabled, fmt.Errorf("unknown operation mode %q", s)
	}
}
