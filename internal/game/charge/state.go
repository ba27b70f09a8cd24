package charge

import "github.com/udisondev/overcharge/internal/model"

// State is the phase of a slot's charge cycle.
// Release and Cancel are transient: Step leaves them within the same tick.
type State int8

const (
	StateIdle State = iota
	StateCharging
	StateRelease
	StateCancel
)

// String returns human-readable state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateCharging:
		return "CHARGING"
	case StateRelease:
		return "RELEASE"
	case StateCancel:
		return "CANCEL"
	default:
		return "UNKNOWN"
	}
}

// Action is a side effect requested by Step, executed by the owning Cycle in order.
type Action int8

const (
	// ActionStaleReset reverts leftovers of a previous cycle before a new charge.
	ActionStaleReset Action = iota
	// ActionAutoCleanup reverts leftovers after the idle cleanup delay.
	ActionAutoCleanup
	// ActionIncreasePower grows the effect by one charge level.
	ActionIncreasePower
	// ActionRelease commits the current parameters to the resolving cast.
	ActionRelease
	// ActionCancel reverts parameters and clears the charge level.
	ActionCancel
)

// String returns human-readable action name
func (a Action) String() string {
	switch a {
	case ActionStaleReset:
		return "STALE_RESET"
	case ActionAutoCleanup:
		return "AUTO_CLEANUP"
	case ActionIncreasePower:
		return "INCREASE_POWER"
	case ActionRelease:
		return "RELEASE"
	case ActionCancel:
		return "CANCEL"
	default:
		return "UNKNOWN"
	}
}

// Timing holds the delays of the state machine.
type Timing struct {
	PreChargeDelay     float64
	AutoCleanupDelay   float64
	AllowConcentration bool
}

// Input is what a slot machine observes on one tick.
type Input struct {
	Elapsed float64
	// HasHand is false when the engine reports nothing castable in the slot.
	HasHand bool
	Casting model.CastingState
}

// Machine is the full state of a slot machine.
type Machine struct {
	State State

	// Idle bookkeeping, fresh on every entry into Idle.
	PreCharge  Timer
	Cleanup    Timer
	StaleCheck bool

	// Seconds spent in Charging during the current cycle.
	ChargeTime float64
}

// NewMachine returns a machine in Idle.
func NewMachine() Machine {
	return idle()
}

func idle() Machine {
	return Machine{
		State:      StateIdle,
		PreCharge:  NewTimer(),
		Cleanup:    NewTimer(),
		StaleCheck: true,
	}
}

// Step advances m by one tick. It is pure: all side effects are returned as actions.
func Step(m Machine, in Input, t Timing) (Machine, []Action) {
	switch m.State {
	case StateIdle:
		return stepIdle(m, in, t)
	case StateCharging:
		return stepCharging(m, in, nil)
	case StateRelease:
		return stepRelease(nil)
	case StateCancel:
		return stepCancel(nil)
	default:
		return idle(), nil
	}
}

func stepIdle(m Machine, in Input, t Timing) (Machine, []Action) {
	if !in.HasHand {
		return m, nil
	}

	var actions []Action

	m.Cleanup = m.Cleanup.Advance(in.Elapsed)
	if m.Cleanup.HasElapsed(t.AutoCleanupDelay) {
		actions = append(actions, ActionAutoCleanup)
		m.Cleanup.Enabled = false
		m.StaleCheck = false
	}

	if !canCharge(in.Casting, t.AllowConcentration) {
		m.PreCharge = NewTimer()
		return m, actions
	}

	if m.StaleCheck {
		actions = append(actions, ActionStaleReset)
		m.StaleCheck = false
	}

	m.PreCharge = m.PreCharge.Advance(in.Elapsed)
	if !m.PreCharge.HasElapsed(t.PreChargeDelay) {
		return m, actions
	}

	// The tick that crosses the delay already charges.
	return stepCharging(Machine{State: StateCharging}, in, actions)
}

func stepCharging(m Machine, in Input, actions []Action) (Machine, []Action) {
	m.ChargeTime += in.Elapsed

	casting := in.Casting
	if !in.HasHand {
		casting = model.CastingNone
	}

	switch casting {
	case model.CastingCharging:
		return m, actions
	case model.CastingCharged, model.CastingConcentrating:
		return m, append(actions, ActionIncreasePower)
	case model.CastingReleased:
		return stepRelease(actions)
	default:
		return stepCancel(actions)
	}
}

func stepRelease(actions []Action) (Machine, []Action) {
	return idle(), append(actions, ActionRelease)
}

func stepCancel(actions []Action) (Machine, []Action) {
	return idle(), append(actions, ActionCancel)
}

func canCharge(c model.CastingState, allowConcentration bool) bool {
	switch c {
	case model.CastingCharged:
		return true
	case model.CastingConcentrating:
		return allowConcentration
	default:
		return false
	}
}
