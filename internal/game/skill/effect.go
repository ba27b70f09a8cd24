package skill

import (
	"errors"
	"fmt"
)

// ErrDetached is returned by an ActiveEffect that was removed from its target.
var ErrDetached = errors.New("active effect no longer attached")

// ActiveEffect is a continuous effect running on a target.
// Created when an ability lands and stored in the target's EffectManager.
// Implements model.ActiveInstance.
type ActiveEffect struct {
	CasterObjID  uint32
	TargetObjID  uint32
	AbilityID    uint32
	BaseEffectID uint32

	Magnitude float64
	Duration  float64 // total seconds
	Elapsed   float64 // seconds since applied
	Remaining float64 // Duration - Elapsed, kept by Recalculate

	owner   *EffectManager
	invalid bool
}

// NewActiveEffect creates an effect with the given power.
func NewActiveEffect(casterObjID, targetObjID, abilityID, baseEffectID uint32, magnitude, duration float64) *ActiveEffect {
	return &ActiveEffect{
		CasterObjID:  casterObjID,
		TargetObjID:  targetObjID,
		AbilityID:    abilityID,
		BaseEffectID: baseEffectID,
		Magnitude:    magnitude,
		Duration:     duration,
		Remaining:    duration,
	}
}

// TargetID returns the object id the effect is applied to.
func (ae *ActiveEffect) TargetID() uint32 { return ae.TargetObjID }

// Invalid reports whether the effect was marked invalid.
func (ae *ActiveEffect) Invalid() bool { return ae.invalid }

// MarkInvalid excludes the effect from further updates.
func (ae *ActiveEffect) MarkInvalid() { ae.invalid = true }

// Attached reports whether the effect still belongs to a target.
func (ae *ActiveEffect) Attached() bool { return ae.owner != nil }

// SetPower overwrites magnitude and total duration.
func (ae *ActiveEffect) SetPower(magnitude, duration float64) error {
	if ae.owner == nil {
		return fmt.Errorf("setting power on target %d: %w", ae.TargetObjID, ErrDetached)
	}
	ae.Magnitude = magnitude
	ae.Duration = duration
	return nil
}

// Recalculate recomputes remaining time from duration and elapsed time.
func (ae *ActiveEffect) Recalculate() error {
	if ae.owner == nil {
		return fmt.Errorf("recalculating on target %d: %w", ae.TargetObjID, ErrDetached)
	}
	ae.Remaining = ae.Duration - ae.Elapsed
	return nil
}

// IsExpired returns true if the effect duration has elapsed.
func (ae *ActiveEffect) IsExpired() bool {
	return ae.Remaining <= 0
}

// Tick advances the effect by dt seconds.
// Returns true if effect is still active, false if expired.
func (ae *ActiveEffect) Tick(dt float64) bool {
	ae.Elapsed += dt
	ae.Remaining -= dt
	return ae.Remaining > 0
}
