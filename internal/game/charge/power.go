package charge

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/udisondev/overcharge/internal/model"
)

// collisionRadiusCap bounds collision radius growth relative to its baseline
// so area projectiles do not detonate on the caster.
const collisionRadiusCap = 3.0

// PowerManager grows and restores the live parameters of one ability.
// Bound to a single charge cycle for its lifetime.
//
// Not thread-safe: driven from the tick goroutine only.
type PowerManager struct {
	ability    *model.Ability
	store      EffectStore
	tracker    InstanceTracker
	offenderID uint32

	growth        float64
	level         int
	concentration bool
	needReset     bool

	// running keeps the unrounded value last written per effect index.
	// The live record truncates duration and area to whole numbers.
	running map[int]model.EffectPower
}

// NewPowerManager creates a PowerManager for ability.
// tracker may be nil if active instances are not tracked.
func NewPowerManager(ability *model.Ability, store EffectStore, tracker InstanceTracker, offenderID uint32, growth float64) (*PowerManager, error) {
	if ability == nil {
		return nil, ErrNilAbility
	}
	if store == nil {
		return nil, fmt.Errorf("%w: effect store", ErrMissingCollaborator)
	}

	pm := &PowerManager{
		ability:       ability,
		store:         store,
		tracker:       tracker,
		offenderID:    offenderID,
		growth:        growth,
		concentration: ability.IsConcentration(),
		running:       make(map[int]model.EffectPower, len(ability.Effects)),
	}

	for i := range ability.Effects {
		if _, err := store.Base(model.EffectKey{AbilityID: ability.ID, Index: i}); err != nil {
			return nil, fmt.Errorf("reading base power of %s effect %d: %w", ability.Name, i, err)
		}
	}

	return pm, nil
}

// Level returns the number of IncreasePower applications since the last ClearLevel.
func (pm *PowerManager) Level() int {
	return pm.level
}

// ClearLevel sets the charge level back to zero.
func (pm *PowerManager) ClearLevel() {
	pm.level = 0
}

// NeedsReset reports whether live parameters differ from baseline.
func (pm *PowerManager) NeedsReset() bool {
	return pm.needReset
}

// Growth returns the growth rate per charge level.
func (pm *PowerManager) Growth() float64 {
	return pm.growth
}

// IncreasePower grows every effect of the ability by one charge level.
//
// The primary parameter follows mode: magnitude first under ModeMagnitude,
// duration first under ModeDuration, falling back to the other when the
// effect has no such component.
// Secondary parameters grow by a damped rate growth/(sqrt(level)+1)
// added to their current value, so growth compounds within one charge.
func (pm *PowerManager) IncreasePower(mode model.OperationMode) {
	pm.needReset = true
	adjusted := pm.growth / (math.Sqrt(float64(pm.level)) + 1)

	for i, eff := range pm.ability.Effects {
		key := model.EffectKey{AbilityID: pm.ability.ID, Index: i}
		base, rec, err := pm.resolve(key)
		if err != nil {
			slog.Warn("skipping effect on increase",
				"ability", pm.ability.Name,
				"effect", eff.Name,
				"error", err)
			continue
		}

		mod := pm.current(i, rec)
		growPrimary(&mod, base, mode, pm.growth)

		mod.Area += base.Area * adjusted
		for k := range mod.Params {
			if !mod.Params[k].Present {
				continue
			}
			grown := mod.Params[k].Value + base.Params[k].Value*adjusted
			if model.ParamKind(k) == model.ParamCollisionRadius {
				grown = math.Min(grown, base.Params[k].Value*collisionRadiusCap)
			}
			mod.Params[k].Value = grown
		}

		applyPower(rec, mod)
		pm.running[i] = mod

		if pm.concentration {
			pm.refreshActiveEffects(eff, mod)
		}
	}

	pm.level++
}

// ResetPower restores every effect of the ability to baseline.
// No-op unless IncreasePower ran since the last reset.
func (pm *PowerManager) ResetPower() {
	if !pm.needReset {
		return
	}

	for i, eff := range pm.ability.Effects {
		key := model.EffectKey{AbilityID: pm.ability.ID, Index: i}
		base, rec, err := pm.resolve(key)
		if err != nil {
			slog.Warn("skipping effect on reset",
				"ability", pm.ability.Name,
				"effect", eff.Name,
				"error", err)
			continue
		}
		mod := rec.Power()
		mod.ResetTo(base)
		applyPower(rec, mod)
	}

	clear(pm.running)
	pm.needReset = false
}

func (pm *PowerManager) resolve(key model.EffectKey) (model.EffectPower, model.EffectRecord, error) {
	base, err := pm.store.Base(key)
	if err != nil {
		return model.EffectPower{}, nil, err
	}
	rec, err := pm.store.Live(key)
	if err != nil {
		return model.EffectPower{}, nil, err
	}
	return base, rec, nil
}

// current reads the live power of effect i. Duration and area keep the
// fraction this manager last wrote unless another writer changed them since.
func (pm *PowerManager) current(i int, rec model.EffectRecord) model.EffectPower {
	mod := rec.Power()
	last, ok := pm.running[i]
	if !ok {
		return mod
	}
	if math.Trunc(last.Duration) == mod.Duration {
		mod.Duration = last.Duration
	}
	if math.Trunc(last.Area) == mod.Area {
		mod.Area = last.Area
	}
	return mod
}

// growPrimary picks the primary parameter from the effect's own baseline.
func growPrimary(mod *model.EffectPower, base model.EffectPower, mode model.OperationMode, growth float64) {
	switch mode {
	case model.ModeMagnitude:
		if base.Magnitude > 0 {
			mod.Magnitude += base.Magnitude * growth
		} else if base.Duration > 0 {
			mod.Duration += base.Duration * growth
		}
	case model.ModeDuration:
		if base.Duration > 0 {
			mod.Duration += base.Duration * growth
		} else if base.Magnitude > 0 {
			mod.Magnitude += base.Magnitude * growth
		}
	}
}

// refreshActiveEffects pushes new magnitude/duration into every live instance
// this actor keeps on targets. A failing instance is invalidated and skipped.
func (pm *PowerManager) refreshActiveEffects(eff model.EffectItem, mod model.EffectPower) {
	if pm.tracker == nil {
		return
	}

	instances := pm.tracker.Tracked(eff.BaseEffectID, pm.offenderID)
	if len(instances) == 0 {
		return
	}

	slog.Debug("refreshing active effects",
		"ability", pm.ability.Name,
		"effect", eff.Name,
		"targets", len(instances))

	for _, inst := range instances {
		if inst.Invalid() {
			continue
		}
		if err := refreshInstance(inst, mod); err != nil {
			slog.Debug("invalid active effect",
				"ability", pm.ability.Name,
				"effect", eff.Name,
				"target", inst.TargetID(),
				"error", err)
			inst.MarkInvalid()
		}
	}
}

func refreshInstance(inst model.ActiveInstance, mod model.EffectPower) error {
	if err := inst.SetPower(mod.Magnitude, mod.Duration); err != nil {
		return fmt.Errorf("setting power: %w", err)
	}
	if err := inst.Recalculate(); err != nil {
		return fmt.Errorf("recalculating: %w", err)
	}
	return nil
}

// applyPower writes mod into the live record.
func applyPower(rec model.EffectRecord, mod model.EffectPower) {
	rec.SetMagnitude(mod.Magnitude)
	rec.SetDuration(mod.Duration)
	rec.SetArea(mod.Area)

	setters := [model.NumParams]func(float64){
		model.ParamSpeed:           rec.SetSpeed,
		model.ParamRange:           rec.SetRange,
		model.ParamForce:           rec.SetForce,
		model.ParamCollisionRadius: rec.SetCollisionRadius,
		model.ParamConeSpread:      rec.SetConeSpread,
		model.ParamExplosionRadius: rec.SetExplosionRadius,
	}
	for k, p := range mod.Params {
		if p.Present {
			setters[k](p.Value)
		}
	}
}
