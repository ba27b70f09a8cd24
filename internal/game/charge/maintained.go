package charge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/udisondev/overcharge/internal/model"
)

// Maintained is a toggleable buff seeded from a finished charge.
// It lives independently of the charge cycles, drains upkeep each tick
// and survives actor re-creation through the MaintainedStore.
type Maintained struct {
	id      uuid.UUID
	holder  *Actor
	ability *model.Ability

	level     int
	magnitude float64
	duration  float64
	remaining float64

	applied   bool
	dispelled bool
}

func newMaintained(holder *Actor, ability *model.Ability) (*Maintained, error) {
	if ability == nil {
		return nil, ErrNilAbility
	}
	return &Maintained{
		id:      uuid.New(),
		holder:  holder,
		ability: ability,
	}, nil
}

// restoreMaintained loads the stored maintained effect of a and applies it again.
// Returns nil, nil when nothing is stored.
func restoreMaintained(ctx context.Context, a *Actor) (*Maintained, error) {
	if a.env.Store == nil {
		return nil, nil
	}

	rec, err := a.env.Store.LoadMaintained(ctx, a.ID())
	if err != nil {
		return nil, fmt.Errorf("loading maintained effect: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	ability, err := a.env.Effects.Ability(rec.AbilityID)
	if err != nil {
		return nil, fmt.Errorf("resolving maintained ability %d: %w", rec.AbilityID, err)
	}

	m, err := newMaintained(a, ability)
	if err != nil {
		return nil, err
	}
	m.Apply(rec.ChargeLevel)

	slog.Info("maintained effect restored",
		"actor", a.Name(),
		"ability", ability.Name,
		"chargeLevel", rec.ChargeLevel)

	return m, nil
}

// Ability returns the maintained ability.
func (m *Maintained) Ability() *model.Ability { return m.ability }

// Level returns the charge level the effect was seeded with.
func (m *Maintained) Level() int { return m.level }

// Magnitude returns the applied magnitude.
func (m *Maintained) Magnitude() float64 { return m.magnitude }

// Remaining returns seconds left before the effect expires.
func (m *Maintained) Remaining() float64 { return m.remaining }

// Dispelled reports whether the effect has ended.
func (m *Maintained) Dispelled() bool { return m.dispelled }

// Apply scales the effect by level and applies it to the holder.
func (m *Maintained) Apply(level int) {
	cfg := m.holder.cfg
	scale := 1 + float64(level)*cfg.GrowthRate

	m.level = level
	m.magnitude = m.baseMagnitude() * scale
	m.duration = cfg.MaintainBaseDuration * scale
	m.remaining = m.duration
	m.applied = true

	if m.holder.env.Buffs != nil {
		m.holder.env.Buffs.ApplyBuff(m.holder.ID(), m.ability, m.magnitude, m.duration)
	}
	m.persist()

	m.holder.env.hud(fmt.Sprintf("Maintain : %s", m.ability.Name))
	slog.Debug("maintained effect applied",
		"id", m.id,
		"actor", m.holder.Name(),
		"ability", m.ability.Name,
		"chargeLevel", level,
		"magnitude", m.magnitude,
		"duration", m.duration)
}

// Update counts down the lifetime and drains upkeep.
// The effect dispels itself when it expires or the holder cannot pay.
func (m *Maintained) Update(elapsed float64) {
	if !m.applied || m.dispelled {
		return
	}

	if cost := m.holder.cfg.MaintainUpkeep * elapsed; cost > 0 && !m.holder.TryDrainResource(cost) {
		slog.Debug("maintained effect out of resource",
			"actor", m.holder.Name(),
			"ability", m.ability.Name)
		m.Dispel()
		return
	}

	m.remaining -= elapsed
	if m.remaining <= 0 {
		m.Dispel()
	}
}

// Dispel ends the effect. Safe to call more than once.
func (m *Maintained) Dispel() {
	if m.dispelled {
		return
	}
	m.dispelled = true

	if m.applied && m.holder.env.Buffs != nil {
		m.holder.env.Buffs.RemoveBuff(m.holder.ID(), m.ability.ID)
	}

	if store := m.holder.env.Store; store != nil {
		ctx, cancel := persistContext()
		defer cancel()
		if err := store.DeleteMaintained(ctx, m.holder.ID()); err != nil {
			slog.Warn("deleting maintained effect",
				"actor", m.holder.Name(),
				"error", err)
		}
	}

	m.holder.env.hud(fmt.Sprintf("Dispel : %s", m.ability.Name))
	slog.Debug("maintained effect dispelled",
		"id", m.id,
		"actor", m.holder.Name(),
		"ability", m.ability.Name)
}

func (m *Maintained) persist() {
	store := m.holder.env.Store
	if store == nil {
		return
	}
	ctx, cancel := persistContext()
	defer cancel()

	rec := model.MaintainedRecord{
		ActorID:     m.holder.ID(),
		AbilityID:   m.ability.ID,
		ChargeLevel: m.level,
	}
	if err := store.SaveMaintained(ctx, rec); err != nil {
		slog.Warn("saving maintained effect",
			"actor", m.holder.Name(),
			"ability", m.ability.Name,
			"error", err)
	}
}

// baseMagnitude is the largest baseline magnitude among the ability's effects.
func (m *Maintained) baseMagnitude() float64 {
	best := 0.0
	for i := range m.ability.Effects {
		base, err := m.holder.env.Effects.Base(model.EffectKey{AbilityID: m.ability.ID, Index: i})
		if err != nil {
			continue
		}
		if base.Magnitude > best {
			best = base.Magnitude
		}
	}
	return best
}
