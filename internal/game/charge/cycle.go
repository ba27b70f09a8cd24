package charge

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/udisondev/overcharge/internal/model"
)

// Cycle is the charge cycle of one occupied slot.
// Its live deltas exist only while Charging or after a Release, and are
// reverted before it returns to Idle through Cancel or is destroyed.
type Cycle struct {
	id      uuid.UUID
	holder  *Actor
	ability *model.Ability
	slot    model.Slot
	power   *PowerManager
	machine Machine
}

func newCycle(holder *Actor, ability *model.Ability, slot model.Slot) (*Cycle, error) {
	if ability == nil {
		return nil, ErrNilAbility
	}
	power, err := NewPowerManager(ability, holder.env.Effects, holder.env.Instances, holder.ID(), holder.cfg.GrowthRate)
	if err != nil {
		return nil, err
	}

	c := &Cycle{
		id:      uuid.New(),
		holder:  holder,
		ability: ability,
		slot:    slot,
		power:   power,
		machine: NewMachine(),
	}

	slog.Debug("charge cycle created",
		"cycle", c.id,
		"actor", holder.Name(),
		"slot", slot,
		"ability", ability.Name)

	return c, nil
}

// ID returns the cycle id used in log lines.
func (c *Cycle) ID() uuid.UUID { return c.id }

// Ability returns the charged ability.
func (c *Cycle) Ability() *model.Ability { return c.ability }

// Slot returns the slot the cycle is bound to.
func (c *Cycle) Slot() model.Slot { return c.slot }

// State returns the current state.
func (c *Cycle) State() State { return c.machine.State }

// ChargeLevel returns the number of power increases in the current charge.
func (c *Cycle) ChargeLevel() int { return c.power.Level() }

// ChargeTime returns seconds spent charging in the current charge.
func (c *Cycle) ChargeTime() float64 { return c.machine.ChargeTime }

// IsTwoHanded reports whether the ability occupies both slots.
func (c *Cycle) IsTwoHanded() bool { return c.ability.TwoHanded }

// HasPendingReset reports whether live deltas are applied.
func (c *Cycle) HasPendingReset() bool { return c.power.NeedsReset() }

// Update polls the slot's casting state and advances the state machine.
func (c *Cycle) Update(elapsed float64) {
	hand, ok := c.holder.env.Casting.HandState(c.holder.ID(), c.slot)
	in := Input{Elapsed: elapsed, HasHand: ok, Casting: hand.State}

	next, actions := Step(c.machine, in, c.holder.timing())
	for _, a := range actions {
		c.perform(a)
	}

	if next.State != c.machine.State {
		slog.Debug("charge state changed",
			"cycle", c.id,
			"actor", c.holder.Name(),
			"slot", c.slot,
			"from", c.machine.State,
			"to", next.State,
			"chargeLevel", c.power.Level())
	}
	c.machine = next
}

// Reset reverts live parameters to baseline and clears the charge level.
func (c *Cycle) Reset() {
	c.power.ResetPower()
	c.power.ClearLevel()
}

// Clean resets the cycle before it is discarded.
func (c *Cycle) Clean() {
	c.Reset()
	c.machine = NewMachine()
	slog.Debug("charge cycle destroyed",
		"cycle", c.id,
		"actor", c.holder.Name(),
		"slot", c.slot,
		"ability", c.ability.Name)
}

func (c *Cycle) perform(a Action) {
	switch a {
	case ActionStaleReset:
		c.Reset()
	case ActionAutoCleanup:
		if c.power.NeedsReset() {
			slog.Debug("auto cleanup",
				"cycle", c.id,
				"actor", c.holder.Name(),
				"ability", c.ability.Name)
		}
		c.Reset()
	case ActionIncreasePower:
		c.increase()
	case ActionRelease:
		// Scaled values stay live for cast resolution; Idle reverts them later.
		slog.Debug("charge released",
			"cycle", c.id,
			"actor", c.holder.Name(),
			"ability", c.ability.Name,
			"chargeLevel", c.power.Level())
	case ActionCancel:
		c.Reset()
	}
}

func (c *Cycle) increase() {
	if cost := c.holder.cfg.ChargeCost; cost > 0 && !c.holder.TryDrainResource(cost) {
		slog.Debug("not enough resource to charge",
			"cycle", c.id,
			"actor", c.holder.Name(),
			"cost", cost)
		return
	}
	c.power.IncreasePower(c.holder.Mode())
}
