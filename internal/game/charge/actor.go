package charge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/udisondev/overcharge/internal/config"
	"github.com/udisondev/overcharge/internal/model"
)

const (
	modeMarkerSeconds = 2.0
	persistTimeout    = 2 * time.Second
)

// Actor augments one engine character with charging.
// Holds up to two slot cycles, the operation mode and a maintained effect.
//
// Not thread-safe: all methods must run on the tick goroutine.
type Actor struct {
	entity Entity
	env    Env
	cfg    config.Charge
	hotkey []string

	mode       model.OperationMode
	left       *Cycle
	right      *Cycle
	maintained *Maintained

	// leftEqualsRight is set while one ability occupies both slots;
	// the right slot is then not tracked separately.
	leftEqualsRight bool
}

// NewActor creates an Actor for entity and restores its maintained effect, if stored.
func NewActor(ctx context.Context, entity Entity, env Env, cfg config.Charge) (*Actor, error) {
	if entity == nil {
		return nil, ErrNilEntity
	}
	if err := env.validate(); err != nil {
		return nil, err
	}

	a := &Actor{
		entity: entity,
		env:    env,
		cfg:    cfg.Sanitized(),
		mode:   model.ModeDisabled,
	}

	// Only the player reacts to the context key.
	if entity.IsPlayer() {
		a.hotkey = a.cfg.Hotkey()
	}

	a.SetOperationMode(a.cfg.Mode())

	m, err := restoreMaintained(ctx, a)
	if err != nil {
		slog.Warn("restoring maintained effect",
			"actor", a.Name(),
			"error", err)
	}
	a.maintained = m

	return a, nil
}

// ID returns the entity object id.
func (a *Actor) ID() uint32 { return a.entity.ObjectID() }

// Name returns the entity name.
func (a *Actor) Name() string { return a.entity.Name() }

// Mode returns the current operation mode.
func (a *Actor) Mode() model.OperationMode { return a.mode }

// Hotkey returns the bound key combination, nil for non-player actors.
func (a *Actor) Hotkey() []string { return a.hotkey }

// KeyBound reports whether the actor reacts to the context key.
func (a *Actor) KeyBound() bool { return len(a.hotkey) > 0 }

// Maintained returns the active maintained effect or nil.
func (a *Actor) Maintained() *Maintained { return a.maintained }

// LeftEqualsRight reports whether both slots hold the same ability.
func (a *Actor) LeftEqualsRight() bool { return a.leftEqualsRight }

// Cycle returns the cycle of slot or nil.
// With both slots merged the right slot reports nil.
func (a *Actor) Cycle(slot model.Slot) *Cycle {
	if slot == model.SlotRight {
		return a.right
	}
	return a.left
}

// ActiveCycles returns the number of existing charge cycles.
func (a *Actor) ActiveCycles() int {
	n := 0
	if a.left != nil {
		n++
	}
	if a.right != nil {
		n++
	}
	return n
}

// IsDualCasting asks the engine whether the actor casts with both hands.
func (a *Actor) IsDualCasting() bool {
	return a.env.Casting.IsDualCasting(a.ID())
}

func (a *Actor) timing() Timing {
	return Timing{
		PreChargeDelay:     a.cfg.PreChargeDelay,
		AutoCleanupDelay:   a.cfg.AutoCleanupDelay,
		AllowConcentration: a.cfg.AllowConcentration,
	}
}

// Update advances the maintained effect and, unless disabled, every slot.
func (a *Actor) Update(elapsed float64) {
	if a.maintained != nil {
		a.maintained.Update(elapsed)
		if a.maintained.Dispelled() {
			a.maintained = nil
		}
	}

	if a.mode == model.ModeDisabled {
		return
	}

	a.assignCycles()

	if a.left != nil {
		a.left.Update(elapsed)
	}
	if !a.leftEqualsRight && a.right != nil {
		a.right.Update(elapsed)
	}
}

// SetOperationMode switches the growth bias. Disabled reverts and drops every cycle.
// Other switches keep running charges and only affect future growth.
func (a *Actor) SetOperationMode(mode model.OperationMode) {
	a.CleanVisuals()

	a.env.hud(fmt.Sprintf("Overcharge Priority : %s", mode))

	if marker := a.cfg.MarkerFor(mode); marker != 0 && a.env.Feedback != nil {
		a.env.Feedback.AttachVisual(a.ID(), marker, modeMarkerSeconds)
	}

	if mode == model.ModeDisabled {
		a.clearCycle(&a.left)
		a.clearCycle(&a.right)
		a.leftEqualsRight = false
	}

	slog.Debug("operation mode changed",
		"actor", a.Name(),
		"from", a.mode,
		"to", mode)

	a.mode = mode
}

// CleanVisuals detaches every mode marker from the actor.
func (a *Actor) CleanVisuals() {
	if a.env.Feedback == nil {
		return
	}
	for _, mode := range []model.OperationMode{model.ModeMagnitude, model.ModeDuration} {
		if marker := a.cfg.MarkerFor(mode); marker != 0 {
			a.env.Feedback.DetachVisual(a.ID(), marker)
		}
	}
}

// HandleContextKey reacts to the context key:
//   - hands down, nothing equipped, maintained effect active: dispel it
//   - any cycle past Idle: reserved, nothing happens
//   - otherwise toggle between Magnitude and Duration priority
func (a *Actor) HandleContextKey() {
	if !a.entity.IsWeaponDrawn() && a.left == nil && a.right == nil && a.maintained != nil {
		a.maintained.Dispel()
		a.maintained = nil
		return
	}

	if a.left != nil && a.left.State() != StateIdle {
		return
	}
	if !a.leftEqualsRight && a.right != nil && a.right.State() != StateIdle {
		return
	}

	if a.mode != model.ModeMagnitude {
		a.SetOperationMode(model.ModeMagnitude)
	} else {
		a.SetOperationMode(model.ModeDuration)
	}
}

// MaintainSpell replaces the maintained effect with one seeded from c's charge level.
func (a *Actor) MaintainSpell(c *Cycle) error {
	if c == nil {
		return fmt.Errorf("maintaining spell: %w", ErrNilAbility)
	}
	if a.maintained != nil {
		a.maintained.Dispel()
		a.maintained = nil
	}

	m, err := newMaintained(a, c.Ability())
	if err != nil {
		return fmt.Errorf("maintaining %s: %w", c.Ability().Name, err)
	}
	m.Apply(c.ChargeLevel())
	a.maintained = m
	return nil
}

// DispelMaintained removes the maintained effect, if any.
func (a *Actor) DispelMaintained() {
	if a.maintained == nil {
		return
	}
	a.maintained.Dispel()
	a.maintained = nil
}

// ShareSpell makes living, friendly, non-player entities within radius cast ability on themselves.
// Summoned creatures are not counted as teammates.
func (a *Actor) ShareSpell(ability *model.Ability, radius float64) int {
	if ability == nil || a.env.World == nil {
		return 0
	}

	shared := 0
	for _, ally := range a.env.World.InRange(a.ID(), radius) {
		if ally.Dead || !ally.Teammate || ally.Player || ally.Summoned {
			continue
		}
		a.env.World.CastAbility(ally.ObjectID, ally.ObjectID, ability, a.ID())
		shared++
	}

	a.env.hud(fmt.Sprintf("Share : %s", ability.Name))
	slog.Debug("spell shared",
		"actor", a.Name(),
		"ability", ability.Name,
		"allies", shared)
	return shared
}

// TryDrainResource takes cost from the actor's resource pool.
// Returns false without draining if the pool holds less than cost.
func (a *Actor) TryDrainResource(cost float64) bool {
	if a.env.Resources.Resource(a.ID()) < cost {
		return false
	}
	a.env.Resources.DamageResource(a.ID(), cost)
	return true
}

// Dismiss reverts every cycle and removes visuals. The actor must not be used afterwards.
// The maintained effect is kept in the store so a new Actor can restore it.
func (a *Actor) Dismiss() {
	a.clearCycle(&a.left)
	a.clearCycle(&a.right)
	a.leftEqualsRight = false
	a.CleanVisuals()
	slog.Debug("actor dismissed", "actor", a.Name())
}

// assignCycles matches cycles to what each slot currently holds.
// An outgoing cycle is always reverted before it is dropped.
func (a *Actor) assignCycles() {
	left := a.equipped(model.SlotLeft)
	right := a.equipped(model.SlotRight)

	if left != nil && right != nil && left.ID == right.ID {
		a.clearCycle(&a.right)
		a.assign(&a.left, left, model.SlotLeft)
		a.leftEqualsRight = true
		return
	}

	a.leftEqualsRight = false
	a.assign(&a.left, oneHanded(left), model.SlotLeft)
	a.assign(&a.right, oneHanded(right), model.SlotRight)
}

func (a *Actor) assign(slot **Cycle, ability *model.Ability, s model.Slot) {
	if ability == nil {
		a.clearCycle(slot)
		return
	}
	if *slot != nil && (*slot).Ability().ID == ability.ID {
		return
	}

	a.clearCycle(slot)
	c, err := newCycle(a, ability, s)
	if err != nil {
		slog.Warn("creating charge cycle",
			"actor", a.Name(),
			"slot", s,
			"ability", ability.Name,
			"error", err)
		return
	}
	*slot = c
}

func (a *Actor) equipped(slot model.Slot) *model.Ability {
	hand, ok := a.env.Casting.HandState(a.ID(), slot)
	if !ok {
		return nil
	}
	return hand.Ability
}

// oneHanded drops a two-handed ability reported in a single slot:
// it is half-unequipped and must not charge.
func oneHanded(ability *model.Ability) *model.Ability {
	if ability == nil || ability.TwoHanded {
		return nil
	}
	return ability
}

func (a *Actor) clearCycle(slot **Cycle) {
	if *slot == nil {
		return
	}
	(*slot).Clean()
	*slot = nil
}

func (a *Actor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s", a.Name(), a.mode)
	for _, c := range []*Cycle{a.left, a.right} {
		if c != nil {
			fmt.Fprintf(&b, " %s:%s(%s,L%d)", c.Slot(), c.Ability().Name, c.State(), c.ChargeLevel())
		}
	}
	if a.maintained != nil {
		fmt.Fprintf(&b, " maintain:%s(L%d)", a.maintained.Ability().Name, a.maintained.Level())
	}
	b.WriteString("]")
	return b.String()
}

func persistContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), persistTimeout)
}
