package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/overcharge/internal/config"
	"github.com/udisondev/overcharge/internal/data"
	"github.com/udisondev/overcharge/internal/game/charge"
	"github.com/udisondev/overcharge/internal/game/skill"
	"github.com/udisondev/overcharge/internal/model"
)

// Report is the outcome of a scenario run.
type Report struct {
	Ticks    int
	Actors   []string                              // final actor summaries
	Live     map[model.EffectKey]model.EffectPower // live parameters before actors were dismissed
	Messages []string
}

// Runner plays a Scenario against fresh engine state.
type Runner struct {
	scenario *Scenario
	cfg      config.Sim
	store    charge.MaintainedStore

	table   *data.AbilityTable
	tracker *skill.Tracker
	world   *World
	manager *charge.TickManager
	events  map[int][]Event
	actors  []uint32
}

// NewRunner creates a Runner. store may be nil to keep maintained effects in memory only.
func NewRunner(s *Scenario, cfg config.Sim, store charge.MaintainedStore) *Runner {
	return &Runner{scenario: s, cfg: cfg, store: store}
}

// Run builds the world, ticks through the scenario and reports the final state.
// With a positive TickInterval ticks are paced by the wall clock.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if err := r.setup(ctx); err != nil {
		return nil, err
	}

	dt := r.scenario.TickSeconds
	r.manager.SetBeforeTick(func(tick int) bool {
		if tick >= r.scenario.Ticks {
			return false
		}
		if tick > 0 {
			r.tracker.Tick(dt)
		}
		for _, ev := range r.events[tick] {
			r.apply(ev)
		}
		return true
	})

	if r.cfg.TickInterval > 0 {
		if err := r.manager.Start(ctx, r.cfg.TickInterval); err != nil && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("running tick manager: %w", err)
		}
	} else {
		for r.manager.Step(dt) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	report := r.report()
	for _, id := range r.actors {
		r.manager.Unregister(id)
	}

	slog.Info("scenario finished",
		"ticks", report.Ticks,
		"actors", len(report.Actors))
	return report, nil
}

func (r *Runner) setup(ctx context.Context) error {
	r.table = data.NewAbilityTable()
	for _, spec := range r.scenario.Abilities {
		ability, base := spec.Ability()
		if err := r.table.Register(ability, base); err != nil {
			return fmt.Errorf("registering abilities: %w", err)
		}
	}

	r.tracker = skill.NewTracker()
	r.world = NewWorld(r.table, r.tracker)
	r.manager = charge.NewTickManager(r.cfg.CommandQueueSize)
	r.events = make(map[int][]Event)
	for _, ev := range r.scenario.Events {
		r.events[ev.Tick] = append(r.events[ev.Tick], ev)
	}

	env := charge.Env{
		Casting:   r.world,
		Effects:   r.table,
		Instances: r.tracker,
		Resources: r.world,
		Feedback:  r.world,
		World:     r.world,
		Buffs:     r.tracker,
		Store:     r.store,
	}

	r.actors = r.actors[:0]
	for _, spec := range r.scenario.Actors {
		entity := r.world.AddEntity(spec)
		if !spec.Charging {
			continue
		}
		a, err := charge.NewActor(ctx, entity, env, r.cfg.Charge)
		if err != nil {
			return fmt.Errorf("creating actor %d: %w", spec.ID, err)
		}
		r.manager.Register(a)
		r.actors = append(r.actors, spec.ID)
	}
	return nil
}

// apply runs on the tick goroutine before commands are drained.
func (r *Runner) apply(ev Event) {
	for slot, h := range map[model.Slot]*HandSpec{model.SlotLeft: ev.Left, model.SlotRight: ev.Right} {
		if h == nil {
			continue
		}
		state, _ := model.ParseCastingState(h.State)
		var ability *model.Ability
		if h.Ability != 0 {
			ability, _ = r.table.Ability(h.Ability)
		}
		r.world.SetHand(ev.Actor, slot, ability, state)
	}

	if ev.WeaponDrawn != nil {
		r.world.SetWeaponDrawn(ev.Actor, *ev.WeaponDrawn)
	}
	if ev.Resource != nil {
		r.world.SetResource(ev.Actor, *ev.Resource)
	}
	if ev.Despawn != 0 {
		r.tracker.Drop(ev.Despawn)
	}
	if ev.Hit != nil {
		slot, _ := parseSlot(ev.Hit.Slot)
		if h, ok := r.world.HandState(ev.Actor, slot); ok {
			r.world.CastAbility(ev.Actor, ev.Hit.Target, h.Ability, ev.Actor)
		}
	}

	if ev.Key {
		r.manager.PressKey(ev.Actor)
	}
	if ev.Mode != "" {
		mode, _ := model.ParseOperationMode(ev.Mode)
		r.manager.Do(ev.Actor, func(a *charge.Actor) { a.SetOperationMode(mode) })
	}
	if ev.Dispel {
		r.manager.Do(ev.Actor, (*charge.Actor).DispelMaintained)
	}
	if ev.Maintain != "" {
		slot, _ := parseSlot(ev.Maintain)
		r.manager.Do(ev.Actor, func(a *charge.Actor) {
			if err := a.MaintainSpell(a.Cycle(slot)); err != nil {
				slog.Warn("maintain failed", "actor", a.Name(), "slot", slot, "error", err)
			}
		})
	}
	if ev.Share != "" {
		slot, _ := parseSlot(ev.Share)
		r.manager.Do(ev.Actor, func(a *charge.Actor) {
			if c := a.Cycle(slot); c != nil {
				a.ShareSpell(c.Ability(), r.cfg.Charge.ShareRange)
			}
		})
	}
}

func (r *Runner) report() *Report {
	rep := &Report{
		Ticks:    r.manager.Ticks(),
		Live:     make(map[model.EffectKey]model.EffectPower),
		Messages: r.world.Messages(),
	}
	for _, id := range r.actors {
		if a, err := r.manager.Actor(id); err == nil {
			rep.Actors = append(rep.Actors, a.String())
		}
	}
	for _, ability := range r.table.Abilities() {
		for i := range ability.Effects {
			key := model.EffectKey{AbilityID: ability.ID, Index: i}
			if p, err := r.table.LivePower(key); err == nil {
				rep.Live[key] = p
			}
		}
	}
	return rep
}

// World returns the world of the last run.
func (r *Runner) World() *World { return r.world }

// Table returns the ability table of the last run.
func (r *Runner) Table() *data.AbilityTable { return r.table }
