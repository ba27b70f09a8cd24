package sim

import (
	"log/slog"
	"math"
	"sync"

	"github.com/udisondev/overcharge/internal/data"
	"github.com/udisondev/overcharge/internal/game/skill"
	"github.com/udisondev/overcharge/internal/model"
)

// Entity is a scripted character. Implements charge.Entity.
type Entity struct {
	world *World
	spec  ActorSpec
}

func (e *Entity) ObjectID() uint32 { return e.spec.ID }
func (e *Entity) Name() string     { return e.spec.Name }
func (e *Entity) IsPlayer() bool   { return e.spec.Player }

func (e *Entity) IsWeaponDrawn() bool {
	e.world.mu.RLock()
	defer e.world.mu.RUnlock()
	return e.spec.WeaponDrawn
}

type handKey struct {
	actorID uint32
	slot    model.Slot
}

// World is the scripted host engine: hand states, resources, positions,
// HUD output and casting. Implements charge.CastingSource, charge.ResourcePool,
// charge.Feedback and charge.World.
//
// Thread-safe: all state is protected by sync.RWMutex.
type World struct {
	mu       sync.RWMutex
	entities map[uint32]*Entity
	hands    map[handKey]model.HandState
	table    *data.AbilityTable
	tracker  *skill.Tracker

	messages []string
	visuals  map[uint32]map[uint32]bool // actorID → attached markers
}

// NewWorld creates an empty world over the given ability table and effect tracker.
func NewWorld(table *data.AbilityTable, tracker *skill.Tracker) *World {
	return &World{
		entities: make(map[uint32]*Entity),
		hands:    make(map[handKey]model.HandState),
		table:    table,
		tracker:  tracker,
		visuals:  make(map[uint32]map[uint32]bool),
	}
}

// AddEntity registers an entity built from spec.
func (w *World) AddEntity(spec ActorSpec) *Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := &Entity{world: w, spec: spec}
	w.entities[spec.ID] = e
	return e
}

// SetHand sets what an actor's slot holds. A nil ability empties the slot.
func (w *World) SetHand(actorID uint32, slot model.Slot, ability *model.Ability, state model.CastingState) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := handKey{actorID: actorID, slot: slot}
	if ability == nil {
		delete(w.hands, key)
		return
	}
	w.hands[key] = model.HandState{Ability: ability, State: state}
}

// SetWeaponDrawn raises or lowers an actor's hands.
func (w *World) SetWeaponDrawn(actorID uint32, drawn bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entities[actorID]; ok {
		e.spec.WeaponDrawn = drawn
	}
}

// SetResource overwrites an actor's resource pool.
func (w *World) SetResource(actorID uint32, value float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entities[actorID]; ok {
		e.spec.Resource = value
	}
}

// HandState implements charge.CastingSource.
func (w *World) HandState(actorID uint32, slot model.Slot) (model.HandState, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.hands[handKey{actorID: actorID, slot: slot}]
	return h, ok
}

// IsDualCasting reports whether both hands cast the same ability.
func (w *World) IsDualCasting(actorID uint32) bool {
	left, lok := w.HandState(actorID, model.SlotLeft)
	right, rok := w.HandState(actorID, model.SlotRight)
	if !lok || !rok || left.Ability.ID != right.Ability.ID {
		return false
	}
	return left.State != model.CastingNone && right.State != model.CastingNone
}

// Resource implements charge.ResourcePool.
func (w *World) Resource(actorID uint32) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if e, ok := w.entities[actorID]; ok {
		return e.spec.Resource
	}
	return 0
}

// DamageResource implements charge.ResourcePool.
func (w *World) DamageResource(actorID uint32, amount float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entities[actorID]; ok {
		e.spec.Resource = math.Max(0, e.spec.Resource-amount)
	}
}

// ShowHUDMessage implements charge.Feedback.
func (w *World) ShowHUDMessage(msg string) {
	w.mu.Lock()
	w.messages = append(w.messages, msg)
	w.mu.Unlock()
	slog.Info("hud", "message", msg)
}

// AttachVisual implements charge.Feedback.
func (w *World) AttachVisual(actorID, markerID uint32, seconds float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.visuals[actorID] == nil {
		w.visuals[actorID] = make(map[uint32]bool)
	}
	w.visuals[actorID][markerID] = true
	slog.Debug("visual attached", "actor", actorID, "marker", markerID, "seconds", seconds)
}

// DetachVisual implements charge.Feedback.
func (w *World) DetachVisual(actorID, markerID uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.visuals[actorID], markerID)
}

// Messages returns a copy of all HUD messages shown so far.
func (w *World) Messages() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.messages...)
}

// Visuals returns the number of markers attached to actorID.
func (w *World) Visuals(actorID uint32) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.visuals[actorID])
}

// InRange implements charge.World.
func (w *World) InRange(actorID uint32, radius float64) []model.Nearby {
	w.mu.RLock()
	defer w.mu.RUnlock()

	self, ok := w.entities[actorID]
	if !ok {
		return nil
	}

	var result []model.Nearby
	for id, e := range w.entities {
		if id == actorID {
			continue
		}
		if math.Hypot(e.spec.X-self.spec.X, e.spec.Y-self.spec.Y) > radius {
			continue
		}
		result = append(result, model.Nearby{
			ObjectID: id,
			Name:     e.spec.Name,
			Dead:     e.spec.Dead,
			Teammate: e.spec.Teammate,
			Player:   e.spec.Player,
			Summoned: e.spec.Summoned,
		})
	}
	return result
}

// CastAbility implements charge.World: every effect of ability lands on targetID
// with the ability's current live parameters.
func (w *World) CastAbility(casterID, targetID uint32, ability *model.Ability, blameID uint32) {
	for i, eff := range ability.Effects {
		p, err := w.table.LivePower(model.EffectKey{AbilityID: ability.ID, Index: i})
		if err != nil {
			slog.Warn("casting unknown effect",
				"ability", ability.Name,
				"effect", eff.Name,
				"error", err)
			continue
		}
		w.tracker.Apply(skill.NewActiveEffect(casterID, targetID, ability.ID, eff.BaseEffectID, p.Magnitude, p.Duration))
	}
	slog.Debug("ability cast",
		"caster", casterID,
		"target", targetID,
		"blame", blameID,
		"ability", ability.Name)
}
