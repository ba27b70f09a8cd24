package skill

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/udisondev/overcharge/internal/model"
)

// Tracker indexes the EffectManagers of all targets.
// Answers which live effects an offender keeps on others, and applies
// maintained buffs on the engine side.
//
// Thread-safe: the manager index is protected by sync.RWMutex.
type Tracker struct {
	mu       sync.RWMutex
	managers map[uint32]*EffectManager
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		managers: make(map[uint32]*EffectManager),
	}
}

// Manager returns the EffectManager of targetID, creating it on first use.
func (t *Tracker) Manager(targetID uint32) *EffectManager {
	t.mu.RLock()
	m, ok := t.managers[targetID]
	t.mu.RUnlock()
	if ok {
		return m
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok = t.managers[targetID]; ok {
		return m
	}
	m = NewEffectManager(targetID)
	t.managers[targetID] = m
	return m
}

// Apply attaches ae to its target.
func (t *Tracker) Apply(ae *ActiveEffect) {
	t.Manager(ae.TargetObjID).Add(ae)
}

// Drop detaches every effect on targetID, e.g. when the target despawns.
func (t *Tracker) Drop(targetID uint32) {
	t.mu.Lock()
	m, ok := t.managers[targetID]
	delete(t.managers, targetID)
	t.mu.Unlock()

	if ok {
		m.Clear()
	}
}

// Tracked returns a snapshot of valid effects of baseEffectID cast by offenderID on any target.
func (t *Tracker) Tracked(baseEffectID, offenderID uint32) []model.ActiveInstance {
	var result []model.ActiveInstance
	for _, m := range t.snapshot() {
		for _, ae := range m.Active() {
			if ae.BaseEffectID != baseEffectID || ae.CasterObjID != offenderID || ae.Invalid() {
				continue
			}
			result = append(result, ae)
		}
	}
	return result
}

// Tick advances every target's effects by dt seconds.
func (t *Tracker) Tick(dt float64) {
	expired := 0
	for _, m := range t.snapshot() {
		expired += m.Tick(dt)
	}
	if expired > 0 {
		slog.Debug("active effects expired", "count", expired)
	}
}

// ApplyBuff attaches every effect of ability to targetID as self-cast.
func (t *Tracker) ApplyBuff(targetID uint32, ability *model.Ability, magnitude, duration float64) {
	m := t.Manager(targetID)
	for _, eff := range ability.Effects {
		m.Add(NewActiveEffect(targetID, targetID, ability.ID, eff.BaseEffectID, magnitude, duration))
	}
}

// RemoveBuff removes the self-cast effects of abilityID from targetID.
func (t *Tracker) RemoveBuff(targetID, abilityID uint32) {
	t.Manager(targetID).RemoveByAbility(abilityID, targetID)
}

// snapshot returns managers ordered by target id.
func (t *Tracker) snapshot() []*EffectManager {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*EffectManager, 0, len(t.managers))
	for _, m := range t.managers {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].targetID < result[j].targetID })
	return result
}
