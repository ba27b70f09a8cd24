package skill

import (
	"log/slog"
	"sync"
)

const maxEffects = 32

// EffectManager tracks active effects on one target.
//
// Thread-safe: all methods are protected by sync.RWMutex.
type EffectManager struct {
	mu       sync.RWMutex
	targetID uint32
	effects  []*ActiveEffect
}

// NewEffectManager creates a new empty EffectManager for targetID.
func NewEffectManager(targetID uint32) *EffectManager {
	return &EffectManager{
		targetID: targetID,
		effects:  make([]*ActiveEffect, 0, 8),
	}
}

// Add attaches an effect to the target.
// An effect of the same ability, base effect and caster is replaced.
// If the limit is reached, the oldest effect is removed.
func (m *EffectManager) Add(ae *ActiveEffect) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ae.TargetObjID = m.targetID
	ae.owner = m

	for i, existing := range m.effects {
		if existing.AbilityID == ae.AbilityID &&
			existing.BaseEffectID == ae.BaseEffectID &&
			existing.CasterObjID == ae.CasterObjID {
			existing.owner = nil
			m.effects[i] = ae
			return
		}
	}

	if len(m.effects) >= maxEffects {
		oldest := m.effects[0]
		oldest.owner = nil
		m.effects = m.effects[1:]

		slog.Debug("effect limit reached, removed oldest",
			"removedAbility", oldest.AbilityID,
			"target", m.targetID)
	}

	m.effects = append(m.effects, ae)
}

// RemoveByAbility removes effects of abilityID, optionally limited to one caster (0 = any).
// Returns the number of removed effects.
func (m *EffectManager) RemoveByAbility(abilityID, casterObjID uint32) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	n := 0
	for _, ae := range m.effects {
		if ae.AbilityID == abilityID && (casterObjID == 0 || ae.CasterObjID == casterObjID) {
			ae.owner = nil
			removed++
			continue
		}
		m.effects[n] = ae
		n++
	}
	m.effects = m.effects[:n]
	return removed
}

// Clear detaches every effect.
func (m *EffectManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ae := range m.effects {
		ae.owner = nil
	}
	m.effects = m.effects[:0]
}

// Tick advances all effects by dt seconds and removes expired ones.
// Returns the number of removed effects.
func (m *EffectManager) Tick(dt float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	n := 0
	for _, ae := range m.effects {
		if !ae.Tick(dt) {
			ae.owner = nil
			removed++
			continue
		}
		m.effects[n] = ae
		n++
	}
	m.effects = m.effects[:n]
	return removed
}

// Active returns a copy of active effects.
func (m *EffectManager) Active() []*ActiveEffect {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*ActiveEffect, len(m.effects))
	copy(result, m.effects)
	return result
}

// Count returns current number of active effects.
func (m *EffectManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.effects)
}
