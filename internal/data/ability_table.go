package data

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/udisondev/overcharge/internal/model"
)

var (
	// ErrUnknownAbility is returned for ability ids that were never registered.
	ErrUnknownAbility = errors.New("unknown ability")
	// ErrUnknownEffect is returned for effect keys outside a registered ability.
	ErrUnknownEffect = errors.New("unknown effect")
)

// AbilityTable holds ability definitions with their baseline and live effect parameters.
// Live records are shared by every actor using the same ability.
//
// Thread-safe: table lookups use sync.RWMutex, each live record has its own lock.
type AbilityTable struct {
	mu        sync.RWMutex
	abilities map[uint32]*model.Ability
	base      map[model.EffectKey]model.EffectPower
	live      map[model.EffectKey]*EffectRecord
}

// NewAbilityTable creates an empty table.
func NewAbilityTable() *AbilityTable {
	return &AbilityTable{
		abilities: make(map[uint32]*model.Ability),
		base:      make(map[model.EffectKey]model.EffectPower),
		live:      make(map[model.EffectKey]*EffectRecord),
	}
}

// Register adds an ability with one baseline parameter set per effect.
// The live record of each effect starts at baseline.
func (t *AbilityTable) Register(ability *model.Ability, base []model.EffectPower) error {
	if ability == nil {
		return fmt.Errorf("registering ability: nil ability")
	}
	if len(base) != len(ability.Effects) {
		return fmt.Errorf("registering ability %d %q: %d effects but %d base power sets",
			ability.ID, ability.Name, len(ability.Effects), len(base))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.abilities[ability.ID]; ok {
		return fmt.Errorf("registering ability %d %q: duplicate id", ability.ID, ability.Name)
	}

	t.abilities[ability.ID] = ability
	for i, p := range base {
		key := model.EffectKey{AbilityID: ability.ID, Index: i}
		t.base[key] = p
		t.live[key] = newEffectRecord(p)
	}
	return nil
}

// Ability returns the ability with id.
func (t *AbilityTable) Ability(id uint32) (*model.Ability, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	a, ok := t.abilities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAbility, id)
	}
	return a, nil
}

// Abilities returns all abilities sorted by id.
func (t *AbilityTable) Abilities() []*model.Ability {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*model.Ability, 0, len(t.abilities))
	for _, a := range t.abilities {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Base returns the baseline parameters of an effect.
func (t *AbilityTable) Base(key model.EffectKey) (model.EffectPower, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.base[key]
	if !ok {
		return model.EffectPower{}, fmt.Errorf("%w: ability %d effect %d", ErrUnknownEffect, key.AbilityID, key.Index)
	}
	return p, nil
}

// Live returns the live record of an effect.
func (t *AbilityTable) Live(key model.EffectKey) (model.EffectRecord, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.live[key]
	if !ok {
		return nil, fmt.Errorf("%w: ability %d effect %d", ErrUnknownEffect, key.AbilityID, key.Index)
	}
	return r, nil
}

// LivePower returns a snapshot of the live parameters of an effect.
func (t *AbilityTable) LivePower(key model.EffectKey) (model.EffectPower, error) {
	rec, err := t.Live(key)
	if err != nil {
		return model.EffectPower{}, err
	}
	return rec.Power(), nil
}

// EffectRecord is the live parameter record of one effect.
// Duration and area are whole numbers in the engine and are truncated on write.
// Setters for parameters the effect does not have are ignored.
type EffectRecord struct {
	mu        sync.Mutex
	magnitude float64
	duration  int32
	area      int32
	params    [model.NumParams]model.Param
}

func newEffectRecord(p model.EffectPower) *EffectRecord {
	return &EffectRecord{
		magnitude: p.Magnitude,
		duration:  int32(p.Duration),
		area:      int32(p.Area),
		params:    p.Params,
	}
}

// Power returns a snapshot of all parameters.
func (r *EffectRecord) Power() model.EffectPower {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.EffectPower{
		Magnitude: r.magnitude,
		Duration:  float64(r.duration),
		Area:      float64(r.area),
		Params:    r.params,
	}
}

func (r *EffectRecord) SetMagnitude(v float64) {
	r.mu.Lock()
	r.magnitude = v
	r.mu.Unlock()
}

func (r *EffectRecord) SetDuration(v float64) {
	r.mu.Lock()
	r.duration = int32(v)
	r.mu.Unlock()
}

func (r *EffectRecord) SetArea(v float64) {
	r.mu.Lock()
	r.area = int32(v)
	r.mu.Unlock()
}

func (r *EffectRecord) SetSpeed(v float64)           { r.setParam(model.ParamSpeed, v) }
func (r *EffectRecord) SetRange(v float64)           { r.setParam(model.ParamRange, v) }
func (r *EffectRecord) SetForce(v float64)           { r.setParam(model.ParamForce, v) }
func (r *EffectRecord) SetCollisionRadius(v float64) { r.setParam(model.ParamCollisionRadius, v) }
func (r *EffectRecord) SetConeSpread(v float64)      { r.setParam(model.ParamConeSpread, v) }
func (r *EffectRecord) SetExplosionRadius(v float64) { r.setParam(model.ParamExplosionRadius, v) }

func (r *EffectRecord) setParam(k model.ParamKind, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.params[k].Present {
		r.params[k].Value = v
	}
}
