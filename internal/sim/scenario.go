package sim

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/overcharge/internal/model"
)

// Scenario is a scripted session: abilities, actors and per-tick events.
type Scenario struct {
	TickSeconds float64       `yaml:"tick_seconds"`
	Ticks       int           `yaml:"ticks"`
	Abilities   []AbilitySpec `yaml:"abilities"`
	Actors      []ActorSpec   `yaml:"actors"`
	Events      []Event       `yaml:"events"`
}

// AbilitySpec describes an ability definition.
type AbilitySpec struct {
	ID          uint32       `yaml:"id"`
	Name        string       `yaml:"name"`
	CastingType string       `yaml:"casting_type"` // fire_and_forget, concentration, constant
	TwoHanded   bool         `yaml:"two_handed"`
	Effects     []EffectSpec `yaml:"effects"`
}

// EffectSpec is one effect entry with its baseline parameters.
// Optional projectile/area parameters are present only when set.
type EffectSpec struct {
	BaseEffectID    uint32   `yaml:"base_effect_id"`
	Name            string   `yaml:"name"`
	Magnitude       float64  `yaml:"magnitude"`
	Duration        float64  `yaml:"duration"`
	Area            float64  `yaml:"area"`
	Speed           *float64 `yaml:"speed"`
	Range           *float64 `yaml:"range"`
	Force           *float64 `yaml:"force"`
	CollisionRadius *float64 `yaml:"collision_radius"`
	ConeSpread      *float64 `yaml:"cone_spread"`
	ExplosionRadius *float64 `yaml:"explosion_radius"`
}

// ActorSpec describes an entity of the scenario.
// Only actors with Charging set get an overcharge controller.
type ActorSpec struct {
	ID          uint32  `yaml:"id"`
	Name        string  `yaml:"name"`
	Player      bool    `yaml:"player"`
	Charging    bool    `yaml:"charging"`
	Teammate    bool    `yaml:"teammate"`
	Summoned    bool    `yaml:"summoned"`
	Dead        bool    `yaml:"dead"`
	WeaponDrawn bool    `yaml:"weapon_drawn"`
	Resource    float64 `yaml:"resource"`
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
}

// HandSpec sets what a slot holds. Ability 0 empties the slot.
type HandSpec struct {
	Ability uint32 `yaml:"ability"`
	State   string `yaml:"state"`
}

// HitSpec lands the ability of a slot on a target as a live continuous effect.
type HitSpec struct {
	Slot   string `yaml:"slot"`
	Target uint32 `yaml:"target"`
}

// Event is applied at the start of tick Tick, before actors update.
type Event struct {
	Tick        int       `yaml:"tick"`
	Actor       uint32    `yaml:"actor"`
	Left        *HandSpec `yaml:"left"`
	Right       *HandSpec `yaml:"right"`
	Key         bool      `yaml:"key"`
	Maintain    string    `yaml:"maintain"` // slot whose cycle seeds the maintained effect
	Dispel      bool      `yaml:"dispel"`
	Share       string    `yaml:"share"` // slot whose ability is shared
	Mode        string    `yaml:"mode"`
	WeaponDrawn *bool     `yaml:"weapon_drawn"`
	Resource    *float64  `yaml:"resource"`
	Hit         *HitSpec  `yaml:"hit"`
	Despawn     uint32    `yaml:"despawn"` // target whose effects are dropped
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return ParseScenario(raw)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks references and fills defaults.
func (s *Scenario) Validate() error {
	if s.TickSeconds <= 0 {
		s.TickSeconds = 0.1
	}
	if s.Ticks <= 0 {
		return fmt.Errorf("scenario: ticks must be positive, got %d", s.Ticks)
	}

	abilities := make(map[uint32]bool, len(s.Abilities))
	for _, a := range s.Abilities {
		if a.ID == 0 {
			return fmt.Errorf("scenario: ability %q has id 0", a.Name)
		}
		if abilities[a.ID] {
			return fmt.Errorf("scenario: duplicate ability id %d", a.ID)
		}
		if _, err := parseCastingType(a.CastingType); err != nil {
			return fmt.Errorf("scenario: ability %d: %w", a.ID, err)
		}
		abilities[a.ID] = true
	}

	actors := make(map[uint32]bool, len(s.Actors))
	for _, a := range s.Actors {
		if a.ID == 0 {
			return fmt.Errorf("scenario: actor %q has id 0", a.Name)
		}
		if actors[a.ID] {
			return fmt.Errorf("scenario: duplicate actor id %d", a.ID)
		}
		actors[a.ID] = true
	}

	for i, ev := range s.Events {
		if ev.Tick < 0 || ev.Tick >= s.Ticks {
			return fmt.Errorf("scenario: event %d: tick %d outside 0..%d", i, ev.Tick, s.Ticks-1)
		}
		if !actors[ev.Actor] {
			return fmt.Errorf("scenario: event %d: unknown actor %d", i, ev.Actor)
		}
		for _, h := range []*HandSpec{ev.Left, ev.Right} {
			if h == nil {
				continue
			}
			if h.Ability != 0 && !abilities[h.Ability] {
				return fmt.Errorf("scenario: event %d: unknown ability %d", i, h.Ability)
			}
			if _, err := model.ParseCastingState(h.State); err != nil {
				return fmt.Errorf("scenario: event %d: %w", i, err)
			}
		}
		for _, slot := range []string{ev.Maintain, ev.Share} {
			if slot == "" {
				continue
			}
			if _, err := parseSlot(slot); err != nil {
				return fmt.Errorf("scenario: event %d: %w", i, err)
			}
		}
		if ev.Mode != "" {
			if _, err := model.ParseOperationMode(ev.Mode); err != nil {
				return fmt.Errorf("scenario: event %d: %w", i, err)
			}
		}
		if ev.Hit != nil {
			if _, err := parseSlot(ev.Hit.Slot); err != nil {
				return fmt.Errorf("scenario: event %d: %w", i, err)
			}
			if !actors[ev.Hit.Target] {
				return fmt.Errorf("scenario: event %d: unknown hit target %d", i, ev.Hit.Target)
			}
		}
	}
	return nil
}

// Ability converts the spec into a definition and its baseline parameters.
func (a AbilitySpec) Ability() (*model.Ability, []model.EffectPower) {
	ct, _ := parseCastingType(a.CastingType)
	ability := &model.Ability{
		ID:          a.ID,
		Name:        a.Name,
		CastingType: ct,
		TwoHanded:   a.TwoHanded,
		Effects:     make([]model.EffectItem, 0, len(a.Effects)),
	}
	base := make([]model.EffectPower, 0, len(a.Effects))
	for _, e := range a.Effects {
		ability.Effects = append(ability.Effects, model.EffectItem{BaseEffectID: e.BaseEffectID, Name: e.Name})
		base = append(base, e.Power())
	}
	return ability, base
}

// Power returns the baseline parameters of the effect.
func (e EffectSpec) Power() model.EffectPower {
	p := model.EffectPower{
		Magnitude: e.Magnitude,
		Duration:  e.Duration,
		Area:      e.Area,
	}
	opt := map[model.ParamKind]*float64{
		model.ParamSpeed:           e.Speed,
		model.ParamRange:           e.Range,
		model.ParamForce:           e.Force,
		model.ParamCollisionRadius: e.CollisionRadius,
		model.ParamConeSpread:      e.ConeSpread,
		model.ParamExplosionRadius: e.ExplosionRadius,
	}
	for k, v := range opt {
		if v != nil {
			p.Params[k] = model.Some(*v)
		}
	}
	return p
}

func parseCastingType(s string) (model.CastingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fire_and_forget":
		return model.CastFireAndForget, nil
	case "concentration":
		return model.CastConcentration, nil
	case "constant":
		return model.CastConstant, nil
	default:
		return model.CastFireAndForget, fmt.Errorf("unknown casting type %q", s)
	}
}

func parseSlot(s string) (model.Slot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return model.SlotLeft, nil
	case "right":
		return model.SlotRight, nil
	default:
		return model.SlotLeft, fmt.Errorf("unknown slot %q", s)
	}
}
