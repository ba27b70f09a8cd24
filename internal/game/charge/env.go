package charge

import (
	"context"
	"errors"
	"fmt"

	"github.com/udisondev/overcharge/internal/model"
)

var (
	// ErrNilAbility is returned when a cycle or power manager is built without an ability.
	ErrNilAbility = errors.New("charge: nil ability")
	// ErrNilEntity is returned when an actor is built without an entity.
	ErrNilEntity = errors.New("charge: nil entity")
	// ErrMissingCollaborator is returned when a required Env field is nil.
	ErrMissingCollaborator = errors.New("charge: missing collaborator")
)

// Entity is the engine character an Actor augments. Referenced, never owned.
type Entity interface {
	ObjectID() uint32
	Name() string
	IsPlayer() bool
	IsWeaponDrawn() bool
}

// CastingSource reports what each slot of an actor is doing.
// ok is false when nothing castable is equipped in the slot.
type CastingSource interface {
	HandState(actorID uint32, slot model.Slot) (state model.HandState, ok bool)
	IsDualCasting(actorID uint32) bool
}

// EffectStore gives access to baseline and live effect parameters.
// Live records are shared per ability definition.
type EffectStore interface {
	Ability(id uint32) (*model.Ability, error)
	Base(key model.EffectKey) (model.EffectPower, error)
	Live(key model.EffectKey) (model.EffectRecord, error)
}

// InstanceTracker returns a snapshot of live continuous effect instances
// of baseEffectID applied by offenderID.
type InstanceTracker interface {
	Tracked(baseEffectID, offenderID uint32) []model.ActiveInstance
}

// ResourcePool is the actor resource used to pay for charging and upkeep.
type ResourcePool interface {
	Resource(actorID uint32) float64
	DamageResource(actorID uint32, amount float64)
}

// Feedback is fire-and-forget HUD and visual output.
type Feedback interface {
	ShowHUDMessage(msg string)
	AttachVisual(actorID, markerID uint32, seconds float64)
	DetachVisual(actorID, markerID uint32)
}

// World answers range queries and casts abilities on behalf of entities.
type World interface {
	InRange(actorID uint32, radius float64) []model.Nearby
	CastAbility(casterID, targetID uint32, ability *model.Ability, blameID uint32)
}

// Buffs applies and removes the maintained effect on the engine side.
type Buffs interface {
	ApplyBuff(targetID uint32, ability *model.Ability, magnitude, duration float64)
	RemoveBuff(targetID, abilityID uint32)
}

// MaintainedStore persists maintained effects across actor re-creation.
// LoadMaintained returns nil, nil if nothing is stored.
type MaintainedStore interface {
	SaveMaintained(ctx context.Context, rec model.MaintainedRecord) error
	LoadMaintained(ctx context.Context, actorID uint32) (*model.MaintainedRecord, error)
	DeleteMaintained(ctx context.Context, actorID uint32) error
}

// Env bundles the engine collaborators of an Actor.
// Casting, Effects and Resources are required; the rest may be nil.
type Env struct {
	Casting   CastingSource
	Effects   EffectStore
	Instances InstanceTracker
	Resources ResourcePool
	Feedback  Feedback
	World     World
	Buffs     Buffs
	Store     MaintainedStore
}

func (e Env) validate() error {
	switch {
	case e.Casting == nil:
		return fmt.Errorf("%w: casting source", ErrMissingCollaborator)
	case e.Effects == nil:
		return fmt.Errorf("%w: effect store", ErrMissingCollaborator)
	case e.Resources == nil:
		return fmt.Errorf("%w: resource pool", ErrMissingCollaborator)
	}
	return nil
}

func (e Env) hud(msg string) {
	if e.Feedback != nil {
		e.Feedback.ShowHUDMessage(msg)
	}
}
