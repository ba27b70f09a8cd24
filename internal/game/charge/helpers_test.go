package charge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/overcharge/internal/config"
	"github.com/udisondev/overcharge/internal/data"
	"github.com/udisondev/overcharge/internal/model"
	"github.com/udisondev/overcharge/internal/testutil"
)

const testDT = 0.1

type fakeEntity struct {
	id     uint32
	name   string
	player bool
	drawn  bool
}

func (e *fakeEntity) ObjectID() uint32    { return e.id }
func (e *fakeEntity) Name() string        { return e.name }
func (e *fakeEntity) IsPlayer() bool      { return e.player }
func (e *fakeEntity) IsWeaponDrawn() bool { return e.drawn }

type handKey struct {
	actor uint32
	slot  model.Slot
}

// fakeEngine implements CastingSource, ResourcePool, World and Buffs.
type fakeEngine struct {
	hands     map[handKey]model.HandState
	resources map[uint32]float64
	nearby    []model.Nearby
	casts     []uint32 // targets of CastAbility
	buffs     map[uint32]float64
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		hands:     make(map[handKey]model.HandState),
		resources: make(map[uint32]float64),
		buffs:     make(map[uint32]float64),
	}
}

func (f *fakeEngine) set(actor uint32, slot model.Slot, ability *model.Ability, state model.CastingState) {
	f.hands[handKey{actor, slot}] = model.HandState{Ability: ability, State: state}
}

func (f *fakeEngine) unequip(actor uint32, slot model.Slot) {
	delete(f.hands, handKey{actor, slot})
}

func (f *fakeEngine) HandState(actorID uint32, slot model.Slot) (model.HandState, bool) {
	h, ok := f.hands[handKey{actorID, slot}]
	return h, ok
}

func (f *fakeEngine) IsDualCasting(actorID uint32) bool {
	l, lok := f.hands[handKey{actorID, model.SlotLeft}]
	r, rok := f.hands[handKey{actorID, model.SlotRight}]
	return lok && rok && l.Ability.ID == r.Ability.ID
}

func (f *fakeEngine) Resource(actorID uint32) float64 { return f.resources[actorID] }

func (f *fakeEngine) DamageResource(actorID uint32, amount float64) {
	f.resources[actorID] -= amount
}

func (f *fakeEngine) InRange(actorID uint32, radius float64) []model.Nearby { return f.nearby }

func (f *fakeEngine) CastAbility(casterID, targetID uint32, ability *model.Ability, blameID uint32) {
	f.casts = append(f.casts, targetID)
}

func (f *fakeEngine) ApplyBuff(targetID uint32, ability *model.Ability, magnitude, duration float64) {
	f.buffs[targetID] = magnitude
}

func (f *fakeEngine) RemoveBuff(targetID, abilityID uint32) {
	delete(f.buffs, targetID)
}

// fakeInstance is a live effect whose failures are scripted.
type fakeInstance struct {
	target    uint32
	invalid   bool
	failSet   bool
	failCalc  bool
	magnitude float64
	duration  float64
	sets      int
	recalcs   int
}

func (i *fakeInstance) TargetID() uint32 { return i.target }
func (i *fakeInstance) Invalid() bool    { return i.invalid }
func (i *fakeInstance) MarkInvalid()     { i.invalid = true }

func (i *fakeInstance) SetPower(magnitude, duration float64) error {
	i.sets++
	if i.failSet {
		return errors.New("record gone")
	}
	i.magnitude = magnitude
	i.duration = duration
	return nil
}

func (i *fakeInstance) Recalculate() error {
	i.recalcs++
	if i.failCalc {
		return errors.New("recalculation failed")
	}
	return nil
}

type fakeTracker struct {
	instances map[uint32][]model.ActiveInstance // baseEffectID → instances
	offender  uint32
	calls     int
}

func (t *fakeTracker) Tracked(baseEffectID, offenderID uint32) []model.ActiveInstance {
	t.calls++
	if offenderID != t.offender {
		return nil
	}
	return append([]model.ActiveInstance(nil), t.instances[baseEffectID]...)
}

// testRig wires one actor to fakes and a real ability table.
type testRig struct {
	t        *testing.T
	table    *data.AbilityTable
	engine   *fakeEngine
	feedback *testutil.MockFeedback
	store    *testutil.MockMaintainedStore
	entity   *fakeEntity
	cfg      config.Charge
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	cfg := config.DefaultCharge()
	cfg.GrowthRate = 0.5
	cfg.PreChargeDelay = 0
	cfg.AutoCleanupDelay = 100
	cfg.MaintainUpkeep = 0

	return &testRig{
		t:        t,
		table:    data.NewAbilityTable(),
		engine:   newFakeEngine(),
		feedback: testutil.NewMockFeedback(),
		store:    testutil.NewMockMaintainedStore(),
		entity:   &fakeEntity{id: 7, name: "Player", player: true, drawn: true},
		cfg:      cfg,
	}
}

func (r *testRig) ability(id uint32, name string, twoHanded bool, base ...model.EffectPower) *model.Ability {
	r.t.Helper()
	a := &model.Ability{ID: id, Name: name, TwoHanded: twoHanded}
	for i := range base {
		a.Effects = append(a.Effects, model.EffectItem{BaseEffectID: id*100 + uint32(i), Name: name})
	}
	require.NoError(r.t, r.table.Register(a, base))
	return a
}

func (r *testRig) env() Env {
	return Env{
		Casting:   r.engine,
		Effects:   r.table,
		Resources: r.engine,
		Feedback:  r.feedback,
		World:     r.engine,
		Buffs:     r.engine,
		Store:     r.store,
	}
}

func (r *testRig) actor() *Actor {
	r.t.Helper()
	a, err := NewActor(context.Background(), r.entity, r.env(), r.cfg)
	require.NoError(r.t, err)
	return a
}

func (r *testRig) live(a *model.Ability) model.EffectPower {
	r.t.Helper()
	p, err := r.table.LivePower(model.EffectKey{AbilityID: a.ID, Index: 0})
	require.NoError(r.t, err)
	return p
}

// tick sets the left hand state and runs one update.
func (r *testRig) tickLeft(a *Actor, ability *model.Ability, state model.CastingState) {
	r.engine.set(r.entity.id, model.SlotLeft, ability, state)
	a.Update(testDT)
}
