package charge

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/overcharge/internal/data"
	"github.com/udisondev/overcharge/internal/model"
)

func power(magnitude, duration, area float64, params map[model.ParamKind]float64) model.EffectPower {
	p := model.EffectPower{Magnitude: magnitude, Duration: duration, Area: area}
	for k, v := range params {
		p.Params[k] = model.Some(v)
	}
	return p
}

func setupPower(t *testing.T, ability *model.Ability, base ...model.EffectPower) (*data.AbilityTable, *PowerManager) {
	t.Helper()
	for i := range base {
		ability.Effects = append(ability.Effects, model.EffectItem{BaseEffectID: ability.ID*100 + uint32(i), Name: ability.Name})
	}
	table := data.NewAbilityTable()
	require.NoError(t, table.Register(ability, base))

	pm, err := NewPowerManager(ability, table, nil, 7, 0.5)
	require.NoError(t, err)
	return table, pm
}

func livePower(t *testing.T, table *data.AbilityTable, abilityID uint32) model.EffectPower {
	t.Helper()
	p, err := table.LivePower(model.EffectKey{AbilityID: abilityID})
	require.NoError(t, err)
	return p
}

func TestNewPowerManager_Errors(t *testing.T) {
	_, err := NewPowerManager(nil, data.NewAbilityTable(), nil, 7, 0.5)
	assert.ErrorIs(t, err, ErrNilAbility)

	ghost := &model.Ability{ID: 99, Name: "Ghost", Effects: []model.EffectItem{{BaseEffectID: 1}}}
	_, err = NewPowerManager(ghost, data.NewAbilityTable(), nil, 7, 0.5)
	assert.ErrorIs(t, err, data.ErrUnknownEffect)
}

func TestIncreasePower_Primary(t *testing.T) {
	tests := []struct {
		name     string
		mode     model.OperationMode
		base     model.EffectPower
		wantMag  float64
		wantDur  float64
		wantArea float64
	}{
		{"magnitude priority", model.ModeMagnitude, power(10, 30, 20, nil), 15, 30, 30},
		{"duration priority", model.ModeDuration, power(10, 30, 20, nil), 10, 45, 30},
		{"magnitude falls back to duration", model.ModeMagnitude, power(0, 30, 0, nil), 0, 45, 0},
		{"duration falls back to magnitude", model.ModeDuration, power(10, 0, 0, nil), 15, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, pm := setupPower(t, &model.Ability{ID: 1, Name: "Firebolt"}, tt.base)

			pm.IncreasePower(tt.mode)

			got := livePower(t, table, 1)
			assert.InDelta(t, tt.wantMag, got.Magnitude, 1e-9)
			assert.InDelta(t, tt.wantDur, got.Duration, 1e-9)
			assert.InDelta(t, tt.wantArea, got.Area, 1e-9)
			assert.Equal(t, 1, pm.Level())
			assert.True(t, pm.NeedsReset())
		})
	}
}

func TestIncreasePower_MagnitudeMonotonic(t *testing.T) {
	table, pm := setupPower(t, &model.Ability{ID: 1, Name: "Firebolt"}, power(10, 0, 0, nil))

	prev := livePower(t, table, 1).Magnitude
	for i := range 10 {
		pm.IncreasePower(model.ModeMagnitude)
		cur := livePower(t, table, 1).Magnitude
		assert.Greater(t, cur, prev, "level %d", i+1)
		prev = cur
	}
	assert.InDelta(t, 10+10*10*0.5, prev, 1e-9)
}

func TestIncreasePower_SecondaryGrowthIsDamped(t *testing.T) {
	table, pm := setupPower(t, &model.Ability{ID: 1, Name: "Firebolt"},
		power(10, 0, 0, map[model.ParamKind]float64{model.ParamSpeed: 1000}))

	want := 1000.0
	for level := range 4 {
		pm.IncreasePower(model.ModeMagnitude)
		want += 1000 * 0.5 / (math.Sqrt(float64(level)) + 1)
		assert.InDelta(t, want, livePower(t, table, 1).Param(model.ParamSpeed).Value, 1e-9, "level %d", level+1)
	}
}

func TestIncreasePower_CollisionRadiusCapped(t *testing.T) {
	table, pm := setupPower(t, &model.Ability{ID: 2, Name: "Fireball"},
		power(40, 0, 15, map[model.ParamKind]float64{model.ParamCollisionRadius: 12}))

	for range 50 {
		pm.IncreasePower(model.ModeMagnitude)
		assert.LessOrEqual(t, livePower(t, table, 2).Param(model.ParamCollisionRadius).Value, 36.0)
	}
	assert.Equal(t, 36.0, livePower(t, table, 2).Param(model.ParamCollisionRadius).Value)
}

func TestIncreasePower_AbsentParamsStayAbsent(t *testing.T) {
	table, pm := setupPower(t, &model.Ability{ID: 1, Name: "Firebolt"},
		power(10, 0, 0, map[model.ParamKind]float64{model.ParamRange: 500}))

	pm.IncreasePower(model.ModeMagnitude)

	got := livePower(t, table, 1)
	for k := range model.NumParams {
		if k == model.ParamRange {
			assert.True(t, got.Param(k).Present)
			continue
		}
		assert.False(t, got.Param(k).Present, k.String())
	}
}

func TestResetPower_RevertsToBaseline(t *testing.T) {
	base := power(10, 30, 20, map[model.ParamKind]float64{
		model.ParamSpeed:           1000,
		model.ParamRange:           500,
		model.ParamForce:           2,
		model.ParamCollisionRadius: 12,
		model.ParamConeSpread:      0.4,
		model.ParamExplosionRadius: 64,
	})

	for _, mode := range []model.OperationMode{model.ModeMagnitude, model.ModeDuration} {
		for n := range 6 {
			t.Run(fmt.Sprintf("%s/%d", mode, n), func(t *testing.T) {
				table, pm := setupPower(t, &model.Ability{ID: 3, Name: "Storm"}, base)
				before := livePower(t, table, 3)

				for range n {
					pm.IncreasePower(mode)
				}
				pm.ResetPower()
				assert.Equal(t, before, livePower(t, table, 3))
				assert.False(t, pm.NeedsReset())

				pm.ResetPower()
				assert.Equal(t, before, livePower(t, table, 3), "second reset is a no-op")
			})
		}
	}
}

func TestResetPower_NoopWithoutIncrease(t *testing.T) {
	table, pm := setupPower(t, &model.Ability{ID: 1, Name: "Firebolt"}, power(10, 0, 0, nil))

	rec, err := table.Live(model.EffectKey{AbilityID: 1})
	require.NoError(t, err)
	rec.SetMagnitude(99)

	pm.ResetPower()
	assert.InDelta(t, 99, livePower(t, table, 1).Magnitude, 1e-9)
}

func TestPowerManager_Level(t *testing.T) {
	_, pm := setupPower(t, &model.Ability{ID: 1, Name: "Firebolt"}, power(10, 0, 0, nil))

	pm.IncreasePower(model.ModeMagnitude)
	pm.IncreasePower(model.ModeMagnitude)
	assert.Equal(t, 2, pm.Level())

	pm.ResetPower()
	assert.Equal(t, 2, pm.Level(), "reset does not touch the level")

	pm.ClearLevel()
	assert.Zero(t, pm.Level())
}

func TestIncreasePower_PropagatesToConcentrationInstances(t *testing.T) {
	ability := &model.Ability{ID: 3, Name: "Flames", CastingType: model.CastConcentration,
		Effects: []model.EffectItem{{BaseEffectID: 300, Name: "Flames"}}}
	table := data.NewAbilityTable()
	require.NoError(t, table.Register(ability, []model.EffectPower{power(5, 10, 0, nil)}))

	healthy := &fakeInstance{target: 20}
	broken := &fakeInstance{target: 21, failSet: true}
	gone := &fakeInstance{target: 22, invalid: true}
	tracker := &fakeTracker{
		offender:  7,
		instances: map[uint32][]model.ActiveInstance{300: {healthy, broken, gone}},
	}

	pm, err := NewPowerManager(ability, table, tracker, 7, 0.5)
	require.NoError(t, err)

	pm.IncreasePower(model.ModeMagnitude)

	assert.InDelta(t, 7.5, healthy.magnitude, 1e-9)
	assert.InDelta(t, 10, healthy.duration, 1e-9)
	assert.Equal(t, 1, healthy.recalcs)

	assert.True(t, broken.Invalid())
	assert.Equal(t, 1, broken.sets)
	assert.Zero(t, broken.recalcs)

	assert.Zero(t, gone.sets)

	pm.IncreasePower(model.ModeMagnitude)

	assert.InDelta(t, 10, healthy.magnitude, 1e-9)
	assert.Equal(t, 1, broken.sets, "invalidated instance is skipped")
}

func TestIncreasePower_RecalculateFailureInvalidates(t *testing.T) {
	ability := &model.Ability{ID: 3, Name: "Flames", CastingType: model.CastConcentration,
		Effects: []model.EffectItem{{BaseEffectID: 300, Name: "Flames"}}}
	table := data.NewAbilityTable()
	require.NoError(t, table.Register(ability, []model.EffectPower{power(5, 10, 0, nil)}))

	inst := &fakeInstance{target: 20, failCalc: true}
	tracker := &fakeTracker{offender: 7, instances: map[uint32][]model.ActiveInstance{300: {inst}}}

	pm, err := NewPowerManager(ability, table, tracker, 7, 0.5)
	require.NoError(t, err)
	pm.IncreasePower(model.ModeMagnitude)

	assert.True(t, inst.Invalid())
}

func TestIncreasePower_FireAndForgetDoesNotPropagate(t *testing.T) {
	ability := &model.Ability{ID: 1, Name: "Firebolt",
		Effects: []model.EffectItem{{BaseEffectID: 100, Name: "Firebolt"}}}
	table := data.NewAbilityTable()
	require.NoError(t, table.Register(ability, []model.EffectPower{power(10, 0, 0, nil)}))

	tracker := &fakeTracker{offender: 7}
	pm, err := NewPowerManager(ability, table, tracker, 7, 0.5)
	require.NoError(t, err)
	pm.IncreasePower(model.ModeMagnitude)

	assert.Zero(t, tracker.calls)
}

// Two actors charging the same definition share one live record:
// deltas compound and the first reset wins.
func TestPowerManager_SharedRecordLastWriterWins(t *testing.T) {
	ability := &model.Ability{ID: 1, Name: "Firebolt",
		Effects: []model.EffectItem{{BaseEffectID: 100, Name: "Firebolt"}}}
	table := data.NewAbilityTable()
	require.NoError(t, table.Register(ability, []model.EffectPower{power(10, 0, 0, nil)}))

	first, err := NewPowerManager(ability, table, nil, 7, 0.5)
	require.NoError(t, err)
	second, err := NewPowerManager(ability, table, nil, 8, 0.5)
	require.NoError(t, err)

	first.IncreasePower(model.ModeMagnitude)
	second.IncreasePower(model.ModeMagnitude)
	assert.InDelta(t, 20, livePower(t, table, 1).Magnitude, 1e-9)

	first.ResetPower()
	assert.InDelta(t, 10, livePower(t, table, 1).Magnitude, 1e-9)
	assert.True(t, second.NeedsReset())
}

func TestIncreasePower_FractionalGrowthAccumulates(t *testing.T) {
	ability := &model.Ability{ID: 1, Name: "Ward",
		Effects: []model.EffectItem{{BaseEffectID: 100, Name: "Ward"}}}
	table := data.NewAbilityTable()
	require.NoError(t, table.Register(ability, []model.EffectPower{power(0, 5, 10, nil)}))

	pm, err := NewPowerManager(ability, table, nil, 7, 0.1)
	require.NoError(t, err)

	pm.IncreasePower(model.ModeDuration)
	got := livePower(t, table, 1)
	assert.InDelta(t, 5, got.Duration, 1e-9)
	assert.InDelta(t, 11, got.Area, 1e-9)

	pm.IncreasePower(model.ModeDuration)
	got = livePower(t, table, 1)
	assert.InDelta(t, 6, got.Duration, 1e-9)
	assert.InDelta(t, 11, got.Area, 1e-9)

	for range 3 {
		pm.IncreasePower(model.ModeDuration)
	}
	got = livePower(t, table, 1)
	assert.InDelta(t, 7, got.Duration, 1e-9)
	assert.InDelta(t, 12, got.Area, 1e-9)

	pm.ResetPower()
	got = livePower(t, table, 1)
	assert.InDelta(t, 5, got.Duration, 1e-9)
	assert.InDelta(t, 10, got.Area, 1e-9)

	pm.IncreasePower(model.ModeDuration)
	pm.IncreasePower(model.ModeDuration)
	assert.InDelta(t, 6, livePower(t, table, 1).Duration, 1e-9)
}

func TestIncreasePower_PrimaryChosenPerEffect(t *testing.T) {
	table, pm := setupPower(t, &model.Ability{ID: 1, Name: "Frost Ward"},
		power(10, 0, 0, nil),
		power(0, 30, 0, nil),
	)

	pm.IncreasePower(model.ModeMagnitude)

	first, err := table.LivePower(model.EffectKey{AbilityID: 1, Index: 0})
	require.NoError(t, err)
	assert.InDelta(t, 15, first.Magnitude, 1e-9)
	assert.InDelta(t, 0, first.Duration, 1e-9)

	second, err := table.LivePower(model.EffectKey{AbilityID: 1, Index: 1})
	require.NoError(t, err)
	assert.InDelta(t, 0, second.Magnitude, 1e-9)
	assert.InDelta(t, 45, second.Duration, 1e-9)
}
