package skill

import (
	"testing"

	"github.com/udisondev/overcharge/internal/model"
)

func TestTracker_Tracked(t *testing.T) {
	tr := NewTracker()

	mine := NewActiveEffect(7, 20, 3, 300, 5, 10)
	other := NewActiveEffect(8, 20, 3, 300, 5, 10)
	elsewhere := NewActiveEffect(7, 21, 3, 300, 5, 10)
	invalid := NewActiveEffect(7, 22, 3, 300, 5, 10)
	wrongBase := NewActiveEffect(7, 23, 4, 400, 5, 10)
	for _, ae := range []*ActiveEffect{mine, other, elsewhere, invalid, wrongBase} {
		tr.Apply(ae)
	}
	invalid.MarkInvalid()

	got := tr.Tracked(300, 7)

	want := []model.ActiveInstance{mine, elsewhere}
	if len(got) != len(want) {
		t.Fatalf("Tracked returned %d instances, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instance %d targets %d, want %d", i, got[i].TargetID(), want[i].TargetID())
		}
	}
}

func TestTracker_Drop(t *testing.T) {
	tr := NewTracker()
	ae := NewActiveEffect(7, 20, 3, 300, 5, 10)
	tr.Apply(ae)

	tr.Drop(20)

	if ae.Attached() {
		t.Error("dropped target effects should be detached")
	}
	if n := len(tr.Tracked(300, 7)); n != 0 {
		t.Errorf("Tracked returned %d after drop, want 0", n)
	}
	tr.Drop(20)
}

func TestTracker_Tick(t *testing.T) {
	tr := NewTracker()
	tr.Apply(NewActiveEffect(7, 20, 3, 300, 5, 0.05))
	tr.Apply(NewActiveEffect(7, 21, 3, 300, 5, 10))

	tr.Tick(0.1)

	if n := len(tr.Tracked(300, 7)); n != 1 {
		t.Errorf("Tracked returned %d after tick, want 1", n)
	}
}

func TestTracker_Buffs(t *testing.T) {
	tr := NewTracker()
	ability := &model.Ability{ID: 5, Name: "Stoneflesh", Effects: []model.EffectItem{
		{BaseEffectID: 500}, {BaseEffectID: 501},
	}}

	tr.ApplyBuff(7, ability, 20, 120)

	if n := tr.Manager(7).Count(); n != 2 {
		t.Fatalf("expected 2 buff effects, got %d", n)
	}
	if n := len(tr.Tracked(501, 7)); n != 1 {
		t.Errorf("self-cast buff should be tracked, got %d", n)
	}

	tr.RemoveBuff(7, 5)
	if n := tr.Manager(7).Count(); n != 0 {
		t.Errorf("expected no effects after RemoveBuff, got %d", n)
	}
}
