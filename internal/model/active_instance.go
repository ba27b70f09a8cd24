package model

// ActiveInstance is a live continuous effect applied to a target.
// Invalid instances are skipped by every later propagation pass.
type ActiveInstance interface {
	TargetID() uint32
	Invalid() bool
	MarkInvalid()
	// SetPower overwrites magnitude and duration; fails when the instance no longer resolves.
	SetPower(magnitude, duration float64) error
	// Recalculate asks the engine to recompute duration and magnitude.
	Recalculate() error
}

// MaintainedRecord is the persisted form of a maintained effect.
type MaintainedRecord struct {
	ActorID     uint32
	AbilityID   uint32
	ChargeLevel int
}

// Nearby is an entity returned by range queries.
type Nearby struct {
	ObjectID uint32
	Name     string
	Dead     bool
	Teammate bool
	Player   bool
	Summoned bool
}
