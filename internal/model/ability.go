package model

// CastingType describes how an ability is delivered.
type CastingType int8

const (
	CastFireAndForget CastingType = iota
	CastConcentration
	CastConstant
)

// String returns human-readable casting type name
func (c CastingType) String() string {
	switch c {
	case CastFireAndForget:
		return "FIRE_AND_FORGET"
	case CastConcentration:
		return "CONCENTRATION"
	case CastConstant:
		return "CONSTANT"
	default:
		return "UNKNOWN"
	}
}

// Ability is a shared effect definition equipped into a slot.
// One instance per definition, shared by every actor using it.
type Ability struct {
	ID          uint32
	Name        string
	CastingType CastingType
	TwoHanded   bool
	Effects     []EffectItem
}

// EffectItem is one effect entry of an ability.
type EffectItem struct {
	BaseEffectID uint32
	Name         string
}

// IsConcentration reports whether the ability is channeled while held.
func (a *Ability) IsConcentration() bool {
	return a.CastingType == CastConcentration
}

// EffectKey addresses the live parameter record of one effect entry.
// Records are keyed by definition, not by cast instance.
type EffectKey struct {
	AbilityID uint32
	Index     int
}

// ParamKind enumerates optional projectile/area parameters.
type ParamKind int8

const (
	ParamSpeed ParamKind = iota
	ParamRange
	ParamForce
	ParamCollisionRadius
	ParamConeSpread
	ParamExplosionRadius

	NumParams
)

// String returns human-readable parameter name
func (k ParamKind) String() string {
	switch k {
	case ParamSpeed:
		return "speed"
	case ParamRange:
		return "range"
	case ParamForce:
		return "force"
	case ParamCollisionRadius:
		return "collisionRadius"
	case ParamConeSpread:
		return "coneSpread"
	case ParamExplosionRadius:
		return "explosionRadius"
	default:
		return "unknown"
	}
}

// Param is an optional parameter value.
type Param struct {
	Value   float64
	Present bool
}

// Some returns a present Param.
func Some(v float64) Param {
	return Param{Value: v, Present: true}
}

// EffectPower is the numeric parameter set of one effect entry.
type EffectPower struct {
	Magnitude float64
	Duration  float64
	Area      float64
	Params    [NumParams]Param
}

// Param returns the optional parameter of the given kind.
func (p EffectPower) Param(k ParamKind) Param {
	return p.Params[k]
}

// ResetTo copies every value present on p from base.
func (p *EffectPower) ResetTo(base EffectPower) {
	p.Magnitude = base.Magnitude
	p.Duration = base.Duration
	p.Area = base.Area
	for k := range p.Params {
		if p.Params[k].Present {
			p.Params[k].Value = base.Params[k].Value
		}
	}
}

// EffectRecord is typed access to a live effect parameter record.
// Implemented by the engine adapter; the scaling code never sees memory layout.
type EffectRecord interface {
	Power() EffectPower

	SetMagnitude(v float64)
	SetDuration(v float64)
	SetArea(v float64)
	SetSpeed(v float64)
	SetRange(v float64)
	SetForce(v float64)
	SetCollisionRadius(v float64)
	SetConeSpread(v float64)
	SetExplosionRadius(v float64)
}
