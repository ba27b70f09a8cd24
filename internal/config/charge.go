package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/overcharge/internal/model"
)

// DefaultHotkey is used when the configured hotkey cannot be parsed.
var DefaultHotkey = []string{"Shift", "G"}

// Charge holds the charging tunables. Read once when an actor is created.
type Charge struct {
	GrowthRate         float64 `yaml:"growth_rate"`          // power gained per charge level
	PreChargeDelay     float64 `yaml:"pre_charge_delay"`     // seconds held before charging starts
	AutoCleanupDelay   float64 `yaml:"auto_cleanup_delay"`   // idle seconds before a forced revert
	AllowConcentration bool    `yaml:"allow_concentration"`  // concentration abilities may charge
	OperationMode      string  `yaml:"operation_mode"`       // Magnitude, Duration or Disabled
	HotKey             string  `yaml:"hotkey"`               // e.g. "Shift+G"
	ChargeCost         float64 `yaml:"charge_cost"`          // resource drained per charge level, 0 = free

	ArtObjectMagnitude uint32 `yaml:"art_object_magnitude"`
	ArtObjectDuration  uint32 `yaml:"art_object_duration"`

	ShareRange float64 `yaml:"share_range"`

	MaintainBaseDuration float64 `yaml:"maintain_base_duration"` // seconds at charge level 0
	MaintainUpkeep       float64 `yaml:"maintain_upkeep"`        // resource per second
}

// DefaultCharge returns Charge config with sensible defaults.
func DefaultCharge() Charge {
	return Charge{
		GrowthRate:           0.1,
		PreChargeDelay:       0.5,
		AutoCleanupDelay:     2.5,
		AllowConcentration:   false,
		OperationMode:        model.ModeMagnitude.String(),
		HotKey:               strings.Join(DefaultHotkey, "+"),
		ChargeCost:           0,
		ArtObjectMagnitude:   0x0005A0A1,
		ArtObjectDuration:    0x0005A0A2,
		ShareRange:           1024,
		MaintainBaseDuration: 60,
		MaintainUpkeep:       0.5,
	}
}

// Sanitized replaces out-of-range numeric values and unparsable mode or
// hotkey strings with defaults, logging a warning for each string replaced.
// A zero pre-charge delay is valid and starts charging on the first tick.
func (c Charge) Sanitized() Charge {
	def := DefaultCharge()
	if c.GrowthRate <= 0 {
		c.GrowthRate = def.GrowthRate
	}
	if c.PreChargeDelay < 0 {
		c.PreChargeDelay = def.PreChargeDelay
	}
	if c.AutoCleanupDelay <= 0 {
		c.AutoCleanupDelay = def.AutoCleanupDelay
	}
	if c.ChargeCost < 0 {
		c.ChargeCost = 0
	}
	if c.ShareRange <= 0 {
		c.ShareRange = def.ShareRange
	}
	if c.MaintainBaseDuration <= 0 {
		c.MaintainBaseDuration = def.MaintainBaseDuration
	}
	if c.MaintainUpkeep < 0 {
		c.MaintainUpkeep = 0
	}
	if _, err := model.ParseOperationMode(c.OperationMode); err != nil {
		slog.Warn("invalid operation mode, using default",
			"value", c.OperationMode,
			"default", def.OperationMode)
		c.OperationMode = def.OperationMode
	}
	if _, err := ParseHotkey(c.HotKey); err != nil {
		slog.Warn("invalid hotkey, using default",
			"value", c.HotKey,
			"default", def.HotKey,
			"error", err)
		c.HotKey = def.HotKey
	}
	return c
}

// Mode returns the configured operation mode, or Magnitude if the value
// cannot be parsed. Sanitized reports invalid values.
func (c Charge) Mode() model.OperationMode {
	mode, err := model.ParseOperationMode(c.OperationMode)
	if err != nil {
		return model.ModeMagnitude
	}
	return mode
}

// Hotkey returns the configured key combination, or DefaultHotkey if the
// value cannot be parsed. Sanitized reports invalid values.
func (c Charge) Hotkey() []string {
	keys, err := ParseHotkey(c.HotKey)
	if err != nil {
		return append([]string(nil), DefaultHotkey...)
	}
	return keys
}

// MarkerFor returns the visual marker id shown while mode is active (0 = none).
func (c Charge) MarkerFor(mode model.OperationMode) uint32 {
	switch mode {
	case model.ModeMagnitude:
		return c.ArtObjectMagnitude
	case model.ModeDuration:
		return c.ArtObjectDuration
	default:
		return 0
	}
}

var modifierKeys = map[string]string{
	"shift":   "Shift",
	"ctrl":    "Ctrl",
	"control": "Ctrl",
	"alt":     "Alt",
}

// ParseHotkey parses a "+"-separated key combination such as "Shift+G" or "Ctrl+F5".
// Exactly one non-modifier key is required and it must come last.
func ParseHotkey(s string) ([]string, error) {
	parts := strings.Split(s, "+")
	keys := make([]string, 0, len(parts))
	for i, raw := range parts {
		p := strings.TrimSpace(raw)
		if p == "" {
			return nil, fmt.Errorf("empty key in %q", s)
		}
		if mod, ok := modifierKeys[strings.ToLower(p)]; ok {
			if i == len(parts)-1 {
				return nil, fmt.Errorf("hotkey %q has no main key", s)
			}
			keys = append(keys, mod)
			continue
		}
		if i != len(parts)-1 {
			return nil, fmt.Errorf("key %q must be last in %q", p, s)
		}
		if !isMainKey(p) {
			return nil, fmt.Errorf("unknown key %q", p)
		}
		keys = append(keys, strings.ToUpper(p))
	}
	return keys, nil
}

func isMainKey(k string) bool {
	if len(k) == 1 {
		c := k[0]
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}
	var n int
	if _, err := fmt.Sscanf(strings.ToUpper(k), "F%d", &n); err == nil {
		return n >= 1 && n <= 12 && strings.EqualFold(k, fmt.Sprintf("F%d", n))
	}
	return false
}
