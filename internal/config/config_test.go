package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/overcharge/internal/model"
)

func TestLoadSim_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadSim(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSim(), cfg)
}

func TestLoadSim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chargesim.yaml")
	content := `
log_level: debug
tick_interval: 50ms
command_queue_size: -1
charge:
  growth_rate: 0.25
  pre_charge_delay: -3
  operation_mode: Duration
  hotkey: Ctrl+F5
database:
  enabled: true
  host: db
  port: 5433
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadSim(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 64, cfg.CommandQueueSize)
	assert.InDelta(t, 0.25, cfg.Charge.GrowthRate, 1e-9)
	assert.InDelta(t, 0.5, cfg.Charge.PreChargeDelay, 1e-9, "negative delay replaced by default")
	assert.InDelta(t, 2.5, cfg.Charge.AutoCleanupDelay, 1e-9, "unset keys keep defaults")
	assert.Equal(t, model.ModeDuration, cfg.Charge.Mode())
	assert.Equal(t, []string{"Ctrl", "F5"}, cfg.Charge.Hotkey())
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://overcharge:overcharge@db:5433/overcharge?sslmode=disable", cfg.Database.DSN())
}

func TestLoadSim_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("charge: [unclosed"), 0o600))

	_, err := LoadSim(path)
	assert.Error(t, err)
}

func TestCharge_Sanitized(t *testing.T) {
	c := Charge{
		GrowthRate:           0,
		PreChargeDelay:       0,
		AutoCleanupDelay:     -1,
		ChargeCost:           -2,
		ShareRange:           0,
		MaintainBaseDuration: -5,
		MaintainUpkeep:       -1,
	}.Sanitized()

	def := DefaultCharge()
	assert.Equal(t, def.GrowthRate, c.GrowthRate)
	assert.Zero(t, c.PreChargeDelay, "zero pre-charge delay is valid")
	assert.Equal(t, def.AutoCleanupDelay, c.AutoCleanupDelay)
	assert.Zero(t, c.ChargeCost)
	assert.Equal(t, def.ShareRange, c.ShareRange)
	assert.Equal(t, def.MaintainBaseDuration, c.MaintainBaseDuration)
	assert.Zero(t, c.MaintainUpkeep)
	assert.Equal(t, def.OperationMode, c.OperationMode)
	assert.Equal(t, def.HotKey, c.HotKey)
}

func TestCharge_SanitizedReplacesInvalidStrings(t *testing.T) {
	c := DefaultCharge()
	c.OperationMode = "Sideways"
	c.HotKey = "G+Shift"

	c = c.Sanitized()
	assert.Equal(t, "Magnitude", c.OperationMode)
	assert.Equal(t, "Shift+G", c.HotKey)

	valid := DefaultCharge()
	valid.OperationMode = "Duration"
	valid.HotKey = "Ctrl+F5"
	assert.Equal(t, valid, valid.Sanitized())
}

func TestCharge_Mode(t *testing.T) {
	tests := []struct {
		value string
		want  model.OperationMode
	}{
		{"Magnitude", model.ModeMagnitude},
		{"Duration", model.ModeDuration},
		{"Disabled", model.ModeDisabled},
		{"Sideways", model.ModeMagnitude},
		{"", model.ModeMagnitude},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, Charge{OperationMode: tt.value}.Mode())
		})
	}
}

func TestCharge_MarkerFor(t *testing.T) {
	c := DefaultCharge()
	assert.Equal(t, c.ArtObjectMagnitude, c.MarkerFor(model.ModeMagnitude))
	assert.Equal(t, c.ArtObjectDuration, c.MarkerFor(model.ModeDuration))
	assert.Zero(t, c.MarkerFor(model.ModeDisabled))
}

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "Shift+G", want: []string{"Shift", "G"}},
		{in: "ctrl + alt + f12", want: []string{"Ctrl", "Alt", "F12"}},
		{in: "Control+x", want: []string{"Ctrl", "X"}},
		{in: "7", want: []string{"7"}},
		{in: "", wantErr: true},
		{in: "Shift+", wantErr: true},
		{in: "Shift", wantErr: true},
		{in: "G+Shift", wantErr: true},
		{in: "Shift+F13", wantErr: true},
		{in: "Shift+Enter", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHotkey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCharge_HotkeyFallback(t *testing.T) {
	assert.Equal(t, DefaultHotkey, Charge{HotKey: "Hyper+Q"}.Hotkey())
}
