package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "budget-auditor/internal/errors"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4.0, cfg.Engine.SpikeMultiplier)
	assert.Equal(t, 5000.0, cfg.Engine.ContractorCeilingCrores)
	assert.Equal(t, "pre_update", cfg.Engine.SpikeBaseline)
	assert.Equal(t, "file", cfg.Source.Mode)
	assert.True(t, cfg.Sink.JSONL.Enabled)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero multiplier", func(c *Config) { c.Engine.SpikeMultiplier = 0 }},
		{"negative multiplier", func(c *Config) { c.Engine.SpikeMultiplier = -4 }},
		{"zero ceiling", func(c *Config) { c.Engine.ContractorCeilingCrores = 0 }},
		{"unknown baseline", func(c *Config) { c.Engine.SpikeBaseline = "rolling" }},
		{"zero intake buffer", func(c *Config) { c.Stream.IntakeBufferSize = 0 }},
		{"zero publish buffer", func(c *Config) { c.Stream.PublishBufferSize = 0 }},
		{"zero publish attempts", func(c *Config) { c.Stream.PublishMaxAttempts = 0 }},
		{"unknown source mode", func(c *Config) { c.Source.Mode = "kafka" }},
		{"file mode without path", func(c *Config) { c.Source.Path = "" }},
		{"anomaly probability above 1", func(c *Config) { c.Source.AnomalyProbability = 1.5 }},
		{"webhook enabled without url", func(c *Config) { c.Sink.Webhook.Enabled = true; c.Sink.Webhook.URL = "" }},
		{"jsonl enabled without dir", func(c *Config) { c.Sink.JSONL.Dir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrConfigInvalid), "error should be a config error: %v", err)
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Engine.SpikeMultiplier)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
engine:
  spike_multiplier: 6.0
  contractor_ceiling_crores: 8000
source:
  mode: simulate
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 6.0, cfg.Engine.SpikeMultiplier)
	assert.Equal(t, 8000.0, cfg.Engine.ContractorCeilingCrores)
	assert.Equal(t, "simulate", cfg.Source.Mode)
	// Untouched sections keep their defaults.
	assert.Equal(t, "pre_update", cfg.Engine.SpikeBaseline)
	assert.Equal(t, 1000, cfg.Stream.IntakeBufferSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "engine:\n  spike_multiplier: 6.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BUDGET_AUDITOR_SPIKE_MULTIPLIER", "9.5")
	t.Setenv("BUDGET_AUDITOR_SPIKE_BASELINE", "post_update")
	t.Setenv("BUDGET_AUDITOR_WEBHOOK_URL", "http://localhost:9000/alerts")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9.5, cfg.Engine.SpikeMultiplier)
	assert.Equal(t, "post_update", cfg.Engine.SpikeBaseline)
	assert.True(t, cfg.Sink.Webhook.Enabled)
	assert.Equal(t, "http://localhost:9000/alerts", cfg.Sink.Webhook.URL)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("engine: [not: a map"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}
