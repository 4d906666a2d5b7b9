// Package config provides configuration management for the budget audit engine.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	apperrors "budget-auditor/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Source  SourceConfig  `mapstructure:"source"`
	Sink    SinkConfig    `mapstructure:"sink"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig holds anomaly-detection thresholds and policies.
type EngineConfig struct {
	// SpikeMultiplier is the ratio of event amount to sector mean at or
	// above which a spike alert fires.
	SpikeMultiplier float64 `mapstructure:"spike_multiplier"`
	// ContractorCeilingCrores is the cumulative lifetime spend (INR crores)
	// at or above which a contractor is flagged, once.
	ContractorCeilingCrores float64 `mapstructure:"contractor_ceiling_crores"`
	// SpikeBaseline selects the sector mean used for spike comparison:
	// "pre_update" (the mean before the triggering event is folded in) or
	// "post_update" (the mean including it).
	SpikeBaseline string `mapstructure:"spike_baseline"`
}

// StreamConfig holds pipeline buffering configuration.
type StreamConfig struct {
	// IntakeBufferSize is the size of the raw event intake channel.
	IntakeBufferSize int `mapstructure:"intake_buffer_size"`
	// PublishBufferSize is the size of the publish queue; when full,
	// ingestion blocks, applying backpressure to the event source.
	PublishBufferSize int `mapstructure:"publish_buffer_size"`
	// PublishMaxAttempts bounds retries per publish before the record is
	// held back and retried after PublishRetryInterval.
	PublishMaxAttempts int `mapstructure:"publish_max_attempts"`
	// PublishRetryInterval is the pause between held-back publish rounds.
	PublishRetryInterval time.Duration `mapstructure:"publish_retry_interval"`
}

// SourceConfig holds event source configuration.
type SourceConfig struct {
	// Mode is "file" (tail a JSONL stream) or "simulate" (generate events).
	Mode string `mapstructure:"mode"`
	// Path is the JSONL file to tail in file mode.
	Path string `mapstructure:"path"`
	// PollInterval is how often the file tail checks for new lines.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// SimulateInterval is the gap between generated events in simulate mode.
	SimulateInterval time.Duration `mapstructure:"simulate_interval"`
	// AnomalyProbability is the chance a generated event is an intentional
	// spike, for demos and soak testing.
	AnomalyProbability float64 `mapstructure:"anomaly_probability"`
}

// SinkConfig holds output sink configuration.
type SinkConfig struct {
	JSONL   JSONLSinkConfig   `mapstructure:"jsonl"`
	SQLite  SQLiteSinkConfig  `mapstructure:"sqlite"`
	Webhook WebhookSinkConfig `mapstructure:"webhook"`
}

// JSONLSinkConfig configures the append-only JSONL file sink.
type JSONLSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// SQLiteSinkConfig configures the SQLite sink.
type SQLiteSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// WebhookSinkConfig configures the HTTP webhook alert sink.
type WebhookSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/budget-auditor"
	}
	return filepath.Join(home, ".config", "budget-auditor")
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		Engine: EngineConfig{
			SpikeMultiplier:         4.0,
			ContractorCeilingCrores: 5000.0,
			SpikeBaseline:           "pre_update",
		},
		Stream: StreamConfig{
			IntakeBufferSize:     1000,
			PublishBufferSize:    1000,
			PublishMaxAttempts:   3,
			PublishRetryInterval: 5 * time.Second,
		},
		Source: SourceConfig{
			Mode:               "file",
			Path:               filepath.Join(dir, "data", "budget_stream.jsonl"),
			PollInterval:       500 * time.Millisecond,
			SimulateInterval:   1500 * time.Millisecond,
			AnomalyProbability: 0.08,
		},
		Sink: SinkConfig{
			JSONL: JSONLSinkConfig{
				Enabled: true,
				Dir:     filepath.Join(dir, "output"),
			},
			SQLite: SQLiteSinkConfig{
				Enabled: false,
				Path:    filepath.Join(dir, "auditor.db"),
			},
			Webhook: WebhookSinkConfig{
				Enabled: false,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Console:  true,
			File:     true,
			FilePath: filepath.Join(dir, "logs", "auditor.log"),
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperrors.Wrap(err, "reading config file")
		}
		// Missing config file is fine; defaults plus env apply.
	} else {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, apperrors.Wrap(err, "parsing config file")
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies BUDGET_AUDITOR_* environment variables on top
// of file and default values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BUDGET_AUDITOR_SPIKE_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.SpikeMultiplier = f
		}
	}
	if v := os.Getenv("BUDGET_AUDITOR_CONTRACTOR_CEILING"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.ContractorCeilingCrores = f
		}
	}
	if v := os.Getenv("BUDGET_AUDITOR_SPIKE_BASELINE"); v != "" {
		cfg.Engine.SpikeBaseline = v
	}
	if v := os.Getenv("BUDGET_AUDITOR_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("BUDGET_AUDITOR_WEBHOOK_URL"); v != "" {
		cfg.Sink.Webhook.Enabled = true
		cfg.Sink.Webhook.URL = v
	}
	if v := os.Getenv("BUDGET_AUDITOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for fatal errors. A non-nil error
// prevents the engine from starting; none of these are recoverable at
// runtime.
func (c *Config) Validate() error {
	if c.Engine.SpikeMultiplier <= 0 {
		return apperrors.NewConfigError("engine.spike_multiplier", c.Engine.SpikeMultiplier, "must be positive")
	}
	if c.Engine.ContractorCeilingCrores <= 0 {
		return apperrors.NewConfigError("engine.contractor_ceiling_crores", c.Engine.ContractorCeilingCrores, "must be positive")
	}
	if c.Engine.SpikeBaseline != "pre_update" && c.Engine.SpikeBaseline != "post_update" {
		return apperrors.NewConfigError("engine.spike_baseline", c.Engine.SpikeBaseline, `must be "pre_update" or "post_update"`)
	}
	if c.Stream.IntakeBufferSize <= 0 {
		return apperrors.NewConfigError("stream.intake_buffer_size", c.Stream.IntakeBufferSize, "must be positive")
	}
	if c.Stream.PublishBufferSize <= 0 {
		return apperrors.NewConfigError("stream.publish_buffer_size", c.Stream.PublishBufferSize, "must be positive")
	}
	if c.Stream.PublishMaxAttempts <= 0 {
		return apperrors.NewConfigError("stream.publish_max_attempts", c.Stream.PublishMaxAttempts, "must be positive")
	}
	if c.Source.Mode != "file" && c.Source.Mode != "simulate" {
		return apperrors.NewConfigError("source.mode", c.Source.Mode, `must be "file" or "simulate"`)
	}
	if c.Source.Mode == "file" && c.Source.Path == "" {
		return apperrors.NewConfigError("source.path", c.Source.Path, "required in file mode")
	}
	if c.Source.AnomalyProbability < 0 || c.Source.AnomalyProbability > 1 {
		return apperrors.NewConfigError("source.anomaly_probability", c.Source.AnomalyProbability, "must be within [0, 1]")
	}
	if c.Sink.Webhook.Enabled && c.Sink.Webhook.URL == "" {
		return apperrors.NewConfigError("sink.webhook.url", c.Sink.Webhook.URL, "required when webhook sink is enabled")
	}
	if c.Sink.JSONL.Enabled && c.Sink.JSONL.Dir == "" {
		return apperrors.NewConfigError("sink.jsonl.dir", c.Sink.JSONL.Dir, "required when jsonl sink is enabled")
	}
	if c.Sink.SQLite.Enabled && c.Sink.SQLite.Path == "" {
		return apperrors.NewConfigError("sink.sqlite.path", c.Sink.SQLite.Path, "required when sqlite sink is enabled")
	}
	return nil
}
