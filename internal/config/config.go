package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xraph/blueprint/internal/errors"
)

// Config is the full service configuration. Values resolve in order: compiled
// defaults, optional YAML file, .env file, then process environment.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Relay    RelayConfig    `yaml:"relay"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"BLUEPRINT_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"BLUEPRINT_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"BLUEPRINT_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"BLUEPRINT_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"BLUEPRINT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level       string `yaml:"level" env:"BLUEPRINT_LOG_LEVEL" envDefault:"info"`
	Format      string `yaml:"format" env:"BLUEPRINT_LOG_FORMAT" envDefault:"console"`
	Environment string `yaml:"environment" env:"BLUEPRINT_ENVIRONMENT" envDefault:"development"`
}

// RealtimeConfig controls the connection registry and liveness monitor.
type RealtimeConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" env:"BLUEPRINT_HEARTBEAT_INTERVAL" envDefault:"30s"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" env:"BLUEPRINT_CLEANUP_INTERVAL" envDefault:"60s"`
	StaleMultiplier   int           `yaml:"stale_multiplier" env:"BLUEPRINT_STALE_MULTIPLIER" envDefault:"5"`
	SendBufferSize    int           `yaml:"send_buffer_size" env:"BLUEPRINT_SEND_BUFFER_SIZE" envDefault:"256"`
	MaxMessageSize    int64         `yaml:"max_message_size" env:"BLUEPRINT_MAX_MESSAGE_SIZE" envDefault:"65536"`
	WriteTimeout      time.Duration `yaml:"write_timeout" env:"BLUEPRINT_RT_WRITE_TIMEOUT" envDefault:"10s"`
	PongTimeout       time.Duration `yaml:"pong_timeout" env:"BLUEPRINT_PONG_TIMEOUT" envDefault:"60s"`
}

// PipelineConfig controls the build runner.
type PipelineConfig struct {
	MaxConcurrentBuilds int           `yaml:"max_concurrent_builds" env:"BLUEPRINT_MAX_CONCURRENT_BUILDS" envDefault:"4"`
	PhaseDelay          time.Duration `yaml:"phase_delay" env:"BLUEPRINT_PHASE_DELAY" envDefault:"500ms"`
}

// RelayConfig controls the optional cross-node broadcast relay.
type RelayConfig struct {
	Enabled  bool   `yaml:"enabled" env:"BLUEPRINT_RELAY_ENABLED" envDefault:"false"`
	RedisURL string `yaml:"redis_url" env:"BLUEPRINT_RELAY_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	NodeID   string `yaml:"node_id" env:"BLUEPRINT_NODE_ID"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" env:"BLUEPRINT_TRACING_ENABLED" envDefault:"false"`
	Exporter    string  `yaml:"exporter" env:"BLUEPRINT_TRACING_EXPORTER" envDefault:"stdout"`
	Endpoint    string  `yaml:"endpoint" env:"BLUEPRINT_TRACING_ENDPOINT"`
	SampleRate  float64 `yaml:"sample_rate" env:"BLUEPRINT_TRACING_SAMPLE_RATE" envDefault:"0.1"`
	ServiceName string  `yaml:"service_name" env:"BLUEPRINT_TRACING_SERVICE_NAME" envDefault:"blueprint"`
}

// Load resolves configuration. A non-empty path names a YAML file applied over
// the defaults before environment variables; a missing .env file is not an
// error.
func Load(path string) (Config, error) {
	var cfg Config

	// Materialize the envDefault values without reading the process
	// environment, so the file layers over defaults and variables layer
	// over the file. A plain env.Parse after unmarshalling would re-apply
	// every default whose variable is unset, clobbering file values.
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		return cfg, errors.ErrConfigError("parse defaults", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.ErrConfigError("read config file "+path, err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.ErrConfigError("parse config file "+path, err)
		}
	}

	// godotenv never overrides variables already exported, so .env sits
	// below the real environment.
	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// applyEnv overrides fields whose variables are actually set in the process
// environment. Unset variables leave the current value alone.
func applyEnv(cfg *Config) error {
	overrides := []struct {
		key string
		set func(string) error
	}{
		{"BLUEPRINT_ADDR", setString(&cfg.Server.Addr)},
		{"BLUEPRINT_READ_TIMEOUT", setDuration(&cfg.Server.ReadTimeout)},
		{"BLUEPRINT_WRITE_TIMEOUT", setDuration(&cfg.Server.WriteTimeout)},
		{"BLUEPRINT_IDLE_TIMEOUT", setDuration(&cfg.Server.IdleTimeout)},
		{"BLUEPRINT_SHUTDOWN_TIMEOUT", setDuration(&cfg.Server.ShutdownTimeout)},
		{"BLUEPRINT_LOG_LEVEL", setString(&cfg.Logging.Level)},
		{"BLUEPRINT_LOG_FORMAT", setString(&cfg.Logging.Format)},
		{"BLUEPRINT_ENVIRONMENT", setString(&cfg.Logging.Environment)},
		{"BLUEPRINT_HEARTBEAT_INTERVAL", setDuration(&cfg.Realtime.HeartbeatInterval)},
		{"BLUEPRINT_CLEANUP_INTERVAL", setDuration(&cfg.Realtime.CleanupInterval)},
		{"BLUEPRINT_STALE_MULTIPLIER", setInt(&cfg.Realtime.StaleMultiplier)},
		{"BLUEPRINT_SEND_BUFFER_SIZE", setInt(&cfg.Realtime.SendBufferSize)},
		{"BLUEPRINT_MAX_MESSAGE_SIZE", setInt64(&cfg.Realtime.MaxMessageSize)},
		{"BLUEPRINT_RT_WRITE_TIMEOUT", setDuration(&cfg.Realtime.WriteTimeout)},
		{"BLUEPRINT_PONG_TIMEOUT", setDuration(&cfg.Realtime.PongTimeout)},
		{"BLUEPRINT_MAX_CONCURRENT_BUILDS", setInt(&cfg.Pipeline.MaxConcurrentBuilds)},
		{"BLUEPRINT_PHASE_DELAY", setDuration(&cfg.Pipeline.PhaseDelay)},
		{"BLUEPRINT_RELAY_ENABLED", setBool(&cfg.Relay.Enabled)},
		{"BLUEPRINT_RELAY_REDIS_URL", setString(&cfg.Relay.RedisURL)},
		{"BLUEPRINT_NODE_ID", setString(&cfg.Relay.NodeID)},
		{"BLUEPRINT_TRACING_ENABLED", setBool(&cfg.Tracing.Enabled)},
		{"BLUEPRINT_TRACING_EXPORTER", setString(&cfg.Tracing.Exporter)},
		{"BLUEPRINT_TRACING_ENDPOINT", setString(&cfg.Tracing.Endpoint)},
		{"BLUEPRINT_TRACING_SAMPLE_RATE", setFloat(&cfg.Tracing.SampleRate)},
		{"BLUEPRINT_TRACING_SERVICE_NAME", setString(&cfg.Tracing.ServiceName)},
	}

	for _, o := range overrides {
		value, ok := os.LookupEnv(o.key)
		if !ok {
			continue
		}

		if err := o.set(value); err != nil {
			return errors.ErrConfigError("parse "+o.key, err)
		}
	}

	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setInt64(dst *int64) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func setFloat(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.ErrInvalidConfig("server.addr", errors.New("must not be empty"))
	}

	if c.Realtime.HeartbeatInterval <= 0 {
		return errors.ErrInvalidConfig("realtime.heartbeat_interval", errors.New("must be positive"))
	}

	if c.Realtime.CleanupInterval <= 0 {
		return errors.ErrInvalidConfig("realtime.cleanup_interval", errors.New("must be positive"))
	}

	if c.Realtime.CleanupInterval < c.Realtime.HeartbeatInterval {
		return errors.ErrInvalidConfig("realtime.cleanup_interval",
			fmt.Errorf("must not be shorter than heartbeat interval %s", c.Realtime.HeartbeatInterval))
	}

	if c.Realtime.StaleMultiplier < 2 {
		return errors.ErrInvalidConfig("realtime.stale_multiplier", errors.New("must be at least 2"))
	}

	if c.Realtime.SendBufferSize <= 0 {
		return errors.ErrInvalidConfig("realtime.send_buffer_size", errors.New("must be positive"))
	}

	if c.Pipeline.MaxConcurrentBuilds <= 0 {
		return errors.ErrInvalidConfig("pipeline.max_concurrent_builds", errors.New("must be positive"))
	}

	if c.Relay.Enabled && c.Relay.RedisURL == "" {
		return errors.ErrInvalidConfig("relay.redis_url", errors.New("required when relay is enabled"))
	}

	switch c.Tracing.Exporter {
	case "", "stdout", "otlp", "jaeger":
	default:
		return errors.ErrInvalidConfig("tracing.exporter",
			fmt.Errorf("unsupported exporter %q", c.Tracing.Exporter))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return errors.ErrInvalidConfig("tracing.sample_rate", errors.New("must be within [0, 1]"))
	}

	return nil
}
