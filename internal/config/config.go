// Package config loads the settings of the health demo service.
//
// Values are resolved in order of increasing precedence: built-in defaults,
// a YAML file, HEALTH_* environment variables, then command-line flags that
// were explicitly set.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/healthstatus/health"
	"github.com/jonwraymond/healthstatus/observe"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete service configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// SchedulerConfig configures probe scheduling.
type SchedulerConfig struct {
	Policy       string        `yaml:"policy"`
	Interval     time.Duration `yaml:"interval"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	Fallback     string        `yaml:"fallback"`
}

// ObservabilityConfig configures logging, tracing and metrics.
type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name"`
	Version     string        `yaml:"version"`
	Logging     LoggingConfig `yaml:"logging"`
	Tracing     TracingConfig `yaml:"tracing"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Exporter  string  `yaml:"exporter"`
	SamplePct float64 `yaml:"sample_pct"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Policy:       health.PolicyPeriodic.String(),
			Interval:     health.DefaultInterval,
			ProbeTimeout: health.DefaultProbeTimeout,
			Fallback:     health.DefaultFallback,
		},
		Observability: ObservabilityConfig{
			ServiceName: "healthdemo",
			Version:     "dev",
			Logging:     LoggingConfig{Enabled: true, Level: "info"},
			Tracing:     TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics:     MetricsConfig{Enabled: true, Exporter: "prometheus"},
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout))
	}
	if _, err := health.ParsePolicy(c.Scheduler.Policy); err != nil {
		errs = append(errs, err)
	}
	if c.Scheduler.Interval <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.interval must be positive, got %v", c.Scheduler.Interval))
	}
	if c.Scheduler.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.probe_timeout must be positive, got %v", c.Scheduler.ProbeTimeout))
	}
	oc := c.Observe()
	if err := oc.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Observe returns the observe.Config view of the configuration.
func (c *Config) Observe() observe.Config {
	o := c.Observability
	return observe.Config{
		ServiceName: o.ServiceName,
		Version:     o.Version,
		Tracing: observe.TracingConfig{
			Enabled:   o.Tracing.Enabled,
			Exporter:  o.Tracing.Exporter,
			SamplePct: o.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  o.Metrics.Enabled,
			Exporter: o.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: o.Logging.Enabled,
			Level:   o.Logging.Level,
		},
	}
}

// HealthConfig returns the health.SchedulerConfig view of the
// configuration. Instrumentation is left for the caller to set.
func (c *Config) HealthConfig() (health.SchedulerConfig, error) {
	policy, err := health.ParsePolicy(c.Scheduler.Policy)
	if err != nil {
		return health.SchedulerConfig{}, err
	}
	hc := health.SchedulerConfig{
		Policy:         policy,
		Interval:       c.Scheduler.Interval,
		DefaultTimeout: c.Scheduler.ProbeTimeout,
	}
	// An empty fallback keeps the scheduler default.
	if c.Scheduler.Fallback != "" {
		hc.DefaultFallback = c.Scheduler.Fallback
	}
	return hc, nil
}
