package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAddr            = "HEALTH_ADDR"
	EnvPolicy          = "HEALTH_POLICY"
	EnvInterval        = "HEALTH_INTERVAL"
	EnvProbeTimeout    = "HEALTH_PROBE_TIMEOUT"
	EnvFallback        = "HEALTH_FALLBACK"
	EnvServiceName     = "HEALTH_SERVICE_NAME"
	EnvLogLevel        = "HEALTH_LOG_LEVEL"
	EnvTracingEnabled  = "HEALTH_TRACING_ENABLED"
	EnvTracingExporter = "HEALTH_TRACING_EXPORTER"
	EnvMetricsExporter = "HEALTH_METRICS_EXPORTER"
)

// Flags holds the values bound by BindFlags.
type Flags struct {
	fs *pflag.FlagSet

	ConfigFile      string
	Addr            string
	Policy          string
	Interval        time.Duration
	ProbeTimeout    time.Duration
	LogLevel        string
	TracingExporter string
	MetricsExporter string
}

// BindFlags registers the command-line flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}

	fs.StringVarP(&f.ConfigFile, "config", "c", "", "path to a YAML configuration file")
	fs.StringVar(&f.Addr, "addr", d.Server.Addr, "HTTP listen address")
	fs.StringVar(&f.Policy, "policy", d.Scheduler.Policy, "refresh policy (lazy|periodic)")
	fs.DurationVar(&f.Interval, "interval", d.Scheduler.Interval, "cache interval or refresh period")
	fs.DurationVar(&f.ProbeTimeout, "probe-timeout", d.Scheduler.ProbeTimeout, "default probe timeout")
	fs.StringVar(&f.LogLevel, "log-level", d.Observability.Logging.Level, "log level (debug|info|warn|error)")
	fs.StringVar(&f.TracingExporter, "tracing-exporter", d.Observability.Tracing.Exporter, "tracing exporter (otlp|jaeger|stdout|none)")
	fs.StringVar(&f.MetricsExporter, "metrics-exporter", d.Observability.Metrics.Exporter, "metrics exporter (otlp|prometheus|stdout|none)")
	return f
}

// Load builds the configuration from defaults, the file named by path (if
// any), the environment and the explicitly set flags, then validates it.
// flags may be nil.
func Load(path string, flags *Flags) (*Config, error) {
	cfg := Default()

	if path == "" && flags != nil {
		path = flags.ConfigFile
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, err
	}

	if flags != nil {
		flags.apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path over cfg. ${VAR} references are
// expanded first and must all be set.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded, err := ExpandEnvStrict(string(data))
	if err != nil {
		return fmt.Errorf("config: expand %s: %w", path, err)
	}

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	var errs []error

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	setBool := func(key string, dst *bool) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	setString(EnvAddr, &cfg.Server.Addr)
	setString(EnvPolicy, &cfg.Scheduler.Policy)
	setDuration(EnvInterval, &cfg.Scheduler.Interval)
	setDuration(EnvProbeTimeout, &cfg.Scheduler.ProbeTimeout)
	setString(EnvFallback, &cfg.Scheduler.Fallback)
	setString(EnvServiceName, &cfg.Observability.ServiceName)
	setString(EnvLogLevel, &cfg.Observability.Logging.Level)
	setBool(EnvTracingEnabled, &cfg.Observability.Tracing.Enabled)
	setString(EnvTracingExporter, &cfg.Observability.Tracing.Exporter)
	setString(EnvMetricsExporter, &cfg.Observability.Metrics.Exporter)

	if len(errs) > 0 {
		return fmt.Errorf("config: environment: %w", errors.Join(errs...))
	}
	return nil
}

// apply copies the flags that were set on the command line into cfg.
func (f *Flags) apply(cfg *Config) {
	changed := func(name string) bool {
		return f.fs != nil && f.fs.Changed(name)
	}

	if changed("addr") {
		cfg.Server.Addr = f.Addr
	}
	if changed("policy") {
		cfg.Scheduler.Policy = f.Policy
	}
	if changed("interval") {
		cfg.Scheduler.Interval = f.Interval
	}
	if changed("probe-timeout") {
		cfg.Scheduler.ProbeTimeout = f.ProbeTimeout
	}
	if changed("log-level") {
		cfg.Observability.Logging.Level = f.LogLevel
	}
	if changed("tracing-exporter") {
		cfg.Observability.Tracing.Exporter = f.TracingExporter
		cfg.Observability.Tracing.Enabled = f.TracingExporter != "none"
	}
	if changed("metrics-exporter") {
		cfg.Observability.Metrics.Exporter = f.MetricsExporter
		cfg.Observability.Metrics.Enabled = f.MetricsExporter != "none"
	}
}
