package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Keys read by LoadSettings.
const (
	KeyQueueName         = "queue.name"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyMetricsEnabled    = "metrics.enabled"
	KeyTracingEnabled    = "tracing.enabled"
	KeyDispatchUnmatched = "dispatch.unmatched"
	KeyDiagnosticsPath   = "diagnostics.path"
	KeyRetryAttempts     = "diagnostics.retry_attempts"
	KeyRetryBackoff      = "diagnostics.retry_backoff"
	KeyGreetings         = "run.names"
)

// SettingsEnv lists every key LoadSettings reads with the type its
// environment variable is parsed as.
func SettingsEnv() []EnvKey {
	return []EnvKey{
		{KeyQueueName, KindString},
		{KeyLogLevel, KindString},
		{KeyLogFormat, KindString},
		{KeyMetricsEnabled, KindBool},
		{KeyTracingEnabled, KindBool},
		{KeyDispatchUnmatched, KindString},
		{KeyDiagnosticsPath, KindString},
		{KeyRetryAttempts, KindInt},
		{KeyRetryBackoff, KindDuration},
		{KeyGreetings, KindList},
	}
}

// ErrInvalidSettings is wrapped by every LoadSettings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the typed view of a photon process configuration.
type Settings struct {
	QueueName string

	LogLevel  string
	LogFormat string

	MetricsEnabled bool
	TracingEnabled bool

	// Unmatched is "drop" or "panic".
	Unmatched string

	// DiagnosticsPath is "" (disabled), ":memory:", or a SQLite file path.
	DiagnosticsPath string
	RetryAttempts   int
	RetryBackoff    time.Duration

	// Greetings are extra names the demo consumer greets before saying goodbye.
	Greetings []string
}

// DefaultSettings returns the settings used when no configuration is given.
func DefaultSettings() Settings {
	return Settings{
		QueueName:     "main",
		LogLevel:      "info",
		LogFormat:     "text",
		Unmatched:     "drop",
		RetryAttempts: 4,
		RetryBackoff:  5 * time.Millisecond,
	}
}

var (
	validLevels    = []string{"debug", "info", "warn", "warning", "error"}
	validFormats   = []string{"text", "json"}
	validUnmatched = []string{"drop", "panic"}
)

// LoadSettings reads Settings from cfg, falling back to DefaultSettings for
// missing keys. All validation failures are reported together.
func LoadSettings(cfg Config) (Settings, error) {
	d := DefaultSettings()
	s := Settings{
		QueueName:       cfg.String(KeyQueueName, d.QueueName),
		LogLevel:        strings.ToLower(cfg.String(KeyLogLevel, d.LogLevel)),
		LogFormat:       strings.ToLower(cfg.String(KeyLogFormat, d.LogFormat)),
		MetricsEnabled:  cfg.Bool(KeyMetricsEnabled, d.MetricsEnabled),
		TracingEnabled:  cfg.Bool(KeyTracingEnabled, d.TracingEnabled),
		Unmatched:       strings.ToLower(cfg.String(KeyDispatchUnmatched, d.Unmatched)),
		DiagnosticsPath: cfg.String(KeyDiagnosticsPath, d.DiagnosticsPath),
		RetryAttempts:   cfg.Int(KeyRetryAttempts, d.RetryAttempts),
		RetryBackoff:    cfg.Duration(KeyRetryBackoff, d.RetryBackoff),
		Greetings:       cfg.StringSlice(KeyGreetings, nil),
	}

	var errs []error
	if !slices.Contains(validLevels, s.LogLevel) {
		errs = append(errs, fmt.Errorf("%w: %s %q", ErrInvalidSettings, KeyLogLevel, s.LogLevel))
	}
	if !slices.Contains(validFormats, s.LogFormat) {
		errs = append(errs, fmt.Errorf("%w: %s %q", ErrInvalidSettings, KeyLogFormat, s.LogFormat))
	}
	if !slices.Contains(validUnmatched, s.Unmatched) {
		errs = append(errs, fmt.Errorf("%w: %s %q", ErrInvalidSettings, KeyDispatchUnmatched, s.Unmatched))
	}
	if s.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidSettings, KeyRetryAttempts, s.RetryAttempts))
	}
	if err := errors.Join(errs...); err != nil {
		return Settings{}, err
	}
	return s, nil
}
