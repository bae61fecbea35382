/*
Package config provides type-safe configuration extraction for photon
processes.

# Overview

Config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values.
Nested maps are flattened into dotted keys, so a YAML file like

	queue:
	  name: input
	log:
	  level: debug

is read with cfg.String("queue.name", "") and cfg.String("log.level", "info").

# Settings

LoadSettings turns a Config into the typed Settings a photon process runs
with:

	cfg, err := config.FromFile("photon.yaml")
	if err != nil {
	    return err
	}
	settings, err := config.LoadSettings(cfg.With(map[string]any{
	    "log.level": "debug", // command-line override
	}))

Every key can also be set from the environment. FromEnv reads the variables
EnvName derives from a prefix and the key, parses each as the Kind its key
declares, and Merge layers them on top:

	env, err := config.FromEnv("PHOTON", config.SettingsEnv()...)
	if err != nil {
	    return err
	}
	cfg = cfg.Merge(env)
	// PHOTON_LOG_LEVEL=debug now sets log.level
	// PHOTON_QUEUE_NAME=2024 sets queue.name to the string "2024"

Recognized keys:
  - queue.name: queue name (default "main")
  - log.level: debug, info, warn, error (default info)
  - log.format: text or json (default text)
  - metrics.enabled, tracing.enabled: OpenTelemetry instruments (default false)
  - dispatch.unmatched: drop or panic (default drop)
  - diagnostics.path: "" disables, ":memory:" or a SQLite file path
  - diagnostics.retry_attempts, diagnostics.retry_backoff: store retry policy
  - run.names: extra greetings for the demo program

# Thread Safety

Config is safe for concurrent read access. With returns a new Config and
never modifies the receiver.
*/
package config
