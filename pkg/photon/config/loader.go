package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FromFile loads a .yaml, .yml, or .json file. An empty file yields an empty
// Config.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = FromYAML(data)
	case ".json":
		cfg, err = FromJSON(data)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported extension %q (want .yaml, .yml, or .json)", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// FromYAML parses a YAML mapping. Integers stay int, so durations written as
// plain numbers are read as milliseconds.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses a JSON object. Numbers are float64; the accessors convert
// whole numbers where an int is wanted.
func FromJSON(data []byte) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return New(nil), nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// EnvName returns the environment variable that overrides key:
// EnvName("PHOTON", "log.level") is "PHOTON_LOG_LEVEL".
func EnvName(prefix, key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if prefix == "" {
		return name
	}
	return strings.ToUpper(prefix) + "_" + name
}

// Kind tells FromEnv how to read an environment variable.
type Kind int

const (
	// KindString keeps the raw value.
	KindString Kind = iota
	// KindBool accepts the strconv.ParseBool forms.
	KindBool
	// KindInt accepts a base-10 integer.
	KindInt
	// KindDuration accepts a time.ParseDuration string or whole milliseconds.
	KindDuration
	// KindList accepts a YAML flow sequence ("[Bob, Carol]") or a
	// comma-separated list ("Bob,Carol").
	KindList
)

// EnvKey names a config key and the type its variable is read as.
type EnvKey struct {
	Key  string
	Kind Kind
}

// FromEnv reads the variable EnvName(prefix, k.Key) for each key and
// converts it according to k.Kind. Unset variables are skipped. Values that
// do not parse are reported together, each naming its variable.
func FromEnv(prefix string, keys ...EnvKey) (Config, error) {
	m := make(map[string]any)
	var errs []error
	for _, k := range keys {
		name := EnvName(prefix, k.Key)
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		v, err := parseEnv(raw, k.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", name, raw, err))
			continue
		}
		m[k.Key] = v
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return Config{data: m}, nil
}

func parseEnv(raw string, kind Kind) (any, error) {
	switch kind {
	case KindBool:
		return strconv.ParseBool(strings.TrimSpace(raw))
	case KindInt:
		return strconv.Atoi(strings.TrimSpace(raw))
	case KindDuration:
		raw = strings.TrimSpace(raw)
		if _, err := time.ParseDuration(raw); err == nil {
			return raw, nil
		}
		ms, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("want a duration like 20ms or whole milliseconds")
		}
		return ms, nil
	case KindList:
		return parseList(raw)
	default:
		return raw, nil
	}
}

func parseList(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := yaml.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, fmt.Errorf("parse list: %w", err)
		}
		return items, nil
	}
	var items []string
	for _, item := range strings.Split(trimmed, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items, nil
}
