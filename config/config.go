// Package config loads playground configuration from an optional YAML
// file merged with environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const SupportedSchema = "v1"

// Env-var overrides use the prefix `PLAYGROUND__` with `__` as the
// path delimiter, e.g. PLAYGROUND__SERVER__ADDR=:8080.
const envPrefix = "PLAYGROUND__"

type ServerCfg struct {
	Addr string `koanf:"addr"`
	Mode string `koanf:"mode"` // debug|release
}

type LogCfg struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type MetricsCfg struct {
	// Enabled gates the /metrics route. Defaults to true.
	Enabled *bool `koanf:"enabled"`
}

// On resolves the tri-state flag.
func (c MetricsCfg) On() bool {
	return c.Enabled == nil || *c.Enabled
}

type EngineCfg struct {
	Default    string `koanf:"default"`
	EntryPoint string `koanf:"entry_point"`

	// FirstCallableFallback keeps the legacy first-defined-callable
	// discovery when the entry point is absent. Defaults to true.
	FirstCallableFallback *bool `koanf:"first_callable_fallback"`

	// MaxSteps bounds one script invocation. 0 leaves routines
	// unbounded, which is the reference behavior.
	MaxSteps uint64 `koanf:"max_steps"`
}

// FallbackEnabled resolves the tri-state flag.
func (c EngineCfg) FallbackEnabled() bool {
	return c.FirstCallableFallback == nil || *c.FirstCallableFallback
}

type SamplesCfg struct {
	Dir   string `koanf:"dir"`
	Watch bool   `koanf:"watch"`
}

type Config struct {
	Server  ServerCfg  `koanf:"server"`
	Log     LogCfg     `koanf:"log"`
	Metrics MetricsCfg `koanf:"metrics"`
	Engine  EngineCfg  `koanf:"engine"`
	Samples SamplesCfg `koanf:"samples"`
}

// Load merges YAML (if present) with env-vars.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	// schema version check (only when YAML is present)
	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return Config{}, fmt.Errorf("config schema_version %q not supported (want %q)", sv, SupportedSchema)
	}

	// Strip the prefix and lowercase so PLAYGROUND__SERVER__ADDR
	// unflattens to server.addr and lands on the koanf struct paths.
	_ = k.Load(env.Provider(envPrefix, "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5001"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Engine.Default == "" {
		c.Engine.Default = "starlark"
	}
	if c.Engine.EntryPoint == "" {
		c.Engine.EntryPoint = "before_send"
	}
}
