package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":5001" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("Mode = %q", cfg.Server.Mode)
	}
	if cfg.Engine.Default != "starlark" {
		t.Errorf("Engine.Default = %q", cfg.Engine.Default)
	}
	if cfg.Engine.EntryPoint != "before_send" {
		t.Errorf("EntryPoint = %q", cfg.Engine.EntryPoint)
	}
	if !cfg.Engine.FallbackEnabled() {
		t.Error("fallback disabled by default")
	}
	if cfg.Engine.MaxSteps != 0 {
		t.Errorf("MaxSteps = %d, want 0 (unbounded reference behavior)", cfg.Engine.MaxSteps)
	}
	if !cfg.Metrics.On() {
		t.Error("metrics disabled by default")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playground.yml")
	data := `
schema_version: v1
server:
  addr: ":6006"
  mode: debug
engine:
  entry_point: hook
  first_callable_fallback: false
  max_steps: 50000
samples:
  dir: /var/lib/samples
  watch: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":6006" || cfg.Server.Mode != "debug" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Engine.EntryPoint != "hook" {
		t.Errorf("EntryPoint = %q", cfg.Engine.EntryPoint)
	}
	if cfg.Engine.FallbackEnabled() {
		t.Error("fallback not disabled by file")
	}
	if cfg.Engine.MaxSteps != 50000 {
		t.Errorf("MaxSteps = %d", cfg.Engine.MaxSteps)
	}
	if cfg.Samples.Dir != "/var/lib/samples" || !cfg.Samples.Watch {
		t.Errorf("samples = %+v", cfg.Samples)
	}
}

func TestLoadRejectsUnknownSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playground.yml")
	if err := os.WriteFile(path, []byte("schema_version: v9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("unknown schema_version accepted")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":5001" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("PLAYGROUND__SERVER__ADDR", ":7007")
	t.Setenv("PLAYGROUND__LOG__JSON", "true")
	t.Setenv("PLAYGROUND__ENGINE__MAX_STEPS", "1234")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7007" {
		t.Errorf("Addr = %q, want env override", cfg.Server.Addr)
	}
	if !cfg.Log.JSON {
		t.Error("Log.JSON not overridden by env")
	}
	if cfg.Engine.MaxSteps != 1234 {
		t.Errorf("MaxSteps = %d, want env override", cfg.Engine.MaxSteps)
	}
}

func TestEnvOverrideBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playground.yml")
	data := "schema_version: v1\nserver:\n  addr: \":6006\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLAYGROUND__SERVER__ADDR", ":9009")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9009" {
		t.Errorf("Addr = %q, want env to win over file", cfg.Server.Addr)
	}
}
