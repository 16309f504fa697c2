// Package samples holds the library of illustrative routines served by
// the playground UI. Samples are user-facing content, never executed
// at load: a built-in set compiled into the binary plus an optional
// on-disk directory described by a YAML manifest.
package samples

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Sample is one illustrative routine.
type Sample struct {
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	Runtime     string `json:"runtime,omitempty" yaml:"runtime"`
	File        string `json:"-" yaml:"file"`
	Source      string `json:"source,omitempty" yaml:"-"`
}

type manifest struct {
	Samples []Sample `yaml:"samples"`
}

// Library serves samples. Reload replaces the on-disk set atomically;
// List and Get are safe for concurrent use.
type Library struct {
	mu      sync.RWMutex
	builtin []Sample
	loaded  []Sample
	dir     string
	log     *zap.Logger
}

// NewLibrary creates a Library backed by dir (empty for builtin-only).
func NewLibrary(dir string, log *zap.Logger) *Library {
	if log == nil {
		log = zap.NewNop()
	}
	return &Library{
		builtin: builtinSamples(),
		dir:     dir,
		log:     log,
	}
}

// Reload reads the manifest and sample sources from the library
// directory. A missing directory or manifest leaves the builtin set.
func (l *Library) Reload() error {
	if l.dir == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(l.dir, "manifest.yml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read sample manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse sample manifest: %w", err)
	}

	loaded := make([]Sample, 0, len(m.Samples))
	for _, s := range m.Samples {
		if s.Name == "" || s.File == "" {
			l.log.Warn("skipping manifest entry without name or file",
				zap.String("name", s.Name))
			continue
		}
		src, err := os.ReadFile(filepath.Join(l.dir, filepath.Clean(s.File)))
		if err != nil {
			l.log.Warn("skipping unreadable sample",
				zap.String("name", s.Name), zap.Error(err))
			continue
		}
		s.Source = string(src)
		if s.Runtime == "" {
			s.Runtime = "starlark"
		}
		loaded = append(loaded, s)
	}

	l.mu.Lock()
	l.loaded = loaded
	l.mu.Unlock()
	l.log.Info("sample library reloaded", zap.Int("count", len(loaded)))
	return nil
}

// List returns all samples, builtin first, on-disk entries shadowing
// builtin ones with the same name.
func (l *Library) List() []Sample {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Sample, 0, len(l.builtin)+len(l.loaded))
	shadowed := make(map[string]bool, len(l.loaded))
	for _, s := range l.loaded {
		shadowed[s.Name] = true
	}
	for _, s := range l.builtin {
		if !shadowed[s.Name] {
			out = append(out, s)
		}
	}
	return append(out, l.loaded...)
}

// Get returns the sample with the given name.
func (l *Library) Get(name string) (Sample, bool) {
	for _, s := range l.List() {
		if s.Name == name {
			return s, true
		}
	}
	return Sample{}, false
}
