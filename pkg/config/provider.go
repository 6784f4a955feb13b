package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source as an opaque nested
	// mapping.
	Load() (map[string]any, error)
	// Watch monitors the source for changes.
	Watch(ctx context.Context, callback func()) error
	// Type returns the source type identifier.
	Type() SourceType
	// Close releases any resources held by the source.
	Close() error
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceTOML SourceType = "toml"
	SourceEnv  SourceType = "env"
)

// tomlProvider implements Source for TOML document files.
type tomlProvider struct {
	path      string
	watcher   *Watcher
	watcherMu sync.Mutex
	watchOnce sync.Once
	closeOnce sync.Once
}

// NewTOMLProvider creates a configuration source backed by a TOML file.
func NewTOMLProvider(path string) Source {
	return &tomlProvider{path: path}
}

// Load parses the TOML document into a nested mapping. A missing or
// malformed file is an error the caller downgrades to a warning; the
// source then contributes nothing to the load.
func (t *tomlProvider) Load() (map[string]any, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", t.path)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", t.path, err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", t.path, err)
	}
	return doc, nil
}

// Watch monitors the TOML file for changes.
func (t *tomlProvider) Watch(ctx context.Context, callback func()) error {
	var watchErr error
	t.watchOnce.Do(func() {
		t.watcherMu.Lock()
		defer t.watcherMu.Unlock()
		watcher, err := NewWatcher(t.path)
		if err != nil {
			watchErr = fmt.Errorf("failed to create watcher: %w", err)
			return
		}
		t.watcher = watcher
		if err := t.watcher.Start(ctx); err != nil {
			watchErr = fmt.Errorf("failed to watch config file: %w", err)
			return
		}
	})
	if watchErr != nil {
		return watchErr
	}
	t.watcherMu.Lock()
	defer t.watcherMu.Unlock()
	if t.watcher != nil {
		t.watcher.OnChange(callback)
	}
	return nil
}

// Type returns the source type identifier.
func (t *tomlProvider) Type() SourceType {
	return SourceTOML
}

// Close releases the file watcher, if any.
func (t *tomlProvider) Close() error {
	var closeErr error
	t.closeOnce.Do(func() {
		t.watcherMu.Lock()
		defer t.watcherMu.Unlock()
		if t.watcher != nil {
			closeErr = t.watcher.Close()
			t.watcher = nil
		}
	})
	return closeErr
}

// envProvider implements Source for process environment variables,
// optionally seeded from a .env file.
type envProvider struct {
	dotenvOnce sync.Once
}

// NewEnvProvider creates a configuration source backed by the process
// environment. A .env file in the working directory is loaded first
// when present; variables already set in the environment win.
func NewEnvProvider() Source {
	return &envProvider{}
}

// Load snapshots the environment as a flat mapping.
func (e *envProvider) Load() (map[string]any, error) {
	e.dotenvOnce.Do(func() {
		// Best effort; a missing .env file is the normal case.
		_ = godotenv.Load()
	})
	out := make(map[string]any)
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		out[key] = value
	}
	return out, nil
}

// Watch is not implemented: the environment does not change at runtime.
func (e *envProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

// Type returns the source type identifier.
func (e *envProvider) Type() SourceType {
	return SourceEnv
}

// Close releases any resources held by the source.
func (e *envProvider) Close() error {
	return nil
}

// staticEnvProvider serves a fixed mapping. Used by tests and by
// callers that assemble environment-style input themselves, such as a
// parsed command line.
type staticEnvProvider struct {
	values map[string]string
}

// NewStaticEnvProvider creates an environment-style source from a
// fixed mapping.
func NewStaticEnvProvider(values map[string]string) Source {
	return &staticEnvProvider{values: values}
}

func (s *staticEnvProvider) Load() (map[string]any, error) {
	out := make(map[string]any, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out, nil
}

func (s *staticEnvProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

func (s *staticEnvProvider) Type() SourceType {
	return SourceEnv
}

func (s *staticEnvProvider) Close() error {
	return nil
}
