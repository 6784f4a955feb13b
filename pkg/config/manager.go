package config

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openagent/openagent/pkg/logger"
)

// reloadDebounce coalesces rapid file change events into one reload.
const reloadDebounce = 100 * time.Millisecond

// Manager owns a resolved configuration and keeps it current. It
// reloads when a watched source changes and hands out the latest
// aggregate without locking on the read path.
type Manager struct {
	service   Service
	sources   []Source
	current   atomic.Value // *Config
	callbacks []func(*Config)
	mu        sync.Mutex
	reloadMu  sync.Mutex
	closeOnce sync.Once
	cancel    context.CancelFunc
	debounce  *time.Timer
}

// NewManager creates a manager around the given service.
func NewManager(service Service) *Manager {
	return &Manager{service: service}
}

// Load resolves configuration from the sources and starts watching the
// ones that support it. The sources are retained for later reloads.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	cfg, err := m.service.Load(ctx, sources...)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sources = make([]Source, len(sources))
	copy(m.sources, sources)
	m.mu.Unlock()
	m.current.Store(cfg)

	// A repeated Load replaces the watch context; stop the previous
	// watchers before wiring the new sources.
	if m.cancel != nil {
		m.cancel()
	}
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.startWatching(watchCtx)
	return cfg, nil
}

// Get returns the current configuration. It is safe for concurrent use
// and returns nil before the first successful Load.
func (m *Manager) Get() *Config {
	cfg, _ := m.current.Load().(*Config)
	return cfg
}

// OnChange registers a callback invoked with the new aggregate after
// every successful reload.
func (m *Manager) OnChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Reload re-resolves configuration from the retained sources. On
// failure the previous aggregate stays current.
func (m *Manager) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	m.mu.Lock()
	sources := make([]Source, len(m.sources))
	copy(sources, m.sources)
	m.mu.Unlock()

	cfg, err := m.service.Load(ctx, sources...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	m.current.Store(cfg)

	m.mu.Lock()
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()
	for _, callback := range callbacks {
		callback(cfg)
	}
	return nil
}

func (m *Manager) startWatching(ctx context.Context) {
	log := logger.FromContext(ctx)
	m.mu.Lock()
	sources := make([]Source, len(m.sources))
	copy(sources, m.sources)
	m.mu.Unlock()

	for _, source := range sources {
		err := source.Watch(ctx, func() {
			m.scheduleReload(ctx)
		})
		if err != nil {
			log.Warn("failed to watch configuration source", "source", source.Type(), "error", err)
		}
	}
}

func (m *Manager) scheduleReload(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.debounce != nil {
		m.debounce.Stop()
	}
	m.debounce = time.AfterFunc(reloadDebounce, func() {
		if err := m.Reload(ctx); err != nil {
			logger.FromContext(ctx).Warn("configuration reload failed, keeping previous state", "error", err)
		}
	})
}

// Close stops watching and releases every retained source. Idempotent.
func (m *Manager) Close() error {
	var closeErr error
	m.closeOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		m.mu.Lock()
		if m.debounce != nil {
			m.debounce.Stop()
		}
		sources := m.sources
		m.sources = nil
		m.mu.Unlock()
		for _, source := range sources {
			if err := source.Close(); err != nil && closeErr == nil {
				closeErr = err
			}
		}
	})
	return closeErr
}
