package config

import (
	"context"
	"fmt"
	"sync"
)

var (
	globalManager *Manager
	globalMu      sync.RWMutex
	initOnce      sync.Once
)

// Initialize loads the process-wide configuration exactly once.
// Subsequent calls return the already-initialized manager regardless of
// arguments. A nil service gets the default one.
func Initialize(ctx context.Context, service Service, sources ...Source) (*Manager, error) {
	var initErr error
	initOnce.Do(func() {
		if service == nil {
			service = NewService()
		}
		manager := NewManager(service)
		if _, err := manager.Load(ctx, sources...); err != nil {
			initErr = fmt.Errorf("failed to initialize configuration: %w", err)
			return
		}
		globalMu.Lock()
		globalManager = manager
		globalMu.Unlock()
	})
	if initErr != nil {
		return nil, initErr
	}
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalManager == nil {
		return nil, fmt.Errorf("configuration initialization previously failed")
	}
	return globalManager, nil
}

// Get returns the process-wide configuration. It panics when called
// before a successful Initialize; that is a programming error, not a
// runtime condition.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalManager == nil {
		panic("config.Get called before config.Initialize")
	}
	return globalManager.Get()
}

// GetManager returns the process-wide manager, or nil before
// Initialize.
func GetManager() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// Close shuts down the process-wide manager and allows a later
// re-initialization.
func Close() error {
	globalMu.Lock()
	manager := globalManager
	globalManager = nil
	initOnce = sync.Once{}
	globalMu.Unlock()
	if manager == nil {
		return nil
	}
	return manager.Close()
}

// resetForTest clears the global state between tests.
func resetForTest() {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalManager != nil {
		_ = globalManager.Close()
	}
	globalManager = nil
	initOnce = sync.Once{}
}
