package config

import (
	"context"
)

type contextKey string

const managerCtxKey contextKey = "config-manager"

// ContextWithManager returns a context carrying the given manager.
func ContextWithManager(ctx context.Context, manager *Manager) context.Context {
	return context.WithValue(ctx, managerCtxKey, manager)
}

// ManagerFromContext returns the manager carried by the context, the
// process-wide manager when the context has none, or nil when neither
// exists.
func ManagerFromContext(ctx context.Context) *Manager {
	if manager, ok := ctx.Value(managerCtxKey).(*Manager); ok {
		return manager
	}
	return GetManager()
}

// FromContext returns the current configuration for the context's
// manager, or nil when no manager is available.
func FromContext(ctx context.Context) *Config {
	manager := ManagerFromContext(ctx)
	if manager == nil {
		return nil
	}
	return manager.Get()
}
