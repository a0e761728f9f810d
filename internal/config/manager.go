package config

import (
	"sync/atomic"

	"auth-gateway/internal/logger"
)

// Manager hands out immutable configuration snapshots and is the single
// entry point for runtime reconfiguration. Ad hoc field mutation is not
// supported; operational tooling calls Reload with a whole new snapshot.
type Manager struct {
	current atomic.Pointer[Config]
	version atomic.Uint64
}

func NewManager(cfg Config) *Manager {
	m := &Manager{}
	m.current.Store(&cfg)
	m.version.Store(1)
	return m
}

// Snapshot returns the current configuration. The returned pointer must
// be treated as read-only; a request works from one snapshot throughout.
func (m *Manager) Snapshot() *Config {
	return m.current.Load()
}

// Version returns the current configuration version, starting at 1.
func (m *Manager) Version() uint64 {
	return m.version.Load()
}

// Reload swaps in a new snapshot atomically and bumps the version.
// In-flight requests keep the snapshot they started with.
func (m *Manager) Reload(cfg Config) uint64 {
	m.current.Store(&cfg)
	v := m.version.Add(1)
	logger.Info("configuration reloaded", map[string]any{
		"version": v,
	})
	return v
}
