package manager

import (
	"time"

	"github.com/rs/zerolog"

	"modelbridge/internal/bridge"
)

type Manager struct {
	bridge    *bridge.Bridge
	modelsDir string
	log       zerolog.Logger

	// Queue config
	maxQueueDepth int
	maxWait       time.Duration
	queueCh       chan struct{}
}

// New builds a Manager over b with package defaults for queueing.
func New(b *bridge.Bridge, modelsDir string) *Manager {
	return NewWithConfig(ManagerConfig{Bridge: b, ModelsDir: modelsDir})
}

// Bridge returns the underlying bridge.
func (m *Manager) Bridge() *bridge.Bridge { return m.bridge }

// ModelsDir returns the configured models directory, possibly empty.
func (m *Manager) ModelsDir() string { return m.modelsDir }
