package manager

import (
	"time"

	"github.com/rs/zerolog"

	"modelbridge/internal/bridge"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Bridge *bridge.Bridge
	// ModelsDir is scanned by ListModels and used to resolve bare model IDs.
	ModelsDir string
	// MaxQueueDepth bounds calls admitted but not yet completed.
	MaxQueueDepth int
	// MaxWait bounds how long Run waits for a queue slot before TooBusy.
	MaxWait time.Duration
	Logger  *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		bridge:    cfg.Bridge,
		modelsDir: cfg.ModelsDir,
	}
	if m.bridge == nil {
		m.bridge = bridge.New(bridge.Config{Logger: cfg.Logger})
	}
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	m.queueCh = make(chan struct{}, m.maxQueueDepth)
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	} else {
		m.log = zerolog.Nop()
	}
	return m
}
