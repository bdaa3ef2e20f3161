package bridge

import (
	"github.com/rs/zerolog"

	"modelbridge/internal/engine"
	"modelbridge/internal/loader"
)

// Config encapsulates all tunables for Bridge construction.
type Config struct {
	// Engine builds sessions. Defaults to the built-in dense engine.
	Engine engine.Engine
	// Loader acquires model files. Defaults to loader.New(LoaderOptions).
	Loader        *loader.Loader
	LoaderOptions loader.Options
	// MaxConcurrent bounds calls executing at once; 0 means unbounded.
	// Waiting happens on the worker goroutine, never in RunModel.
	MaxConcurrent int
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
	// Publisher receives lifecycle events. Defaults to a no-op.
	Publisher EventPublisher
}
