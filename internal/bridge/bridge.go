package bridge

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"modelbridge/internal/engine"
	"modelbridge/internal/loader"
	"modelbridge/pkg/types"
)

// Bridge dispatches inference calls onto worker goroutines.
type Bridge struct {
	engine    engine.Engine
	loader    *loader.Loader
	log       zerolog.Logger
	publisher EventPublisher
	slots     chan struct{}
	startTime time.Time

	inflight atomic.Int64
	resolved atomic.Uint64
	rejected atomic.Uint64
}

// New constructs a Bridge from cfg, applying defaults for unset fields.
func New(cfg Config) *Bridge {
	b := &Bridge{
		engine:    cfg.Engine,
		loader:    cfg.Loader,
		publisher: cfg.Publisher,
		startTime: time.Now(),
	}
	if b.engine == nil {
		b.engine = engine.Dense{}
	}
	if b.loader == nil {
		b.loader = loader.New(cfg.LoaderOptions)
	}
	if b.publisher == nil {
		b.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		b.log = cfg.Logger.With().Str("component", "bridge").Logger()
	} else {
		b.log = zerolog.Nop()
	}
	if cfg.MaxConcurrent > 0 {
		b.slots = make(chan struct{}, cfg.MaxConcurrent)
	}
	return b
}

// Engine returns the engine name.
func (b *Bridge) Engine() string { return b.engine.Name() }

// Loader returns the loader used for model files.
func (b *Bridge) Loader() *loader.Loader { return b.loader }

// RunModel loads the model at path, runs it on input and reports the
// outcome through done. It returns immediately; all work, including file
// I/O, happens on a new goroutine. done receives exactly one outcome, after
// the model handle and session have been released. A nil done discards the
// outcome.
func (b *Bridge) RunModel(path string, input types.Tensor, done Completion) {
	id := uuid.NewString()
	c := guard(done, id, &b.log)
	in := input.Clone()
	go b.execute(id, path, in, c)
}

// Submit runs req and returns a Promise for its outcome.
func (b *Bridge) Submit(req Request) *Promise {
	p := NewPromise()
	b.RunModel(req.ModelPath(), req.Input(), p)
	return p
}

// Run submits req and waits for the outcome. Cancelling ctx abandons the
// wait only; the call keeps running and still releases its resources.
func (b *Bridge) Run(ctx context.Context, req Request) (types.Tensor, error) {
	return b.Submit(req).Wait(ctx)
}

func (b *Bridge) execute(id, path string, input types.Tensor, c Completion) {
	release := b.admit()
	defer release()

	start := time.Now()
	b.inflight.Add(1)
	inflightRuns.Inc()
	b.log.Debug().Str("call_id", id).Str("model", path).Ints64("shape", input.Shape).Msg("run start")
	b.publisher.Publish(Event{Name: EventRunStart, CallID: id, ModelPath: path, Fields: map[string]any{}})

	out, fail := b.process(id, path, input)

	b.inflight.Add(-1)
	inflightRuns.Dec()
	dur := time.Since(start)
	recordOutcome(fail, dur.Seconds())
	if fail != nil {
		b.rejected.Add(1)
		b.log.Warn().Str("call_id", id).Str("model", path).Str("kind", fail.Kind.String()).
			Dur("dur", dur).Err(fail).Msg("run rejected")
		b.publisher.Publish(Event{Name: EventRunRejected, CallID: id, ModelPath: path, Fields: map[string]any{
			"kind": fail.Kind.String(), "error": fail.Message, "dur_ms": int(dur / time.Millisecond),
		}})
		c.Reject(fail)
		return
	}
	b.resolved.Add(1)
	b.log.Info().Str("call_id", id).Str("model", path).Ints64("output_shape", out.Shape).
		Dur("dur", dur).Msg("run resolved")
	b.publisher.Publish(Event{Name: EventRunResolved, CallID: id, ModelPath: path, Fields: map[string]any{
		"dur_ms": int(dur / time.Millisecond),
	}})
	c.Resolve(out)
}

// process performs load, session construction, validation and run. Every
// resource acquired here is released before it returns, including when a
// session method panics.
func (b *Bridge) process(id, path string, input types.Tensor) (out types.Tensor, fail *Failure) {
	// Registered first so it runs after the release defers below.
	defer func() {
		if r := recover(); r != nil {
			out = types.Tensor{}
			fail = &Failure{Kind: KindEngineFailure, Message: fmt.Sprintf("engine %s panicked: %v", b.engine.Name(), r)}
		}
	}()

	h, err := b.loader.Load(path)
	if err != nil {
		return types.Tensor{}, fromLoadError(err)
	}
	defer func() {
		if err := h.Release(); err != nil {
			releaseErrors.WithLabelValues("handle").Inc()
			b.log.Error().Str("call_id", id).Str("model", path).Err(err).Msg("release model handle")
		}
	}()

	sess, fail := b.newSession(h.Bytes())
	if fail != nil {
		return types.Tensor{}, fail
	}
	defer func() {
		if err := sess.Close(); err != nil {
			releaseErrors.WithLabelValues("session").Inc()
			b.log.Error().Str("call_id", id).Str("model", path).Err(err).Msg("close session")
		}
	}()

	if err := checkShape(sess.InputShape(), input); err != nil {
		return types.Tensor{}, &Failure{Kind: KindShapeMismatch, Message: err.Error(), Cause: err}
	}
	return b.runSession(sess, input)
}

func (b *Bridge) newSession(model []byte) (sess engine.Session, fail *Failure) {
	defer func() {
		if r := recover(); r != nil {
			sess = nil
			fail = &Failure{Kind: KindSession, Message: fmt.Sprintf("engine %s panicked building session: %v", b.engine.Name(), r)}
		}
	}()
	s, err := b.engine.NewSession(model)
	if err != nil {
		return nil, &Failure{Kind: KindSession, Message: fmt.Sprintf("%s session: %v", b.engine.Name(), err), Cause: err}
	}
	if s == nil {
		return nil, &Failure{Kind: KindSession, Message: fmt.Sprintf("%s session: engine returned no session", b.engine.Name())}
	}
	return s, nil
}

func (b *Bridge) runSession(sess engine.Session, input types.Tensor) (out types.Tensor, fail *Failure) {
	defer func() {
		if r := recover(); r != nil {
			out = types.Tensor{}
			fail = &Failure{Kind: KindEngineFailure, Message: fmt.Sprintf("engine %s panicked during run: %v", b.engine.Name(), r)}
		}
	}()
	res, err := sess.Run(input)
	if err != nil {
		return types.Tensor{}, &Failure{Kind: KindEngineFailure, Message: fmt.Sprintf("%s run: %v", b.engine.Name(), err), Cause: err}
	}
	return res, nil
}

// checkShape validates in against the session's expected shape; dims of
// -1 in want accept any positive size.
func checkShape(want []int64, in types.Tensor) error {
	if len(in.Shape) != len(want) {
		return fmt.Errorf("input rank %d does not match model rank %d (model expects %v, got %v)", len(in.Shape), len(want), want, in.Shape)
	}
	for i, d := range in.Shape {
		if d <= 0 || (want[i] >= 0 && want[i] != d) {
			return fmt.Errorf("input shape %v does not match model input shape %v", in.Shape, want)
		}
	}
	if n := in.NumElements(); n < 0 || n != int64(len(in.Values)) {
		return fmt.Errorf("input shape %v needs %d values, got %d", in.Shape, n, len(in.Values))
	}
	return nil
}
