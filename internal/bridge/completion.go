package bridge

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"modelbridge/pkg/types"
)

// Completion receives the outcome of one RunModel call. The bridge calls
// exactly one of Resolve or Reject, exactly once, from a worker goroutine.
// Implementations should return promptly.
type Completion interface {
	Resolve(out types.Tensor)
	Reject(f *Failure)
}

// CompletionFuncs adapts a pair of functions to Completion. Nil funcs drop
// the corresponding outcome.
type CompletionFuncs struct {
	OnResolve func(types.Tensor)
	OnReject  func(*Failure)
}

func (c CompletionFuncs) Resolve(out types.Tensor) {
	if c.OnResolve != nil {
		c.OnResolve(out)
	}
}

func (c CompletionFuncs) Reject(f *Failure) {
	if c.OnReject != nil {
		c.OnReject(f)
	}
}

// onceCompletion forwards only the first outcome to the wrapped Completion.
// A second delivery is a bridge bug; it is logged and dropped.
type onceCompletion struct {
	c      Completion
	callID string
	log    *zerolog.Logger
	fired  atomic.Bool
}

func guard(c Completion, callID string, log *zerolog.Logger) *onceCompletion {
	if c == nil {
		c = CompletionFuncs{}
	}
	return &onceCompletion{c: c, callID: callID, log: log}
}

func (o *onceCompletion) first(outcome string) bool {
	if o.fired.CompareAndSwap(false, true) {
		return true
	}
	duplicateDeliveries.Inc()
	o.log.Error().Str("call_id", o.callID).Str("outcome", outcome).Msg("completion already delivered; dropping")
	return false
}

func (o *onceCompletion) Resolve(out types.Tensor) {
	if o.first("resolve") {
		o.c.Resolve(out)
	}
}

func (o *onceCompletion) Reject(f *Failure) {
	if o.first("reject") {
		o.c.Reject(f)
	}
}

// Promise is a channel-backed Completion. It must receive at most one
// outcome; the bridge guarantees that for Promises it is handed.
type Promise struct {
	done chan struct{}
	out  types.Tensor
	fail *Failure
}

// NewPromise returns an unresolved Promise.
func NewPromise() *Promise { return &Promise{done: make(chan struct{})} }

func (p *Promise) Resolve(out types.Tensor) {
	p.out = out
	close(p.done)
}

func (p *Promise) Reject(f *Failure) {
	p.fail = f
	close(p.done)
}

// Done is closed once the outcome is available.
func (p *Promise) Done() <-chan struct{} { return p.done }

// Wait blocks until the outcome is available or ctx is done. A context
// error only abandons the wait; the call itself still runs to completion.
func (p *Promise) Wait(ctx context.Context) (types.Tensor, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return types.Tensor{}, ctx.Err()
	}
	if p.fail != nil {
		return types.Tensor{}, p.fail
	}
	return p.out, nil
}
