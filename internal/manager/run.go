package manager

import (
	"context"
	"time"

	"modelbridge/internal/bridge"
	"modelbridge/pkg/types"
)

// Run validates req, takes a queue slot and waits for the bridge outcome.
// Cancelling ctx abandons the wait; the queue slot is held until the call
// itself completes so abandoned calls still count against the queue.
func (m *Manager) Run(ctx context.Context, req types.RunRequest) (types.RunResponse, error) {
	path := m.ResolvePath(req.ModelPath)
	r, err := bridge.NewRequest(path, req.Input)
	if err != nil {
		return types.RunResponse{}, err
	}
	release, err := m.reserve(ctx, path)
	if err != nil {
		if IsTooBusy(err) {
			m.log.Warn().Str("model", path).Int("queue_depth", m.QueueDepth()).Msg("queue full")
		}
		return types.RunResponse{}, err
	}

	start := time.Now()
	p := m.bridge.Submit(r)
	go func() {
		<-p.Done()
		release()
	}()
	out, err := p.Wait(ctx)
	if err != nil {
		return types.RunResponse{}, err
	}
	return types.RunResponse{Output: out, DurationMS: time.Since(start).Milliseconds()}, nil
}
