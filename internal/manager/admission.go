package manager

import (
	"context"
	"sync"
	"time"
)

// reserve takes a queue slot, waiting at most maxWait. The returned release
// func frees the slot; calling it more than once is a no-op.
func (m *Manager) reserve(ctx context.Context, model string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	// Fast path: free slot
	select {
	case m.queueCh <- struct{}{}:
		return m.releaseFunc(), nil
	default:
	}
	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case m.queueCh <- struct{}{}:
		return m.releaseFunc(), nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{model: model}
	}
}

func (m *Manager) releaseFunc() func() {
	var once sync.Once
	return func() { once.Do(func() { <-m.queueCh }) }
}

// QueueDepth returns the number of calls holding a queue slot.
func (m *Manager) QueueDepth() int { return len(m.queueCh) }
