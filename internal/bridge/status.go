package bridge

import (
	"time"

	"modelbridge/pkg/types"
)

// Status builds a status response for /status.
func (b *Bridge) Status() types.StatusResponse {
	ls := b.loader.Stats()
	now := time.Now()
	return types.StatusResponse{
		Engine:          b.engine.Name(),
		Mmap:            b.loader.Mmap(),
		Inflight:        b.inflight.Load(),
		Resolved:        b.resolved.Load(),
		Rejected:        b.rejected.Load(),
		HandlesAcquired: ls.Acquired,
		HandlesReleased: ls.Released,
		HandlesOpen:     ls.Open,
		UptimeSeconds:   int64(now.Sub(b.startTime) / time.Second),
		ServerTimeUnix:  now.Unix(),
	}
}

// Ready reports whether the bridge can serve calls.
func (b *Bridge) Ready() bool { return b.engine != nil && b.loader != nil }
