package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"modelbridge/internal/engine"
	"modelbridge/pkg/types"
)

// writeFile writes content to dir/name and returns its path.
func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, content, 0o644))
	return p
}

// scaleModel multiplies a [1,n] input elementwise by k and adds b.
func scaleModel(t *testing.T, n int, k, b float32) []byte {
	t.Helper()
	w := make([]float32, n*n)
	bias := make([]float32, n)
	for i := 0; i < n; i++ {
		w[i*n+i] = k
		bias[i] = b
	}
	out, err := engine.EncodeDense(engine.DenseModel{Inputs: n, Outputs: n, Weights: w, Bias: bias})
	require.NoError(t, err)
	return out
}

// countingEngine wraps another engine and counts collaborator calls.
type countingEngine struct {
	inner    engine.Engine
	sessions atomic.Int64
	runs     atomic.Int64
	closes   atomic.Int64
	runErr   error
	runPanic bool
	// shapePanic and closePanic make InputShape and Close panic.
	shapePanic bool
	closePanic bool
	// dynamic makes InputShape report -1 for every dimension.
	dynamic bool
	// lastShape is the input shape handed to the most recent Run.
	mu        sync.Mutex
	lastShape []int64
	// block, when set, is received from before each run.
	block chan struct{}
}

func (c *countingEngine) Name() string { return "counting" }

func (c *countingEngine) NewSession(model []byte) (engine.Session, error) {
	c.sessions.Add(1)
	s, err := c.inner.NewSession(model)
	if err != nil {
		return nil, err
	}
	return &countingSession{inner: s, e: c}, nil
}

type countingSession struct {
	inner engine.Session
	e     *countingEngine
}

func (s *countingSession) InputShape() []int64 {
	if s.e.shapePanic {
		panic("shape boom")
	}
	shape := s.inner.InputShape()
	if s.e.dynamic {
		for i := range shape {
			shape[i] = -1
		}
	}
	return shape
}

func (s *countingSession) Run(input types.Tensor) (types.Tensor, error) {
	s.e.runs.Add(1)
	s.e.mu.Lock()
	s.e.lastShape = append([]int64(nil), input.Shape...)
	s.e.mu.Unlock()
	if s.e.block != nil {
		<-s.e.block
	}
	if s.e.runPanic {
		panic("boom")
	}
	if s.e.runErr != nil {
		return types.Tensor{}, s.e.runErr
	}
	if s.e.dynamic {
		return input.Clone(), nil
	}
	return s.inner.Run(input)
}

func (s *countingSession) Close() error {
	s.e.closes.Add(1)
	if s.e.closePanic {
		panic("close boom")
	}
	return s.inner.Close()
}

func (c *countingEngine) seenShape() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastShape
}

// recorder is a Completion that counts deliveries.
type recorder struct {
	mu       sync.Mutex
	resolves int
	rejects  int
	out      types.Tensor
	fail     *Failure
	done     chan struct{}
	once     sync.Once
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{})} }

func (r *recorder) Resolve(out types.Tensor) {
	r.mu.Lock()
	r.resolves++
	r.out = out
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

func (r *recorder) Reject(f *Failure) {
	r.mu.Lock()
	r.rejects++
	r.fail = f
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("completion never fired")
	}
	// give a buggy second delivery a chance to show up
	time.Sleep(10 * time.Millisecond)
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolves, r.rejects
}

var errRun = errors.New("kernel exploded")

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}
