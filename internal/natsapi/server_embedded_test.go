package natsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelbridge/internal/bridge"
	"modelbridge/internal/engine"
	"modelbridge/internal/manager"
	"modelbridge/pkg/types"
)

// runNATS starts an in-process NATS server on a random port.
func runNATS(t *testing.T) string {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns.ClientURL()
}

func connect(t *testing.T, url string) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestServer_RequestReply(t *testing.T) {
	url := runNATS(t)
	dir := t.TempDir()
	b, err := engine.EncodeDense(engine.DenseModel{Inputs: 2, Outputs: 2, Weights: []float32{0, 1, 1, 0}, Bias: []float32{0, 0}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "swap.dmod"), b, 0o644))
	mgr := manager.New(bridge.New(bridge.Config{}), dir)

	s, err := Start(context.Background(), mgr, Options{URL: url, Subject: "test.run"})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "test.run", s.Subject())

	nc := connect(t, url)
	msg, err := nc.Request("test.run", []byte(`{"model_path":"swap.dmod","input":{"values":[1,2]}}`), 5*time.Second)
	require.NoError(t, err)
	var res types.RunResponse
	require.NoError(t, json.Unmarshal(msg.Data, &res))
	assert.Equal(t, []float32{2, 1}, res.Output.Values)

	msg, err = nc.Request("test.run", []byte(`{"model_path":"missing.dmod","input":{"values":[1,2]}}`), 5*time.Second)
	require.NoError(t, err)
	er := decodeError(t, msg.Data)
	assert.Equal(t, http.StatusNotFound, er.Code)
	assert.Equal(t, "not_found", er.Kind)
}

func TestServer_CloseAnswersInFlightRequests(t *testing.T) {
	url := runNATS(t)
	started := make(chan struct{})
	r := runnerFunc(func(ctx context.Context, _ types.RunRequest) (types.RunResponse, error) {
		close(started)
		<-ctx.Done()
		return types.RunResponse{}, ctx.Err()
	})
	s, err := Start(context.Background(), r, Options{URL: url})
	require.NoError(t, err)

	nc := connect(t, url)
	type result struct {
		msg *nats.Msg
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := nc.Request(DefaultSubject, []byte(`{"model_path":"/m","input":{"values":[1]}}`), 5*time.Second)
		done <- result{msg, err}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the runner")
	}
	require.NoError(t, s.Close())

	res := <-done
	require.NoError(t, res.err, "in-flight request must get a reply")
	er := decodeError(t, res.msg.Data)
	assert.Equal(t, http.StatusServiceUnavailable, er.Code)
	assert.Equal(t, "shutdown", er.Kind)

	// a second Close is a no-op
	assert.NoError(t, s.Close())
}
