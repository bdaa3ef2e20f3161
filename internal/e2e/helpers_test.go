package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"modelbridge/internal/bridge"
	"modelbridge/internal/engine"
	"modelbridge/internal/httpapi"
	"modelbridge/internal/manager"
	"modelbridge/pkg/types"
)

// createModelsDir writes a dense model per name into a temp dir. Each model
// maps a [1,n] input to [1,n] by scaling with k.
func createModelsDir(t *testing.T, n int, k float32, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	w := make([]float32, n*n)
	for i := 0; i < n; i++ {
		w[i*n+i] = k
	}
	b, err := engine.EncodeDense(engine.DenseModel{Inputs: n, Outputs: n, Weights: w, Bias: make([]float32, n)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", name, err)
		}
	}
	return dir
}

func newServerForDir(t *testing.T, modelsDir string, bcfg bridge.Config, mcfg manager.ManagerConfig) (*httptest.Server, *manager.Manager) {
	t.Helper()
	mcfg.Bridge = bridge.New(bcfg)
	mcfg.ModelsDir = modelsDir
	mgr := manager.NewWithConfig(mcfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	return srv, mgr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

// gateEngine runs the dense engine but holds each run until gate closes.
type gateEngine struct {
	gate    chan struct{}
	started chan struct{}
}

func (g gateEngine) Name() string { return "gate" }

func (g gateEngine) NewSession(model []byte) (engine.Session, error) {
	s, err := engine.Dense{}.NewSession(model)
	if err != nil {
		return nil, err
	}
	return gateSession{Session: s, g: g}, nil
}

type gateSession struct {
	engine.Session
	g gateEngine
}

func (s gateSession) Run(in types.Tensor) (types.Tensor, error) {
	s.g.started <- struct{}{}
	<-s.g.gate
	return s.Session.Run(in)
}
