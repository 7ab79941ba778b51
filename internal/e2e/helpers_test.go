package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"predictd/internal/events"
	"predictd/internal/features"
	"predictd/internal/httpapi"
	"predictd/internal/inference"
	"predictd/internal/resolver"
)

// registry is a toggleable stand-in for the MLflow model registry.
type registry struct {
	srv      *httptest.Server
	up       atomic.Bool
	version  atomic.Value
	artifact atomic.Value
}

func newRegistry(t *testing.T, version string, artifact []byte) *registry {
	t.Helper()
	reg := &registry{}
	reg.version.Store(version)
	reg.artifact.Store(artifact)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/registered-models/get-latest-versions", func(w http.ResponseWriter, r *http.Request) {
		if !reg.up.Load() {
			http.Error(w, "registry offline", http.StatusServiceUnavailable)
			return
		}
		stage := r.URL.Query().Get("stages")
		_ = json.NewEncoder(w).Encode(map[string]any{"model_versions": []map[string]string{{
			"name":          r.URL.Query().Get("name"),
			"version":       reg.version.Load().(string),
			"current_stage": stage,
			"status":        "READY",
		}}})
	})
	mux.HandleFunc("/model-versions/get-artifact", func(w http.ResponseWriter, r *http.Request) {
		if !reg.up.Load() {
			http.Error(w, "registry offline", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(reg.artifact.Load().([]byte))
	})
	reg.srv = httptest.NewServer(mux)
	t.Cleanup(reg.srv.Close)
	return reg
}

type stack struct {
	srv    *httptest.Server
	svc    *inference.Service
	events *events.Memory
}

// newStack wires resolver, service and router the way the serve command does.
func newStack(t *testing.T, kind features.Kind, trackingURI, localPath string) *stack {
	t.Helper()
	schema, _ := features.SchemaFor(kind)
	mem := events.NewMemory(50)
	res := resolver.New(schema, []resolver.Backend{
		resolver.NewRegistryBackend(trackingURI, "", 0),
		resolver.NewLocalBackend(localPath),
	}, resolver.WithPublisher(mem))
	svc, err := inference.New(inference.Config{
		Kind:     kind,
		Name:     "e2e-model",
		Stage:    "Production",
		Resolver: res,
		Events:   mem,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	httpapi.SetEventSource(mem.Events)
	t.Cleanup(func() { httpapi.SetEventSource(nil) })
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return &stack{srv: srv, svc: svc, events: mem}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodGet, url, nil)
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	return do(t, http.MethodPost, url, payload)
}

func do(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	out, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, out
}
