package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"predictd/internal/events"
	"predictd/internal/features"
	"predictd/internal/model"
	"predictd/internal/model/modeltest"
)

// fakeRegistry serves the two MLflow endpoints the registry backend uses.
func fakeRegistry(t *testing.T, versions []modelVersion, artifact []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/registered-models/get-latest-versions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "" || r.URL.Query().Get("stages") == "" {
			http.Error(w, "missing params", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(latestVersionsResponse{ModelVersions: versions})
	})
	mux.HandleFunc("/model-versions/get-artifact", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("path") != DefaultArtifactPath {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(artifact)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolve_RegistryFirst(t *testing.T) {
	srv := fakeRegistry(t, []modelVersion{
		{Name: "UsedCarPricePredictor", Version: "3", CurrentStage: "Production", Status: "READY"},
		{Name: "UsedCarPricePredictor", Version: "7", CurrentStage: "Production", Status: "READY"},
		{Name: "UsedCarPricePredictor", Version: "9", CurrentStage: "Staging", Status: "READY"},
	}, modeltest.PriceJSON)
	local := modeltest.WriteFile(t, "model.json", modeltest.PriceJSON)
	pub := events.NewMemory(0)

	r := New(features.PriceSchema, []Backend{
		NewRegistryBackend(srv.URL, "", time.Second),
		NewLocalBackend(local),
	}, WithPublisher(pub))
	h, err := r.Resolve(context.Background(), "UsedCarPricePredictor", "Production")
	require.NoError(t, err)
	assert.Equal(t, model.BackendRegistry, h.Backend)
	assert.Equal(t, "7", h.Version)
	assert.Equal(t, "Production", h.Stage)
	assert.False(t, h.LoadedAt.IsZero())

	ev := pub.Events()
	require.Len(t, ev, 2)
	assert.Equal(t, events.ResolveAttempt, ev[0].Name)
	assert.Equal(t, events.ResolveSuccess, ev[1].Name)
}

func TestResolve_FallsBackToLocalWhenRegistryUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // unreachable

	local := modeltest.WriteFile(t, "model.json", modeltest.PriceJSON)
	r := New(features.PriceSchema, []Backend{
		NewRegistryBackend(url, "", time.Second),
		NewLocalBackend(local),
	})
	h, err := r.Resolve(context.Background(), "UsedCarPricePredictor", "Production")
	require.NoError(t, err)
	assert.Equal(t, model.BackendLocal, h.Backend)
	assert.Equal(t, local, h.Source)
	assert.Contains(t, h.Version, "sha256:")
}

func TestResolve_FallsBackWhenStageMissing(t *testing.T) {
	srv := fakeRegistry(t, []modelVersion{{Name: "m", Version: "1", CurrentStage: "Staging"}}, modeltest.PriceJSON)
	local := modeltest.WriteFile(t, "model.json", modeltest.PriceJSON)
	r := New(features.PriceSchema, []Backend{NewRegistryBackend(srv.URL, "", time.Second), NewLocalBackend(local)})
	h, err := r.Resolve(context.Background(), "m", "Production")
	require.NoError(t, err)
	assert.Equal(t, model.BackendLocal, h.Backend)
}

func TestResolve_FallsBackWhenRegistryArtifactDoesNotBind(t *testing.T) {
	srv := fakeRegistry(t, []modelVersion{{Name: "m", Version: "2", CurrentStage: "Production"}}, modeltest.PriceJSON)
	local := modeltest.WriteFile(t, "model.yaml", modeltest.RiskYAML)
	r := New(features.RiskSchema, []Backend{NewRegistryBackend(srv.URL, "", time.Second), NewLocalBackend(local)})
	h, err := r.Resolve(context.Background(), "m", "Production")
	require.NoError(t, err)
	assert.Equal(t, model.BackendLocal, h.Backend)
}

func TestResolve_BothFail(t *testing.T) {
	pub := events.NewMemory(0)
	r := New(features.PriceSchema, []Backend{
		NewRegistryBackend("", "", time.Second),
		NewLocalBackend(filepath.Join(t.TempDir(), "missing.json")),
	}, WithPublisher(pub))
	h, err := r.Resolve(context.Background(), "UsedCarPricePredictor", "Production")
	require.Error(t, err)
	assert.Nil(t, h)
	assert.True(t, IsResolutionFailed(err))

	var rf *ResolutionFailedError
	require.ErrorAs(t, err, &rf)
	require.Len(t, rf.Attempts, 2)
	assert.Equal(t, model.BackendRegistry, rf.Attempts[0].Backend)
	assert.Equal(t, OutcomeSkipped, rf.Attempts[0].Outcome)
	assert.Equal(t, model.BackendLocal, rf.Attempts[1].Backend)
	assert.Equal(t, OutcomeFailed, rf.Attempts[1].Outcome)

	ev := pub.Events()
	assert.Equal(t, events.ResolveFailed, ev[len(ev)-1].Name)
}

func TestPickVersion(t *testing.T) {
	v, ok := pickVersion([]modelVersion{
		{Version: "10", CurrentStage: "production"},
		{Version: "2", CurrentStage: "Production"},
		{Version: "11", CurrentStage: "Production", Status: "PENDING_REGISTRATION"},
	}, "Production")
	require.True(t, ok)
	assert.Equal(t, "10", v.Version)

	_, ok = pickVersion(nil, "Production")
	assert.False(t, ok)
}

func TestResolve_StampsLoadTimeFromClock(t *testing.T) {
	local := modeltest.WriteFile(t, "model.json", modeltest.PriceJSON)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	r := New(features.PriceSchema, []Backend{NewLocalBackend(local)}, WithClock(func() time.Time { return fixed }))
	h, err := r.Resolve(context.Background(), "UsedCarPricePredictor", "Production")
	require.NoError(t, err)
	assert.Equal(t, fixed, h.LoadedAt)
}

func TestResolve_RecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	local := modeltest.WriteFile(t, "model.json", modeltest.PriceJSON)
	r := New(features.PriceSchema, []Backend{NewRegistryBackend("", "", 0), NewLocalBackend(local)})
	_, err := r.Resolve(context.Background(), "UsedCarPricePredictor", "Production")
	require.NoError(t, err)
	_, err = New(features.PriceSchema, []Backend{NewLocalBackend(local + ".missing")}).Resolve(context.Background(), "UsedCarPricePredictor", "Production")
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	ok := spans[0]
	assert.Equal(t, "Resolver.Resolve", ok.Name())
	attrs := map[attribute.Key]string{}
	for _, kv := range ok.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "UsedCarPricePredictor", attrs["model.name"])
	assert.Equal(t, "Production", attrs["model.stage"])
	assert.Equal(t, string(model.BackendLocal), attrs["model.backend"])
	assert.Equal(t, codes.Unset, ok.Status().Code)

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "exception", failed.Events()[0].Name)
}
