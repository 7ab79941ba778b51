package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"predictd/internal/events"
	"predictd/internal/features"
	"predictd/internal/inference"
	"predictd/internal/model/modeltest"
	"predictd/internal/resolver"
	"predictd/pkg/types"
)

// newService builds a real inference service over a local artifact. When
// start is false the service has no model loaded.
func newService(t *testing.T, kind features.Kind, start bool) *inference.Service {
	t.Helper()
	schema, _ := features.SchemaFor(kind)
	var path string
	switch kind {
	case features.KindRisk:
		path = modeltest.WriteFile(t, "model.yaml", modeltest.RiskYAML)
	default:
		path = modeltest.WriteFile(t, "model.json", modeltest.PriceJSON)
	}
	res := resolver.New(schema, []resolver.Backend{resolver.NewLocalBackend(path)})
	svc, err := inference.New(inference.Config{Kind: kind, Name: "m", Stage: "Production", Resolver: res})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if start {
		if err := svc.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	return svc
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v (%q)", err, w.Body.String())
	}
	return body
}

const priceBody = `{"fields":{"miles":86132,"year":2010,"engine_size":1.5,"make":"toyota","model":"Prius","state":"NB"}}`

func TestPredict_Price(t *testing.T) {
	h := NewMux(newService(t, features.KindPrice, true))
	w := postJSON(h, "/predict", priceBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.PredictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.PredictionID == "" || body.Task != "regression" || len(body.Values) != 1 || body.Class != nil {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Model.Backend != "local" {
		t.Fatalf("backend=%q", body.Model.Backend)
	}
}

func TestPredict_Risk(t *testing.T) {
	h := NewMux(newService(t, features.KindRisk, true))
	w := postJSON(h, "/predict", `{"fields":{"age":50,"sex":"Male","cp":"Typical angina","trestbps":120,"chol":200,"fbs":"no",
		"restecg":"Normal (0)","thalach":150,"exang":false,"oldpeak":1.0,"slope":1,"ca":0,"thal":3}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.PredictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Class == nil || *body.Class != 0 || body.Label != inference.LabelNegative || body.ProbabilityPct == nil {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestPredict_OutOfRangeMaps422(t *testing.T) {
	h := NewMux(newService(t, features.KindPrice, true))
	w := postJSON(h, "/predict", strings.Replace(priceBody, `"year":2010`, `"year":1850`, 1))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	body := decodeError(t, w)
	if body.Field != "year" || body.Value != float64(1850) || body.Code != 422 {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestPredict_UnknownLabelMaps422(t *testing.T) {
	h := NewMux(newService(t, features.KindRisk, true))
	w := postJSON(h, "/predict", `{"fields":{"age":50,"sex":1,"cp":"Severe","trestbps":120,"chol":200,"fbs":0,
		"restecg":0,"thalach":150,"exang":0,"oldpeak":1.0,"slope":1,"ca":0,"thal":3}}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if body := decodeError(t, w); body.Field != "cp" || body.Value != "Severe" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestPredict_MissingFieldMaps422(t *testing.T) {
	h := NewMux(newService(t, features.KindPrice, true))
	w := postJSON(h, "/predict", `{"fields":{"miles":1}}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestPredict_BadRequests(t *testing.T) {
	h := NewMux(newService(t, features.KindPrice, true))

	if w := postJSON(h, "/predict", `{"fields":`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: expected 400, got %d", w.Code)
	}
	if w := postJSON(h, "/predict", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("no fields: expected 400, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString(priceBody))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}

	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	if w := postJSON(h, "/predict", priceBody); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestPredict_NotLoadedMaps503(t *testing.T) {
	h := NewMux(newService(t, features.KindPrice, false))
	w := postJSON(h, "/predict", priceBody)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodPut, "/get_prediction/", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("legacy: expected 503, got %d", w.Code)
	}
}

func TestLegacyPrice_DefaultsAndOverrides(t *testing.T) {
	h := NewMux(newService(t, features.KindPrice, true))

	get := func(q string) (int, types.LegacyPriceResponse) {
		req := httptest.NewRequest(http.MethodPut, "/get_prediction/"+q, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		var body types.LegacyPriceResponse
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		return w.Code, body
	}
	code, defaults := get("")
	if code != http.StatusOK || len(defaults.PredictedPrice) != 1 {
		t.Fatalf("status=%d body=%+v", code, defaults)
	}
	code, explicit := get("?miles=86132&year=2010&engine_size=1.5&make=toyota&model=Prius&state=NB")
	if code != http.StatusOK || explicit.PredictedPrice[0] != defaults.PredictedPrice[0] {
		t.Fatalf("explicit defaults differ: %+v vs %+v", explicit, defaults)
	}
	code, newer := get("?year=2015")
	if code != http.StatusOK || newer.PredictedPrice[0] <= defaults.PredictedPrice[0] {
		t.Fatalf("newer car should cost more: %+v vs %+v", newer, defaults)
	}
	if code, _ := get("?year=1850"); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if code, _ := get("?state=XX"); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestLegacyPrice_NotServedForRisk(t *testing.T) {
	h := NewMux(newService(t, features.KindRisk, true))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/get_prediction/", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSchemaHandler(t *testing.T) {
	h := NewMux(newService(t, features.KindRisk, false))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schema", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.SchemaResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Name != "risk" || body.Task != "classification" || len(body.Fields) != 13 || body.EncoderVersion == "" {
		t.Fatalf("unexpected schema: %+v", body)
	}
	if body.Fields[0].Name != "age" || body.Fields[2].Name != "cp" || len(body.Fields[2].Labels) != 4 {
		t.Fatalf("unexpected fields: %+v", body.Fields[:3])
	}
}

func TestStatusHandler(t *testing.T) {
	h := NewMux(newService(t, features.KindPrice, true))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.State != "ready" || body.Kind != "price" || body.Model == nil || body.Model.Backend != "local" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthAndReady(t *testing.T) {
	h := NewMux(newService(t, features.KindPrice, false))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", w.Code)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("readyz status=%d body=%q", w.Code, w.Body.String())
	}

	h = NewMux(newService(t, features.KindPrice, true))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", w.Code)
	}
}

func TestReloadHandler(t *testing.T) {
	svc := newService(t, features.KindPrice, false)
	h := NewMux(svc)
	w := postJSON(h, "/admin/reload", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.ReloadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !body.Swapped || body.Model.Backend != "local" || !svc.Ready() {
		t.Fatalf("unexpected reload: %+v", body)
	}
}

func TestEventsHandler(t *testing.T) {
	mem := events.NewMemory(10)
	SetEventSource(mem.Events)
	defer SetEventSource(nil)

	schema := features.PriceSchema
	path := modeltest.WriteFile(t, "model.json", modeltest.PriceJSON)
	res := resolver.New(schema, []resolver.Backend{resolver.NewLocalBackend(path)}, resolver.WithPublisher(mem))
	svc, err := inference.New(inference.Config{Kind: features.KindPrice, Name: "m", Stage: "Production", Resolver: res, Events: mem})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/events", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body []types.EventRecord
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	// attempt, success, swap
	if len(body) != 3 || body[2].Name != events.ModelSwapped || body[2].TimeUnix == 0 {
		t.Fatalf("unexpected events: %+v", body)
	}
}
