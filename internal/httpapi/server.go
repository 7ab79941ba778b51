package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"predictd/internal/features"
	"predictd/internal/inference"
	"predictd/internal/model"
	"predictd/internal/resolver"
	"predictd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *inference.Service implements it.
type Service interface {
	Kind() features.Kind
	Schema() *features.Schema
	Encoder() *features.Encoder
	PredictFields(ctx context.Context, raw features.Fields) (inference.Result, bool, error)
	Reload(ctx context.Context) (*model.Handle, error)
	Handle() *model.Handle
	Status() types.StatusResponse
	Ready() bool
}

// NewMux builds the router for svc.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	h := &handlers{svc: svc}
	r.Post("/predict", h.predict)
	r.Put("/get_prediction/", h.legacyPrice)
	r.Get("/schema", h.schema)
	r.Get("/status", h.status)
	r.Post("/admin/reload", h.reload)
	if eventSource != nil {
		r.Get("/admin/events", h.events)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	if swaggerEnabled {
		MountSwagger(r)
	}
	return r
}

type handlers struct {
	svc Service
}

// predict godoc
// @Summary      Predict
// @Description  Validates and encodes the submitted fields against the served schema and runs the model.
// @Tags         predictions
// @Accept       json
// @Produce      json
// @Param        body  body      types.PredictRequest  true  "Raw input fields"
// @Success      200   {object}  types.PredictResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      415   {object}  types.ErrorResponse
// @Failure      422   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Failure      503   {object}  types.ErrorResponse
// @Router       /predict [post]
func (h *handlers) predict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lvl := requestLogLevel(r)
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		IncrementRejected("media_type")
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	// Limit body size (configurable, default 1MiB)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var req types.PredictRequest
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			IncrementRejected("body_too_large")
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		IncrementRejected("bad_json")
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Fields == nil {
		IncrementRejected("bad_json")
		writeJSONError(w, http.StatusBadRequest, `"fields" object is required`)
		return
	}
	logInputs(r, lvl, req.Fields)
	res, cached, ok := h.run(w, r, lvl, start, features.Fields(req.Fields))
	if !ok {
		return
	}
	id := uuid.NewString()
	writeJSON(w, http.StatusOK, res.Response(id, cached))
	logPrediction(r, lvl, http.StatusOK, start, id, nil)
}

// legacyPrice godoc
// @Summary      Legacy price prediction
// @Description  Query-parameter form of the price model. Missing parameters take their documented defaults.
// @Tags         predictions
// @Produce      json
// @Param        miles        query     int     false  "Odometer reading"       default(86132)
// @Param        year         query     int     false  "Model year"             default(2010)
// @Param        engine_size  query     number  false  "Engine size in litres"  default(1.5)
// @Param        make         query     string  false  "Manufacturer"           default(toyota)
// @Param        model        query     string  false  "Model"                  default(Prius)
// @Param        state        query     string  false  "Registration state"     default(NB)
// @Success      200  {object}  types.LegacyPriceResponse
// @Failure      404  {object}  types.ErrorResponse
// @Failure      422  {object}  types.ErrorResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /get_prediction/ [put]
func (h *handlers) legacyPrice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lvl := requestLogLevel(r)
	if h.svc.Kind() != features.KindPrice {
		writeJSONError(w, http.StatusNotFound, "this server does not serve the price model")
		return
	}
	raw := features.Fields{}
	for k, vs := range r.URL.Query() {
		if k == "log" || len(vs) == 0 {
			continue
		}
		raw[k] = vs[0]
	}
	raw = h.svc.Schema().WithDefaults(raw)
	logInputs(r, lvl, raw)
	res, _, ok := h.run(w, r, lvl, start, raw)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, types.LegacyPriceResponse{PredictedPrice: res.Values})
	logPrediction(r, lvl, http.StatusOK, start, "", nil)
}

// run calls the service and writes the error response on failure.
func (h *handlers) run(w http.ResponseWriter, r *http.Request, lvl LogLevel, start time.Time, raw features.Fields) (inference.Result, bool, bool) {
	ctx, cancel := predictContext(r)
	defer cancel()
	res, cached, err := h.svc.PredictFields(ctx, raw)
	if err == nil {
		return res, cached, true
	}
	// Client went away; nothing to write.
	if r.Context().Err() != nil {
		return inference.Result{}, false, false
	}
	body := errorResponse(err)
	switch body.Code {
	case http.StatusUnprocessableEntity:
		IncrementRejected("invalid_input")
	case http.StatusServiceUnavailable:
		IncrementRejected("not_loaded")
	}
	writeErrorResponse(w, body)
	logPrediction(r, lvl, body.Code, start, "", err)
	return inference.Result{}, false, false
}

// schema godoc
// @Summary      Input schema
// @Description  Ordered field list with bounds, domains and accepted labels.
// @Tags         info
// @Produce      json
// @Success      200  {object}  types.SchemaResponse
// @Router       /schema [get]
func (h *handlers) schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SchemaResponse(h.svc.Schema(), h.svc.Encoder()))
}

// SchemaResponse describes s and the labels enc accepts for it.
func SchemaResponse(s *features.Schema, enc *features.Encoder) types.SchemaResponse {
	out := types.SchemaResponse{Name: s.Name(), Task: string(s.Task()), EncoderVersion: enc.Version()}
	for _, f := range s.Fields() {
		out.Fields = append(out.Fields, types.FieldSpec{
			Name:    f.Name,
			Type:    f.Type.String(),
			Min:     f.Min,
			Max:     f.Max,
			Domain:  f.Domain,
			Codes:   f.Codes,
			Labels:  enc.Labels(f.Name),
			Default: f.Default,
			Help:    f.Help,
		})
	}
	return out
}

// status godoc
// @Summary      Service status
// @Tags         info
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// reload godoc
// @Summary      Reload the model
// @Description  Re-resolves the model (registry, then local) and swaps it in on success. A failed reload keeps the current model.
// @Tags         admin
// @Produce      json
// @Success      200  {object}  types.ReloadResponse
// @Failure      502  {object}  types.ReloadErrorResponse
// @Router       /admin/reload [post]
func (h *handlers) reload(w http.ResponseWriter, r *http.Request) {
	before := h.svc.Handle()
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	nh, err := h.svc.Reload(ctx)
	if err != nil {
		zlog.Warn().Err(err).Msg("admin reload failed")
		writeJSON(w, http.StatusBadGateway, reloadFailure(err))
		return
	}
	writeJSON(w, http.StatusOK, types.ReloadResponse{
		Model:   types.ModelRef{Name: nh.Name, Stage: nh.Stage, Version: nh.Version, Backend: string(nh.Backend)},
		Swapped: nh != before,
	})
}

// reloadFailure reports attempt outcomes only; causes can quote registry
// response bodies and stay in the log.
func reloadFailure(err error) types.ReloadErrorResponse {
	out := types.ReloadErrorResponse{Error: "model reload failed; current model kept", Code: http.StatusBadGateway}
	var rf *resolver.ResolutionFailedError
	if errors.As(err, &rf) {
		for _, a := range rf.Attempts {
			out.Attempts = append(out.Attempts, types.AttemptOutcome{
				Backend:    string(a.Backend),
				Outcome:    a.Outcome,
				DurationMs: a.Duration.Milliseconds(),
			})
		}
	}
	return out
}

// events godoc
// @Summary      Recent model events
// @Tags         admin
// @Produce      json
// @Success      200  {array}  types.EventRecord
// @Router       /admin/events [get]
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	evs := eventSource()
	out := make([]types.EventRecord, 0, len(evs))
	for _, e := range evs {
		out = append(out, types.EventRecord{Name: e.Name, Model: e.Model, Fields: e.Fields, TimeUnix: e.Time.Unix()})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("failed to encode response")
	}
}
