package types

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	// Raw input fields. Categorical risk inputs may be given as form labels
	// (e.g. "Typical angina") or as numeric codes.
	// example: {"miles":86132,"year":2010,"engine_size":1.5,"make":"toyota","model":"Prius","state":"NB"}
	Fields map[string]any `json:"fields"`
}

// PredictResponse is returned by POST /predict.
type PredictResponse struct {
	// Unique id of this prediction, for log correlation.
	// example: 2b7c9a3e-7f0e-4a59-9d44-3f5f3c1f2a10
	PredictionID string `json:"prediction_id" example:"2b7c9a3e-7f0e-4a59-9d44-3f5f3c1f2a10"`
	// Task of the served model.
	// example: regression
	Task string `json:"task" example:"regression"`
	// Regression estimates, one per submitted row.
	// example: [18293.4]
	Values []float64 `json:"values,omitempty"`
	// Predicted class for classifiers (1 = positive).
	// example: 1
	Class *int `json:"class,omitempty"`
	// Human-readable class label for classifiers.
	// example: high_risk
	Label string `json:"label,omitempty" example:"high_risk"`
	// Positive-class probability in percent, rounded to two decimals.
	// example: 73.12
	ProbabilityPct *float64 `json:"probability_pct,omitempty"`
	// Model that served the prediction.
	Model ModelRef `json:"model"`
	// Whether the result came from the result cache.
	Cached bool `json:"cached,omitempty"`
}

// LegacyPriceResponse mirrors the historical PUT /get_prediction/ payload.
type LegacyPriceResponse struct {
	// example: [18293.4]
	PredictedPrice []float64 `json:"predicted_price"`
}

// ModelRef identifies a loaded model.
type ModelRef struct {
	// example: UsedCarPricePredictor
	Name string `json:"name" example:"UsedCarPricePredictor"`
	// example: Production
	Stage string `json:"stage" example:"Production"`
	// example: 7
	Version string `json:"version" example:"7"`
	// Backend that served the handle: registry or local.
	// example: registry
	Backend string `json:"backend" example:"registry"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: field "year": value 1850 outside allowed range [1886, 2100]
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 422
	Code int `json:"code" example:"422"`
	// Offending field for input errors.
	// example: year
	Field string `json:"field,omitempty" example:"year"`
	// Offending value for input errors.
	Value any `json:"value,omitempty"`
}

// FieldSpec describes one schema field for GET /schema.
type FieldSpec struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Domain  []string `json:"domain,omitempty"`
	Codes   []int    `json:"codes,omitempty"`
	Labels  []string `json:"labels,omitempty"`
	Default any      `json:"default,omitempty"`
	Help    string   `json:"help,omitempty"`
}

// SchemaResponse is returned by GET /schema.
type SchemaResponse struct {
	// example: price
	Name string `json:"name" example:"price"`
	// example: regression
	Task string `json:"task" example:"regression"`
	// Label table version used by the encoder.
	// example: v1
	EncoderVersion string      `json:"encoder_version" example:"v1"`
	Fields         []FieldSpec `json:"fields"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall state: ready or unavailable.
	// example: ready
	State string `json:"state" example:"ready"`
	// Model variant served by this process.
	// example: price
	Kind string `json:"kind" example:"price"`
	// Currently loaded model, if any.
	Model *ModelRef `json:"model,omitempty"`
	// Path or URI the model was loaded from.
	Source string `json:"source,omitempty"`
	// Load time of the current model (unix seconds).
	// example: 1700000000
	LoadedAtUnix int64 `json:"loaded_at_unix,omitempty" example:"1700000000"`
	// Successful reloads since start.
	// example: 2
	ReloadsTotal uint64 `json:"reloads_total" example:"2"`
	// Last reload or resolution error observed (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ReloadErrorResponse is returned by POST /admin/reload when no backend
// produced a model. The current model keeps serving.
type ReloadErrorResponse struct {
	Error    string           `json:"error" example:"model reload failed; current model kept"`
	Code     int              `json:"code" example:"502"`
	Attempts []AttemptOutcome `json:"attempts,omitempty"`
}

// AttemptOutcome summarizes one backend try without its raw cause.
type AttemptOutcome struct {
	Backend    string `json:"backend" example:"registry"`
	Outcome    string `json:"outcome" example:"failed"`
	DurationMs int64  `json:"duration_ms" example:"12"`
}

// ReloadResponse is returned by POST /admin/reload.
type ReloadResponse struct {
	Model ModelRef `json:"model"`
	// Whether the handle actually changed.
	Swapped bool `json:"swapped"`
}

// EventRecord is one model lifecycle event returned by GET /admin/events.
type EventRecord struct {
	// example: model_swapped
	Name string `json:"name" example:"model_swapped"`
	// example: UsedCarPricePredictor
	Model  string         `json:"model" example:"UsedCarPricePredictor"`
	Fields map[string]any `json:"fields,omitempty"`
	// example: 1700000000
	TimeUnix int64 `json:"time_unix" example:"1700000000"`
}
