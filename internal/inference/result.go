package inference

import (
	"math"

	"predictd/internal/features"
	"predictd/internal/model"
	"predictd/pkg/types"
)

// Threshold is the positive-class cut-off; a probability equal to it is positive.
const Threshold = 0.5

// Class labels reported for the risk classifier.
const (
	LabelPositive = "high_risk"
	LabelNegative = "low_risk"
)

// Result is the outcome of one prediction.
type Result struct {
	Task features.Task `json:"task"`
	// Values holds one regression estimate per submitted row.
	Values []float64 `json:"values,omitempty"`
	// Class and ProbabilityPct are set for classifiers.
	Class          *int           `json:"class,omitempty"`
	ProbabilityPct *float64       `json:"probability_pct,omitempty"`
	Model          types.ModelRef `json:"model"`
}

// Label returns the human-readable class label, or "" for regressors.
func (r Result) Label() string {
	if r.Class == nil {
		return ""
	}
	if *r.Class == 1 {
		return LabelPositive
	}
	return LabelNegative
}

// Response renders the result in the API shape.
func (r Result) Response(id string, cached bool) types.PredictResponse {
	return types.PredictResponse{
		PredictionID:   id,
		Task:           string(r.Task),
		Values:         r.Values,
		Class:          r.Class,
		Label:          r.Label(),
		ProbabilityPct: r.ProbabilityPct,
		Model:          r.Model,
		Cached:         cached,
	}
}

// classify applies the threshold and rounds the probability to two decimals
// in percentage terms.
func classify(p float64) (int, float64) {
	class := 0
	if p >= Threshold {
		class = 1
	}
	return class, RoundPct(p)
}

// RoundPct converts a probability to a percentage rounded half away from zero
// to two decimals.
func RoundPct(p float64) float64 {
	return math.Round(p*100*100) / 100
}

func refOf(h *model.Handle) types.ModelRef {
	return types.ModelRef{Name: h.Name, Stage: h.Stage, Version: h.Version, Backend: string(h.Backend)}
}
