package inference

import "github.com/prometheus/client_golang/prometheus"

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "predictd",
			Name:      "predictions_total",
			Help:      "Predictions by model kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	predictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "predictd",
			Name:      "prediction_duration_seconds",
			Help:      "Duration of model invocations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"kind"},
	)

	reloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "predictd",
			Name:      "model_reloads_total",
			Help:      "Model reload attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(predictionsTotal, predictionDuration, reloadsTotal)
}

// Outcome labels for predictions_total.
const (
	outcomeOK        = "ok"
	outcomeInvalid   = "invalid"
	outcomeNotLoaded = "not_loaded"
	outcomeFailed    = "failed"
	outcomeCacheHit  = "cache_hit"
)
