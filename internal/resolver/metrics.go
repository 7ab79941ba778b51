package resolver

import "github.com/prometheus/client_golang/prometheus"

var resolveAttemptsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "predictd",
		Subsystem: "resolver",
		Name:      "attempts_total",
		Help:      "Model resolution attempts by backend and outcome",
	},
	[]string{"backend", "outcome"},
)

func init() {
	prometheus.MustRegister(resolveAttemptsTotal)
}
