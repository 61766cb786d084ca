package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "localrank_provider_requests_total",
		Help: "Places API calls by outcome",
	}, []string{"outcome"})

	Runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "localrank_runs_total",
		Help: "Finished runs by status",
	}, []string{"status"})

	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "localrank_run_duration_seconds",
		Help:    "Wall time of a run",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// MustRegister registers the collectors. Call it once from main.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(ProviderRequests, Runs, RunDuration)
}

// ObserveProvider counts one places API call.
func ObserveProvider(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ProviderRequests.WithLabelValues(outcome).Inc()
}

// ObserveRun records a finished run.
func ObserveRun(status string, elapsed time.Duration) {
	Runs.WithLabelValues(status).Inc()
	RunDuration.Observe(elapsed.Seconds())
}
