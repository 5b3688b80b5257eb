package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tendant/nexus-crm/pkg/domain"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_crm_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nexus_crm_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	stageTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_crm_deal_stage_transitions_total",
		Help: "Deal stage changes by source and target stage",
	}, []string{"from", "to"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nexus_crm_search_duration_seconds",
		Help:    "Duration of global searches",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"result"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_crm_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveLogin counts a login attempt.
func ObserveLogin(ok bool) {
	loginAttempts.WithLabelValues(result(ok)).Inc()
}

// Recorder feeds domain events from the pipeline engine and the search
// aggregator into the collectors above.
type Recorder struct{}

// StageChanged counts a deal moving between stages.
func (Recorder) StageChanged(from, to domain.Stage) {
	stageTransitions.WithLabelValues(string(from), string(to)).Inc()
}

// SearchCompleted records how long a search took.
func (Recorder) SearchCompleted(duration time.Duration, err error) {
	searchDuration.WithLabelValues(result(err == nil)).Observe(duration.Seconds())
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
