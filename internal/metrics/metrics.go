package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_research_requests_total",
			Help: "Total number of tool requests by outcome",
		},
		[]string{"tool", "outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "market_research_request_duration_seconds",
			Help:    "Duration of tool requests in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"tool"},
	)

	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_research_upstream_calls_total",
			Help: "Total number of outbound provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "market_research_upstream_duration_seconds",
			Help:    "Duration of outbound provider calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider"},
	)
)

// ObserveRequest records one finished tool request.
func ObserveRequest(tool string, start time.Time, err error) {
	RequestsTotal.WithLabelValues(tool, outcome(err)).Inc()
	RequestDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}

// ObserveUpstream records one finished outbound provider call.
func ObserveUpstream(provider string, start time.Time, err error) {
	UpstreamCallsTotal.WithLabelValues(provider, outcome(err)).Inc()
	UpstreamDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
