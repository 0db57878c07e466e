package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SubmissionsTotal       prometheus.Counter
	VotesTotal             *prometheus.CounterVec
	FinalizationsByOutcome *prometheus.CounterVec
	RequestLatency         *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		SubmissionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "concord_review_submissions_total",
			Help: "Total number of submissions created",
		}),
		VotesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "concord_review_votes_total",
			Help: "Total number of votes cast, by decision",
		}, []string{"decision"}),
		FinalizationsByOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "concord_review_finalizations_total",
			Help: "Total number of submissions finalized, by outcome",
		}, []string{"outcome"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "concord_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) IncrementSubmissions() {
	m.SubmissionsTotal.Inc()
}

func (m *Metrics) IncrementVotes(decision string) {
	m.VotesTotal.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncrementFinalizations(outcome string) {
	m.FinalizationsByOutcome.WithLabelValues(outcome).Inc()
}
