package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts       *prometheus.CounterVec
	suggestions     *prometheus.CounterVec
	fraudVerdicts   *prometheus.CounterVec
	fraudScores     prometheus.Histogram
	alerts          *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	jobs            *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techmart_forecasts_total",
				Help: "Demand forecasts computed, by horizon and source",
			},
			[]string{"horizon", "source"},
		),
		suggestions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techmart_reorder_suggestions_total",
				Help: "Reorder suggestion outcomes",
			},
			[]string{"outcome"},
		),
		fraudVerdicts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techmart_fraud_verdicts_total",
				Help: "Fraud verdicts by outcome",
			},
			[]string{"suspicious"},
		),
		fraudScores: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "techmart_fraud_score",
				Help:    "Distribution of fraud scores",
				Buckets: []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
			},
		),
		alerts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techmart_alerts_total",
				Help: "Alerts raised by type and severity",
			},
			[]string{"type", "severity"},
		),
		eventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techmart_events_published_total",
				Help: "Notification events published by sink",
			},
			[]string{"sink", "type"},
		),
		jobs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techmart_jobs_total",
				Help: "Background jobs executed",
			},
			[]string{"job", "status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techmart_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "techmart_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordForecast counts a forecast; source is "cache" or "engine".
func (r *Recorder) RecordForecast(horizonDays int, source string) {
	r.forecasts.WithLabelValues(strconv.Itoa(horizonDays), source).Inc()
}

func (r *Recorder) RecordSuggestion(outcome string) {
	r.suggestions.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordFraudVerdict(suspicious bool, score float64) {
	r.fraudVerdicts.WithLabelValues(strconv.FormatBool(suspicious)).Inc()
	r.fraudScores.Observe(score)
}

func (r *Recorder) RecordAlert(alertType, severity string) {
	r.alerts.WithLabelValues(alertType, severity).Inc()
}

func (r *Recorder) RecordEventPublished(sink, eventType string) {
	r.eventsPublished.WithLabelValues(sink, eventType).Inc()
}

func (r *Recorder) RecordJob(job string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.jobs.WithLabelValues(job, status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
