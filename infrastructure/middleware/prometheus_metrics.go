// Package middleware provides operational instrumentation for the
// evaluation pipeline.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gurenolun/fly-eval/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector on the Prometheus
// client. Metric families cover record throughput, evaluation latency,
// score distributions, judge activity, and LLM token usage.
type PrometheusMetrics struct {
	recordsTotal    *prometheus.CounterVec
	judgeActivity   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	operationsTotal *prometheus.CounterVec

	latencySeconds *prometheus.HistogramVec
	scoreValues    *prometheus.HistogramVec

	systemGauges *prometheus.GaugeVec
}

// NewPrometheusMetrics registers all metric families with reg and
// returns the collector. Pass prometheus.DefaultRegisterer for the
// global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flyeval_records_total",
				Help: "Evaluation records produced, by task, model, and eligibility.",
			},
			[]string{"task_id", "model", "kind"},
		),
		judgeActivity: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flyeval_judge_events_total",
				Help: "Judge activity events: model calls, cache hits, fallbacks.",
			},
			[]string{"event", "model"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flyeval_llm_tokens_total",
				Help: "LLM tokens consumed, split by direction.",
			},
			[]string{"model", "token_type"},
		),
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flyeval_operations_total",
				Help: "Pipeline operations not covered by a dedicated family.",
			},
			[]string{"operation"},
		),
		latencySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flyeval_operation_duration_seconds",
				Help:    "Latency of pipeline operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		scoreValues: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flyeval_score_values",
				Help:    "Distribution of 0-100 scores, by score name and task.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"metric", "task_id"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flyeval_system_state",
				Help: "Current pipeline state values.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency routes operation timings to the latency histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.latencySeconds.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter routes counter increments to the matching family.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "records_total":
		pm.recordsTotal.WithLabelValues(labels["task_id"], labels["model"], "all").Add(value)
	case "ineligible_records_total":
		pm.recordsTotal.WithLabelValues(labels["task_id"], labels["model"], "ineligible").Add(value)
	case "judge_model_calls_total":
		pm.judgeActivity.WithLabelValues("model_call", labels["model"]).Add(value)
	case "judge_cache_hits_total":
		pm.judgeActivity.WithLabelValues("cache_hit", labels["model"]).Add(value)
	case "judge_fallbacks_total":
		pm.judgeActivity.WithLabelValues("fallback", labels["model"]).Add(value)
	case "llm_tokens_total":
		pm.tokensTotal.WithLabelValues(labels["model"], labels["token_type"]).Add(value)
	default:
		pm.operationsTotal.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge sets a named system state value.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram routes score observations to the score histogram and
// everything else to the latency histogram in seconds.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	switch metric {
	case "total_score", "constraint_satisfaction", "grade_score":
		pm.scoreValues.WithLabelValues(metric, labels["task_id"]).Observe(value)
	default:
		pm.latencySeconds.WithLabelValues(metric).Observe(value)
	}
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
