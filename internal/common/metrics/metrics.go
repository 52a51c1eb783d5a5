// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_requests_total",
			Help: "Total number of pipeline requests by terminal status",
		},
		[]string{"intent", "status"},
	)

	PipelineStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_failures_total",
			Help: "Total number of stage failures, including locally recovered ones",
		},
		[]string{"stage", "error_code"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	PipelineRequestsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_requests_active",
			Help: "Number of requests currently in the pipeline",
		},
	)

	CompletionCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_calls_total",
			Help: "Text completion calls by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)
)
