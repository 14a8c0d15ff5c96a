// Package metrics provides Prometheus metrics for the smeta service.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/core/catalog"
	"github.com/kozichsergey/SmetaAI/internal/core/cluster"
)

var (
	// OracleCallsTotal tracks model calls by operation and outcome
	OracleCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smeta",
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Total number of oracle calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// OracleCallDuration tracks model call duration including retries
	OracleCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smeta",
			Subsystem: "oracle",
			Name:      "call_duration_seconds",
			Help:      "Duration of oracle calls in seconds, retries included",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"op"},
	)

	// ClusterFallbacksTotal tracks buckets resolved as singletons after an oracle problem
	ClusterFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smeta",
			Subsystem: "cluster",
			Name:      "fallbacks_total",
			Help:      "Total number of buckets that fell back to singleton clusters",
		},
		[]string{"bucket", "reason"},
	)

	// MatchesTotal tracks how estimate names were matched to the catalog
	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smeta",
			Subsystem: "catalog",
			Name:      "matches_total",
			Help:      "Total number of matched names by source",
		},
		[]string{"source"},
	)

	// TasksTotal tracks finished tasks by status
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smeta",
			Subsystem: "task",
			Name:      "finished_total",
			Help:      "Total number of finished tasks by status",
		},
		[]string{"task", "status"},
	)

	// TaskDuration tracks task duration in seconds
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smeta",
			Subsystem: "task",
			Name:      "duration_seconds",
			Help:      "Duration of tasks in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"task"},
	)

	// FilesTotal tracks spreadsheets handled by ingest and calculate
	FilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smeta",
			Subsystem: "task",
			Name:      "files_total",
			Help:      "Total number of spreadsheets handled by task and status",
		},
		[]string{"task", "status"},
	)
)

// RecordOracleCall records one oracle call; its signature matches openai.CallObserver.
func RecordOracleCall(op, outcome string, elapsed time.Duration) {
	OracleCallsTotal.WithLabelValues(op, outcome).Inc()
	OracleCallDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RecordClusterFallback records a singleton fallback; its signature matches cluster.FallbackHook.
func RecordClusterFallback(bucket string, reason error) {
	ClusterFallbacksTotal.WithLabelValues(bucket, fallbackReason(reason)).Inc()
}

func fallbackReason(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, cluster.ErrNoClusters):
		return "no_clusters"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, common.ErrOracleRateLimited):
		return "rate_limited"
	case errors.Is(err, common.ErrOracleUnavailable):
		return "unavailable"
	case errors.Is(err, common.ErrOracleMalformedResponse):
		return "malformed"
	default:
		return "other"
	}
}

// RecordMatchStats records one batch-matching round.
func RecordMatchStats(s catalog.MatchStats) {
	MatchesTotal.WithLabelValues("oracle").Add(float64(s.Oracle))
	MatchesTotal.WithLabelValues("fallback").Add(float64(s.Fallback))
	MatchesTotal.WithLabelValues("missed").Add(float64(s.Missed))
}

// RecordTask records a finished task; its signature matches progress.FinishHook.
func RecordTask(task constants.TaskName, status constants.TaskStatus, elapsed time.Duration) {
	TasksTotal.WithLabelValues(string(task), string(status)).Inc()
	TaskDuration.WithLabelValues(string(task)).Observe(elapsed.Seconds())
}

// RecordFile records one spreadsheet; its signature matches pipeline.FileObserver.
func RecordFile(task constants.TaskName, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	FilesTotal.WithLabelValues(string(task), status).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
