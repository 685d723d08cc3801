// Package metrics provides Prometheus observability metrics for the report tool.
// It covers import volume, repository outcomes and report build health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// CRITICAL METRICS - Data Quality Visibility
// =============================================================================

// StoreOutcomesTotal tracks store attempts by outcome (stored, duplicate).
// A rising duplicate share means the same exports are being re-uploaded.
var StoreOutcomesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "repository",
	Name:      "store_outcomes_total",
	Help:      "Store attempts broken down by outcome",
}, []string{"outcome"})

// OverlapsTotal tracks stored files whose date coverage intersects an
// existing file.
var OverlapsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "repository",
	Name:      "overlaps_total",
	Help:      "Number of overlapping file pairs detected on store",
})

// ConflictsTotal tracks overlaps that share at least one agent and may
// double count in reports.
var ConflictsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "repository",
	Name:      "conflicts_total",
	Help:      "Number of overlapping file pairs that share agents",
})

// FilesStored tracks the number of files currently held.
var FilesStored = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "repository",
	Name:      "files_stored",
	Help:      "Number of files currently held by the repository",
})

// FilesPendingDate tracks stored files with no date coverage.
var FilesPendingDate = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "repository",
	Name:      "files_pending_date",
	Help:      "Number of stored files awaiting a manual date",
})

// =============================================================================
// IMPORTANT METRICS - Operational Health
// =============================================================================

// ParserErrorsTotal tracks parse problems by error type.
var ParserErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "errors_total",
	Help:      "Total parse errors by error type",
}, []string{"error_type"})

// ParserFilesTotal tracks parsed files by detected kind.
var ParserFilesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "files_total",
	Help:      "Total files parsed by detected report kind",
}, []string{"kind"})

// ParserRowsTotal tracks total rows successfully parsed.
var ParserRowsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "rows_total",
	Help:      "Total agent rows successfully parsed",
})

// ParserDurationSeconds tracks time to parse input files.
var ParserDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "parser",
	Name:      "duration_seconds",
	Help:      "Time taken to parse one export file",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
})

// ImportFilesTotal tracks files handled by the importer by result.
var ImportFilesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ingest",
	Name:      "files_total",
	Help:      "Files handled by the importer by result",
}, []string{"result"})

// ReportBuildDurationSeconds tracks time to build a report on a cache miss.
var ReportBuildDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "report",
	Name:      "build_duration_seconds",
	Help:      "Time taken to build a report",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// ReportCacheHitsTotal tracks reports served from the cache.
var ReportCacheHitsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "report",
	Name:      "cache_hits_total",
	Help:      "Reports served from the signature cache",
})

// ReportCacheMissesTotal tracks reports that had to be built.
var ReportCacheMissesTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "report",
	Name:      "cache_misses_total",
	Help:      "Reports built because no cached result matched",
})

// ReportAgents tracks the number of agents in the last built report.
var ReportAgents = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "report",
	Name:      "agents",
	Help:      "Number of agents in the most recently built report",
})

// ReportFilesInRange tracks how many files fed the last built report.
var ReportFilesInRange = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "report",
	Name:      "files_in_range",
	Help:      "Number of files contributing to a built report",
	Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
})

// StoreOperationDurationSeconds tracks key-value backend latency.
var StoreOperationDurationSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "store",
	Name:      "operation_duration_seconds",
	Help:      "Latency of key-value store operations",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
}, []string{"backend", "op"})

// =============================================================================
// Helper Functions
// =============================================================================

// SetRepositoryGauges publishes the current file counts after the repository
// changes.
func SetRepositoryGauges(total, pending int) {
	FilesStored.Set(float64(total))
	FilesPendingDate.Set(float64(pending))
}
