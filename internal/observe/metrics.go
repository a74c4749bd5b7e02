package observe

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the counters/histograms the engine and solver session
// report to. All names use the "houdini_" prefix for consistent naming,
// mirroring the prefixed-metric-struct convention used throughout the
// teacher repository's telemetry package.
type Metrics struct {
	SolverChecksTotal    metric.Int64Counter
	SolverCheckDuration  metric.Float64Histogram
	SolverSessionExits   metric.Int64Counter
	HoudiniIterations    metric.Int64Counter
	HoudiniCandidatesRef metric.Int64Counter
	HoudiniWorkQueueSize metric.Int64UpDownCounter
}

// NewMetrics registers every metric against meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.SolverChecksTotal, err = meter.Int64Counter(
		"houdini_solver_checks_total",
		metric.WithDescription("Total batch solver checks by outcome"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create solver_checks_total: %w", err)
	}

	m.SolverCheckDuration, err = meter.Float64Histogram(
		"houdini_solver_check_duration_seconds",
		metric.WithDescription("Batch solver check duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, fmt.Errorf("create solver_check_duration: %w", err)
	}

	m.SolverSessionExits, err = meter.Int64Counter(
		"houdini_solver_session_exits_total",
		metric.WithDescription("Total solver session process exits with an error, by implementation"),
		metric.WithUnit("{exit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create solver_session_exits_total: %w", err)
	}

	m.HoudiniIterations, err = meter.Int64Counter(
		"houdini_iterations_total",
		metric.WithDescription("Total Houdini inner-verify iterations"),
		metric.WithUnit("{iteration}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create iterations_total: %w", err)
	}

	m.HoudiniCandidatesRef, err = meter.Int64Counter(
		"houdini_candidates_refuted_total",
		metric.WithDescription("Total candidates flipped from true to false"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create candidates_refuted_total: %w", err)
	}

	m.HoudiniWorkQueueSize, err = meter.Int64UpDownCounter(
		"houdini_work_queue_size",
		metric.WithDescription("Current size of the Houdini work queue"),
		metric.WithUnit("{implementation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create work_queue_size: %w", err)
	}

	return m, nil
}
