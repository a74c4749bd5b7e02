package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// promExporter serves solver-process resource usage on a Prometheus
// scrape endpoint, mirroring cmd/aleutian/internal/diagnostics's
// registry-plus-promhttp-Handler shape for CLI-local metrics (as
// opposed to the OpenTelemetry instruments in metrics.go, which report
// on a push/collection interval instead of via a pull endpoint).
type promExporter struct {
	registry   *prometheus.Registry
	solverCPU  *prometheus.GaugeVec
	checkCount *prometheus.CounterVec
	server     *http.Server
}

func newPromExporter() *promExporter {
	reg := prometheus.NewRegistry()
	return &promExporter{
		registry: reg,
		solverCPU: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "houdini",
			Subsystem: "solver",
			Name:      "session_user_cpu_ms",
			Help:      "User CPU time reported by the most recent solver session, in milliseconds",
		}, []string{"implementation"}),
		checkCount: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "houdini",
			Subsystem: "solver",
			Name:      "checks_total",
			Help:      "Total batch solver checks by outcome, exported via the pull endpoint",
		}, []string{"outcome"}),
	}
}

func (p *promExporter) recordCheck(implementation, outcome string, cpuMillis int64) {
	p.checkCount.WithLabelValues(outcome).Inc()
	if cpuMillis > 0 {
		p.solverCPU.WithLabelValues(implementation).Set(float64(cpuMillis))
	}
}

// serve starts the scrape endpoint in the background if addr is
// non-empty; Close is a no-op when it was never started.
func (p *promExporter) serve(addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
	p.server = &http.Server{Addr: addr, Handler: mux}
	go p.server.ListenAndServe()
	return nil
}

func (p *promExporter) Close(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}
