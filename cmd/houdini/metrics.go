package main

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/vcforge/houdini/internal/observe"
)

// setupMetrics wires an OpenTelemetry meter provider, reporting every
// houdini_* instrument to stdout on each collection interval when
// enabled. When disabled it returns a no-op provider's metrics so every
// caller can record unconditionally.
func setupMetrics(enabled bool) (*observe.Metrics, func(context.Context) error, error) {
	if !enabled {
		meter := sdkmetric.NewMeterProvider().Meter("houdini")
		m, err := observe.NewMetrics(meter)
		if err != nil {
			return nil, nil, err
		}
		return m, func(context.Context) error { return nil }, nil
	}

	exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("create stdout metric exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)

	m, err := observe.NewMetrics(provider.Meter("houdini"))
	if err != nil {
		return nil, nil, fmt.Errorf("register metrics: %w", err)
	}
	return m, provider.Shutdown, nil
}
