package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MrEthical07/reelauth"
	otelexport "github.com/MrEthical07/reelauth/metrics/export/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type metricsSource interface {
	MetricsSnapshot() reelauth.MetricsSnapshot
	AuditDropped() uint64
}

// startOTel pushes the engine counters to w every interval. The returned
// function exports once more before unregistering the instruments.
func startOTel(source metricsSource, interval time.Duration, w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("otel stdout exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)

	instruments, err := otelexport.NewOTelExporterFromSource(provider.Meter("github.com/MrEthical07/reelauth"), source)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(provider.Shutdown(ctx), instruments.Close())
	}, nil
}
