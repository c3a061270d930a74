// Package telemetry configures OpenTelemetry tracing. Spans are written as
// JSON to a file so they never mix with the game's console output.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/chriscow/wordguess/pkg/config"
	"github.com/chriscow/wordguess/pkg/version"
)

// ShutdownFunc flushes pending spans and releases the trace file.
type ShutdownFunc func(context.Context) error

// Setup installs a global tracer provider when cfg.TraceFile is set. With no
// trace file the global no-op provider stays in place.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger) (ShutdownFunc, error) {
	path := strings.TrimSpace(cfg.TraceFile)
	if path == "" {
		return func(context.Context) error { return nil }, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}

	tp, err := newProvider(ctx, cfg.ServiceName, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	otel.SetTracerProvider(tp)
	logger.Info("telemetry initialized", slog.String("exporter", "stdout"), slog.String("file", path))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), f.Close())
	}, nil
}

func newProvider(ctx context.Context, service string, f *os.File) (*sdktrace.TracerProvider, error) {
	if service == "" {
		service = "wordguess"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(service),
			semconv.ServiceVersion(version.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}

	// Synchronous export: the CLI exits as soon as a game ends.
	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	), nil
}
