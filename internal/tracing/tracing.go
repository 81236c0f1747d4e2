// Package tracing wires the agent turn engine's LLM-call and action-call
// spans into the OpenTelemetry SDK. There is no managed-mode span store to
// export to here, so spans are recorded through a small exporter that logs
// each completed span via slog — enough to answer "what did this turn do
// and how long did each step take" without standing up a collector.
package tracing

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Init installs a process-wide TracerProvider backed by the slog exporter
// and returns it so the caller can Shutdown it on exit. enabled controls
// whether spans are actually recorded (off by default — tracing is a
// debugging aid, not a requirement of a CLI turn).
func Init(serviceName string, enabled bool) *sdktrace.TracerProvider {
	var opt sdktrace.TracerProviderOption
	if enabled {
		opt = sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(&slogExporter{}))
	} else {
		opt = sdktrace.WithSampler(sdktrace.NeverSample())
	}

	res, _ := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)

	tp := sdktrace.NewTracerProvider(opt, sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp
}

// Tracer returns the package-wide tracer used for turn-engine spans.
func Tracer() trace.Tracer {
	return otel.Tracer("slashbot/agent")
}

// slogExporter adapts completed otel spans into structured log lines.
type slogExporter struct{}

func (e *slogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		attrs := []any{
			"span", s.Name(),
			"duration_ms", s.EndTime().Sub(s.StartTime()).Milliseconds(),
			"status", s.Status().Code.String(),
		}
		for _, a := range s.Attributes() {
			attrs = append(attrs, string(a.Key), attributeValue(a.Value))
		}
		if s.Status().Code.String() == "Error" {
			slog.Warn("turn span", attrs...)
		} else {
			slog.Debug("turn span", attrs...)
		}
	}
	return nil
}

func (e *slogExporter) Shutdown(ctx context.Context) error { return nil }

func attributeValue(v attribute.Value) any {
	switch v.Type() {
	case attribute.INT64:
		return v.AsInt64()
	case attribute.FLOAT64:
		return v.AsFloat64()
	case attribute.BOOL:
		return v.AsBool()
	default:
		return v.AsString()
	}
}

// EnabledFromEnv reports whether verbose tracing was requested via env var.
func EnabledFromEnv() bool {
	return os.Getenv("SLASHBOT_TRACE") != ""
}
