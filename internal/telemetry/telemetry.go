// Package telemetry installs the OpenTelemetry trace pipeline that records
// the generator's per-step spans.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Trace exporters.
const (
	ExporterNone   = "none"
	ExporterStderr = "stderr"
	ExporterFile   = "file"
)

// ErrUnknownExporter is returned for an exporter name Init does not know.
var ErrUnknownExporter = errors.New("telemetry: unknown trace exporter")

// Settings selects where spans go.
type Settings struct {
	// Exporter is none, stderr or file. Empty means none.
	Exporter string
	// File receives JSON spans when Exporter is file.
	File           string
	ServiceName    string
	ServiceVersion string
}

// Provider owns the SDK tracer provider of one process. A Provider with
// tracing disabled hands out no-op tracers.
type Provider struct {
	tp     *sdktrace.TracerProvider
	closer io.Closer
}

// Init builds the trace pipeline described by s.
func Init(s Settings) (*Provider, error) {
	var (
		w      io.Writer
		closer io.Closer
	)
	switch strings.ToLower(strings.TrimSpace(s.Exporter)) {
	case "", ExporterNone:
		return &Provider{}, nil
	case ExporterStderr:
		w = os.Stderr
	case ExporterFile:
		if strings.TrimSpace(s.File) == "" {
			return nil, fmt.Errorf("telemetry: file exporter needs a path")
		}
		if err := os.MkdirAll(filepath.Dir(s.File), 0o755); err != nil {
			return nil, fmt.Errorf("telemetry: create trace dir: %w", err)
		}
		f, err := os.OpenFile(s.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("telemetry: open trace file: %w", err)
		}
		w, closer = f, f
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, s.Exporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}
	name := s.ServiceName
	if name == "" {
		name = "licensedoc"
	}
	res := resource.NewWithAttributes("",
		attribute.String("service.name", name),
		attribute.String("service.version", s.ServiceVersion),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return &Provider{tp: tp, closer: closer}, nil
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// Tracer returns a named tracer from the provider.
func (p *Provider) Tracer(name string) trace.Tracer {
	if !p.Enabled() {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tp.Tracer(name)
}

// Shutdown flushes pending spans and closes the trace file.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	err := p.tp.Shutdown(ctx)
	if p.closer != nil {
		err = errors.Join(err, p.closer.Close())
	}
	return err
}
