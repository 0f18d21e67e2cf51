package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitNoneHandsOutNoopTracer(t *testing.T) {
	p, err := Init(Settings{Exporter: ExporterNone})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if p.Enabled() {
		t.Fatalf("none exporter reported enabled")
	}
	_, span := p.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Fatalf("noop tracer produced a recording span")
	}
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	if _, err := Init(Settings{Exporter: "jaeger"}); !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("err = %v, want ErrUnknownExporter", err)
	}
	if _, err := Init(Settings{Exporter: ExporterFile}); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestFileExporterWritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "traces.json")
	p, err := Init(Settings{Exporter: "File", File: path, ServiceVersion: "test"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !p.Enabled() {
		t.Fatalf("file exporter not enabled")
	}
	_, span := p.Tracer("test").Start(context.Background(), "report.Generate")
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read traces: %v", err)
	}
	if !strings.Contains(string(data), `"report.Generate"`) {
		t.Fatalf("traces = %s", data)
	}
}
