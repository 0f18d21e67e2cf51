package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kingrea/licensedoc/internal/artifact"
	"github.com/kingrea/licensedoc/internal/config"
	"github.com/kingrea/licensedoc/internal/directory"
	"github.com/kingrea/licensedoc/internal/logbook"
	"github.com/kingrea/licensedoc/internal/obligations"
	"github.com/kingrea/licensedoc/internal/report"
	"github.com/kingrea/licensedoc/internal/telemetry"
	"github.com/kingrea/licensedoc/internal/templates"
)

const traceFlushTimeout = 5 * time.Second

// runtime bundles what every command builds from the project config.
type runtime struct {
	cfg       *config.Config
	log       *logbook.Logbook
	directory *directory.Static
	templates *templates.Source
	store     *artifact.Store
	tracing   *telemetry.Provider
}

func initProject(dir string) error {
	if err := config.InitProjectDir(dir); err != nil {
		return fmt.Errorf("init .licensedoc: %w", err)
	}
	return nil
}

// loadRuntime loads the config for the project directory. directoryPath
// overrides the configured directory file when set; mirror, when non-nil,
// receives a copy of every log entry.
func loadRuntime(directoryPath string, mirror io.Writer) (*runtime, error) {
	dir, err := resolveProjectDir()
	if err != nil {
		return nil, err
	}
	if err := initProject(dir); err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var opts []logbook.Option
	if mirror != nil {
		opts = append(opts, logbook.WithMirror(mirror))
	}
	log, err := logbook.New(cfg.LogPath(), opts...)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	if strings.TrimSpace(directoryPath) == "" {
		directoryPath = cfg.DirectoryPath()
	}
	users, err := directory.Load(directoryPath)
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}

	tracing, err := telemetry.Init(telemetry.Settings{
		Exporter:       cfg.Project.Tracing.Exporter,
		File:           cfg.TraceFile(),
		ServiceVersion: version,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:       cfg,
		log:       log,
		directory: users,
		templates: templates.Dir(cfg.TemplatesDir()),
		store:     artifact.NewStore(cfg.OutputDir()),
		tracing:   tracing,
	}, nil
}

// close flushes pending spans.
func (rt *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), traceFlushTimeout)
	defer cancel()
	if err := rt.tracing.Shutdown(ctx); err != nil {
		rt.log.Warn("flush traces: %v", err)
	}
}

// generator builds a report generator over the runtime's templates and
// directory.
func (rt *runtime) generator(log report.Logger, extra ...report.Option) *report.Generator {
	opts := []report.Option{
		report.WithUserDirectory(rt.directory),
		report.WithLicenseCatalog(rt.directory),
		report.WithLogger(log),
		report.WithTracer(rt.tracing.Tracer(report.TracerName)),
	}
	return report.New(rt.templates, append(opts, extra...)...)
}

// variant resolves a variant name with the project's configured settings.
func (rt *runtime) variant(name string) (report.Variant, error) {
	return variantFromConfig(rt.cfg, name)
}

func variantFromConfig(cfg *config.Config, name string) (report.Variant, error) {
	v, err := report.ParseVariant(name)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return v, nil
	}
	switch v.(type) {
	case report.Report:
		threshold := cfg.Project.Report.Threshold
		if threshold < 1 {
			threshold = obligations.DefaultThreshold
		}
		return report.Report{Threshold: threshold, Policy: cfg.Grouping()}, nil
	case report.Disclosure:
		return report.Disclosure{IncludeObligations: cfg.Project.Disclosure.IncludeObligations}, nil
	}
	return v, nil
}
