// Package report fills the disclosure and report templates with license,
// obligation and component data and returns the finished .docx bytes.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kingrea/licensedoc/internal/docx"
	"github.com/kingrea/licensedoc/internal/licenseinfo"
)

// TracerName names the tracer that records generation spans.
const TracerName = "github.com/kingrea/licensedoc/internal/report"

// TemplateSource supplies template bytes by variant name.
type TemplateSource interface {
	Template(name string) ([]byte, error)
}

// UserDirectory resolves project members by email.
type UserDirectory interface {
	UserByEmail(ctx context.Context, email string) (licenseinfo.User, error)
}

// LicenseCatalog lists the known licenses with their obligation texts.
type LicenseCatalog interface {
	Licenses(ctx context.Context) ([]licenseinfo.License, error)
}

// Logger receives generation notes. *logbook.Logbook satisfies it.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

// ProgressFunc is called after each completed pipeline step.
type ProgressFunc func(step string)

// Request carries the domain data of one generation run.
type Request struct {
	LicenseResults    []licenseinfo.ParsingResult
	Project           licenseinfo.Project
	ObligationResults []licenseinfo.ObligationParsingResult
	User              licenseinfo.User
	ExternalIDs       map[string]string
	ObligationStatus  map[string]licenseinfo.ObligationStatusInfo
}

// Generator fills templates. It keeps no per-run state, so one generator may
// serve concurrent calls.
type Generator struct {
	templates TemplateSource
	users     UserDirectory
	catalog   LicenseCatalog
	log       Logger
	progress  ProgressFunc
	tracer    trace.Tracer
}

// Option configures a Generator.
type Option func(*Generator)

// WithUserDirectory sets the directory used for the report's attendee table.
func WithUserDirectory(users UserDirectory) Option {
	return func(g *Generator) { g.users = users }
}

// WithLicenseCatalog sets the catalog used for per-license obligations.
func WithLicenseCatalog(catalog LicenseCatalog) Option {
	return func(g *Generator) { g.catalog = catalog }
}

// WithLogger routes generation notes to log.
func WithLogger(log Logger) Option {
	return func(g *Generator) { g.log = log }
}

// WithProgress reports each completed step to fn.
func WithProgress(fn ProgressFunc) Option {
	return func(g *Generator) { g.progress = fn }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Generator) { g.tracer = tracer }
}

// New builds a generator over a template source.
func New(templates TemplateSource, opts ...Option) *Generator {
	g := &Generator{templates: templates}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = nopLogger{}
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer(TracerName)
	}
	return g
}

// Generate fills the variant's template and returns the document bytes. On
// failure it returns a *Error and no bytes; a cancelled context returns the
// context's error.
func (g *Generator) Generate(ctx context.Context, v Variant, req Request) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("report: generate: nil variant")
	}
	ctx, span := g.tracer.Start(ctx, "report.Generate", trace.WithAttributes(
		attribute.String("licensedoc.variant", v.Name()),
		attribute.String("licensedoc.project", req.Project.Name),
		attribute.Int("licensedoc.releases", len(req.LicenseResults)),
	))
	defer span.End()

	data, err := g.generate(ctx, v, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.log.Warn("generate %s for %q failed: %v", v.Name(), req.Project.Name, err)
		return nil, err
	}
	g.log.Info("generated %s for %q (%d bytes)", v.Name(), req.Project.Name, len(data))
	return data, nil
}

func (g *Generator) generate(ctx context.Context, v Variant, req Request) ([]byte, error) {
	if g.templates == nil {
		return nil, newError(KindTemplateLoad, "load template", fmt.Errorf("no template source"))
	}
	raw, err := g.templates.Template(v.Name())
	if err != nil {
		return nil, newError(KindTemplateLoad, "load template", err)
	}
	doc, err := docx.Open(raw)
	if errors.Is(err, docx.ErrCorruptTemplate) {
		return nil, newError(KindCorruptTemplate, "open template", err)
	}
	if err != nil {
		return nil, newError(KindTemplateLoad, "open template", err)
	}

	r := &run{gen: g, ctx: ctx, doc: doc, req: req}
	switch v := v.(type) {
	case Disclosure:
		err = r.disclosure(v)
	case Report:
		err = r.report(v)
	default:
		err = fmt.Errorf("report: unsupported variant %T", v)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := doc.Bytes()
	if err != nil {
		return nil, newError(KindSerialization, "serialize", err)
	}
	return out, nil
}

// run is the state of one generation call.
type run struct {
	gen      *Generator
	ctx      context.Context
	doc      *docx.Document
	req      Request
	licenses []licenseinfo.License
	fetched  bool
}

// do runs one pipeline step inside its own span.
func (r *run) do(step string, fn func(ctx context.Context) error) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	ctx, span := r.gen.tracer.Start(r.ctx, "report."+strings.ReplaceAll(step, " ", "_"))
	defer span.End()
	if err := fn(ctx); err != nil {
		err = classify(step, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if r.gen.progress != nil {
		r.gen.progress(step)
	}
	return nil
}

// catalogLicenses fetches the license catalog once per run.
func (r *run) catalogLicenses(ctx context.Context) ([]licenseinfo.License, error) {
	if r.fetched {
		return r.licenses, nil
	}
	if r.gen.catalog == nil {
		return nil, newError(KindUpstreamLookup, "license catalog", fmt.Errorf("no license catalog configured"))
	}
	licenses, err := r.gen.catalog.Licenses(ctx)
	if err != nil {
		return nil, newError(KindUpstreamLookup, "license catalog", err)
	}
	r.licenses = licenses
	r.fetched = true
	return licenses, nil
}

// lookupUser resolves an email, degrading to the email itself and an unknown
// department when the directory cannot answer.
func (r *run) lookupUser(ctx context.Context, email string) (licenseinfo.User, bool) {
	if r.gen.users == nil {
		return licenseinfo.User{Email: email}, false
	}
	user, err := r.gen.users.UserByEmail(ctx, email)
	if err != nil {
		r.gen.log.Warn("user lookup %s: %v", email, err)
		return licenseinfo.User{Email: email}, false
	}
	return user, true
}

// successful returns the results whose parsing succeeded.
func successful(results []licenseinfo.ParsingResult) []licenseinfo.ParsingResult {
	var out []licenseinfo.ParsingResult
	for _, result := range results {
		if result.Succeeded() {
			out = append(out, result)
		}
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
