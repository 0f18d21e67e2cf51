// Package server exposes document generation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/licensedoc/internal/artifact"
	"github.com/kingrea/licensedoc/internal/input"
	"github.com/kingrea/licensedoc/internal/report"
)

// ProtocolVersion identifies the HTTP contract version exposed via /health.
const ProtocolVersion = "1.0.0"

// DocxContentType is the media type of generated documents.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// Generator renders a document for a variant.
type Generator interface {
	Generate(ctx context.Context, v report.Variant, req report.Request) ([]byte, error)
}

// VariantResolver maps the variant path segment to a configured variant.
type VariantResolver func(name string) (report.Variant, error)

// Logger receives request outcomes.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

// Server wraps the HTTP listener and handlers.
type Server struct {
	settings  Settings
	generator Generator
	variants  VariantResolver
	store     *artifact.Store
	version   string
	logger    Logger
	clock     func() time.Time

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithStore persists every generated document.
func WithStore(store *artifact.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithVariants overrides how variant names are resolved.
func WithVariants(resolve VariantResolver) Option {
	return func(s *Server) {
		if resolve != nil {
			s.variants = resolve
		}
	}
}

// WithVersion sets the generator version recorded in stored metadata.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewServer prepares a document server using the provided settings.
func NewServer(settings Settings, generator Generator, opts ...Option) *Server {
	s := &Server{
		settings:  settings.withDefaults(),
		generator: generator,
		variants:  report.ParseVariant,
		version:   "dev",
		logger:    nopLogger{},
		clock:     func() time.Time { return time.Now().UTC() },
		status:    StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1/documents/{variant}", s.handleGenerate)
	mux.HandleFunc("GET /v1/documents/{id}", s.handleFetch)
	return mux
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server: server is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("server: already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      s.settings.writeTimeout(),
		IdleTimeout:       idleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("server: serve error: %v", err)
		}
	}()
	s.logger.Info("server: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(s.clock().Sub(s.startTime).Seconds())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		Version:       ProtocolVersion,
		StoreEnabled:  s.store != nil,
		UptimeSeconds: s.uptimeSeconds(),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	variant, err := s.variants(r.PathValue("variant"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "payload exceeds limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unable to read body"})
		return
	}
	bundle, err := input.Parse(body, input.DetectFormat(r.Header.Get("Content-Type"), body))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if bundle.Variant != "" && bundle.Variant != variant.Name() {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("bundle variant %q does not match %q", bundle.Variant, variant.Name()),
		})
		return
	}

	runID := uuid.NewString()
	ctx, cancel := context.WithTimeout(r.Context(), s.settings.GenerateTimeout)
	defer cancel()
	data, err := s.generator.Generate(ctx, variant, bundle.Request())
	if err != nil {
		status := statusFor(err)
		s.logger.Warn("[%s] generate %s for %q: %v", runID, variant.Name(), bundle.Project.Name, err)
		resp := errorResponse{Error: err.Error(), RunID: runID}
		if kind := report.KindOf(err); kind != 0 {
			resp.Kind = kind.String()
		}
		writeJSON(w, status, resp)
		return
	}

	id := artifact.DocumentID(bundle.Project.Name, bundle.Project.Version, variant.Name())
	if s.store != nil {
		meta, err := s.store.Write(id, data, artifact.Metadata{
			Variant:   variant.Name(),
			Version:   s.version,
			RunID:     runID,
			Inputs:    []string{"http:" + r.RemoteAddr},
			CreatedAt: s.clock(),
		})
		if err != nil {
			s.logger.Warn("[%s] store %s: %v", runID, id, err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "unable to store document", RunID: runID})
			return
		}
		w.Header().Set("X-Document-Id", meta.ArtifactID)
		w.Header().Set("X-Checksum-Sha256", meta.Checksum)
	}
	s.logger.Info("[%s] generated %s (%d bytes)", runID, id, len(data))
	writeDocument(w, id, runID, data)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "document store disabled"})
		return
	}
	id := r.PathValue("id")
	result, err := s.store.Check(id)
	switch {
	case result.State == artifact.StateMissing:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "document not found"})
		return
	case result.State == artifact.StateInvalid:
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	data, meta, err := s.store.Read(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("X-Checksum-Sha256", meta.Checksum)
	writeDocument(w, id, meta.RunID, data)
}

// statusFor maps generation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, report.ErrCorruptTemplate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, report.ErrUpstreamLookup):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeDocument(w http.ResponseWriter, id, runID string, data []byte) {
	w.Header().Set("Content-Type", DocxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".docx"))
	w.Header().Set("X-Run-Id", runID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	StoreEnabled  bool   `json:"store_enabled"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	RunID string `json:"run_id,omitempty"`
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
