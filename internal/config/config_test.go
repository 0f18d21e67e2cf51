package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/licensedoc/internal/obligations"
)

func newTestConfig(t *testing.T, configYAML string) *Config {
	t.Helper()
	projectDir := t.TempDir()
	dataDir := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if configYAML != "" {
		if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(strings.TrimSpace(configYAML)), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return &Config{ProjectDir: projectDir, DataDir: dataDir, Project: defaultProjectConfig()}
}

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	c := newTestConfig(t, "")
	if err := c.loadProjectConfig(nil); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Project.Report.Threshold != obligations.DefaultThreshold {
		t.Fatalf("threshold = %d, want %d", c.Project.Report.Threshold, obligations.DefaultThreshold)
	}
	if c.Grouping() != obligations.LastWriteWins {
		t.Fatalf("grouping = %v", c.Grouping())
	}
	if want := filepath.Join(c.ProjectDir, ProjectDirName, "documents"); c.OutputDir() != want {
		t.Fatalf("output dir = %s, want %s", c.OutputDir(), want)
	}
	if c.Addr() != "127.0.0.1:8971" {
		t.Fatalf("addr = %s", c.Addr())
	}
	if c.Project.Tracing.Exporter != "none" {
		t.Fatalf("tracing exporter = %q", c.Project.Tracing.Exporter)
	}
	if want := filepath.Join(c.ProjectDir, ProjectDirName, "logs", "traces.json"); c.TraceFile() != want {
		t.Fatalf("trace file = %s, want %s", c.TraceFile(), want)
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	c := newTestConfig(t, `
version: 1
report:
  threshold: 5
  obligation_grouping: Collect-All
disclosure:
  include_obligations: true
templates:
  dir: templates
directory:
  path: /etc/licensedoc/directory.yaml
server:
  port: 9000
`)
	if err := c.loadProjectConfig(nil); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Report.Threshold != 5 || c.Grouping() != obligations.CollectAll {
		t.Fatalf("report config = %+v", c.Project.Report)
	}
	if !c.Project.Disclosure.IncludeObligations {
		t.Fatalf("expected include_obligations")
	}
	if !strings.HasPrefix(c.TemplatesDir(), c.ProjectDir) {
		t.Fatalf("expected templates dir to be resolved, got %s", c.TemplatesDir())
	}
	if c.DirectoryPath() != "/etc/licensedoc/directory.yaml" {
		t.Fatalf("directory path = %s", c.DirectoryPath())
	}
	if c.Addr() != "127.0.0.1:9000" {
		t.Fatalf("addr = %s", c.Addr())
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	c := newTestConfig(t, `
report:
  threshold: 5
`)
	environ := []string{
		"LICENSEDOC_REPORT_THRESHOLD=2",
		"LICENSEDOC_SERVER_HOST=0.0.0.0",
		"LICENSEDOC_DISCLOSURE_INCLUDE_OBLIGATIONS=true",
		"LICENSEDOC_SERVER_GENERATE_TIMEOUT=45s",
		"LICENSEDOC_TRACING_EXPORTER=File",
		"UNRELATED=1",
	}
	if err := c.loadProjectConfig(environ); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Report.Threshold != 2 {
		t.Fatalf("threshold = %d, want 2", c.Project.Report.Threshold)
	}
	if c.Project.Server.Host != "0.0.0.0" || !c.Project.Disclosure.IncludeObligations {
		t.Fatalf("env overrides not applied: %+v", c.Project)
	}
	if c.Project.Server.GenerateTimeout != 45*time.Second {
		t.Fatalf("generate timeout = %s", c.Project.Server.GenerateTimeout)
	}
	if c.Project.Tracing.Exporter != "file" {
		t.Fatalf("tracing exporter = %q", c.Project.Tracing.Exporter)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	for name, body := range map[string]string{
		"policy":    "report:\n  obligation_grouping: newest",
		"threshold": "report:\n  threshold: -1",
		"port":      "server:\n  port: 70000",
		"timeout":   "server:\n  generate_timeout: -1s",
		"exporter":  "tracing:\n  exporter: zipkin",
	} {
		c := newTestConfig(t, body)
		if err := c.loadProjectConfig(nil); err == nil {
			t.Fatalf("%s: expected validation error but got none", name)
		}
	}
}

func TestInitProjectDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatalf("InitProjectDir: %v", err)
	}
	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Project.Report.Threshold != obligations.DefaultThreshold {
		t.Fatalf("default file threshold = %d", cfg.Project.Report.Threshold)
	}
	if cfg.Project.Server.GenerateTimeout != time.Minute || cfg.Project.Server.MaxBodyMB != 8 {
		t.Fatalf("default server config = %+v", cfg.Project.Server)
	}
	if _, err := os.Stat(filepath.Join(projectDir, ProjectDirName, "logs")); err != nil {
		t.Fatalf("logs dir missing: %v", err)
	}
}
