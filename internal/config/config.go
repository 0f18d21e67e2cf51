// internal/config/config.go
//
// This package handles configuration and the .licensedoc directory structure.
// A project that generates documents gets a .licensedoc/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/licensedoc/internal/obligations"
)

const (
	// ProjectDirName is the name of the directory created in each project.
	ProjectDirName = ".licensedoc"

	defaultHost = "127.0.0.1"
	defaultPort = 8971
)

const defaultProjectConfigYAML = `# licensedoc project configuration
version: 1

report:
  # Minimum number of obligation records naming a license before it gets its
  # own component obligation table.
  threshold: 3
  # last-write-wins keeps one obligation per license, collect-all keeps every
  # distinct obligation.
  obligation_grouping: last-write-wins

disclosure:
  include_obligations: false

# Directory with disclosure.docx / report.docx overrides. Empty uses the
# built-in templates.
templates:
  dir: ""

# YAML file with users and the license catalog.
directory:
  path: ""

output:
  dir: .licensedoc/documents

server:
  host: 127.0.0.1
  port: 8971
  max_body_mb: 8
  generate_timeout: 1m

# Trace exporter for generation spans: none, stderr or file.
tracing:
  exporter: none
  file: .licensedoc/logs/traces.json
`

// ReportConfig tunes the clearing report.
type ReportConfig struct {
	Threshold          int    `yaml:"threshold" env:"THRESHOLD"`
	ObligationGrouping string `yaml:"obligation_grouping" env:"OBLIGATION_GROUPING"`
}

// DisclosureConfig tunes the disclosure document.
type DisclosureConfig struct {
	IncludeObligations bool `yaml:"include_obligations" env:"INCLUDE_OBLIGATIONS"`
}

// TemplatesConfig locates template overrides.
type TemplatesConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

// DirectoryConfig locates the user and license directory file.
type DirectoryConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// OutputConfig locates the document store.
type OutputConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
	// MaxBodyMB caps bundle uploads. Zero uses the server default.
	MaxBodyMB int `yaml:"max_body_mb" env:"MAX_BODY_MB"`
	// GenerateTimeout bounds one generation request. Zero uses the server
	// default.
	GenerateTimeout time.Duration `yaml:"generate_timeout" env:"GENERATE_TIMEOUT"`
}

// TracingConfig selects the trace exporter.
type TracingConfig struct {
	Exporter string `yaml:"exporter" env:"EXPORTER"`
	File     string `yaml:"file" env:"FILE"`
}

// ProjectConfig models .licensedoc/config.yaml.
type ProjectConfig struct {
	Version    int              `yaml:"version"`
	Report     ReportConfig     `yaml:"report" envPrefix:"REPORT_"`
	Disclosure DisclosureConfig `yaml:"disclosure" envPrefix:"DISCLOSURE_"`
	Templates  TemplatesConfig  `yaml:"templates" envPrefix:"TEMPLATES_"`
	Directory  DirectoryConfig  `yaml:"directory" envPrefix:"DIRECTORY_"`
	Output     OutputConfig     `yaml:"output" envPrefix:"OUTPUT_"`
	Server     ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Tracing    TracingConfig    `yaml:"tracing" envPrefix:"TRACING_"`
}

// Config holds the runtime configuration for licensedoc.
type Config struct {
	// ProjectDir is the directory licensedoc was started from.
	ProjectDir string

	// DataDir is ProjectDir/.licensedoc
	DataDir string

	Project ProjectConfig
}

// InitProjectDir creates the .licensedoc directory structure in the given
// project directory.
//
// Structure created:
// .licensedoc/
// ├── config.yaml
// ├── logs/       <- generation log
// └── documents/  <- generated documents and their metadata
func InitProjectDir(projectDir string) error {
	dataDir := filepath.Join(projectDir, ProjectDirName)
	dirs := []string{
		filepath.Join(dataDir, "logs"),
		filepath.Join(dataDir, "documents"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(dataDir, "config.yaml"))
}

// Load reads .licensedoc/config.yaml below projectDir, when present, and
// applies LICENSEDOC_* environment overrides.
func Load(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		DataDir:    filepath.Join(projectDir, ProjectDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(os.Environ()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogPath returns the path of the generation log.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "logs", "licensedoc.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

// OutputDir returns the resolved document store directory.
func (c *Config) OutputDir() string {
	return c.Project.Output.Dir
}

// TemplatesDir returns the resolved template override directory, or "".
func (c *Config) TemplatesDir() string {
	return c.Project.Templates.Dir
}

// DirectoryPath returns the resolved directory file path, or "".
func (c *Config) DirectoryPath() string {
	return c.Project.Directory.Path
}

// Grouping returns the configured obligation grouping policy.
func (c *Config) Grouping() obligations.Policy {
	policy, _ := obligations.ParsePolicy(c.Project.Report.ObligationGrouping)
	return policy
}

// TraceFile returns the resolved trace file path.
func (c *Config) TraceFile() string {
	return c.Project.Tracing.File
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Project.Server.Host, c.Project.Server.Port)
}

func (c *Config) loadProjectConfig(environ []string) error {
	parsed := defaultProjectConfig()
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&parsed, env.Options{
		Prefix:      "LICENSEDOC_",
		Environment: env.ToMap(environ),
	}); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Report: ReportConfig{
			Threshold:          obligations.DefaultThreshold,
			ObligationGrouping: obligations.LastWriteWins.String(),
		},
		Output: OutputConfig{Dir: filepath.Join(ProjectDirName, "documents")},
		Server:  ServerConfig{Host: defaultHost, Port: defaultPort},
		Tracing: TracingConfig{Exporter: "none", File: defaultTraceFile()},
	}
}

func defaultTraceFile() string {
	return filepath.Join(ProjectDirName, "logs", "traces.json")
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Report.Threshold == 0 {
		pc.Report.Threshold = obligations.DefaultThreshold
	}
	if strings.TrimSpace(pc.Output.Dir) == "" {
		pc.Output.Dir = filepath.Join(ProjectDirName, "documents")
	}
	if strings.TrimSpace(pc.Server.Host) == "" {
		pc.Server.Host = defaultHost
	}
	if pc.Server.Port == 0 {
		pc.Server.Port = defaultPort
	}
	if strings.TrimSpace(pc.Tracing.Exporter) == "" {
		pc.Tracing.Exporter = "none"
	}
	if strings.TrimSpace(pc.Tracing.File) == "" {
		pc.Tracing.File = defaultTraceFile()
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Report.ObligationGrouping = strings.ToLower(strings.TrimSpace(pc.Report.ObligationGrouping))
	if pc.Report.ObligationGrouping == "" {
		pc.Report.ObligationGrouping = obligations.LastWriteWins.String()
	}
	pc.Templates.Dir = resolvePath(base, pc.Templates.Dir)
	pc.Directory.Path = resolvePath(base, pc.Directory.Path)
	pc.Output.Dir = resolvePath(base, pc.Output.Dir)
	pc.Server.Host = strings.TrimSpace(pc.Server.Host)
	pc.Tracing.Exporter = strings.ToLower(strings.TrimSpace(pc.Tracing.Exporter))
	pc.Tracing.File = resolvePath(base, pc.Tracing.File)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Report.Threshold < 1 {
		return fmt.Errorf("report.threshold must be >= 1")
	}
	if _, err := obligations.ParsePolicy(pc.Report.ObligationGrouping); err != nil {
		return fmt.Errorf("report.obligation_grouping: %w", err)
	}
	if pc.Server.Port < 1 || pc.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if pc.Server.MaxBodyMB < 0 {
		return fmt.Errorf("server.max_body_mb must not be negative")
	}
	if pc.Server.GenerateTimeout < 0 {
		return fmt.Errorf("server.generate_timeout must not be negative")
	}
	switch pc.Tracing.Exporter {
	case "none", "stderr", "file":
	default:
		return fmt.Errorf("tracing.exporter must be none, stderr or file, got %q", pc.Tracing.Exporter)
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
