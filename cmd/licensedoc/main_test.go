package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/licensedoc/internal/artifact"
	"github.com/kingrea/licensedoc/internal/config"
	"github.com/kingrea/licensedoc/internal/obligations"
	"github.com/kingrea/licensedoc/internal/report"
)

const bundleYAML = `
project:
  name: Lattice
  version: "1.0"
license_results:
  - vendor: acme
    name: alpha
    version: "1"
    status: SUCCESS
    license_info:
      licenses:
        - license_name: MIT
          license_text: MIT text
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { projectDir = "" })
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeBundle(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "bundle.yaml")
	if err := os.WriteFile(path, []byte(bundleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVariantFromConfig(t *testing.T) {
	cfg := &config.Config{Project: config.ProjectConfig{
		Report:     config.ReportConfig{Threshold: 5, ObligationGrouping: "collect-all"},
		Disclosure: config.DisclosureConfig{IncludeObligations: true},
	}}
	v, err := variantFromConfig(cfg, "report")
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(report.Report); got.Threshold != 5 || got.Policy != obligations.CollectAll {
		t.Fatalf("report variant = %+v", got)
	}
	v, err = variantFromConfig(cfg, "Disclosure")
	if err != nil {
		t.Fatal(err)
	}
	if !v.(report.Disclosure).IncludeObligations {
		t.Fatalf("disclosure variant = %+v", v)
	}
	if _, err := variantFromConfig(cfg, "letter"); err == nil {
		t.Fatalf("expected unknown variant error")
	}
}

func TestPickVariant(t *testing.T) {
	cases := []struct {
		flag, bundle, want string
		wantErr            bool
	}{
		{"report", "", "report", false},
		{"", "disclosure", "disclosure", false},
		{"Report", "report", "report", false},
		{"", "", "", true},
		{"report", "disclosure", "", true},
	}
	for _, tc := range cases {
		got, err := pickVariant(tc.flag, tc.bundle)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("pickVariant(%q, %q) = %q, %v", tc.flag, tc.bundle, got, err)
		}
	}
}

func TestGenerateWritesToStore(t *testing.T) {
	dir := t.TempDir()
	bundle := writeBundle(t, dir)
	out, err := execute(t, "generate", "--project-dir", dir, "--variant", "disclosure", "--input", bundle)
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "lattice-1.0-disclosure") {
		t.Fatalf("summary = %q", out)
	}
	store := artifact.NewStore(filepath.Join(dir, config.ProjectDirName, "documents"))
	result, err := store.Check("lattice-1.0-disclosure")
	if err != nil || result.State != artifact.StateReady {
		t.Fatalf("check = %+v, %v", result, err)
	}
	if result.Metadata.Inputs[0] != bundle || result.Metadata.Version != version {
		t.Fatalf("metadata = %+v", result.Metadata)
	}

	listed, err := execute(t, "documents", "--project-dir", dir)
	if err != nil || !strings.Contains(listed, "lattice-1.0-disclosure") || !strings.Contains(listed, "ready") {
		t.Fatalf("documents = %q, %v", listed, err)
	}
	logged, err := execute(t, "log", "--project-dir", dir)
	if err != nil || !strings.Contains(logged, "generated lattice-1.0-disclosure") {
		t.Fatalf("log = %q, %v", logged, err)
	}
}

func TestGenerateToOutFile(t *testing.T) {
	dir := t.TempDir()
	bundle := writeBundle(t, dir)
	target := filepath.Join(dir, "out", "report.docx")
	if _, err := execute(t, "generate", "--project-dir", dir, "--variant", "report", "--input", bundle, "--out", target); err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil || !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("output not a docx: %v", err)
	}
}

func TestGenerateExportsTraceFile(t *testing.T) {
	t.Setenv("LICENSEDOC_TRACING_EXPORTER", "file")
	dir := t.TempDir()
	bundle := writeBundle(t, dir)
	if _, err := execute(t, "generate", "--project-dir", dir, "--variant", "disclosure", "--input", bundle); err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, config.ProjectDirName, "logs", "traces.json"))
	if err != nil {
		t.Fatalf("read traces: %v", err)
	}
	for _, name := range []string{`"report.Generate"`, `"report.replace_tokens"`, `"report.license_texts"`} {
		if !strings.Contains(string(data), name) {
			t.Fatalf("traces missing %s", name)
		}
	}
}

func TestGenerateRequiresVariant(t *testing.T) {
	dir := t.TempDir()
	bundle := writeBundle(t, dir)
	if _, err := execute(t, "generate", "--project-dir", dir, "--input", bundle); err == nil {
		t.Fatalf("expected missing variant error")
	}
}

func TestTemplateCheckEmbedded(t *testing.T) {
	out, err := execute(t, "template", "check", "--project-dir", t.TempDir())
	if err != nil {
		t.Fatalf("template check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "disclosure template") || !strings.Contains(out, "report template") {
		t.Fatalf("output = %q", out)
	}
}

func TestTemplateCheckRejectsNonDocx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.docx")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "template", "check", "--project-dir", dir, "--variant", "report", "--file", path)
	if err == nil || report.KindOf(err) != report.KindCorruptTemplate {
		t.Fatalf("err = %v", err)
	}
}
