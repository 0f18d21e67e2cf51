// Package templates supplies the pre-authored .docx templates for the
// disclosure and report variants.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed assets/*.docx
var assets embed.FS

const (
	Disclosure = "disclosure"
	Report     = "report"
)

// ErrUnknownTemplate reports a template name with no asset behind it.
var ErrUnknownTemplate = errors.New("unknown template")

// Source loads template bytes by name. Every call returns a fresh copy, so
// callers may mutate the result without touching the stored asset.
type Source struct {
	dir string
}

// Embedded returns the templates compiled into the binary.
func Embedded() *Source {
	return &Source{}
}

// Dir returns a source that prefers <name>.docx files from dir and falls back
// to the embedded templates.
func Dir(dir string) *Source {
	return &Source{dir: strings.TrimSpace(dir)}
}

// Names lists the known template names.
func Names() []string {
	return []string{Disclosure, Report}
}

// Template returns the bytes of the named template.
func (s *Source) Template(name string) ([]byte, error) {
	file := name + ".docx"
	if s != nil && s.dir != "" {
		data, err := os.ReadFile(filepath.Join(s.dir, file))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("templates: read %s: %w", file, err)
		}
	}
	data, err := assets.ReadFile("assets/" + file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("templates: %s: %w", name, ErrUnknownTemplate)
		}
		return nil, fmt.Errorf("templates: read embedded %s: %w", file, err)
	}
	return data, nil
}
