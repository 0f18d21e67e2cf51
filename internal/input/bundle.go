// Package input decodes the generation bundle: the project, its parsing
// results and obligation data, as YAML or JSON.
package input

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/licensedoc/internal/licenseinfo"
	"github.com/kingrea/licensedoc/internal/report"
)

// Format is the encoding of a bundle payload.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Bundle is everything a generation run needs besides the template.
type Bundle struct {
	Variant           string                                      `yaml:"variant,omitempty" json:"variant,omitempty" validate:"omitempty,oneof=disclosure report"`
	Project           licenseinfo.Project                         `yaml:"project" json:"project"`
	LicenseResults    []licenseinfo.ParsingResult                 `yaml:"license_results" json:"license_results" validate:"dive"`
	ObligationResults []licenseinfo.ObligationParsingResult       `yaml:"obligation_results,omitempty" json:"obligation_results,omitempty" validate:"dive"`
	ObligationStatus  map[string]licenseinfo.ObligationStatusInfo `yaml:"obligation_status,omitempty" json:"obligation_status,omitempty"`
	ExternalIDs       map[string]string                           `yaml:"external_ids,omitempty" json:"external_ids,omitempty" validate:"dive,keys,required,endkeys"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DetectFormat picks the payload format from a content type or file name,
// falling back to sniffing the first byte.
func DetectFormat(hint string, data []byte) Format {
	hint = strings.ToLower(strings.TrimSpace(hint))
	switch {
	case strings.Contains(hint, "json"):
		return FormatJSON
	case strings.Contains(hint, "yaml"), strings.HasSuffix(hint, ".yml"):
		return FormatYAML
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes and validates a bundle payload.
func Parse(data []byte, format Format) (Bundle, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Bundle{}, fmt.Errorf("input: bundle payload is empty")
	}
	var b Bundle
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return Bundle{}, fmt.Errorf("input: decode json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &b); err != nil {
			return Bundle{}, fmt.Errorf("input: decode yaml: %w", err)
		}
	}
	b.normalize()
	if err := b.Validate(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// Load reads a bundle file, choosing the format from its extension.
func Load(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("input: read %s: %w", path, err)
	}
	b, err := Parse(data, DetectFormat(filepath.Ext(path), data))
	if err != nil {
		return Bundle{}, fmt.Errorf("input: %s: %w", path, err)
	}
	return b, nil
}

// Validate checks the bundle against its field rules.
func (b Bundle) Validate() error {
	err := validate.Struct(b)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("input: validate: %w", err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Bundle.")
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s", field, fe.Tag()))
	}
	return fmt.Errorf("input: invalid bundle: %s", strings.Join(problems, "; "))
}

func (b *Bundle) normalize() {
	b.Variant = strings.ToLower(strings.TrimSpace(b.Variant))
	b.Project.Name = strings.TrimSpace(b.Project.Name)
	for i := range b.LicenseResults {
		r := &b.LicenseResults[i]
		r.Status = licenseinfo.RequestStatus(strings.ToUpper(strings.TrimSpace(string(r.Status))))
	}
	for i := range b.ObligationResults {
		r := &b.ObligationResults[i]
		r.Status = licenseinfo.RequestStatus(strings.ToUpper(strings.TrimSpace(string(r.Status))))
	}
}

// Request converts the bundle into a generation request.
func (b Bundle) Request() report.Request {
	return report.Request{
		LicenseResults:    b.LicenseResults,
		Project:           b.Project,
		ObligationResults: b.ObligationResults,
		ExternalIDs:       b.ExternalIDs,
		ObligationStatus:  b.ObligationStatus,
	}
}
