package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingSidecar indicates a document has no metadata file.
	ErrMissingSidecar = errors.New("artifact: missing sidecar")
	// ErrMalformedSidecar indicates the metadata file could not be used.
	ErrMalformedSidecar = errors.New("artifact: malformed sidecar")
)

// ParseSidecar decodes a metadata sidecar.
func ParseSidecar(content []byte) (Metadata, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return Metadata{}, ErrMissingSidecar
	}
	var envelope sidecarEnvelope
	if err := yaml.Unmarshal(content, &envelope); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrMalformedSidecar, err)
	}
	return envelope.toMetadata()
}

// WriteSidecar renders metadata as a sidecar document.
func WriteSidecar(meta Metadata) ([]byte, error) {
	if meta.ArtifactID == "" {
		return nil, fmt.Errorf("artifact: metadata missing artifact id")
	}
	envelope := sidecarEnvelope{}
	envelope.fromMetadata(meta)
	data, err := yaml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("artifact: encode sidecar: %w", err)
	}
	return data, nil
}

type sidecarEnvelope struct {
	Document sidecarMetadata `yaml:"licensedoc"`
}

type sidecarMetadata struct {
	Artifact string            `yaml:"artifact"`
	Variant  string            `yaml:"variant"`
	Version  string            `yaml:"version"`
	Run      string            `yaml:"run"`
	Inputs   []string          `yaml:"inputs,omitempty"`
	Created  string            `yaml:"created"`
	Checksum string            `yaml:"sha256"`
	Notes    map[string]string `yaml:"notes,omitempty"`
}

func (e sidecarEnvelope) toMetadata() (Metadata, error) {
	d := e.Document
	if d.Artifact == "" || d.Variant == "" || d.Version == "" || d.Checksum == "" {
		return Metadata{}, ErrMalformedSidecar
	}
	created, err := parseTime(d.Created)
	if err != nil {
		return Metadata{}, fmt.Errorf("artifact: parse created timestamp: %w", err)
	}
	return Metadata{
		ArtifactID: d.Artifact,
		Variant:    d.Variant,
		Version:    d.Version,
		RunID:      d.Run,
		Inputs:     append([]string{}, d.Inputs...),
		CreatedAt:  created,
		Checksum:   d.Checksum,
		Notes:      cloneNotes(d.Notes),
	}, nil
}

func (e *sidecarEnvelope) fromMetadata(meta Metadata) {
	e.Document = sidecarMetadata{
		Artifact: meta.ArtifactID,
		Variant:  meta.Variant,
		Version:  meta.Version,
		Run:      meta.RunID,
		Inputs:   append([]string{}, meta.Inputs...),
		Created:  meta.CreatedAt.UTC().Format(timeLayout),
		Checksum: meta.Checksum,
		Notes:    cloneNotes(meta.Notes),
	}
}

func cloneNotes(notes map[string]string) map[string]string {
	if len(notes) == 0 {
		return nil
	}
	cloned := make(map[string]string, len(notes))
	for k, v := range notes {
		cloned[k] = v
	}
	return cloned
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func parseTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("artifact: empty created timestamp")
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
