// Package artifact stores generated documents next to a YAML sidecar that
// records their provenance, and checks stored documents against it.

package artifact

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Metadata captures provenance stored in a document's sidecar file.
type Metadata struct {
	ArtifactID string
	Variant    string
	Version    string
	RunID      string
	Inputs     []string
	CreatedAt  time.Time
	Checksum   string
	Notes      map[string]string
}

// WithDefaults ensures metadata carries the document id, a run id and a
// timestamp.
func (m Metadata) WithDefaults(id string, now time.Time) Metadata {
	clone := m
	if clone.ArtifactID == "" {
		clone.ArtifactID = id
	}
	if clone.RunID == "" {
		clone.RunID = uuid.NewString()
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now.UTC()
	} else {
		clone.CreatedAt = clone.CreatedAt.UTC()
	}
	clone.Inputs = append([]string{}, m.Inputs...)
	clone.Notes = cloneNotes(m.Notes)
	return clone
}

// ValidateFor ensures metadata belongs to the document id.
func (m Metadata) ValidateFor(id string) error {
	if m.ArtifactID != id {
		return fmt.Errorf("artifact: metadata id %s does not match %s", m.ArtifactID, id)
	}
	if m.Variant == "" {
		return fmt.Errorf("artifact: variant is required for %s", id)
	}
	if m.Version == "" {
		return fmt.Errorf("artifact: version is required for %s", id)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		return fmt.Errorf("artifact: run id of %s: %w", id, err)
	}
	return nil
}

// State captures the readiness of a stored document.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult captures Store.Check results.
type CheckResult struct {
	ID       string
	Path     string
	State    State
	Metadata *Metadata
	Err      error
}

var unsafeID = regexp.MustCompile(`[^a-z0-9._-]+`)

// DocumentID derives a file-safe document id from a project and variant,
// for example "lattice-1.0-report".
func DocumentID(project, version, variant string) string {
	parts := []string{project, version, variant}
	for i, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		parts[i] = strings.Trim(unsafeID.ReplaceAllString(p, "-"), "-.")
	}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "document"
	}
	return strings.Join(kept, "-")
}

func validID(id string) error {
	if id == "" {
		return fmt.Errorf("artifact: id is required")
	}
	if id != unsafeID.ReplaceAllString(id, "-") || strings.HasPrefix(id, ".") {
		return fmt.Errorf("artifact: id %q is not file safe", id)
	}
	return nil
}
