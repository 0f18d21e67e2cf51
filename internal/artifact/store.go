package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	docExt     = ".docx"
	sidecarExt = ".meta.yaml"
)

// Store manages generated documents rooted at one directory.
type Store struct {
	dir string
	now func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for metadata timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore builds a store writing below dir.
func NewStore(dir string, opts ...StoreOption) *Store {
	store := &Store{
		dir: filepath.Clean(dir),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the document id is stored.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+docExt)
}

func (s *Store) sidecarPath(id string) string {
	return s.Path(id) + sidecarExt
}

// Write persists the document and its sidecar and returns the stored
// metadata. The checksum is always computed from body.
func (s *Store) Write(id string, body []byte, meta Metadata) (Metadata, error) {
	if err := validID(id); err != nil {
		return Metadata{}, err
	}
	prepared := meta.WithDefaults(id, s.now())
	prepared.Checksum = checksum(body)
	if err := prepared.ValidateFor(id); err != nil {
		return Metadata{}, err
	}
	sidecar, err := WriteSidecar(prepared)
	if err != nil {
		return Metadata{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Metadata{}, fmt.Errorf("artifact: ensure store dir: %w", err)
	}
	if err := writeAtomic(s.Path(id), body); err != nil {
		return Metadata{}, err
	}
	if err := writeAtomic(s.sidecarPath(id), sidecar); err != nil {
		return Metadata{}, err
	}
	return prepared, nil
}

// Read returns a stored document after checking it.
func (s *Store) Read(id string) ([]byte, Metadata, error) {
	result, err := s.Check(id)
	if err != nil {
		return nil, Metadata{}, err
	}
	if result.State != StateReady {
		return nil, Metadata{}, fmt.Errorf("artifact: %s is %s", id, result.State)
	}
	data, err := os.ReadFile(result.Path)
	if err != nil {
		return nil, Metadata{}, err
	}
	return data, *result.Metadata, nil
}

// Check inspects a stored document and its sidecar.
func (s *Store) Check(id string) (CheckResult, error) {
	if err := validID(id); err != nil {
		return CheckResult{ID: id, State: StateError, Err: err}, err
	}
	path := s.Path(id)
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{ID: id, Path: path, State: StateMissing}, nil
		}
		return CheckResult{ID: id, Path: path, State: StateError, Err: err}, err
	}
	raw, err := os.ReadFile(s.sidecarPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return invalidResult(id, path, ErrMissingSidecar)
		}
		return CheckResult{ID: id, Path: path, State: StateError, Err: err}, err
	}
	meta, err := ParseSidecar(raw)
	if err != nil {
		return invalidResult(id, path, err)
	}
	if meta.ArtifactID != id {
		return invalidResult(id, path, fmt.Errorf("artifact: metadata id %s does not match %s", meta.ArtifactID, id))
	}
	if sum := checksum(body); sum != meta.Checksum {
		return invalidResult(id, path, fmt.Errorf("artifact: checksum mismatch for %s", id))
	}
	return CheckResult{ID: id, Path: path, State: StateReady, Metadata: &meta}, nil
}

// List checks every document in the store, ordered by id.
func (s *Store) List() ([]CheckResult, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("artifact: read %s: %w", s.dir, err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, docExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, docExt))
	}
	sort.Strings(ids)
	results := make([]CheckResult, 0, len(ids))
	for _, id := range ids {
		result, _ := s.Check(id)
		results = append(results, result)
	}
	return results, nil
}

func checksum(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("artifact: create temp for %s: %w", path, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("artifact: close %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("artifact: rename %s: %w", path, err)
	}
	return nil
}

func invalidResult(id, path string, err error) (CheckResult, error) {
	return CheckResult{ID: id, Path: path, State: StateInvalid, Err: err}, err
}
