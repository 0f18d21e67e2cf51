// Package directory serves user and license catalog lookups from a YAML file.
package directory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/licensedoc/internal/licenseinfo"
)

// ErrUnknownUser is returned when no user matches an email.
var ErrUnknownUser = errors.New("directory: unknown user")

// File models the directory YAML document.
type File struct {
	Users    []licenseinfo.User    `yaml:"users" validate:"dive"`
	Licenses []licenseinfo.License `yaml:"licenses" validate:"dive"`
}

// Static answers lookups from an in-memory copy of a directory file.
type Static struct {
	users    map[string]licenseinfo.User
	licenses []licenseinfo.License
}

var validate = validator.New()

// Parse decodes and validates a directory payload.
func Parse(data []byte) (*Static, error) {
	var f File
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("directory: decode: %w", err)
		}
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	return New(f.Users, f.Licenses)
}

// Load reads a directory file. An empty path yields an empty directory.
func Load(path string) (*Static, error) {
	if strings.TrimSpace(path) == "" {
		return New(nil, nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("directory: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return s, nil
}

// New builds a directory from users and licenses. Emails are matched
// case-insensitively; a duplicate email is an error.
func New(users []licenseinfo.User, licenses []licenseinfo.License) (*Static, error) {
	s := &Static{users: make(map[string]licenseinfo.User, len(users))}
	for _, u := range users {
		key := emailKey(u.Email)
		if key == "" {
			return nil, fmt.Errorf("directory: user without email")
		}
		if _, exists := s.users[key]; exists {
			return nil, fmt.Errorf("directory: duplicate user %s", u.Email)
		}
		s.users[key] = u
	}
	s.licenses = append(s.licenses, licenses...)
	return s, nil
}

// UserByEmail returns the user registered for email.
func (s *Static) UserByEmail(ctx context.Context, email string) (licenseinfo.User, error) {
	if err := ctx.Err(); err != nil {
		return licenseinfo.User{}, err
	}
	u, ok := s.users[emailKey(email)]
	if !ok {
		return licenseinfo.User{}, fmt.Errorf("%w: %s", ErrUnknownUser, email)
	}
	return u, nil
}

// Licenses returns a copy of the license catalog.
func (s *Static) Licenses(ctx context.Context) ([]licenseinfo.License, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]licenseinfo.License, len(s.licenses))
	copy(out, s.licenses)
	return out, nil
}

// Len returns the number of users and licenses.
func (s *Static) Len() (users, licenses int) {
	return len(s.users), len(s.licenses)
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
