package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleDirectory = `
users:
  - email: Owner@Example.com
    full_name: Olivia Owner
    department: CT
licenses:
  - id: Apache-2.0
    obligations:
      - Keep notices
`

func TestParseAndLookup(t *testing.T) {
	dir, err := Parse([]byte(sampleDirectory))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	user, err := dir.UserByEmail(context.Background(), " owner@example.com")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if user.Department != "CT" {
		t.Fatalf("user = %+v", user)
	}
	if _, err := dir.UserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("err = %v, want ErrUnknownUser", err)
	}

	licenses, err := dir.Licenses(context.Background())
	if err != nil {
		t.Fatalf("Licenses: %v", err)
	}
	licenses[0].ID = "mutated"
	again, _ := dir.Licenses(context.Background())
	if again[0].ID != "Apache-2.0" {
		t.Fatalf("Licenses returned shared storage")
	}
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	for name, body := range map[string]string{
		"missing email": "users:\n  - full_name: Nobody",
		"missing id":    "licenses:\n  - full_name: Apache",
		"duplicate":     "users:\n  - email: a@x.io\n  - email: A@x.io",
	} {
		if _, err := Parse([]byte(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadEmptyPathIsEmptyDirectory(t *testing.T) {
	dir, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if users, licenses := dir.Len(); users != 0 || licenses != 0 {
		t.Fatalf("Len = %d, %d", users, licenses)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.yaml")
	if err := os.WriteFile(path, []byte(sampleDirectory), 0o644); err != nil {
		t.Fatal(err)
	}
	dir, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if users, licenses := dir.Len(); users != 1 || licenses != 1 {
		t.Fatalf("Len = %d, %d", users, licenses)
	}
}

func TestCancelledContext(t *testing.T) {
	dir, _ := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := dir.Licenses(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
