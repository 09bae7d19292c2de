package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "token")
	if err := os.WriteFile(file, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}

	t.Setenv("JOBFLOW_TEST_SECRET", " from-env ")

	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{name: "file wins", src: Source{File: file, Env: "JOBFLOW_TEST_SECRET", Value: "inline"}, expect: "from-file"},
		{name: "env over value", src: Source{Env: "JOBFLOW_TEST_SECRET", Value: "inline"}, expect: "from-env"},
		{name: "value", src: Source{Value: " inline "}, expect: "inline"},
		{name: "unset env falls back", src: Source{Env: "JOBFLOW_TEST_UNSET", Value: "inline"}, expect: "inline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("   "), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := Load(Source{Name: "api key"}); err == nil {
		t.Fatalf("expected error for missing secret")
	}
	if _, err := Load(Source{File: empty}); err == nil {
		t.Fatalf("expected error for empty file")
	}
	if _, err := Load(Source{File: filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestOptional(t *testing.T) {
	got, err := Optional(Source{Name: "token"})
	if err != nil || got != "" {
		t.Fatalf("expected empty secret without error, got %q, %v", got, err)
	}

	if _, err := Optional(Source{File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected error for unreadable file")
	}
}
