package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/jobflow/internal/candidate"
)

// File reads records from a local JSON file holding either an array or an
// object with a "jobs" list. The file is read on every Pull.
type File struct {
	Name string
	Path string
}

func NewFile(name, path string) *File {
	if strings.TrimSpace(name) == "" {
		name = "file:" + filepath.Base(path)
	}
	return &File{Name: name, Path: path}
}

func (f *File) ID() string { return f.Name }

func (f *File) Pull(ctx context.Context, _ candidate.SearchQuery) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}

	records, err := extractRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return records, nil
}
