package filtering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/jobs"
)

type ExcludedPostings struct {
	Items []*ExcludedPosting `json:"items"`
}

type ExcludedPosting struct {
	Fingerprint string    `json:"fingerprint"`
	URL         string    `json:"url,omitempty"`
	Company     string    `json:"company,omitempty"`
	Title       string    `json:"title,omitempty"`
	ExcludedAt  time.Time `json:"excluded_at"`
}

// ToExcluded builds exclude entries for postings, stamped with at.
func ToExcluded(postings []jobs.Posting, at time.Time) *ExcludedPostings {
	excluded := &ExcludedPostings{}
	for _, p := range postings {
		excluded.Items = append(excluded.Items, &ExcludedPosting{
			Fingerprint: p.Fingerprint,
			URL:         p.URL,
			Company:     p.Company,
			Title:       p.Title,
			ExcludedAt:  at.UTC(),
		})
	}
	return excluded
}

// LoadExcluded reads an exclude file. A missing or empty file is an empty list.
func LoadExcluded(path string) (*ExcludedPostings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ExcludedPostings{}, nil
		}
		return nil, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return &ExcludedPostings{}, nil
	}

	var excluded ExcludedPostings
	if err := json.Unmarshal(data, &excluded); err != nil {
		return nil, fmt.Errorf("decode exclude file %s: %w", path, err)
	}
	return &excluded, nil
}

// Append adds entries whose fingerprints are not already present.
func (e *ExcludedPostings) Append(other *ExcludedPostings) {
	if other == nil {
		return
	}
	known := e.Fingerprints()
	for _, item := range other.Items {
		if item == nil {
			continue
		}
		if _, ok := known[item.Fingerprint]; ok {
			continue
		}
		known[item.Fingerprint] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

func (e *ExcludedPostings) Fingerprints() map[string]struct{} {
	set := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		if item != nil {
			set[item.Fingerprint] = struct{}{}
		}
	}
	return set
}

func (e *ExcludedPostings) ToFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes postings listed in an exclude file.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path)}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate() error {
	if f.path == "" {
		return nil
	}
	info, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("exclude file %s is a directory", f.path)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)
	if f.path == "" {
		return postings, Step{Initial: initial, Left: initial}, nil
	}

	excluded, err := LoadExcluded(f.path)
	if err != nil {
		return postings, Step{}, fmt.Errorf("getting excluded postings from file: %w", err)
	}

	fingerprints := excluded.Fingerprints()
	left, dropped := keep(postings, func(p jobs.Posting) bool {
		_, ok := fingerprints[p.Fingerprint]
		return ok
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding postings based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_postings", dropped),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(dropped), Left: len(left)}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
