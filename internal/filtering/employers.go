package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/jobs"
)

type employersFilter struct {
	toggle
	employers map[string]struct{}
	names     []string
}

// NewEmployers creates a filter that removes postings by the given company
// names. Names are compared case-insensitively after trimming.
func NewEmployers(employers []string) Filter {
	f := &employersFilter{employers: make(map[string]struct{}, len(employers))}
	for _, name := range employers {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := f.employers[key]; !ok {
			f.names = append(f.names, strings.TrimSpace(name))
		}
		f.employers[key] = struct{}{}
	}
	return f
}

func (f *employersFilter) Name() string { return "employers" }

func (f *employersFilter) Validate() error { return nil }

func (f *employersFilter) Apply(_ context.Context, deps Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)
	if len(f.employers) == 0 {
		return postings, Step{Initial: initial, Left: initial}, nil
	}

	left, dropped := keep(postings, func(p jobs.Posting) bool {
		_, ok := f.employers[strings.ToLower(strings.TrimSpace(p.Company))]
		return ok
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding postings by employers",
			zap.Strings("excluded_employers", f.names),
			zap.Strings("excluded_postings", dropped),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(dropped), Left: len(left)}, nil
}

func (f *employersFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["employers"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
