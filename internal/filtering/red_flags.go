package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/jobs"
)

type redFlagsFilter struct {
	toggle
	terms []string
}

// NewRedFlags creates a filter that drops postings mentioning any of terms
// in the title, company or description. Matching is case-insensitive.
func NewRedFlags(terms []string) Filter {
	f := &redFlagsFilter{}
	for _, term := range terms {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			f.terms = append(f.terms, term)
		}
	}
	return f
}

func (f *redFlagsFilter) Name() string { return "red_flags" }

func (f *redFlagsFilter) Validate() error { return nil }

func (f *redFlagsFilter) Apply(_ context.Context, deps Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)
	if len(f.terms) == 0 {
		return postings, Step{Initial: initial, Left: initial}, nil
	}

	left, dropped := keep(postings, func(p jobs.Posting) bool {
		return ContainsRedFlag(p.Title, p.Company, p.Description, f.terms)
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding postings with red flags",
			zap.Strings("excluded_postings", dropped),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: initial, Dropped: len(dropped), Left: len(left)}, nil
}

func (f *redFlagsFilter) Status() Status {
	details := map[string]string{}
	if len(f.terms) > 0 {
		details["terms"] = strings.Join(f.terms, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// ContainsRedFlag reports whether any flag appears in the combined title,
// company and description text, ignoring case.
func ContainsRedFlag(title, company, description string, flags []string) bool {
	if len(flags) == 0 {
		return false
	}
	combined := strings.ToLower(title + " " + company + " " + description)
	for _, flag := range flags {
		if flag == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(flag)) {
			return true
		}
	}
	return false
}
