package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/config"
	"github.com/spigell/jobflow/internal/jobs"
)

// Filter represents a single exclusion step applied to aggregated postings.
// Survivors keep their relative order.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, deps Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// StepError is a failed filter. The step is skipped and the postings it
// received are passed on unchanged.
type StepError struct {
	Filter string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("filter %s: %v", e.Filter, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// FromConfig returns the standard filter chain: red flags, employers, exclude file.
func FromConfig(cfg config.Filters) []Filter {
	return []Filter{
		NewRedFlags(cfg.RedFlags),
		NewEmployers(cfg.Employers),
		NewExcludeFile(cfg.ExcludeFile),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially. A filter that fails
// validation or application is skipped and reported; the rest still run.
func Run(ctx context.Context, deps Deps, steps []Filter, postings []jobs.Posting) ([]jobs.Posting, []*StepError) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
		deps.Logger = logger
	}

	var failures []*StepError
	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		if err := step.Validate(); err != nil {
			failures = append(failures, &StepError{Filter: step.Name(), Err: err})
			logger.Warn("filter skipped", zap.String("name", step.Name()), zap.Error(err))
			continue
		}

		next, info, err := step.Apply(ctx, deps, postings)
		if err != nil {
			failures = append(failures, &StepError{Filter: step.Name(), Err: err})
			logger.Warn("filter skipped", zap.String("name", step.Name()), zap.Error(err))
			continue
		}

		logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		postings = next
	}

	return postings, failures
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns the postings for which drop is false, preserving order, and
// the titles of the dropped ones.
func keep(postings []jobs.Posting, drop func(jobs.Posting) bool) ([]jobs.Posting, []string) {
	out := make([]jobs.Posting, 0, len(postings))
	var dropped []string
	for _, p := range postings {
		if drop(p) {
			dropped = append(dropped, p.Title)
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}

// toggle holds the enabled state shared by all filters.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }
