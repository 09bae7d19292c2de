// Package discovery composes query building, aggregation, filtering and
// matching into one call.
package discovery

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/aggregate"
	"github.com/spigell/jobflow/internal/candidate"
	"github.com/spigell/jobflow/internal/filtering"
	"github.com/spigell/jobflow/internal/jobs"
	"github.com/spigell/jobflow/internal/matching"
	"github.com/spigell/jobflow/internal/source"
)

const StatusOK = "ok"

type Options struct {
	Match     bool
	Filters   []filtering.Filter
	Aggregate aggregate.Options
	Logger    *zap.Logger
}

type Counts struct {
	Jobs    int  `json:"jobs"`
	Errors  int  `json:"errors"`
	Matches *int `json:"matches,omitempty"`
}

// RawInfo is side-channel data attached by the batch runner.
type RawInfo struct {
	ResumePath        string `json:"resume_path,omitempty"`
	ResumeTextExcerpt string `json:"resume_text_excerpt,omitempty"`
}

// Result is the outcome of one discovery run. Matches is only meaningful
// when Matched is set; the JSON form omits "matches" otherwise.
type Result struct {
	Status    string
	Candidate candidate.Summary
	Query     candidate.SearchQuery
	Jobs      []jobs.Posting
	Matches   []matching.MatchResult
	Matched   bool
	Errors    []aggregate.Error
	Counts    Counts
	Raw       *RawInfo
}

type wireResult struct {
	Status    string                  `json:"status"`
	Candidate candidate.Summary       `json:"candidate"`
	Query     candidate.SearchQuery   `json:"query"`
	Jobs      []jobs.Posting          `json:"jobs"`
	Matches   *[]matching.MatchResult `json:"matches,omitempty"`
	Errors    []aggregate.Error       `json:"errors"`
	Counts    Counts                  `json:"counts"`
	Raw       *RawInfo                `json:"raw,omitempty"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	w := wireResult{
		Status:    r.Status,
		Candidate: r.Candidate,
		Query:     r.Query,
		Jobs:      r.Jobs,
		Errors:    r.Errors,
		Counts:    r.Counts,
		Raw:       r.Raw,
	}
	if w.Jobs == nil {
		w.Jobs = []jobs.Posting{}
	}
	if w.Errors == nil {
		w.Errors = []aggregate.Error{}
	}
	if r.Matched {
		matches := r.Matches
		if matches == nil {
			matches = []matching.MatchResult{}
		}
		w.Matches = &matches
	}
	return json.Marshal(w)
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Result{
		Status:    w.Status,
		Candidate: w.Candidate,
		Query:     w.Query,
		Jobs:      w.Jobs,
		Errors:    w.Errors,
		Counts:    w.Counts,
		Raw:       w.Raw,
	}
	if w.Matches != nil {
		r.Matched = true
		r.Matches = *w.Matches
	}
	return nil
}

// DiscoverRaw decodes loosely typed candidate input (decoded JSON) and runs
// Discover. Input matching no known shape is a *candidate.UsageError.
func DiscoverRaw(ctx context.Context, raw any, sources []source.Source, opts Options) (*Result, error) {
	in, err := candidate.DecodeInput(raw)
	if err != nil {
		return nil, err
	}
	return Discover(ctx, in, sources, opts)
}

// Discover builds the query, aggregates every source, applies filters and,
// when requested, scores every surviving posting. Source, record and filter
// failures are reported in Result.Errors; only invalid input returns an error.
func Discover(ctx context.Context, in candidate.Input, sources []source.Source, opts Options) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	profile := in.ToProfile()
	query := candidate.BuildQuery(profile)

	aggOpts := opts.Aggregate
	if aggOpts.Logger == nil {
		aggOpts.Logger = logger
	}
	agg := aggregate.Aggregate(ctx, sources, query, aggOpts)

	postings := agg.Jobs
	errs := agg.Errors
	if len(opts.Filters) > 0 {
		var failures []*filtering.StepError
		postings, failures = filtering.Run(ctx, filtering.Deps{Logger: logger}, opts.Filters, postings)
		for _, f := range failures {
			errs = append(errs, aggregate.Error{
				Source:  "filter:" + f.Filter,
				Kind:    aggregate.FilterFailure,
				Message: f.Err.Error(),
			})
		}
	}

	res := &Result{
		Status:    StatusOK,
		Candidate: profile.Summary(),
		Query:     query,
		Jobs:      postings,
		Errors:    errs,
	}

	if opts.Match {
		target := matching.NewTarget(query, profile.SkillYears())
		res.Matches = matching.ScoreAll(target, postings)
		matching.Rank(res.Matches)
		res.Matched = true
	}

	res.Counts = Counts{Jobs: len(res.Jobs), Errors: len(res.Errors)}
	if res.Matched {
		n := len(res.Matches)
		res.Counts.Matches = &n
	}

	logger.Info("discovery finished",
		zap.Strings("titles", query.Titles),
		zap.Int("jobs", res.Counts.Jobs),
		zap.Int("errors", res.Counts.Errors),
		zap.Bool("matched", res.Matched),
	)

	return res, nil
}

// TopScore returns the highest match score, or false when nothing was matched.
func (r *Result) TopScore() (float64, bool) {
	if !r.Matched || len(r.Matches) == 0 {
		return 0, false
	}
	top := r.Matches[0].OverallScore
	for _, m := range r.Matches[1:] {
		if m.OverallScore > top {
			top = m.OverallScore
		}
	}
	return top, true
}
