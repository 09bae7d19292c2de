// Package aggregate pulls raw records from sources, normalizes and
// deduplicates them. Failures are collected as data.
package aggregate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobflow/internal/candidate"
	"github.com/spigell/jobflow/internal/jobs"
	"github.com/spigell/jobflow/internal/source"
)

const defaultParallelism = 4

type ErrorKind string

const (
	MalformedRecord ErrorKind = "MalformedRecord"
	SourceFailure   ErrorKind = "SourceFailure"
	FilterFailure   ErrorKind = "FilterFailure"
)

// Error describes one isolated failure. Record is a best-effort reference to
// the offending record, e.g. "record[3]".
type Error struct {
	Source  string    `json:"source"`
	Kind    ErrorKind `json:"error_type"`
	Message string    `json:"error"`
	Record  string    `json:"record,omitempty"`
}

// PullError wraps a failed or panicking source pull.
type PullError struct {
	Source string
	Err    error
}

func (e *PullError) Error() string {
	return fmt.Sprintf("source %s failed: %v", e.Source, e.Err)
}

func (e *PullError) Unwrap() error {
	return e.Err
}

type Options struct {
	// Parallelism bounds concurrent pulls. Zero means the default.
	Parallelism int
	Logger      *zap.Logger
}

type Result struct {
	Jobs   []jobs.Posting
	Errors []Error
	// Duplicates counts postings dropped because their fingerprint was
	// already seen.
	Duplicates int
}

type pull struct {
	id      string
	records []any
	err     error
}

// Aggregate pulls every source and merges the normalized postings. Output
// order is source order then record order, independent of which pull
// finished first. The first occurrence of a fingerprint wins.
func Aggregate(ctx context.Context, sources []source.Source, query candidate.SearchQuery, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}

	pulls := make([]pull, len(sources))

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, src := range sources {
		g.Go(func() error {
			pulls[i] = pullSource(ctx, i, src, query)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Jobs: []jobs.Posting{}, Errors: []Error{}}
	seen := make(map[string]struct{})

	for _, p := range pulls {
		id := p.id

		if p.err != nil {
			logger.Warn("source failed", zap.String("source", id), zap.Error(p.err))
			res.Errors = append(res.Errors, Error{
				Source:  id,
				Kind:    SourceFailure,
				Message: errors.Unwrap(p.err).Error(),
			})
			continue
		}

		var normalized, malformed, duplicates int
		for idx, raw := range p.records {
			posting, err := jobs.Normalize(id, raw)
			if err != nil {
				malformed++
				res.Errors = append(res.Errors, Error{
					Source:  id,
					Kind:    MalformedRecord,
					Message: err.Error(),
					Record:  fmt.Sprintf("record[%d]", idx),
				})
				continue
			}

			if _, ok := seen[posting.Fingerprint]; ok {
				duplicates++
				continue
			}
			seen[posting.Fingerprint] = struct{}{}
			res.Jobs = append(res.Jobs, posting)
			normalized++
		}
		res.Duplicates += duplicates

		logger.Debug("source aggregated",
			zap.String("source", id),
			zap.Int("pulled", len(p.records)),
			zap.Int("kept", normalized),
			zap.Int("malformed", malformed),
			zap.Int("duplicates", duplicates),
		)
	}

	logger.Info("aggregation finished",
		zap.Int("sources", len(sources)),
		zap.Int("jobs", len(res.Jobs)),
		zap.Int("errors", len(res.Errors)),
		zap.Int("duplicates", res.Duplicates),
	)

	return res
}

func pullSource(ctx context.Context, idx int, src source.Source, query candidate.SearchQuery) (p pull) {
	id := sourceID(src, idx)
	defer func() {
		if r := recover(); r != nil {
			p = pull{id: id, err: &PullError{Source: id, Err: fmt.Errorf("panic: %v", r)}}
		}
	}()

	if src == nil {
		return pull{id: id, err: &PullError{Source: id, Err: errors.New("source is nil")}}
	}

	records, err := src.Pull(ctx, query)
	if err != nil {
		return pull{id: id, err: &PullError{Source: id, Err: err}}
	}
	return pull{id: id, records: records}
}

// sourceID falls back to the source position when the source has no id or
// cannot report one.
func sourceID(src source.Source, idx int) (id string) {
	fallback := fmt.Sprintf("source[%d]", idx)
	defer func() {
		if r := recover(); r != nil {
			id = fallback
		}
	}()

	if src != nil {
		if id = src.ID(); id != "" {
			return id
		}
	}
	return fallback
}
