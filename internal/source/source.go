// Package source contains job source adapters. Every adapter returns raw
// records; normalization happens in the aggregator.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spigell/jobflow/internal/candidate"
)

// Source supplies raw job records for a query. A source may use the query as
// a pre-filter or ignore it. Implementations must be safe for concurrent use.
type Source interface {
	ID() string
	Pull(ctx context.Context, query candidate.SearchQuery) ([]any, error)
}

// Func adapts a function into a Source.
type Func struct {
	Name string
	Fn   func(ctx context.Context, query candidate.SearchQuery) ([]any, error)
}

func (f Func) ID() string { return f.Name }

func (f Func) Pull(ctx context.Context, query candidate.SearchQuery) ([]any, error) {
	return f.Fn(ctx, query)
}

// Static serves a fixed list of records.
type Static struct {
	Name    string
	Records []any
}

func NewStatic(name string, records ...any) *Static {
	return &Static{Name: name, Records: records}
}

func (s *Static) ID() string { return s.Name }

func (s *Static) Pull(context.Context, candidate.SearchQuery) ([]any, error) {
	out := make([]any, len(s.Records))
	copy(out, s.Records)
	return out, nil
}

type timeoutSource struct {
	Source
	timeout time.Duration
}

// WithTimeout bounds every Pull of src by d. Non-positive d returns src.
func WithTimeout(src Source, d time.Duration) Source {
	if d <= 0 {
		return src
	}
	return &timeoutSource{Source: src, timeout: d}
}

func (s *timeoutSource) Pull(ctx context.Context, query candidate.SearchQuery) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.Source.Pull(ctx, query)
}

var envelopeKeys = []string{"jobs", "results", "items", "data"}

// extractRecords decodes a JSON array of records or an object wrapping one
// under a well known key.
func extractRecords(data []byte) ([]any, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range envelopeKeys {
			if records, ok := v[key].([]any); ok {
				return records, nil
			}
		}
		return nil, fmt.Errorf("payload object has none of %v lists", envelopeKeys)
	default:
		return nil, fmt.Errorf("unexpected payload type %T", payload)
	}
}
