// Package ai drafts short cover messages for apply pack applications.
package ai

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/applypack"
)

// Draft is a cover message for one application. A failed draft carries Error
// and no message.
type Draft struct {
	JobFingerprint string `json:"job_fingerprint"`
	JobTitle       string `json:"job_title"`
	Company        string `json:"company"`
	Subject        string `json:"subject,omitempty"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Drafts is the drafts.json artifact.
type Drafts struct {
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Drafts   []Draft `json:"drafts"`
}

type Drafter interface {
	Draft(ctx context.Context, candidate applypack.Candidate, app applypack.Entry) (*Draft, error)
	Provider() string
	Model() string
}

// DraftAll drafts a message for every application of pack, in rank order.
// Per-application failures are recorded in the draft. Only a cancelled
// context stops the loop early.
func DraftAll(ctx context.Context, drafter Drafter, pack applypack.Pack, logger *zap.Logger) (*Drafts, error) {
	if drafter == nil {
		return nil, errors.New("drafter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	out := &Drafts{
		Provider: drafter.Provider(),
		Model:    drafter.Model(),
		Drafts:   make([]Draft, 0, len(pack.Applications)),
	}

	for _, app := range pack.Applications {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		draft, err := drafter.Draft(ctx, pack.Candidate, app)
		if err != nil {
			logger.Warn("draft failed",
				zap.String("job_fingerprint", app.JobFingerprint),
				zap.String("job_title", app.JobTitle),
				zap.Error(err),
			)
			draft = &Draft{Error: err.Error()}
		}

		draft.JobFingerprint = app.JobFingerprint
		draft.JobTitle = app.JobTitle
		draft.Company = app.Company
		out.Drafts = append(out.Drafts, *draft)
	}

	return out, nil
}
