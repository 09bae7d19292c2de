package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/ai"
	"github.com/spigell/jobflow/internal/applypack"
	"github.com/spigell/jobflow/internal/logger"
	"github.com/spigell/jobflow/internal/utils"
)

const (
	ProviderName        = "gemini"
	defaultMaxLogLength = 200
)

//go:embed prompt.md
var systemPrompt string

//go:embed request.md
var requestTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// Drafter asks Gemini for a cover message per application.
type Drafter struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Drafter = (*Drafter)(nil)

func NewDrafter(generator contentGenerator, maxLogLength int, log *zap.Logger) *Drafter {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Drafter{
		generator: generator,
		logger:    logger.WithCommonFields(log, ProviderName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (d *Drafter) Provider() string { return ProviderName }

func (d *Drafter) Model() string { return d.generator.Model() }

func (d *Drafter) Draft(ctx context.Context, candidate applypack.Candidate, app applypack.Entry) (*ai.Draft, error) {
	candidateJSON, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate payload: %w", err)
	}

	job := map[string]any{
		"title":            app.JobTitle,
		"company":          app.Company,
		"location":         app.Location,
		"decision":         app.Decision,
		"matched_keywords": app.MatchedKeywords,
		"reasons":          app.Reasons,
	}
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	message := buildRequest(string(candidateJSON), string(jobJSON))

	d.logger.Debug("gemini draft request",
		zap.String("job_fingerprint", app.JobFingerprint),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, d.maxLogLen)),
	)

	raw, err := d.generator.GenerateContent(ctx, systemPrompt, message)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("gemini draft response",
		zap.String("job_fingerprint", app.JobFingerprint),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, d.maxLogLen)),
	)

	return parseResponse(raw)
}

func buildRequest(candidateJSON, jobJSON string) string {
	template := requestTemplate
	if strings.TrimSpace(template) == "" {
		template = "Candidate:\n{{CANDIDATE_JSON}}\n\nJob:\n{{JOB_JSON}}\n\nJSON Response:"
	}
	out := strings.ReplaceAll(template, "{{CANDIDATE_JSON}}", candidateJSON)
	return strings.ReplaceAll(out, "{{JOB_JSON}}", jobJSON)
}

func parseResponse(raw string) (*ai.Draft, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	draft := &ai.Draft{
		Subject: coerceString(data["subject"]),
		Message: coerceString(data["message"]),
	}
	if draft.Message == "" {
		return nil, errors.New("gemini response has no message")
	}
	return draft, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
