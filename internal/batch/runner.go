// Package batch runs discovery and apply pack building over a directory of
// candidate folders and persists the per-candidate results and a report.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobflow/internal/applypack"
	"github.com/spigell/jobflow/internal/artifacts"
	"github.com/spigell/jobflow/internal/candidate"
	"github.com/spigell/jobflow/internal/discovery"
	"github.com/spigell/jobflow/internal/filtering"
	"github.com/spigell/jobflow/internal/logger"
	"github.com/spigell/jobflow/internal/source"
	"github.com/spigell/jobflow/internal/utils"
)

const (
	SummaryKey   = "summary.csv"
	ErrorsKey    = "errors.json"
	ResultsDir   = "results"
	maxTraceRows = 20
)

// Failure categories recorded in errors.json.
const (
	CategoryProfile     = "ProfileError"
	CategoryUsage       = "UsageError"
	CategoryPersistence = "PersistenceError"
	CategoryPanic       = "Panic"
	CategoryCandidate   = "CandidateFailure"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var SummaryHeader = []string{"candidate_id", "folder", "num_jobs", "num_matches", "top_score", "num_errors", "status"}

// CandidateFailure is a failed per-candidate run.
type CandidateFailure struct {
	Folder   string
	Category string
	Err      error
	Stack    string
}

func (e *CandidateFailure) Error() string {
	return fmt.Sprintf("candidate %s: %s: %v", e.Folder, e.Category, e.Err)
}

func (e *CandidateFailure) Unwrap() error {
	return e.Err
}

type ErrorEntry struct {
	Folder    string `json:"folder"`
	ErrorType string `json:"error_type"`
	Message   string `json:"error_message"`
	Traceback string `json:"traceback"`
}

type SummaryRow struct {
	CandidateID string
	Folder      string
	NumJobs     int
	NumMatches  int
	TopScore    *float64
	NumErrors   int
	Status      string
}

func (r SummaryRow) record() []string {
	top := ""
	if r.TopScore != nil {
		top = strconv.FormatFloat(*r.TopScore, 'f', 1, 64)
	}
	return []string{
		r.CandidateID,
		r.Folder,
		strconv.Itoa(r.NumJobs),
		strconv.Itoa(r.NumMatches),
		top,
		strconv.Itoa(r.NumErrors),
		r.Status,
	}
}

type Report struct {
	RunID       string `json:"run_id"`
	Processed   int    `json:"processed"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	SummaryPath string `json:"summary_path"`
	ErrorsPath  string `json:"errors_path"`
	ResultsDir  string `json:"results_dir"`
}

type Options struct {
	Match   bool
	Workers int
	TopN    int
	Filters []filtering.Filter
	Logger  *zap.Logger
}

// Runner processes candidate folders. Sources and filters are shared
// read-only across candidates.
type Runner struct {
	Sources []source.Source
	Store   artifacts.Store
	Options Options
}

type outcome struct {
	folder  string
	result  *discovery.Result
	pack    applypack.Pack
	failure *CandidateFailure
}

// Run discovers candidate folders under dir and processes each one. Failures
// of single candidates are recorded in the report. The returned error is
// only set when folders cannot be listed or the summary cannot be written.
func (r *Runner) Run(ctx context.Context, dir string) (*Report, error) {
	log := r.Options.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := r.Options.Workers
	if workers <= 0 {
		workers = 1
	}

	runID := uuid.NewString()
	log = logger.WithFields(log, logger.CandidateFields(runID, "", "")...)

	folders, err := DiscoverFolders(dir)
	if err != nil {
		return nil, fmt.Errorf("discover candidate folders: %w", err)
	}
	log.Info("batch started", zap.String("dir", dir), zap.Int("candidates", len(folders)), zap.Int("workers", workers))

	outcomes := make([]outcome, len(folders))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, folder := range folders {
		g.Go(func() error {
			outcomes[i] = r.process(ctx, folder, log)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		RunID:       runID,
		Processed:   len(folders),
		SummaryPath: r.Store.Location(SummaryKey),
		ErrorsPath:  r.Store.Location(ErrorsKey),
		ResultsDir:  r.Store.Location(ResultsDir),
	}

	rows := make([][]string, 0, len(outcomes))
	entries := []ErrorEntry{}
	slugs := slugSet{}

	for _, out := range outcomes {
		name := filepath.Base(out.folder)

		if out.failure == nil {
			id := candidateID(out.result.Candidate, name)
			if err := r.persist(ctx, slugs.unique(id), out); err != nil {
				out.failure = &CandidateFailure{Folder: name, Category: CategoryPersistence, Err: err}
			} else {
				row := SummaryRow{
					CandidateID: id,
					Folder:      name,
					NumJobs:     out.result.Counts.Jobs,
					NumErrors:   out.result.Counts.Errors,
					Status:      StatusSuccess,
				}
				if out.result.Counts.Matches != nil {
					row.NumMatches = *out.result.Counts.Matches
				}
				if top, ok := out.result.TopScore(); ok {
					row.TopScore = &top
				}
				rows = append(rows, row.record())
				report.Succeeded++
				continue
			}
		}

		log.Warn("candidate failed",
			zap.String(logger.FieldFolder, name),
			zap.String("category", out.failure.Category),
			zap.Error(out.failure.Err),
		)
		entries = append(entries, errorEntry(out.failure))
		rows = append(rows, SummaryRow{CandidateID: name, Folder: name, Status: StatusFailed}.record())
		report.Failed++
	}

	summary, err := artifacts.EncodeCSV(SummaryHeader, rows)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	if err := r.Store.Write(ctx, SummaryKey, summary, artifacts.ContentTypeCSV); err != nil {
		return nil, err
	}

	errorsJSON, err := artifacts.EncodeJSON(entries)
	if err != nil {
		return nil, fmt.Errorf("encode errors: %w", err)
	}
	if err := r.Store.Write(ctx, ErrorsKey, errorsJSON, artifacts.ContentTypeJSON); err != nil {
		return nil, err
	}

	log.Info("batch finished",
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)

	return report, nil
}

// process runs one candidate. It never panics.
func (r *Runner) process(ctx context.Context, folder string, log *zap.Logger) (out outcome) {
	out.folder = folder
	name := filepath.Base(folder)

	defer func() {
		if rec := recover(); rec != nil {
			out.result = nil
			out.failure = &CandidateFailure{
				Folder:   name,
				Category: CategoryPanic,
				Err:      fmt.Errorf("panic: %v", rec),
				Stack:    string(debug.Stack()),
			}
		}
	}()

	loaded, err := LoadCandidate(folder)
	if err != nil {
		out.failure = &CandidateFailure{Folder: name, Category: CategoryProfile, Err: err}
		return out
	}

	log = logger.WithFields(log, logger.CandidateFields("", loaded.Profile.Identity.Email, name)...)

	res, err := discovery.Discover(ctx, candidate.FromProfile(loaded.Profile), r.Sources, discovery.Options{
		Match:   r.Options.Match,
		Filters: r.Options.Filters,
		Logger:  log,
	})
	if err != nil {
		category := CategoryCandidate
		var usage *candidate.UsageError
		if errors.As(err, &usage) {
			category = CategoryUsage
		}
		out.failure = &CandidateFailure{Folder: name, Category: category, Err: err}
		return out
	}

	if loaded.ResumePath != "" || loaded.ResumeExcerpt != "" {
		res.Raw = &discovery.RawInfo{
			ResumePath:        loaded.ResumePath,
			ResumeTextExcerpt: loaded.ResumeExcerpt,
		}
	}

	out.result = res
	out.pack = applypack.Build(res, r.Options.TopN)
	return out
}

func (r *Runner) persist(ctx context.Context, slug string, out outcome) error {
	results, err := artifacts.EncodeJSON(out.result)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	pack, err := artifacts.EncodeJSON(out.pack)
	if err != nil {
		return fmt.Errorf("encode apply pack: %w", err)
	}

	base := ResultsDir + "/" + slug
	if err := r.Store.Write(ctx, base+"/results.json", results, artifacts.ContentTypeJSON); err != nil {
		return err
	}
	return r.Store.Write(ctx, base+"/apply_pack.json", pack, artifacts.ContentTypeJSON)
}

// candidateID resolves the reporting identity: email, then name, then folder.
func candidateID(c candidate.Summary, folder string) string {
	if email := strings.TrimSpace(c.Email); email != "" {
		return email
	}
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return folder
}

func errorEntry(f *CandidateFailure) ErrorEntry {
	trace := f.Stack
	if trace == "" {
		trace = errorChain(f.Err)
	}
	return ErrorEntry{
		Folder:    f.Folder,
		ErrorType: f.Category,
		Message:   f.Err.Error(),
		Traceback: utils.TruncateLines(trace, maxTraceRows),
	}
}

// errorChain lists the wrapped errors of err, outermost first, with their
// concrete types.
func errorChain(err error) string {
	var lines []string
	for err != nil {
		lines = append(lines, fmt.Sprintf("%T: %v", err, err))
		err = errors.Unwrap(err)
	}
	return strings.Join(lines, "\n")
}
