package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/ai"
	"github.com/spigell/jobflow/internal/ai/gemini"
	"github.com/spigell/jobflow/internal/applypack"
	"github.com/spigell/jobflow/internal/config"
	"github.com/spigell/jobflow/internal/discovery"
	"github.com/spigell/jobflow/internal/filtering"
	"github.com/spigell/jobflow/internal/jobs"
	"github.com/spigell/jobflow/internal/logger"
	"github.com/spigell/jobflow/internal/secrets"
)

const draftsFile = "drafts.json"

var applyPackCmd = &cobra.Command{
	Use:   "apply-pack",
	Short: "Build a ranked apply pack from a discovery result",
	RunE:  runApplyPack,
}

func init() {
	rootCmd.AddCommand(applyPackCmd)

	applyPackCmd.Flags().StringP("result", "r", "", "discovery result JSON file")
	applyPackCmd.Flags().IntP("top-n", "n", 0, "maximum number of applications (default from config)")
	applyPackCmd.Flags().StringP("out", "o", "", "write the pack to this file instead of stdout")
	applyPackCmd.Flags().Bool("drafts", false, "draft cover messages with the configured AI provider into drafts.json next to the pack")
	applyPackCmd.Flags().Bool("exclude", false, "append the packed jobs to filters.exclude-file")

	applyPackCmd.MarkFlagRequired("result")
}

func runApplyPack(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	resultPath, _ := cmd.Flags().GetString("result")
	topN, _ := cmd.Flags().GetInt("top-n")
	out, _ := cmd.Flags().GetString("out")
	withDrafts, _ := cmd.Flags().GetBool("drafts")
	exclude, _ := cmd.Flags().GetBool("exclude")

	if topN <= 0 {
		topN = cfg.Batch.TopN
	}

	var result discovery.Result
	if err := readJSONFile(resultPath, &result); err != nil {
		return err
	}

	pack := applypack.Build(&result, topN)
	log.Info("apply pack built",
		zap.Int("applications", pack.TopN),
		zap.Bool("needs_manual_review", pack.Checklist.NeedsManualReview),
	)

	if err := writeOutput(out, pack); err != nil {
		return err
	}

	if exclude {
		if err := appendExcluded(cfg.Filters.ExcludeFile, &result, pack, log); err != nil {
			return err
		}
	}

	if withDrafts {
		drafts, err := draftMessages(ctx, cfg, pack, log)
		if err != nil {
			return err
		}
		path := draftsFile
		if out != "" {
			path = filepath.Join(filepath.Dir(out), draftsFile)
		}
		if err := writeOutput(path, drafts); err != nil {
			return err
		}
		log.Info("drafts written", zap.String("filename", path), zap.Int("count", len(drafts.Drafts)))
	}

	return nil
}

// appendExcluded records the packed postings in the exclude file so later
// runs skip them.
func appendExcluded(path string, result *discovery.Result, pack applypack.Pack, log *zap.Logger) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("--exclude needs filters.exclude-file in the config")
	}

	packed := make(map[string]struct{}, len(pack.Applications))
	for _, app := range pack.Applications {
		packed[app.JobFingerprint] = struct{}{}
	}
	var postings []jobs.Posting
	for _, job := range result.Jobs {
		if _, ok := packed[job.Fingerprint]; ok {
			postings = append(postings, job)
		}
	}

	excluded, err := filtering.LoadExcluded(path)
	if err != nil {
		return err
	}
	excluded.Append(filtering.ToExcluded(postings, time.Now().UTC()))
	if err := excluded.ToFile(path); err != nil {
		return err
	}

	log.Info("appended to exclude file", zap.String("filename", path), zap.Int("count", len(postings)))
	return nil
}

func draftMessages(ctx context.Context, cfg *config.Config, pack applypack.Pack, log *zap.Logger) (*ai.Drafts, error) {
	drafter, err := newDrafter(ctx, cfg.AI, log)
	if err != nil {
		return nil, fmt.Errorf("building drafter: %w", err)
	}
	return ai.DraftAll(ctx, drafter, pack, log)
}

func newDrafter(ctx context.Context, cfg config.AI, log *zap.Logger) (ai.Drafter, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.ProviderName {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gc := cfg.Gemini
	if gc == nil {
		gc = &config.Gemini{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: gc.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  gc.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := logger.WithCommonFields(log, gemini.ProviderName, gc.ModelName()).
		With(zap.Int("ai_retry_attempts", gc.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, gc.ModelName(), gc.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewDrafter(generator, gc.MaxLogLength, log), nil
}
