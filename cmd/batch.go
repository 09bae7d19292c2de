package cmd

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/artifacts"
	"github.com/spigell/jobflow/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run discovery and apply packs for every candidate folder",
	RunE:  runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("candidates", "", "directory with one folder per candidate")
	batchCmd.Flags().StringP("out", "o", "out", "output directory (or key prefix for s3 storage)")
	batchCmd.Flags().StringSlice("jobs", nil, "extra JSON job files used as sources")
	batchCmd.Flags().Bool("no-match", false, "skip scoring")
	batchCmd.Flags().Bool("no-filters", false, "skip exclusion filters")
	batchCmd.Flags().IntP("workers", "w", 0, "candidates processed in parallel (default from config)")
	batchCmd.Flags().IntP("top-n", "n", 0, "applications per apply pack (default from config)")
	batchCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	batchCmd.MarkFlagRequired("candidates")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	dir, _ := cmd.Flags().GetString("candidates")
	outDir, _ := cmd.Flags().GetString("out")
	jobsFiles, _ := cmd.Flags().GetStringSlice("jobs")
	noMatch, _ := cmd.Flags().GetBool("no-match")
	noFilters, _ := cmd.Flags().GetBool("no-filters")
	workers, _ := cmd.Flags().GetInt("workers")
	topN, _ := cmd.Flags().GetInt("top-n")
	yes, _ := cmd.Flags().GetBool("yes")

	if workers <= 0 {
		workers = cfg.Batch.Workers
	}
	if topN <= 0 {
		topN = cfg.Batch.TopN
	}
	match := cfg.Batch.Match && !noMatch

	folders, err := batch.DiscoverFolders(dir)
	if err != nil {
		return err
	}
	log.Info("candidate folders found", zap.String("dir", dir), zap.Int("count", len(folders)))

	if !yes && len(folders) > 0 {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Process %d candidate folders into %s", len(folders), outDir),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) {
				log.Info("exiting", zap.String("reason", "got no from prompt"))
				return nil
			}
			return err
		}
	}

	set, err := loadSources(ctx, cfg, jobsFiles, log)
	if err != nil {
		return err
	}
	defer set.Close()

	store, err := artifacts.FromConfig(ctx, cfg.Storage, outDir)
	if err != nil {
		return err
	}

	runner := &batch.Runner{
		Sources: set.Sources,
		Store:   store,
		Options: batch.Options{
			Match:   match,
			Workers: workers,
			TopN:    topN,
			Filters: buildFilters(cfg, !noFilters),
			Logger:  log,
		},
	}

	report, err := runner.Run(ctx, dir)
	if err != nil {
		return err
	}

	if err := writeOutput("", report); err != nil {
		return err
	}
	if report.Failed > 0 {
		log.Warn("some candidates failed", zap.Int("failed", report.Failed), zap.String("errors", report.ErrorsPath))
	}
	return nil
}
