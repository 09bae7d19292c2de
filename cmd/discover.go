package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Aggregate, filter and score jobs for one candidate",
	RunE:  runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringP("candidate", "c", "", "candidate JSON file (profile, intake, skill list or search query)")
	discoverCmd.Flags().StringSlice("jobs", nil, "extra JSON job files used as sources")
	discoverCmd.Flags().Bool("no-match", false, "skip scoring")
	discoverCmd.Flags().Bool("no-filters", false, "skip exclusion filters")
	discoverCmd.Flags().StringP("out", "o", "", "write the result to this file instead of stdout")

	discoverCmd.MarkFlagRequired("candidate")
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	candidatePath, _ := cmd.Flags().GetString("candidate")
	jobsFiles, _ := cmd.Flags().GetStringSlice("jobs")
	noMatch, _ := cmd.Flags().GetBool("no-match")
	noFilters, _ := cmd.Flags().GetBool("no-filters")
	out, _ := cmd.Flags().GetString("out")

	var raw any
	if err := readJSONFile(candidatePath, &raw); err != nil {
		return err
	}

	set, err := loadSources(ctx, cfg, jobsFiles, log)
	if err != nil {
		return err
	}
	defer set.Close()

	res, err := discovery.DiscoverRaw(ctx, raw, set.Sources, discovery.Options{
		Match:   !noMatch,
		Filters: buildFilters(cfg, !noFilters),
		Logger:  log,
	})
	if err != nil {
		return err
	}

	log.Info("discovery finished",
		zap.Int("jobs", res.Counts.Jobs),
		zap.Int("errors", res.Counts.Errors),
		zap.Bool("matched", res.Matched),
	)

	return writeOutput(out, res)
}
