package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spigell/jobflow/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the discovery and apply pack HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	set, err := loadSources(ctx, cfg, nil, log)
	if err != nil {
		return err
	}
	defer set.Close()

	srv := server.New(server.Options{
		Sources: set.Sources,
		Filters: buildFilters(cfg, true),
		TopN:    cfg.Batch.TopN,
		Logger:  log,
	})
	return srv.Run(ctx, addr)
}
