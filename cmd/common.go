package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/artifacts"
	"github.com/spigell/jobflow/internal/config"
	"github.com/spigell/jobflow/internal/filtering"
	"github.com/spigell/jobflow/internal/source"
)

// loadSources builds the configured sources and appends one file source per
// extra jobs file.
func loadSources(ctx context.Context, cfg *config.Config, jobsFiles []string, log *zap.Logger) (*source.Set, error) {
	set, err := source.FromConfig(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	for _, path := range jobsFiles {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		set.Sources = append(set.Sources, source.NewFile("file:"+filepath.Base(path), path))
	}

	if len(set.Sources) == 0 {
		log.Warn("no job sources configured", zap.String("hint", "add sources to the config or pass --jobs"))
	}
	return set, nil
}

func buildFilters(cfg *config.Config, enabled bool) []filtering.Filter {
	if !enabled {
		return nil
	}
	return filtering.FromConfig(cfg.Filters)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeOutput writes v as indented JSON to path, or to stdout when path is
// empty.
func writeOutput(path string, v any) error {
	data, err := artifacts.EncodeJSON(v)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
