// Package artifacts persists batch outputs to a filesystem directory or an
// S3-compatible bucket.
package artifacts

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/jobflow/internal/config"
	"github.com/spigell/jobflow/internal/secrets"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
)

// Store writes artifacts under slash-separated keys such as
// "results/jane_doe/results.json".
type Store interface {
	Write(ctx context.Context, key string, data []byte, contentType string) error
	// Location returns where key is or will be stored, for reporting.
	Location(key string) string
}

// FSStore writes artifacts below Root.
type FSStore struct {
	Root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{Root: root}
}

func (s *FSStore) Write(_ context.Context, key string, data []byte, _ string) error {
	path := s.Location(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *FSStore) Location(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(key))
}

// FromConfig returns the configured store. Filesystem stores are rooted at dir.
func FromConfig(ctx context.Context, cfg config.Storage, dir string) (Store, error) {
	switch cfg.Type {
	case "", "fs":
		return NewFSStore(dir), nil
	case "s3":
		if cfg.S3 == nil {
			return nil, fmt.Errorf("storage.s3 is required for s3 storage")
		}
		secret, err := secrets.Load(secrets.Source{
			Name:  "s3 secret key",
			Value: cfg.S3.SecretKey,
			Env:   "JOBFLOW_S3_SECRET_KEY",
			File:  cfg.S3.SecretKeyFile,
		})
		if err != nil {
			return nil, err
		}
		prefix := strings.Trim(cfg.S3.Prefix, "/")
		if dir != "" {
			prefix = strings.Trim(prefix+"/"+filepath.ToSlash(filepath.Clean(dir)), "/")
		}
		return NewS3Store(ctx, S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Prefix:    prefix,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: secret,
			UseSSL:    cfg.S3.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// EncodeJSON renders v as indented JSON with a trailing newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeCSV renders a header and rows.
func EncodeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
