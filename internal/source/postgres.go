package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/jobflow/internal/candidate"
)

const defaultFeedLimit = 500

const feedQuery = `SELECT raw_data
	 FROM job_feed
	 WHERE ($1 = '' OR status = $1)
	 ORDER BY id
	 LIMIT $2`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres reads raw postings that a scraper stored as JSONB in the
// job_feed table. The store is read only.
type Postgres struct {
	Name   string
	Status string
	Limit  int
	db     querier
}

// NewPostgres connects to dsn and verifies connectivity. Close the returned
// pool when done.
func NewPostgres(ctx context.Context, name, dsn, status string, limit int) (*Postgres, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return newPostgres(name, pool, status, limit), pool, nil
}

func newPostgres(name string, db querier, status string, limit int) *Postgres {
	if name == "" {
		name = "postgres"
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	return &Postgres{Name: name, Status: status, Limit: limit, db: db}
}

func (p *Postgres) ID() string { return p.Name }

func (p *Postgres) Pull(ctx context.Context, _ candidate.SearchQuery) ([]any, error) {
	rows, err := p.db.Query(ctx, feedQuery, p.Status, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("query job_feed: %w", err)
	}
	defer rows.Close()

	var records []any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		// a broken row is reported by the normalizer, not here.
		var record any
		if err := json.Unmarshal(raw, &record); err != nil {
			record = string(raw)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
