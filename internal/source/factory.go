package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/config"
	"github.com/spigell/jobflow/internal/headhunter"
	"github.com/spigell/jobflow/internal/secrets"
)

// Set is the list of configured sources plus the connections they hold.
type Set struct {
	Sources []Source
	closers []func()
}

// Close releases pools and clients opened by FromConfig.
func (s *Set) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// FromConfig builds the configured sources in order. Sources marked cached
// are wrapped with a redis cache when cache.redis-url is set.
func FromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	set := &Set{}

	var cache Cache
	if cfg.Cache.RedisURL != "" {
		client, err := NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		set.closers = append(set.closers, func() { client.Close() })
		cache = NewRedisCache(client)
	}

	for _, sc := range cfg.Sources {
		src, err := build(ctx, sc, set, logger)
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("source %q: %w", sc.ID, err)
		}

		src = WithTimeout(src, sc.Timeout)
		if sc.Cached {
			if cache == nil {
				logger.Warn("source asks for cache but cache.redis-url is not set", zap.String("source", sc.ID))
			} else {
				src = NewCached(src, cache, cfg.Cache.TTL, logger)
			}
		}

		set.Sources = append(set.Sources, src)
	}

	return set, nil
}

func build(ctx context.Context, sc config.Source, set *Set, logger *zap.Logger) (Source, error) {
	switch sc.Type {
	case "file":
		return NewFile(sc.ID, sc.Path), nil
	case "static":
		records := make([]any, 0, len(sc.Records))
		for _, r := range sc.Records {
			records = append(records, r)
		}
		return NewStatic(sc.ID, records...), nil
	case "http":
		return NewHTTPFeed(sc.ID, sc.URL, sc.Timeout, sc.Headers), nil
	case "adzuna":
		key, err := secrets.Optional(secrets.Source{
			Name:  "adzuna app key",
			Value: sc.Adzuna.AppKey,
			Env:   "ADZUNA_APP_KEY",
			File:  sc.Adzuna.AppKeyFile,
		})
		if err != nil {
			return nil, err
		}
		appID := sc.Adzuna.AppID
		if appID == "" {
			appID, _ = secrets.Optional(secrets.Source{Env: "ADZUNA_APP_ID"})
		}
		a := NewAdzuna(sc.ID, appID, key, strings.ToLower(sc.Adzuna.Country), logger)
		if sc.Adzuna.MaxPages > 0 {
			a.MaxPages = sc.Adzuna.MaxPages
		}
		if sc.URL != "" {
			a.BaseURL = sc.URL
		}
		return a, nil
	case "headhunter":
		hc := sc.HeadHunter
		if hc == nil {
			hc = &config.HeadHunter{}
		}
		token, err := secrets.Optional(secrets.Source{Name: "headhunter token", File: hc.TokenFile, Env: "HH_TOKEN"})
		if err != nil {
			return nil, err
		}
		client := headhunter.New(logger.With(zap.String("source", sc.ID)), token)
		if hc.UserAgent != "" {
			client.UserAgent = hc.UserAgent
		}
		if sc.URL != "" {
			client.APIURL = sc.URL
		}
		return NewHeadHunter(sc.ID, client, hc.Areas, hc.MaxPages), nil
	case "html":
		return NewHTMLBoard(sc.ID, sc.URL, Selectors{
			Item:         sc.HTML.Item,
			Title:        sc.HTML.Title,
			Company:      sc.HTML.Company,
			Location:     sc.HTML.Location,
			Description:  sc.HTML.Description,
			Requirements: sc.HTML.Requirements,
			Link:         sc.HTML.Link,
		}, sc.Timeout), nil
	case "postgres":
		dsn, err := secrets.Load(secrets.Source{
			Name:  "postgres dsn",
			Value: sc.Postgres.DSN,
			Env:   "DATABASE_URL",
			File:  sc.Postgres.DSNFile,
		})
		if err != nil {
			return nil, err
		}
		pg, pool, err := NewPostgres(ctx, sc.ID, dsn, sc.Postgres.Status, sc.Postgres.Limit)
		if err != nil {
			return nil, err
		}
		set.closers = append(set.closers, pool.Close)
		return pg, nil
	default:
		return nil, errors.New("unknown source type " + sc.Type)
	}
}
