// Package config loads the jobflow configuration file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DefaultTopN     = 25
	DefaultWorkers  = 1
	DefaultCacheTTL = 15 * time.Minute
	DefaultAddr     = ":8080"
	DefaultModel    = "gemini-2.5-flash"
)

type Config struct {
	Sources []Source `mapstructure:"sources" validate:"dive"`
	Filters Filters  `mapstructure:"filters"`
	Batch   Batch    `mapstructure:"batch"`
	Storage Storage  `mapstructure:"storage"`
	Cache   Cache    `mapstructure:"cache"`
	AI      AI       `mapstructure:"ai"`
	Server  Server   `mapstructure:"server"`
}

// Source configures one job source adapter.
type Source struct {
	ID      string            `mapstructure:"id" validate:"required"`
	Type    string            `mapstructure:"type" validate:"required,oneof=file static http adzuna headhunter html postgres"`
	Path    string            `mapstructure:"path" validate:"required_if=Type file"`
	URL     string            `mapstructure:"url" validate:"required_if=Type http,required_if=Type html,omitempty,url"`
	Headers map[string]string `mapstructure:"headers"`
	Timeout time.Duration     `mapstructure:"timeout"`
	// Cached wraps the source with the configured cache.
	Cached  bool             `mapstructure:"cached"`
	Records []map[string]any `mapstructure:"records"`

	Adzuna     *Adzuna     `mapstructure:"adzuna" validate:"required_if=Type adzuna"`
	HeadHunter *HeadHunter `mapstructure:"headhunter"`
	HTML       *HTML       `mapstructure:"html" validate:"required_if=Type html"`
	Postgres   *Postgres   `mapstructure:"postgres" validate:"required_if=Type postgres"`
}

type Adzuna struct {
	AppID      string `mapstructure:"app-id"`
	AppKey     string `mapstructure:"app-key"`
	AppKeyFile string `mapstructure:"app-key-file"`
	Country    string `mapstructure:"country" validate:"required,len=2"`
	MaxPages   int    `mapstructure:"max-pages" validate:"gte=0"`
}

type HeadHunter struct {
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
	Areas     []int  `mapstructure:"areas"`
	MaxPages  int    `mapstructure:"max-pages" validate:"gte=0"`
}

type HTML struct {
	Item         string `mapstructure:"item" validate:"required"`
	Title        string `mapstructure:"title" validate:"required"`
	Company      string `mapstructure:"company"`
	Location     string `mapstructure:"location"`
	Description  string `mapstructure:"description"`
	Requirements string `mapstructure:"requirements"`
	Link         string `mapstructure:"link"`
}

type Postgres struct {
	DSN     string `mapstructure:"dsn"`
	DSNFile string `mapstructure:"dsn-file"`
	Status  string `mapstructure:"status"`
	Limit   int    `mapstructure:"limit" validate:"gte=0"`
}

// Filters configures the exclusion steps applied after aggregation.
type Filters struct {
	RedFlags    []string `mapstructure:"red-flags"`
	Employers   []string `mapstructure:"employers"`
	ExcludeFile string   `mapstructure:"exclude-file"`
}

type Batch struct {
	Workers int  `mapstructure:"workers" validate:"gte=0,lte=64"`
	TopN    int  `mapstructure:"top-n" validate:"gte=0"`
	Match   bool `mapstructure:"match"`
}

type Storage struct {
	Type string `mapstructure:"type" validate:"oneof=fs s3"`
	S3   *S3    `mapstructure:"s3" validate:"required_if=Type s3"`
}

type S3 struct {
	Endpoint      string `mapstructure:"endpoint" validate:"required"`
	Bucket        string `mapstructure:"bucket" validate:"required"`
	Region        string `mapstructure:"region"`
	Prefix        string `mapstructure:"prefix"`
	AccessKey     string `mapstructure:"access-key"`
	SecretKey     string `mapstructure:"secret-key"`
	SecretKeyFile string `mapstructure:"secret-key-file"`
	UseSSL        bool   `mapstructure:"use-ssl"`
}

type Cache struct {
	RedisURL string        `mapstructure:"redis-url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AI struct {
	Enabled  bool    `mapstructure:"enabled"`
	Provider string  `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   *Gemini `mapstructure:"gemini"`
}

type Gemini struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("batch.workers", DefaultWorkers)
	v.SetDefault("batch.top-n", DefaultTopN)
	v.SetDefault("batch.match", true)
	v.SetDefault("storage.type", "fs")
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("ai.provider", "gemini")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for _, src := range c.Sources {
		id := strings.TrimSpace(src.ID)
		if _, ok := seen[id]; ok {
			return fmt.Errorf("invalid config: duplicate source id %q", id)
		}
		seen[id] = struct{}{}
	}

	if c.AI.Enabled && c.AI.Gemini == nil {
		return fmt.Errorf("invalid config: ai.gemini is required when ai is enabled")
	}

	return nil
}

// ModelName returns the configured gemini model or the default.
func (g *Gemini) ModelName() string {
	if g == nil || strings.TrimSpace(g.Model) == "" {
		return DefaultModel
	}
	return strings.TrimSpace(g.Model)
}
