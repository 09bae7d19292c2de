package source

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/candidate"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3 // max 150 results per (title × location) pair
)

// Adzuna pulls postings from the Adzuna public API for every
// (title × location) pair of the query.
type Adzuna struct {
	Name     string
	AppID    string
	AppKey   string
	Country  string // "fr", "gb", "us", …
	BaseURL  string
	MaxPages int

	client *resty.Client
	logger *zap.Logger
}

func NewAdzuna(name, appID, appKey, country string, logger *zap.Logger) *Adzuna {
	if logger == nil {
		logger = zap.NewNop()
	}
	if name == "" {
		name = "adzuna"
	}
	return &Adzuna{
		Name:     name,
		AppID:    appID,
		AppKey:   appKey,
		Country:  country,
		BaseURL:  adzunaBaseURL,
		MaxPages: adzunaMaxPages,
		client:   resty.New().SetTimeout(defaultHTTPTimeout),
		logger:   logger,
	}
}

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Company      label   `json:"company"`
	Location     label   `json:"location"`
	SalaryMin    float64 `json:"salary_min"`
	SalaryMax    float64 `json:"salary_max"`
	RedirectURL  string  `json:"redirect_url"`
	ContractTime string  `json:"contract_time"`
}

type label struct {
	DisplayName string `json:"display_name"`
}

func (a *Adzuna) ID() string { return a.Name }

// Pull returns nothing without error when credentials are missing.
func (a *Adzuna) Pull(ctx context.Context, query candidate.SearchQuery) ([]any, error) {
	if a.AppID == "" || a.AppKey == "" {
		a.logger.Warn("adzuna credentials are not set, skipping source", zap.String("source", a.Name))
		return nil, nil
	}

	locations := query.Locations
	if len(locations) == 0 {
		locations = []string{""}
	}

	var records []any
	for _, title := range query.Titles {
		for _, location := range locations {
			batch, err := a.fetch(ctx, title, location)
			if err != nil {
				return nil, fmt.Errorf("adzuna (%q, %q): %w", title, location, err)
			}
			records = append(records, batch...)
		}
	}

	return records, nil
}

func (a *Adzuna) fetch(ctx context.Context, title, location string) ([]any, error) {
	var records []any
	for page := 1; page <= a.MaxPages; page++ {
		batch, err := a.fetchPage(ctx, title, location, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		records = append(records, batch...)
		if len(batch) < adzunaPageSize {
			break
		}
	}
	return records, nil
}

func (a *Adzuna) fetchPage(ctx context.Context, title, location string, page int) ([]any, error) {
	params := map[string]string{
		"app_id":           a.AppID,
		"app_key":          a.AppKey,
		"results_per_page": strconv.Itoa(adzunaPageSize),
		"what":             title,
		"sort_by":          "date",
	}
	if location != "" {
		params["where"] = location
	}

	var body adzunaResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get(fmt.Sprintf("%s/%s/search/%d", a.BaseURL, a.Country, page))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("adzuna returned %s", resp.Status())
	}

	records := make([]any, 0, len(body.Results))
	for _, r := range body.Results {
		record := map[string]any{
			"title":           r.Title,
			"company":         r.Company.DisplayName,
			"location":        r.Location.DisplayName,
			"description":     r.Description,
			"url":             r.RedirectURL,
			"employment_type": r.ContractTime,
		}
		if r.SalaryMin > 0 {
			record["salary_min"] = r.SalaryMin
		}
		if r.SalaryMax > 0 {
			record["salary_max"] = r.SalaryMax
		}
		records = append(records, record)
	}
	return records, nil
}
