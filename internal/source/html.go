package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/spigell/jobflow/internal/candidate"
)

// Selectors are CSS selectors for scraping a job board listing page. Item
// selects one posting, the rest are evaluated inside it.
type Selectors struct {
	Item         string `mapstructure:"item"`
	Title        string `mapstructure:"title"`
	Company      string `mapstructure:"company"`
	Location     string `mapstructure:"location"`
	Description  string `mapstructure:"description"`
	Requirements string `mapstructure:"requirements"`
	Link         string `mapstructure:"link"`
}

// HTMLBoard scrapes a single HTML listing page.
type HTMLBoard struct {
	Name      string
	URL       string
	Selectors Selectors
	client    *resty.Client
}

func NewHTMLBoard(name, pageURL string, selectors Selectors, timeout time.Duration) *HTMLBoard {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTMLBoard{
		Name:      name,
		URL:       pageURL,
		Selectors: selectors,
		client:    resty.New().SetTimeout(timeout).SetHeader("Accept", "text/html"),
	}
}

func (b *HTMLBoard) ID() string { return b.Name }

func (b *HTMLBoard) Pull(ctx context.Context, _ candidate.SearchQuery) ([]any, error) {
	resp, err := b.client.R().SetContext(ctx).Get(b.URL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", b.URL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("GET %s returned %s", b.URL, resp.Status())
	}

	return b.parse(resp.Body())
}

func (b *HTMLBoard) parse(page []byte) ([]any, error) {
	if b.Selectors.Item == "" {
		return nil, fmt.Errorf("item selector is required")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, _ := url.Parse(b.URL)

	var records []any
	doc.Find(b.Selectors.Item).Each(func(_ int, s *goquery.Selection) {
		record := map[string]any{
			"title":       text(s, b.Selectors.Title),
			"company":     text(s, b.Selectors.Company),
			"location":    text(s, b.Selectors.Location),
			"description": text(s, b.Selectors.Description),
		}

		if b.Selectors.Requirements != "" {
			var reqs []any
			s.Find(b.Selectors.Requirements).Each(func(_ int, r *goquery.Selection) {
				if t := strings.TrimSpace(r.Text()); t != "" {
					reqs = append(reqs, t)
				}
			})
			record["requirements"] = reqs
		}

		if b.Selectors.Link != "" {
			if href, ok := s.Find(b.Selectors.Link).First().Attr("href"); ok {
				record["url"] = resolve(base, href)
			}
		}

		records = append(records, record)
	})

	return records, nil
}

func text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(s.Find(selector).First().Text()), " ")
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
