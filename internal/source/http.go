package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spigell/jobflow/internal/candidate"
)

const defaultHTTPTimeout = 15 * time.Second

// HTTPFeed pulls a JSON feed over HTTP. The query is sent as URL parameters;
// the feed may ignore them.
type HTTPFeed struct {
	Name   string
	URL    string
	client *resty.Client
}

func NewHTTPFeed(name, url string, timeout time.Duration, headers map[string]string) *HTTPFeed {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeaders(headers)

	return &HTTPFeed{Name: name, URL: url, client: client}
}

func (f *HTTPFeed) ID() string { return f.Name }

func (f *HTTPFeed) Pull(ctx context.Context, query candidate.SearchQuery) ([]any, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(queryParams(query)).
		Get(f.URL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", f.URL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("GET %s returned %s", f.URL, resp.Status())
	}

	return extractRecords(resp.Body())
}

func queryParams(query candidate.SearchQuery) map[string]string {
	params := map[string]string{}
	if len(query.Titles) > 0 {
		params["title"] = query.Titles[0]
	}
	if len(query.Keywords) > 0 {
		params["keywords"] = strings.Join(query.Keywords, ",")
	}
	if len(query.Locations) > 0 {
		params["location"] = query.Locations[0]
	}
	if query.RemoteOK {
		params["remote"] = strconv.FormatBool(query.RemoteOK)
	}
	if query.EmploymentType != "" {
		params["employment_type"] = query.EmploymentType
	}
	return params
}
