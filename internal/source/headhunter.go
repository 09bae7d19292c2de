package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/jobflow/internal/candidate"
	"github.com/spigell/jobflow/internal/headhunter"
)

// HeadHunter searches hh.ru vacancies. Titles are combined into one search
// text, remote preference becomes the remote schedule filter.
type HeadHunter struct {
	Name     string
	Areas    []int
	MaxPages int
	client   *headhunter.Client
}

func NewHeadHunter(name string, client *headhunter.Client, areas []int, maxPages int) *HeadHunter {
	if name == "" {
		name = "headhunter"
	}
	return &HeadHunter{Name: name, Areas: areas, MaxPages: maxPages, client: client}
}

func (h *HeadHunter) ID() string { return h.Name }

func (h *HeadHunter) Pull(ctx context.Context, query candidate.SearchQuery) ([]any, error) {
	params := searchParams(query, h.Areas, h.MaxPages)
	if params.Text == "" {
		return nil, nil
	}

	vacancies, err := h.client.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", params.Text, err)
	}
	return vacancies.Records(), nil
}

func searchParams(query candidate.SearchQuery, areas []int, maxPages int) *headhunter.SearchParams {
	titles := make([]string, 0, len(query.Titles))
	for _, t := range query.Titles {
		titles = append(titles, fmt.Sprintf("%q", t))
	}

	params := &headhunter.SearchParams{
		Text:        strings.Join(titles, " OR "),
		SearchField: "name",
		Areas:       areas,
		MaxPages:    maxPages,
	}
	if query.RemoteOK {
		params.Schedules = []string{"remote"}
	}
	if et := employmentID(query.EmploymentType); et != "" {
		params.Employment = et
	}
	return params
}

func employmentID(s string) string {
	switch strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s)) {
	case "fulltime", "full":
		return "full"
	case "parttime", "part":
		return "part"
	case "contract", "project":
		return "project"
	case "internship", "probation":
		return "probation"
	default:
		return ""
	}
}
