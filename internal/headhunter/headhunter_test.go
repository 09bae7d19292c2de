package headhunter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildParams(t *testing.T) {
	q := buildParams(&SearchParams{
		Text:      "golang",
		Areas:     []int{1, 2},
		Schedules: []string{"remote"},
		PerPage:   "50",
		MaxPages:  3,
	})

	assert.Equal(t, "golang", q.Get("text"))
	assert.Equal(t, []string{"1", "2"}, q["area"])
	assert.Equal(t, []string{"remote"}, q["schedule"])
	assert.Equal(t, "50", q.Get("per_page"))
	assert.Empty(t, q.Get("period"))
	assert.Empty(t, q.Get("-"))
	assert.Empty(t, q.Get("MaxPages"))
}

func TestSearchFollowsPages(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, SearchPath, r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		page := r.URL.Query().Get("page")
		if page == "" {
			page = "0"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"items":[{"id":"%s","name":"Go Developer %s","area":{"name":"Moscow"},
			"employer":{"name":"Acme"},"schedule":{"id":"remote"},"salary":{"from":1000,"currency":"RUR"},
			"key_skills":[{"name":"Go"}]}],"found":2,"pages":2,"page":%s,"per_page":1}`, page, page, page)
	}))
	defer srv.Close()

	client := New(zap.NewNop(), "token")
	client.APIURL = srv.URL

	vacancies, err := client.Search(context.Background(), &SearchParams{Text: "go"})
	require.NoError(t, err)
	require.Equal(t, 2, vacancies.Len())
	assert.Equal(t, 2, requests)

	records := vacancies.Records()
	require.Len(t, records, 2)

	first := records[0].(map[string]any)
	assert.Equal(t, "Go Developer 0", first["title"])
	assert.Equal(t, "Acme", first["company"])
	assert.Equal(t, "Moscow", first["location"])
	assert.Equal(t, true, first["remote"])
	assert.Equal(t, 1000.0, first["salary_min"])
	assert.NotContains(t, first, "salary_max")
	assert.Equal(t, []any{"Go"}, first["requirements"])
}

func TestSearchRespectsMaxPages(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"items":[{"id":"1","name":"Dev"}],"found":30,"pages":30,"page":0,"per_page":1}`)
	}))
	defer srv.Close()

	client := New(nil, "")
	client.APIURL = srv.URL

	_, err := client.Search(context.Background(), &SearchParams{Text: "go", MaxPages: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestSearchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := New(nil, "")
	client.APIURL = srv.URL

	_, err := client.Search(context.Background(), &SearchParams{Text: "go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad status")
}

func TestRecordsSkipArchived(t *testing.T) {
	vacancies := &Vacancies{Items: []*Vacancy{
		{ID: "1", Name: "Active"},
		{ID: "2", Name: "Old", Archived: true},
	}}
	vacancies.Items[0].Snipet.Requirement = "Go"
	vacancies.Items[0].Snipet.Responsibility = "Build"

	records := vacancies.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Build\nGo", records[0].(map[string]any)["description"])
}
