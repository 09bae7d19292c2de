package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobflow/internal/filtering"
	"github.com/spigell/jobflow/internal/source"
)

func newTestServer(logger *zap.Logger) *Server {
	return New(Options{
		Sources: []source.Source{source.NewStatic("board",
			map[string]any{"title": "Data Engineer", "company": "Acme", "requirements": []any{"Python"}, "remote": true},
			map[string]any{"title": "Chef", "company": "Bistro"},
		)},
		Filters: []filtering.Filter{filtering.NewEmployers([]string{"Bistro"})},
		TopN:    1,
		Logger:  logger,
	})
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestServer(nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["sources"])
}

func TestDiscover(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := newTestServer(zap.New(core))

	rec, body := do(t, s, http.MethodPost, "/v1/discover",
		`{"candidate": {"desired_titles": ["Data Engineer"], "skills": ["Python"], "remote": true}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Len(t, body["jobs"], 2)
	require.Len(t, body["matches"], 2)
	first := body["matches"].([]any)[0].(map[string]any)
	assert.Equal(t, "Data Engineer", first["job_title"])
	assert.Equal(t, 1, logs.FilterMessage("http request").Len())

	rec, body = do(t, s, http.MethodPost, "/v1/discover",
		`{"candidate": {"titles": ["Data Engineer"], "keywords": ["python"]}, "match": false, "filters": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["jobs"], 1)
	assert.NotContains(t, body, "matches")
}

func TestDiscoverUsageErrors(t *testing.T) {
	s := newTestServer(nil)

	for _, body := range []string{
		`{"candidate": "jane"}`,
		`{}`,
		`{"candidate": {"unknown": 1}}`,
		`not json`,
	} {
		rec, out := do(t, s, http.MethodPost, "/v1/discover", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, out["error"], body)
	}
}

func TestApplyPack(t *testing.T) {
	s := newTestServer(nil)

	_, result := do(t, s, http.MethodPost, "/v1/discover",
		`{"candidate": {"desired_titles": ["Data Engineer"], "skills": ["Python"]}}`)
	payload, err := json.Marshal(map[string]any{"result": result})
	require.NoError(t, err)

	rec, pack := do(t, s, http.MethodPost, "/v1/apply-pack", string(payload))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, pack["top_n"])
	apps := pack["applications"].([]any)
	require.Len(t, apps, 1)
	assert.Equal(t, "Data Engineer", apps[0].(map[string]any)["job_title"])

	rec, _ = do(t, s, http.MethodPost, "/v1/apply-pack", `{"top_n": 3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer(nil).Run(ctx, "127.0.0.1:0") }()

	cancel()
	assert.NoError(t, <-done)
}
