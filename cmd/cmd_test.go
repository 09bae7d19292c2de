package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	require.NoError(t, execute(t, "version"))
	assert.Equal(t, "jobflow version: unknown\n", out.String())
}

func TestDiscoverAndApplyPack(t *testing.T) {
	dir := t.TempDir()

	candidatePath := filepath.Join(dir, "candidate.json")
	require.NoError(t, os.WriteFile(candidatePath, []byte(`{
		"desired_titles": ["Data Engineer"],
		"skills": ["Python", {"name": "SQL", "years": 4}],
		"remote": true
	}`), 0o644))

	jobsPath := filepath.Join(dir, "jobs.json")
	require.NoError(t, os.WriteFile(jobsPath, []byte(`{"jobs": [
		{"title": "Data Engineer", "company": "Acme", "requirements": ["Python", "SQL"], "remote": true},
		{"title": "Chef", "company": "Bistro"}
	]}`), 0o644))

	resultPath := filepath.Join(dir, "out", "results.json")
	require.NoError(t, execute(t, "discover", "--candidate", candidatePath, "--jobs", jobsPath, "--out", resultPath))

	var result map[string]any
	data, err := os.ReadFile(resultPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "ok", result["status"])
	assert.Len(t, result["jobs"], 2)
	assert.Len(t, result["matches"], 2)

	packPath := filepath.Join(dir, "out", "apply_pack.json")
	require.NoError(t, execute(t, "apply-pack", "--result", resultPath, "--top-n", "1", "--out", packPath))

	var pack map[string]any
	data, err = os.ReadFile(packPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &pack))
	assert.EqualValues(t, 1, pack["top_n"])
	apps := pack["applications"].([]any)
	require.Len(t, apps, 1)
	assert.Equal(t, "Data Engineer", apps[0].(map[string]any)["job_title"])
}

func TestDiscoverRejectsBadCandidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "candidate.json")
	require.NoError(t, os.WriteFile(path, []byte(`"just a string"`), 0o644))

	err := execute(t, "discover", "--candidate", path, "--out", filepath.Join(dir, "r.json"))
	assert.ErrorContains(t, err, "candidate must be an object")
}
