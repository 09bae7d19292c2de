package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobflow/internal/aggregate"
	"github.com/spigell/jobflow/internal/candidate"
	"github.com/spigell/jobflow/internal/filtering"
	"github.com/spigell/jobflow/internal/source"
)

func profile() candidate.Profile {
	return candidate.Profile{
		Identity:        candidate.Identity{Name: "Jane Doe", Email: "jane@example.com"},
		DesiredTitle:    "Data Engineer",
		AlternateTitles: []string{"Analytics Engineer", "Data Engineer"},
		Skills:          []candidate.Skill{{Name: "Python", Years: 5}, {Name: "SQL"}},
		RemoteOK:        true,
		EmploymentType:  "full_time",
	}
}

func sources() []source.Source {
	return []source.Source{
		source.NewStatic("board",
			map[string]any{"title": "ZZZ Data Engineer", "company": "Acme", "requirements": []any{"Python"}, "remote": true},
			map[string]any{"title": "AAA Data Engineer", "company": "Globex", "requirements": []any{"Python"}, "remote": true},
			map[string]any{"title": "Chef", "company": "Bistro", "location": "Paris"},
		),
		source.NewStatic("mirror",
			map[string]any{"title": "ZZZ  Data Engineer", "company": "acme", "requirements": "Python", "remote": "yes"},
		),
	}
}

func TestDiscover(t *testing.T) {
	res, err := Discover(context.Background(), candidate.FromProfile(profile()), sources(), Options{Match: true})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{"Data Engineer", "Analytics Engineer"}, res.Query.Titles)
	assert.Equal(t, []string{"python", "sql"}, res.Query.Keywords)
	assert.Equal(t, "jane@example.com", res.Candidate.Email)

	require.Len(t, res.Jobs, 3)
	assert.Equal(t, "ZZZ Data Engineer", res.Jobs[0].Title)

	require.True(t, res.Matched)
	require.Len(t, res.Matches, len(res.Jobs))
	assert.Equal(t, "AAA Data Engineer", res.Matches[0].JobTitle)
	assert.Equal(t, "ZZZ Data Engineer", res.Matches[1].JobTitle)
	assert.Equal(t, res.Matches[0].OverallScore, res.Matches[1].OverallScore)
	assert.Equal(t, "Chef", res.Matches[2].JobTitle)

	assert.Equal(t, 3, res.Counts.Jobs)
	assert.Equal(t, 0, res.Counts.Errors)
	require.NotNil(t, res.Counts.Matches)
	assert.Equal(t, 3, *res.Counts.Matches)

	top, ok := res.TopScore()
	assert.True(t, ok)
	assert.Equal(t, res.Matches[0].OverallScore, top)
}

func TestDiscoverIsDeterministic(t *testing.T) {
	first, err := Discover(context.Background(), candidate.FromProfile(profile()), sources(), Options{Match: true})
	require.NoError(t, err)
	second, err := Discover(context.Background(), candidate.FromProfile(profile()), sources(), Options{Match: true})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestDiscoverWithoutMatching(t *testing.T) {
	res, err := Discover(context.Background(), candidate.FromProfile(profile()), sources(), Options{})
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Nil(t, res.Counts.Matches)
	_, ok := res.TopScore()
	assert.False(t, ok)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.NotContains(t, generic, "matches")
	assert.NotContains(t, generic["counts"], "matches")
	assert.NotContains(t, generic, "raw")
}

func TestDiscoverZeroMatchesKeepsKey(t *testing.T) {
	res, err := Discover(context.Background(), candidate.FromProfile(profile()), nil, Options{Match: true})
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, []any{}, generic["matches"])
	assert.Equal(t, []any{}, generic["jobs"])

	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Matched)
	assert.Empty(t, back.Matches)
}

func TestDiscoverIsolatesFailures(t *testing.T) {
	failing := source.Func{Name: "down", Fn: func(context.Context, candidate.SearchQuery) ([]any, error) {
		return nil, errors.New("unreachable")
	}}
	broken := filepath.Join(t.TempDir(), "excluded.json")
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0o644))

	srcs := append([]source.Source{failing}, sources()...)
	res, err := Discover(context.Background(), candidate.FromProfile(profile()), srcs, Options{
		Match:   true,
		Filters: []filtering.Filter{filtering.NewExcludeFile(broken), filtering.NewEmployers([]string{"Bistro"})},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Jobs, 2)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, aggregate.SourceFailure, res.Errors[0].Kind)
	assert.Equal(t, "filter:exclude_file", res.Errors[1].Source)
	assert.Equal(t, aggregate.FilterFailure, res.Errors[1].Kind)
	assert.Equal(t, 2, res.Counts.Errors)
	assert.Len(t, res.Matches, 2)
}

func TestDiscoverRaw(t *testing.T) {
	res, err := DiscoverRaw(context.Background(), map[string]any{
		"titles":   []any{"Data Engineer"},
		"keywords": []any{"python"},
	}, sources(), Options{Match: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Engineer"}, res.Query.Titles)
	assert.Len(t, res.Matches, 3)

	_, err = DiscoverRaw(context.Background(), "not a candidate", sources(), Options{})
	var usage *candidate.UsageError
	assert.ErrorAs(t, err, &usage)

	_, err = Discover(context.Background(), candidate.Input{Kind: candidate.KindProfile}, sources(), Options{})
	assert.ErrorAs(t, err, &usage)
}

func TestResultJSONRoundTrip(t *testing.T) {
	res, err := Discover(context.Background(), candidate.FromProfile(profile()), sources(), Options{Match: true})
	require.NoError(t, err)
	res.Raw = &RawInfo{ResumePath: "resume.txt"}

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, res.Matches, back.Matches)
	assert.Equal(t, res.Jobs, back.Jobs)
	assert.Equal(t, "resume.txt", back.Raw.ResumePath)
}
