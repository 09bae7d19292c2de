package candidate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	p := Profile{
		DesiredTitle:     "Data Engineer",
		AlternateTitles:  []string{"ML Engineer", "Data Engineer", " ", "Analytics Engineer"},
		Skills:           []Skill{{Name: "Python", Years: 5}, {Name: "SQL"}, {Name: "python"}},
		DesiredLocations: []string{"Berlin", "", "Remote"},
		RemoteOK:         true,
		EmploymentType:   " full-time ",
	}

	q := BuildQuery(p)

	assert.Equal(t, []string{"Data Engineer", "ML Engineer", "Analytics Engineer"}, q.Titles)
	assert.Equal(t, []string{"python", "sql"}, q.Keywords)
	assert.Equal(t, []string{"Berlin", "Remote"}, q.Locations)
	assert.True(t, q.RemoteOK)
	assert.Equal(t, "full-time", q.EmploymentType)
}

func TestBuildQueryEmptyProfile(t *testing.T) {
	q := BuildQuery(Profile{})

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"titles":[],"keywords":[],"locations":[],"remote_ok":false,"employment_type":""}`, string(data))
}

func TestBuildQueryIsDeterministic(t *testing.T) {
	in, err := DecodeInput(map[string]any{
		"desired_title": "Backend Developer",
		"skills_years":  map[string]any{"go": 4, "aws": 2, "docker": 3, "kubernetes": 1},
	})
	require.NoError(t, err)

	first, err := json.Marshal(BuildQuery(in.ToProfile()))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		next, err := json.Marshal(BuildQuery(in.ToProfile()))
		require.NoError(t, err)
		require.Equal(t, string(first), string(next))
	}
	assert.Contains(t, string(first), `"keywords":["aws","docker","go","kubernetes"]`)
}

func TestDecodeInputShapes(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		kind     Kind
		titles   []string
		keywords []string
		person   string
	}{
		{
			name: "intake form",
			raw: map[string]any{
				"first_name":        "Jane",
				"last_name":         "Doe",
				"email":             "jane@example.com",
				"desired_title":     "Data Engineer",
				"alternate_titles":  []any{"ML Engineer"},
				"skills_years":      map[string]any{"Python": 5, "SQL": 3},
				"desired_locations": []any{"Berlin"},
				"remote_ok":         true,
				"employment_type":   "full-time",
			},
			kind:     KindIntake,
			titles:   []string{"Data Engineer", "ML Engineer"},
			keywords: []string{"python", "sql"},
			person:   "Jane Doe",
		},
		{
			name: "skill list",
			raw: map[string]any{
				"full_name":      "John Smith",
				"desired_titles": []any{"Go Developer", "SRE"},
				"skills":         []any{"Go", map[string]any{"name": "Kubernetes", "years": 2}},
				"locations":      []any{"Remote"},
				"remote":         true,
			},
			kind:     KindSkillList,
			titles:   []string{"Go Developer", "SRE"},
			keywords: []string{"go", "kubernetes"},
			person:   "John Smith",
		},
		{
			name: "query",
			raw: map[string]any{
				"titles":   []any{"QA Engineer"},
				"keywords": []any{"Selenium"},
			},
			kind:     KindQuery,
			titles:   []string{"QA Engineer"},
			keywords: []string{"selenium"},
		},
		{
			name: "canonical profile",
			raw: map[string]any{
				"identity":      map[string]any{"name": "Ann", "email": "ann@example.com"},
				"desired_title": "Designer",
				"skills":        []any{map[string]any{"name": "Figma", "years": 3}},
			},
			kind:     KindProfile,
			titles:   []string{"Designer"},
			keywords: []string{"figma"},
			person:   "Ann",
		},
		{
			name:     "empty object",
			raw:      map[string]any{},
			kind:     KindIntake,
			titles:   []string{},
			keywords: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeInput(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, in.Kind)

			p := in.ToProfile()
			q := BuildQuery(p)
			assert.Equal(t, tt.titles, q.Titles)
			assert.Equal(t, tt.keywords, q.Keywords)
			assert.Equal(t, tt.person, p.Identity.Name)
		})
	}
}

func TestDecodeInputSkillYears(t *testing.T) {
	in, err := DecodeInput(map[string]any{"skills_years": map[string]any{"Go": 7, "go": 3}})
	require.NoError(t, err)

	years := in.ToProfile().SkillYears()
	assert.Equal(t, 7.0, years["go"])
}

func TestDecodeInputProfileStringSkills(t *testing.T) {
	in, err := DecodeInput(map[string]any{
		"identity": map[string]any{"name": "Ann"},
		"skills":   []any{"Go", map[string]any{"name": "SQL", "years": 3}},
	})
	require.NoError(t, err)
	require.Equal(t, KindProfile, in.Kind)

	p := in.ToProfile()
	assert.Equal(t, "Ann", p.Identity.Name)
	assert.Equal(t, []Skill{{Name: "Go"}, {Name: "SQL", Years: 3}}, p.Skills)
}

func TestDecodeInputUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{name: "string", raw: "not a candidate"},
		{name: "list", raw: []any{"a", "b"}},
		{name: "nil", raw: nil},
		{name: "unknown keys", raw: map[string]any{"foo": "bar"}},
		{name: "bad skills", raw: map[string]any{"skills": "go"}},
		{name: "mistyped title", raw: map[string]any{"desired_title": map[string]any{"x": 1}}},
		{name: "empty tagged input", raw: Input{Kind: KindProfile}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInput(tt.raw)
			require.Error(t, err)

			var usage *UsageError
			assert.True(t, errors.As(err, &usage), "expected UsageError, got %T", err)
		})
	}
}

func TestSummary(t *testing.T) {
	yes := true
	p := Profile{
		Identity:          Identity{Name: " Jane ", Email: "jane@example.com"},
		DesiredTitle:      "Data Engineer",
		Skills:            []Skill{{Name: "Python"}, {Name: "Python"}},
		WorkAuthorization: "EU citizen",
		SponsorshipNeeded: &yes,
	}

	s := p.Summary()
	assert.Equal(t, "Jane", s.Name)
	assert.Equal(t, "", s.Phone)
	assert.Equal(t, []string{"Data Engineer"}, s.DesiredTitles)
	assert.Equal(t, []string{"Python"}, s.Skills)
	require.NotNil(t, s.SponsorshipNeeded)
	assert.True(t, *s.SponsorshipNeeded)
}
