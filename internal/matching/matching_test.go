package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobflow/internal/candidate"
	"github.com/spigell/jobflow/internal/jobs"
)

func dataEngineer() Target {
	return NewTarget(candidate.SearchQuery{
		Titles:         []string{"Data Engineer"},
		Keywords:       []string{"SQL", "python", "sql"},
		RemoteOK:       true,
		EmploymentType: "full_time",
	}, map[string]float64{"Python": 5})
}

func TestNewTargetSortsKeywords(t *testing.T) {
	target := dataEngineer()
	assert.Equal(t, []string{"python", "sql"}, target.Keywords)
	assert.Equal(t, 5.0, target.Years["python"])
}

func TestScore(t *testing.T) {
	job := jobs.Posting{
		Title:          "Senior Data Engineer",
		Company:        "Acme",
		Location:       "Remote",
		Requirements:   []string{"Python", "SQL", "Kubernetes"},
		EmploymentType: "Full-time",
		Remote:         true,
		URL:            "https://acme.example.com/1",
		Source:         "feed",
		Fingerprint:    "fp",
	}

	res := Score(dataEngineer(), job)

	assert.Equal(t, 86.2, res.OverallScore)
	assert.Equal(t, StrongFit, res.Decision)
	assert.Equal(t, []string{
		"Title matches desired role",
		"Moderate skills match: python, sql",
		"Missing required: Kubernetes",
		"Remote role matches preference",
		"Employment type matches: Full-time",
	}, res.Reasons)
	assert.Equal(t, []string{"python", "sql"}, res.MatchedKeywords)
	assert.Equal(t, []string{"kubernetes"}, res.MissingKeywords)
	assert.Equal(t, Components{Title: 1, Skills: 0.692, Location: 1, Employment: 1}, res.Components)
	assert.Equal(t, "fp", res.JobFingerprint)
	assert.Equal(t, "Acme", res.JobCompany)
	assert.Equal(t, "https://acme.example.com/1", res.JobURL)
}

func TestScoreNoFit(t *testing.T) {
	target := NewTarget(candidate.SearchQuery{
		Titles:         []string{"Chef"},
		Locations:      []string{"Paris"},
		EmploymentType: "full_time",
	}, nil)
	job := jobs.Posting{Title: "Accountant", Location: "Berlin", EmploymentType: "part_time"}

	res := Score(target, job)
	assert.Equal(t, 0.0, res.OverallScore)
	assert.Equal(t, NoFit, res.Decision)
	assert.Equal(t, []string{
		"Title does not match desired roles",
		"No skills match",
		"Location mismatch: Berlin",
		"Employment type mismatch: part_time vs full_time",
	}, res.Reasons)
	assert.NotNil(t, res.MatchedKeywords)
	assert.NotNil(t, res.MissingKeywords)
}

func TestScoreIsMonotonic(t *testing.T) {
	job := jobs.Posting{
		Title:        "Backend Developer",
		Requirements: []string{"Go", "PostgreSQL"},
		Description:  "We also use Docker.",
	}

	base := Score(NewTarget(candidate.SearchQuery{Keywords: []string{"go"}}, nil), job)
	more := Score(NewTarget(candidate.SearchQuery{Keywords: []string{"go", "docker"}}, nil), job)
	assert.Greater(t, more.OverallScore, base.OverallScore)
	assert.Equal(t, []string{"go", "docker"}, more.MatchedKeywords)

	job.Requirements = append(job.Requirements, "Kafka")
	fewer := Score(NewTarget(candidate.SearchQuery{Keywords: []string{"go"}}, nil), job)
	assert.Less(t, fewer.OverallScore, base.OverallScore)
}

func TestScoreMissingKeywordsDeduplicated(t *testing.T) {
	job := jobs.Posting{Title: "x", Requirements: []string{"Rust", " rust ", "Go", "RUST"}}
	res := Score(NewTarget(candidate.SearchQuery{Keywords: []string{"go"}}, nil), job)
	assert.Equal(t, []string{"rust"}, res.MissingKeywords)
	assert.Equal(t, []string{"go"}, res.MatchedKeywords)
}

func TestScoreIsDeterministic(t *testing.T) {
	job := jobs.Posting{Title: "Data Engineer", Requirements: []string{"Python", "Spark"}, Description: "sql daily"}
	first := Score(dataEngineer(), job)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Score(dataEngineer(), job))
	}
}

func TestLocationScore(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		job    jobs.Posting
		expect float64
	}{
		{name: "remote", target: Target{RemoteOK: true}, job: jobs.Posting{Location: "Remote, EU"}, expect: 1},
		{name: "city", target: Target{Locations: []string{"berlin"}}, job: jobs.Posting{Location: "Berlin, Germany"}, expect: 1},
		{name: "no preference", target: Target{}, job: jobs.Posting{Location: "Berlin"}, expect: 0.5},
		{name: "remote not wanted", target: Target{Locations: []string{"Paris"}}, job: jobs.Posting{Location: "Remote", Remote: true}, expect: 0},
		{name: "unstated", target: Target{Locations: []string{"Paris"}}, job: jobs.Posting{}, expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := locationScore(tt.target, tt.job)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestTitleScorePartial(t *testing.T) {
	assert.Equal(t, 0.5, titleScore([]string{"Platform Engineer"}, "Site Reliability Engineer"))
	assert.Equal(t, 1.0, titleScore([]string{"Senior Data Engineer"}, "data engineer"))
	assert.Equal(t, 0.0, titleScore([]string{"Engineer"}, ""))
}

func TestTitleScoreWholeWords(t *testing.T) {
	assert.Equal(t, 0.0, titleScore([]string{"Java"}, "JavaScript Developer"))
	assert.Equal(t, 1.0, titleScore([]string{"Java"}, "Senior Java Developer"))
	assert.Equal(t, 1.0, titleScore([]string{"Go Developer"}, "Go Developer (Remote)"))
	assert.Equal(t, 0.5, titleScore([]string{"Data Engineer"}, "Database Engineer"))
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		text, word string
		expect     bool
	}{
		{"experience with c++ and go", "c++", true},
		{"we use google cloud", "go", false},
		{"javascript, typescript", "java", false},
		{"node.js, react", "node.js", true},
		{"go", "go", true},
		{"golang or go.", "go", true},
		{"anything", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, containsWord(tt.text, tt.word), "%q in %q", tt.word, tt.text)
	}
}

func TestDecide(t *testing.T) {
	assert.Equal(t, StrongFit, Decide(70))
	assert.Equal(t, PossibleFit, Decide(69.9))
	assert.Equal(t, PossibleFit, Decide(50))
	assert.Equal(t, WeakFit, Decide(30))
	assert.Equal(t, NoFit, Decide(29.9))
}

func TestRankTieBreaksByTitle(t *testing.T) {
	results := []MatchResult{
		{JobTitle: "ZZZ Job", OverallScore: 80},
		{JobTitle: "Low", OverallScore: 10},
		{JobTitle: "AAA Job", OverallScore: 80},
		{JobTitle: "Top", OverallScore: 95.5},
	}

	Rank(results)

	got := make([]string, 0, len(results))
	for _, r := range results {
		got = append(got, r.JobTitle)
	}
	assert.Equal(t, []string{"Top", "AAA Job", "ZZZ Job", "Low"}, got)
}

func TestScoreAllKeepsOrder(t *testing.T) {
	results := ScoreAll(dataEngineer(), []jobs.Posting{{Title: "B"}, {Title: "A"}})
	require.Len(t, results, 2)
	assert.Equal(t, "B", results[0].JobTitle)
}
