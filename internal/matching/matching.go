// Package matching scores job postings against a candidate. Scoring is pure:
// a result depends only on the target and the posting.
package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/spigell/jobflow/internal/candidate"
	"github.com/spigell/jobflow/internal/jobs"
)

// Signal weights. They sum to 100 so the overall score is a percentage.
const (
	TitleWeight      = 30.0
	SkillsWeight     = 45.0
	LocationWeight   = 15.0
	EmploymentWeight = 10.0
)

// Decision thresholds on the overall score.
const (
	StrongFitThreshold   = 70.0
	PossibleFitThreshold = 50.0
	WeakFitThreshold     = 30.0
)

const maxSkillYears = 10.0

type Decision string

const (
	StrongFit   Decision = "strong_fit"
	PossibleFit Decision = "possible_fit"
	WeakFit     Decision = "weak_fit"
	NoFit       Decision = "no_fit"
)

// Decide maps a score to its decision band.
func Decide(score float64) Decision {
	switch {
	case score >= StrongFitThreshold:
		return StrongFit
	case score >= PossibleFitThreshold:
		return PossibleFit
	case score >= WeakFitThreshold:
		return WeakFit
	default:
		return NoFit
	}
}

// Target is what postings are scored against. Keywords are kept sorted.
type Target struct {
	Titles         []string
	Keywords       []string
	Years          map[string]float64
	Locations      []string
	RemoteOK       bool
	EmploymentType string
}

// NewTarget builds a target from a query and optional per-keyword years of
// experience (keys lower-cased).
func NewTarget(q candidate.SearchQuery, years map[string]float64) Target {
	keywords := make([]string, 0, len(q.Keywords))
	seen := make(map[string]struct{}, len(q.Keywords))
	for _, kw := range q.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	y := make(map[string]float64, len(years))
	for k, v := range years {
		y[strings.ToLower(strings.TrimSpace(k))] = v
	}

	return Target{
		Titles:         append([]string(nil), q.Titles...),
		Keywords:       keywords,
		Years:          y,
		Locations:      append([]string(nil), q.Locations...),
		RemoteOK:       q.RemoteOK,
		EmploymentType: q.EmploymentType,
	}
}

// Components holds each signal in [0, 1].
type Components struct {
	Title      float64 `json:"title"`
	Skills     float64 `json:"skills"`
	Location   float64 `json:"location"`
	Employment float64 `json:"employment"`
}

type MatchResult struct {
	JobFingerprint  string     `json:"job_fingerprint"`
	JobTitle        string     `json:"job_title"`
	JobCompany      string     `json:"job_company"`
	JobLocation     string     `json:"job_location"`
	JobURL          string     `json:"job_url"`
	Source          string     `json:"source"`
	OverallScore    float64    `json:"overall_score"`
	Decision        Decision   `json:"decision"`
	Reasons         []string   `json:"reasons"`
	MatchedKeywords []string   `json:"matched_keywords"`
	MissingKeywords []string   `json:"missing_keywords"`
	Components      Components `json:"components"`
}

// Score computes the match of one posting.
func Score(target Target, job jobs.Posting) MatchResult {
	title := titleScore(target.Titles, job.Title)
	skills := scoreSkills(target, job)
	location, locationReason := locationScore(target, job)
	employment, employmentReason := employmentScore(target.EmploymentType, job.EmploymentType)

	overall := TitleWeight*title + SkillsWeight*skills.score + LocationWeight*location + EmploymentWeight*employment
	overall = math.Max(0, math.Min(100, math.Round(overall*10)/10))

	reasons := make([]string, 0, 4+len(skills.missingRaw))
	reasons = append(reasons, titleReason(title))
	reasons = append(reasons, skillsReason(skills.score, skills.matched))
	for _, req := range skills.missingRaw {
		reasons = append(reasons, "Missing required: "+req)
	}
	reasons = append(reasons, locationReason, employmentReason)

	return MatchResult{
		JobFingerprint:  job.Fingerprint,
		JobTitle:        job.Title,
		JobCompany:      job.Company,
		JobLocation:     job.Location,
		JobURL:          job.URL,
		Source:          job.Source,
		OverallScore:    overall,
		Decision:        Decide(overall),
		Reasons:         reasons,
		MatchedKeywords: skills.matched,
		MissingKeywords: skills.missing,
		Components: Components{
			Title:      round3(title),
			Skills:     round3(skills.score),
			Location:   location,
			Employment: employment,
		},
	}
}

// ScoreAll scores every posting, keeping posting order.
func ScoreAll(target Target, postings []jobs.Posting) []MatchResult {
	out := make([]MatchResult, 0, len(postings))
	for _, p := range postings {
		out = append(out, Score(target, p))
	}
	return out
}

// Rank sorts results in place by score descending, then job title ascending.
func Rank(results []MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].OverallScore != results[j].OverallScore {
			return results[i].OverallScore > results[j].OverallScore
		}
		return results[i].JobTitle < results[j].JobTitle
	})
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
