// Package applypack turns a discovery result into a ranked, capped list of
// applications with a pre-submission checklist. Output carries no
// timestamps, so identical input produces an identical pack.
package applypack

import (
	"sort"
	"strings"

	"github.com/spigell/jobflow/internal/discovery"
	"github.com/spigell/jobflow/internal/matching"
)

const DefaultTopN = 25

type Candidate struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	Location      string   `json:"location"`
	DesiredTitles []string `json:"desired_titles"`
	Skills        []string `json:"skills"`
}

type Entry struct {
	Rank            int      `json:"rank"`
	JobTitle        string   `json:"job_title"`
	Company         string   `json:"company"`
	Location        string   `json:"location"`
	ApplyURL        string   `json:"apply_url"`
	Source          string   `json:"source"`
	Score           float64  `json:"score"`
	Decision        string   `json:"decision"`
	Reasons         []string `json:"reasons"`
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	JobFingerprint  string   `json:"job_fingerprint"`
	// Notes is left empty for human annotation after export.
	Notes string `json:"notes"`
}

type Checklist struct {
	HasEmail          bool   `json:"has_email"`
	HasPhone          bool   `json:"has_phone"`
	HasResume         bool   `json:"has_resume"`
	WorkAuthorization string `json:"work_authorization"`
	SponsorshipNeeded *bool  `json:"sponsorship_needed"`
	NeedsManualReview bool   `json:"needs_manual_review"`
}

type Pack struct {
	Candidate Candidate `json:"candidate"`
	// TopN is the number of applications actually included.
	TopN          int       `json:"top_n"`
	RequestedTopN int       `json:"requested_top_n"`
	Applications  []Entry   `json:"applications"`
	Checklist     Checklist `json:"checklist"`
}

// Build projects result into a pack of at most topN applications. Matches
// are used when present and non-empty, otherwise jobs with neutral scores.
// A non-positive topN means DefaultTopN.
func Build(result *discovery.Result, topN int) Pack {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if result == nil {
		result = &discovery.Result{}
	}

	var apps []Entry
	if len(result.Matches) > 0 {
		apps = fromMatches(result.Matches)
	} else {
		apps = fromJobs(result)
	}

	if len(apps) > topN {
		apps = apps[:topN]
	}
	for i := range apps {
		apps[i].Rank = i + 1
	}

	c := result.Candidate
	pack := Pack{
		Candidate: Candidate{
			Name:          strings.TrimSpace(c.Name),
			Email:         strings.TrimSpace(c.Email),
			Phone:         strings.TrimSpace(c.Phone),
			Location:      strings.TrimSpace(c.Location),
			DesiredTitles: orEmpty(c.DesiredTitles),
			Skills:        orEmpty(c.Skills),
		},
		TopN:          len(apps),
		RequestedTopN: topN,
		Applications:  apps,
	}

	pack.Checklist = Checklist{
		HasEmail:          pack.Candidate.Email != "",
		HasPhone:          pack.Candidate.Phone != "",
		HasResume:         hasResume(result.Raw),
		WorkAuthorization: c.WorkAuthorization,
		SponsorshipNeeded: c.SponsorshipNeeded,
		NeedsManualReview: needsReview(apps),
	}

	return pack
}

func fromMatches(matches []matching.MatchResult) []Entry {
	sorted := append([]matching.MatchResult(nil), matches...)
	matching.Rank(sorted)

	apps := make([]Entry, 0, len(sorted))
	for _, m := range sorted {
		apps = append(apps, Entry{
			JobTitle:        m.JobTitle,
			Company:         m.JobCompany,
			Location:        m.JobLocation,
			ApplyURL:        m.JobURL,
			Source:          m.Source,
			Score:           m.OverallScore,
			Decision:        string(m.Decision),
			Reasons:         orEmpty(m.Reasons),
			MatchedKeywords: orEmpty(m.MatchedKeywords),
			MissingKeywords: orEmpty(m.MissingKeywords),
			JobFingerprint:  m.JobFingerprint,
		})
	}
	return apps
}

func fromJobs(result *discovery.Result) []Entry {
	apps := make([]Entry, 0, len(result.Jobs))
	for _, j := range result.Jobs {
		apps = append(apps, Entry{
			JobTitle:        j.Title,
			Company:         j.Company,
			Location:        j.Location,
			ApplyURL:        j.URL,
			Source:          j.Source,
			Reasons:         []string{},
			MatchedKeywords: []string{},
			MissingKeywords: []string{},
			JobFingerprint:  j.Fingerprint,
		})
	}
	sort.SliceStable(apps, func(i, k int) bool {
		return apps[i].JobTitle < apps[k].JobTitle
	})
	return apps
}

func hasResume(raw *discovery.RawInfo) bool {
	if raw == nil {
		return false
	}
	return raw.ResumePath != "" || raw.ResumeTextExcerpt != ""
}

func needsReview(apps []Entry) bool {
	for _, app := range apps {
		if app.Decision != string(matching.StrongFit) {
			return true
		}
	}
	return false
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
