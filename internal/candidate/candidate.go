// Package candidate holds the candidate profile model and turns it into a
// canonical search query.
package candidate

import (
	"strings"
)

// Identity is the contact part of a profile.
type Identity struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}

// Skill is a skill name with optional years of experience. Years only
// influence scoring weight.
type Skill struct {
	Name  string  `json:"name"`
	Years float64 `json:"years,omitempty"`
}

// Profile is the canonical candidate profile. It is treated as immutable for
// the duration of a discovery run.
type Profile struct {
	Identity          Identity `json:"identity"`
	DesiredTitle      string   `json:"desired_title,omitempty"`
	AlternateTitles   []string `json:"alternate_titles,omitempty"`
	Skills            []Skill  `json:"skills,omitempty"`
	DesiredLocations  []string `json:"desired_locations,omitempty"`
	RemoteOK          bool     `json:"remote_ok,omitempty"`
	EmploymentType    string   `json:"employment_type,omitempty"`
	WorkAuthorization string   `json:"work_authorization,omitempty"`
	SponsorshipNeeded *bool    `json:"sponsorship_needed,omitempty"`
}

// SearchQuery is derived from a Profile by BuildQuery.
type SearchQuery struct {
	Titles         []string `json:"titles"`
	Keywords       []string `json:"keywords"`
	Locations      []string `json:"locations"`
	RemoteOK       bool     `json:"remote_ok"`
	EmploymentType string   `json:"employment_type"`
}

// Summary is the subset of a profile that is safe to put into exported
// results.
type Summary struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	Location          string   `json:"location"`
	DesiredTitles     []string `json:"desired_titles"`
	Skills            []string `json:"skills"`
	WorkAuthorization string   `json:"work_authorization"`
	SponsorshipNeeded *bool    `json:"sponsorship_needed"`
}

// BuildQuery converts a profile into a search query. Titles keep the primary
// title first followed by alternates, keywords are lower-cased skill names.
// Duplicates and blanks are dropped, first occurrence wins.
func BuildQuery(p Profile) SearchQuery {
	titles := make([]string, 0, 1+len(p.AlternateTitles))
	titles = append(titles, p.DesiredTitle)
	titles = append(titles, p.AlternateTitles...)

	keywords := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		keywords = append(keywords, strings.ToLower(s.Name))
	}

	return SearchQuery{
		Titles:         uniqueTrimmed(titles),
		Keywords:       uniqueTrimmed(keywords),
		Locations:      uniqueTrimmed(p.DesiredLocations),
		RemoteOK:       p.RemoteOK,
		EmploymentType: strings.TrimSpace(p.EmploymentType),
	}
}

// Summary returns the exported subset of the profile.
func (p Profile) Summary() Summary {
	q := BuildQuery(p)

	skills := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		skills = append(skills, s.Name)
	}

	return Summary{
		Name:              strings.TrimSpace(p.Identity.Name),
		Email:             strings.TrimSpace(p.Identity.Email),
		Phone:             strings.TrimSpace(p.Identity.Phone),
		Location:          strings.TrimSpace(p.Identity.Location),
		DesiredTitles:     q.Titles,
		Skills:            uniqueTrimmed(skills),
		WorkAuthorization: strings.TrimSpace(p.WorkAuthorization),
		SponsorshipNeeded: p.SponsorshipNeeded,
	}
}

// SkillYears returns lower-cased skill name to years. Repeated skills keep the
// largest value.
func (p Profile) SkillYears() map[string]float64 {
	years := make(map[string]float64, len(p.Skills))
	for _, s := range p.Skills {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			continue
		}
		if s.Years > years[name] {
			years[name] = s.Years
		} else if _, ok := years[name]; !ok {
			years[name] = s.Years
		}
	}
	return years
}

func uniqueTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
