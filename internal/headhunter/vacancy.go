package headhunter

import (
	"strings"
)

const remoteSchedule = "remote"

type Vacancies struct {
	Items []*Vacancy
}

type named struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Vacancy struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Area   named  `json:"area,omitempty"`
	Salary struct {
		From     *float64 `json:"from,omitempty"`
		To       *float64 `json:"to,omitempty"`
		Currency string   `json:"currency,omitempty"`
	} `json:"salary,omitempty"`
	Schedule   named `json:"schedule,omitempty"`
	Employment named `json:"employment,omitempty"`
	Employer   struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Description  string `json:"description,omitempty"`
	KeySkills    []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	Archived bool `json:"archived,omitempty"`
	Snipet   struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

// Records converts active vacancies into raw job records.
func (v *Vacancies) Records() []any {
	records := make([]any, 0, len(v.Items))
	for _, vacancy := range v.Items {
		if vacancy == nil || vacancy.Archived {
			continue
		}
		records = append(records, vacancy.Record())
	}
	return records
}

// Record flattens the vacancy into the generic job record keys.
func (va *Vacancy) Record() map[string]any {
	description := strings.TrimSpace(va.Description)
	if description == "" {
		description = strings.TrimSpace(va.Snipet.Responsibility + "\n" + va.Snipet.Requirement)
	}

	skills := make([]any, 0, len(va.KeySkills))
	for _, s := range va.KeySkills {
		skills = append(skills, s.Name)
	}

	record := map[string]any{
		"title":           va.Name,
		"company":         va.Employer.Name,
		"location":        va.Area.Name,
		"description":     description,
		"requirements":    skills,
		"employment_type": va.Employment.ID,
		"remote":          va.Schedule.ID == remoteSchedule,
		"url":             va.AlternateURL,
		"currency":        va.Salary.Currency,
	}
	if va.Salary.From != nil {
		record["salary_min"] = *va.Salary.From
	}
	if va.Salary.To != nil {
		record["salary_max"] = *va.Salary.To
	}

	return record
}
