// Package jobs defines the canonical job posting and converts raw source
// records into it.
package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Posting is a normalized job posting. Fingerprint identifies its content
// and is the deduplication key.
type Posting struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Description    string   `json:"description"`
	Requirements   []string `json:"requirements"`
	SalaryMin      *float64 `json:"salary_min"`
	SalaryMax      *float64 `json:"salary_max"`
	Currency       string   `json:"currency"`
	EmploymentType string   `json:"employment_type"`
	Remote         bool     `json:"remote"`
	URL            string   `json:"url"`
	Source         string   `json:"source"`
	Fingerprint    string   `json:"fingerprint"`
}

const fingerprintSeparator = "\x1f"

// Fingerprint hashes title, company, location and description after
// lower-casing them and collapsing whitespace.
func Fingerprint(title, company, location, description string) string {
	parts := []string{
		canonical(title),
		canonical(company),
		canonical(location),
		canonical(description),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, fingerprintSeparator)))
	return hex.EncodeToString(sum[:16])
}

func canonical(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
