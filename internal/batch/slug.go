package batch

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxSlugLength = 80
	fallbackSlug  = "unknown"
)

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9_-]`)
	slugSeparators = regexp.MustCompile(`[_-]+`)
)

// Slug derives a filesystem-safe identifier: lower case, spaces become
// underscores, only [a-z0-9_-] kept, separator runs collapsed to one
// underscore, trimmed, at most 80 characters. Empty results become "unknown".
func Slug(s string) string {
	slug := strings.ToLower(s)
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_-")

	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "_-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

type slugSet map[string]int

// unique returns Slug(s), suffixed with _2, _3... when already taken.
func (set slugSet) unique(s string) string {
	base := Slug(s)
	set[base]++
	if set[base] == 1 {
		return base
	}
	for n := set[base]; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if _, taken := set[candidate]; !taken {
			set[candidate] = 1
			return candidate
		}
	}
}
