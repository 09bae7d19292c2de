package matching

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/jobflow/internal/jobs"
)

func titleScore(titles []string, jobTitle string) float64 {
	job := normalizeText(jobTitle)
	if job == "" {
		return 0
	}
	jobWords := wordSet(job)

	best := 0.0
	for _, t := range titles {
		want := normalizeText(t)
		if want == "" {
			continue
		}
		if containsWord(job, want) || containsWord(want, job) {
			return 1
		}

		tokens := words(want)
		if len(tokens) == 0 {
			continue
		}
		hit := 0
		for _, w := range tokens {
			if _, ok := jobWords[w]; ok {
				hit++
			}
		}
		best = math.Max(best, float64(hit)/float64(len(tokens)))
	}
	return best
}

func titleReason(score float64) string {
	switch {
	case score >= 1:
		return "Title matches desired role"
	case score > 0:
		return "Title partially matches desired role"
	default:
		return "Title does not match desired roles"
	}
}

type skillMatch struct {
	score      float64
	matched    []string
	missing    []string
	missingRaw []string
}

func scoreSkills(target Target, job jobs.Posting) skillMatch {
	res := skillMatch{matched: []string{}, missing: []string{}}

	requirements := make([]string, 0, len(job.Requirements))
	for _, r := range job.Requirements {
		if r = strings.TrimSpace(r); r != "" {
			requirements = append(requirements, r)
		}
	}

	matched := make(map[string]struct{})
	addMatched := func(kw string) {
		if _, ok := matched[kw]; ok {
			return
		}
		matched[kw] = struct{}{}
		res.matched = append(res.matched, kw)
	}

	missingSeen := make(map[string]struct{})
	for _, req := range requirements {
		lower := strings.ToLower(req)
		covered := false
		for _, kw := range target.Keywords {
			if containsWord(lower, kw) {
				covered = true
				addMatched(kw)
			}
		}
		if covered {
			continue
		}
		if _, ok := missingSeen[lower]; ok {
			continue
		}
		missingSeen[lower] = struct{}{}
		res.missing = append(res.missing, lower)
		res.missingRaw = append(res.missingRaw, req)
	}

	elsewhere := strings.ToLower(job.Title + "\n" + job.Description)
	for _, kw := range target.Keywords {
		if containsWord(elsewhere, kw) {
			addMatched(kw)
		}
	}

	// Summed in sorted keyword order so the float result is stable.
	weight := 0.0
	for _, kw := range target.Keywords {
		if _, ok := matched[kw]; ok {
			weight += 1 + math.Min(target.Years[kw], maxSkillYears)/(2*maxSkillYears)
		}
	}
	if weight > 0 {
		res.score = weight / (weight + float64(len(res.missing)))
	}
	return res
}

func skillsReason(score float64, matched []string) string {
	list := strings.Join(matched, ", ")
	switch {
	case score >= 0.75:
		return "Strong skills match: " + list
	case score >= 0.4:
		return "Moderate skills match: " + list
	case score > 0:
		return "Weak skills match: " + list
	default:
		return "No skills match"
	}
}

func locationScore(target Target, job jobs.Posting) (float64, string) {
	jobLocation := normalizeText(job.Location)
	remote := job.Remote || containsWord(jobLocation, "remote")

	if remote && target.RemoteOK {
		return 1, "Remote role matches preference"
	}
	for _, loc := range target.Locations {
		want := normalizeText(loc)
		if want == "" || jobLocation == "" {
			continue
		}
		if strings.Contains(jobLocation, want) || strings.Contains(want, jobLocation) {
			return 1, "Location matches: " + job.Location
		}
	}
	if len(target.Locations) == 0 {
		return 0.5, "No location preference"
	}
	if job.Location == "" {
		return 0, "Location not stated"
	}
	return 0, "Location mismatch: " + job.Location
}

func employmentScore(want, got string) (float64, string) {
	w, g := normalizeEmployment(want), normalizeEmployment(got)
	switch {
	case w == "" || g == "":
		return 0.5, "Employment type unknown"
	case w == g:
		return 1, "Employment type matches: " + got
	default:
		return 0, fmt.Sprintf("Employment type mismatch: %s vs %s", got, want)
	}
}

func normalizeEmployment(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !isWordRune(r)
	})
}

func wordSet(s string) map[string]struct{} {
	list := words(s)
	set := make(map[string]struct{}, len(list))
	for _, w := range list {
		set[w] = struct{}{}
	}
	return set
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// containsWord reports whether word occurs in text with no letter or digit
// directly before or after it. Both must be lower-cased. Works for words
// with punctuation such as "c++" or "node.js".
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for start := 0; start <= len(text)-len(word); {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)

		before := idx == 0 || !isWordRune(decodeLast(text[:idx]))
		after := end == len(text) || !isWordRune(decodeFirst(text[end:]))
		if before && after {
			return true
		}
		start = idx + 1
	}
	return false
}

func decodeFirst(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func decodeLast(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
