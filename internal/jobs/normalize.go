package jobs

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// MalformedRecordError is returned by Normalize for records that cannot be
// turned into a Posting.
type MalformedRecordError struct {
	Source string
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("malformed record from %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// aliases maps each canonical field to the raw keys accepted for it, in
// priority order.
var aliases = map[string][]string{
	"title":           {"title", "name", "position"},
	"company":         {"company", "employer", "company_name"},
	"location":        {"location", "city", "area"},
	"description":     {"description", "summary"},
	"requirements":    {"requirements", "skills", "key_skills"},
	"url":             {"url", "link", "apply_url", "source_url", "sourceUrl", "redirect_url"},
	"employment_type": {"employment_type", "contract_type", "contractType", "contract_time"},
	"remote":          {"remote", "is_remote"},
	"salary_min":      {"salary_min", "salaryMin"},
	"salary_max":      {"salary_max", "salaryMax"},
	"currency":        {"currency", "salary_currency"},
	"source":          {"source"},
}

type record struct {
	Title          string `mapstructure:"title"`
	Company        string `mapstructure:"company"`
	Location       string `mapstructure:"location"`
	Description    string `mapstructure:"description"`
	URL            string `mapstructure:"url"`
	EmploymentType string `mapstructure:"employment_type"`
	Currency       string `mapstructure:"currency"`
	Source         string `mapstructure:"source"`
	Requirements   any    `mapstructure:"requirements"`
	Remote         any    `mapstructure:"remote"`
	SalaryMin      any    `mapstructure:"salary_min"`
	SalaryMax      any    `mapstructure:"salary_max"`
}

// Normalize converts one raw record pulled from sourceID into a Posting.
// A "source" value inside the record takes precedence over sourceID.
func Normalize(sourceID string, raw any) (Posting, error) {
	fields, err := asMap(raw)
	if err != nil {
		return Posting{}, &MalformedRecordError{Source: sourceID, Reason: err.Error()}
	}

	canonicalFields := make(map[string]any, len(aliases))
	for field, keys := range aliases {
		for _, key := range keys {
			if v, ok := fields[key]; ok && v != nil {
				canonicalFields[field] = flattenNamed(v)
				break
			}
		}
	}

	var rec record
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Posting{}, err
	}
	if err := decoder.Decode(canonicalFields); err != nil {
		return Posting{}, &MalformedRecordError{Source: sourceID, Reason: "decoding fields", Err: err}
	}

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return Posting{}, &MalformedRecordError{Source: sourceID, Reason: "missing title"}
	}

	requirements, err := parseRequirements(rec.Requirements)
	if err != nil {
		return Posting{}, &MalformedRecordError{Source: sourceID, Reason: "decoding requirements", Err: err}
	}

	source := strings.TrimSpace(rec.Source)
	if source == "" {
		source = sourceID
	}

	p := Posting{
		Title:          title,
		Company:        strings.TrimSpace(rec.Company),
		Location:       strings.TrimSpace(rec.Location),
		Description:    strings.TrimSpace(rec.Description),
		Requirements:   requirements,
		SalaryMin:      coerceSalary(rec.SalaryMin),
		SalaryMax:      coerceSalary(rec.SalaryMax),
		Currency:       strings.TrimSpace(rec.Currency),
		EmploymentType: strings.TrimSpace(rec.EmploymentType),
		Remote:         coerceBool(rec.Remote),
		URL:            strings.TrimSpace(rec.URL),
		Source:         source,
	}
	p.Fingerprint = Fingerprint(p.Title, p.Company, p.Location, p.Description)

	return p, nil
}

func asMap(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = val
		}
		return m, nil
	case nil:
		return nil, fmt.Errorf("expected an object, got null")
	default:
		return nil, fmt.Errorf("expected an object, got %T", raw)
	}
}

// flattenNamed unwraps {"name": ...} and {"display_name": ...} objects that
// job boards use for employers and areas.
func flattenNamed(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for _, key := range []string{"display_name", "name"} {
		if s, ok := m[key].(string); ok {
			return s
		}
	}
	return v
}

func parseRequirements(v any) ([]string, error) {
	out := []string{}
	switch val := v.(type) {
	case nil:
		return out, nil
	case string:
		for _, part := range strings.FieldsFunc(val, func(r rune) bool {
			return r == ',' || r == '\n' || r == ';'
		}) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []string:
		for _, item := range val {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	case []any:
		for idx, item := range val {
			switch it := item.(type) {
			case string:
				if it = strings.TrimSpace(it); it != "" {
					out = append(out, it)
				}
			case map[string]any:
				// {"name": "Go"} entries as returned by hh.ru key_skills.
				name, _ := it["name"].(string)
				if name = strings.TrimSpace(name); name != "" {
					out = append(out, name)
				}
			case float64, int, int64, bool:
				out = append(out, fmt.Sprint(it))
			default:
				return nil, fmt.Errorf("item %d: unexpected type %T", idx, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
}

func coerceSalary(v any) *float64 {
	f := coerceFloat(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		trimmed := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes" || lower == "1"
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return false
	}
}
