package candidate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Kind discriminates the accepted candidate input shapes.
type Kind int

const (
	KindUnknown Kind = iota
	// KindProfile is the canonical Profile.
	KindProfile
	// KindQuery is a ready SearchQuery; no profile building is needed.
	KindQuery
	// KindIntake is the intake form shape with skills_years and
	// desired_title/alternate_titles.
	KindIntake
	// KindSkillList is the summary shape with desired_titles and a skills
	// list of names or {name, years} objects.
	KindSkillList
)

func (k Kind) String() string {
	switch k {
	case KindProfile:
		return "profile"
	case KindQuery:
		return "query"
	case KindIntake:
		return "intake"
	case KindSkillList:
		return "skill_list"
	default:
		return "unknown"
	}
}

// Intake is the intake form shape.
type Intake struct {
	FirstName         string             `mapstructure:"first_name"`
	LastName          string             `mapstructure:"last_name"`
	Name              string             `mapstructure:"name"`
	Email             string             `mapstructure:"email"`
	Phone             string             `mapstructure:"phone"`
	Location          string             `mapstructure:"location"`
	DesiredTitle      string             `mapstructure:"desired_title"`
	AlternateTitles   []string           `mapstructure:"alternate_titles"`
	SkillsYears       map[string]float64 `mapstructure:"skills_years"`
	DesiredLocations  []string           `mapstructure:"desired_locations"`
	RemoteOK          bool               `mapstructure:"remote_ok"`
	EmploymentType    string             `mapstructure:"employment_type"`
	WorkAuthorization string             `mapstructure:"work_authorization"`
	SponsorshipNeeded *bool              `mapstructure:"sponsorship_needed"`
}

// SkillList is the summary shape.
type SkillList struct {
	Name              string   `mapstructure:"name"`
	FullName          string   `mapstructure:"full_name"`
	Email             string   `mapstructure:"email"`
	Phone             string   `mapstructure:"phone"`
	Location          string   `mapstructure:"location"`
	DesiredTitles     []string `mapstructure:"desired_titles"`
	Skills            []Skill  `mapstructure:"-"`
	Locations         []string `mapstructure:"locations"`
	Remote            bool     `mapstructure:"remote"`
	EmploymentType    string   `mapstructure:"employment_type"`
	WorkAuthorization string   `mapstructure:"work_authorization"`
	SponsorshipNeeded *bool    `mapstructure:"sponsorship_needed"`
}

// Input is a candidate input with an explicit discriminant. Exactly the
// field matching Kind is set.
type Input struct {
	Kind      Kind
	Profile   *Profile
	Query     *SearchQuery
	Intake    *Intake
	SkillList *SkillList
}

// FromProfile wraps a canonical profile.
func FromProfile(p Profile) Input {
	return Input{Kind: KindProfile, Profile: &p}
}

// FromQuery wraps a ready search query.
func FromQuery(q SearchQuery) Input {
	return Input{Kind: KindQuery, Query: &q}
}

// Validate reports a UsageError when the discriminant and payload disagree.
func (in Input) Validate() error {
	ok := false
	switch in.Kind {
	case KindProfile:
		ok = in.Profile != nil
	case KindQuery:
		ok = in.Query != nil
	case KindIntake:
		ok = in.Intake != nil
	case KindSkillList:
		ok = in.SkillList != nil
	}
	if !ok {
		return &UsageError{Reason: fmt.Sprintf("candidate input of kind %s carries no payload", in.Kind)}
	}
	return nil
}

// ToProfile resolves any input variant into the canonical profile.
func (in Input) ToProfile() Profile {
	switch in.Kind {
	case KindProfile:
		if in.Profile != nil {
			return *in.Profile
		}
	case KindQuery:
		if in.Query != nil {
			return queryProfile(*in.Query)
		}
	case KindIntake:
		if in.Intake != nil {
			return in.Intake.profile()
		}
	case KindSkillList:
		if in.SkillList != nil {
			return in.SkillList.profile()
		}
	}
	return Profile{}
}

func queryProfile(q SearchQuery) Profile {
	p := Profile{
		DesiredLocations: q.Locations,
		RemoteOK:         q.RemoteOK,
		EmploymentType:   q.EmploymentType,
	}
	if len(q.Titles) > 0 {
		p.DesiredTitle = q.Titles[0]
		p.AlternateTitles = q.Titles[1:]
	}
	for _, kw := range q.Keywords {
		p.Skills = append(p.Skills, Skill{Name: kw})
	}
	return p
}

func (i Intake) profile() Profile {
	name := strings.TrimSpace(i.Name)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	}

	// map order is random; sort skills by name so the query stays stable.
	names := make([]string, 0, len(i.SkillsYears))
	for skill := range i.SkillsYears {
		names = append(names, skill)
	}
	sort.Strings(names)

	skills := make([]Skill, 0, len(names))
	for _, skill := range names {
		skills = append(skills, Skill{Name: skill, Years: i.SkillsYears[skill]})
	}

	return Profile{
		Identity: Identity{
			Name:     name,
			Email:    i.Email,
			Phone:    i.Phone,
			Location: i.Location,
		},
		DesiredTitle:      i.DesiredTitle,
		AlternateTitles:   i.AlternateTitles,
		Skills:            skills,
		DesiredLocations:  i.DesiredLocations,
		RemoteOK:          i.RemoteOK,
		EmploymentType:    i.EmploymentType,
		WorkAuthorization: i.WorkAuthorization,
		SponsorshipNeeded: i.SponsorshipNeeded,
	}
}

func (s SkillList) profile() Profile {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = strings.TrimSpace(s.FullName)
	}

	p := Profile{
		Identity: Identity{
			Name:     name,
			Email:    s.Email,
			Phone:    s.Phone,
			Location: s.Location,
		},
		Skills:            s.Skills,
		DesiredLocations:  s.Locations,
		RemoteOK:          s.Remote,
		EmploymentType:    s.EmploymentType,
		WorkAuthorization: s.WorkAuthorization,
		SponsorshipNeeded: s.SponsorshipNeeded,
	}
	if len(s.DesiredTitles) > 0 {
		p.DesiredTitle = s.DesiredTitles[0]
		p.AlternateTitles = s.DesiredTitles[1:]
	}
	return p
}

var (
	profileKeys   = []string{"identity"}
	queryKeys     = []string{"titles", "keywords"}
	skillListKeys = []string{"desired_titles", "skills", "full_name", "locations", "remote"}
	intakeKeys    = []string{
		"skills_years", "desired_title", "alternate_titles", "desired_locations", "remote_ok",
		"first_name", "last_name", "name", "email", "phone", "location",
		"employment_type", "work_authorization", "sponsorship_needed",
	}
)

// DecodeInput resolves loosely typed input, usually decoded JSON, into a
// tagged Input. Unrecognized shapes are reported as *UsageError.
func DecodeInput(raw any) (Input, error) {
	switch v := raw.(type) {
	case Input:
		return v, v.Validate()
	case Profile:
		return FromProfile(v), nil
	case *Profile:
		if v != nil {
			return FromProfile(*v), nil
		}
	case SearchQuery:
		return FromQuery(v), nil
	case *SearchQuery:
		if v != nil {
			return FromQuery(*v), nil
		}
	case map[string]any:
		return decodeMap(v)
	}

	return Input{}, &UsageError{Reason: fmt.Sprintf("candidate must be an object, got %T", raw)}
}

func decodeMap(m map[string]any) (Input, error) {
	switch {
	case len(m) == 0:
		return Input{Kind: KindIntake, Intake: &Intake{}}, nil
	case hasAny(m, profileKeys):
		rest := make(map[string]any, len(m))
		for k, v := range m {
			if k != "skills" {
				rest[k] = v
			}
		}
		var p Profile
		if err := decode(rest, &p, "json"); err != nil {
			return Input{}, &UsageError{Reason: "decoding candidate profile", Err: err}
		}
		skills, err := decodeSkills(m["skills"])
		if err != nil {
			return Input{}, &UsageError{Reason: "decoding candidate skills", Err: err}
		}
		p.Skills = skills
		return FromProfile(p), nil
	case hasAny(m, queryKeys):
		var q SearchQuery
		if err := decode(m, &q, "json"); err != nil {
			return Input{}, &UsageError{Reason: "decoding search query", Err: err}
		}
		return FromQuery(q), nil
	case hasAny(m, skillListKeys):
		var s SkillList
		if err := decode(m, &s, "mapstructure"); err != nil {
			return Input{}, &UsageError{Reason: "decoding candidate summary", Err: err}
		}
		skills, err := decodeSkills(m["skills"])
		if err != nil {
			return Input{}, &UsageError{Reason: "decoding candidate skills", Err: err}
		}
		s.Skills = skills
		return Input{Kind: KindSkillList, SkillList: &s}, nil
	case hasAny(m, intakeKeys):
		var i Intake
		if err := decode(m, &i, "mapstructure"); err != nil {
			return Input{}, &UsageError{Reason: "decoding candidate intake", Err: err}
		}
		return Input{Kind: KindIntake, Intake: &i}, nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Input{}, &UsageError{Reason: fmt.Sprintf("unrecognized candidate shape with keys %v", keys)}
}

func decodeSkills(raw any) ([]Skill, error) {
	if raw == nil {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("skills must be a list, got %T", raw)
	}

	skills := make([]Skill, 0, len(items))
	for idx, item := range items {
		switch v := item.(type) {
		case string:
			skills = append(skills, Skill{Name: v})
		case map[string]any:
			var s Skill
			if err := decode(v, &s, "json"); err != nil {
				return nil, fmt.Errorf("skills[%d]: %w", idx, err)
			}
			skills = append(skills, s)
		default:
			return nil, fmt.Errorf("skills[%d]: unexpected type %T", idx, item)
		}
	}
	return skills, nil
}

func decode(input any, target any, tag string) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          tag,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func hasAny(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
