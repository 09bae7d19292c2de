package batch

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"github.com/xuri/excelize/v2"

	"github.com/spigell/jobflow/internal/candidate"
	"github.com/spigell/jobflow/internal/utils"
)

const (
	profileFile         = "profile.json"
	resumeExcerptLength = 500
)

//go:embed schema/profile.schema.json
var profileSchema string

// Candidate is everything loaded from one candidate folder.
type Candidate struct {
	Folder        string
	Profile       candidate.Profile
	ResumePath    string
	ResumeExcerpt string
}

// SchemaError lists profile.json schema violations.
type SchemaError struct {
	Path   string
	Errors []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s does not match the profile schema: %s", e.Path, strings.Join(e.Errors, "; "))
}

// LoadCandidate reads the first spreadsheet, an optional profile.json whose
// values override the sheet, and the first resume file of folder.
func LoadCandidate(folder string) (*Candidate, error) {
	c := &Candidate{Folder: folder}

	sheets, err := filesWithExt(folder, sheetExts)
	if err != nil {
		return nil, err
	}
	if len(sheets) > 0 {
		p, err := readSheet(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(sheets[0]), err)
		}
		c.Profile = p
	}

	override, err := readProfileJSON(filepath.Join(folder, profileFile))
	if err != nil {
		return nil, err
	}
	if override != nil {
		c.Profile = overlay(c.Profile, *override)
	}

	resumes, err := filesWithExt(folder, resumeExts)
	if err != nil {
		return nil, err
	}
	if len(resumes) > 0 {
		c.ResumePath = resumes[0]
		if ext := strings.ToLower(filepath.Ext(resumes[0])); ext != ".docx" {
			data, err := os.ReadFile(resumes[0])
			if err != nil {
				return nil, fmt.Errorf("read resume: %w", err)
			}
			c.ResumeExcerpt = utils.TruncateForLog(string(data), resumeExcerptLength)
		}
	}

	id := c.Profile.Identity
	if strings.TrimSpace(id.Name) == "" && strings.TrimSpace(id.Email) == "" && c.ResumePath == "" {
		return nil, fmt.Errorf("candidate in %s has no name, email or resume", filepath.Base(folder))
	}

	return c, nil
}

// readSheet reads key/value rows from the first sheet. Unknown keys are
// ignored.
func readSheet(path string) (candidate.Profile, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return candidate.Profile{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return candidate.Profile{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return candidate.Profile{}, err
	}

	var p candidate.Profile
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		value := strings.TrimSpace(row[1])
		if value == "" {
			continue
		}

		switch sheetKey(row[0]) {
		case "name", "full_name":
			p.Identity.Name = value
		case "email":
			p.Identity.Email = value
		case "phone":
			p.Identity.Phone = value
		case "location":
			p.Identity.Location = value
		case "desired_title":
			p.DesiredTitle = value
		case "alternate_titles":
			p.AlternateTitles = splitList(value)
		case "skills":
			p.Skills = parseSkills(value)
		case "desired_locations":
			p.DesiredLocations = splitList(value)
		case "remote_ok":
			p.RemoteOK = parseYes(value)
		case "employment_type":
			p.EmploymentType = value
		case "work_authorization":
			p.WorkAuthorization = value
		case "sponsorship_needed":
			yes := parseYes(value)
			p.SponsorshipNeeded = &yes
		}
	}
	return p, nil
}

// profileOverride is a decoded profile.json. remoteSet records whether the
// document carried a remote flag at all, so false can override the sheet.
type profileOverride struct {
	candidate.Profile
	remoteSet bool
}

func readProfileJSON(path string) (*profileOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(profileSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", profileFile, err)
	}
	if !result.Valid() {
		schemaErr := &SchemaError{Path: profileFile}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			schemaErr.Errors = append(schemaErr.Errors, field+": "+desc.Description())
		}
		return nil, schemaErr
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", profileFile, err)
	}
	in, err := candidate.DecodeInput(raw)
	if err != nil {
		return nil, err
	}
	_, remoteOK := raw["remote_ok"]
	_, remote := raw["remote"]
	return &profileOverride{Profile: in.ToProfile(), remoteSet: remoteOK || remote}, nil
}

// overlay returns base with every set field of over applied on top.
func overlay(base candidate.Profile, over profileOverride) candidate.Profile {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&base.Identity.Name, over.Identity.Name)
	set(&base.Identity.Email, over.Identity.Email)
	set(&base.Identity.Phone, over.Identity.Phone)
	set(&base.Identity.Location, over.Identity.Location)
	set(&base.DesiredTitle, over.DesiredTitle)
	set(&base.EmploymentType, over.EmploymentType)
	set(&base.WorkAuthorization, over.WorkAuthorization)

	if len(over.AlternateTitles) > 0 {
		base.AlternateTitles = over.AlternateTitles
	}
	if len(over.Skills) > 0 {
		base.Skills = over.Skills
	}
	if len(over.DesiredLocations) > 0 {
		base.DesiredLocations = over.DesiredLocations
	}
	if over.remoteSet {
		base.RemoteOK = over.RemoteOK
	}
	if over.SponsorshipNeeded != nil {
		base.SponsorshipNeeded = over.SponsorshipNeeded
	}
	return base
}

func sheetKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ":")
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseSkills reads "Python:5, AWS, SQL: 2.5". A value after the colon that
// is not a number is ignored.
func parseSkills(s string) []candidate.Skill {
	var skills []candidate.Skill
	for _, item := range splitList(s) {
		name, years, found := strings.Cut(item, ":")
		skill := candidate.Skill{Name: strings.TrimSpace(name)}
		if found {
			if y, err := strconv.ParseFloat(strings.TrimSpace(years), 64); err == nil && y > 0 {
				skill.Years = y
			}
		}
		if skill.Name != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}

func parseYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}
