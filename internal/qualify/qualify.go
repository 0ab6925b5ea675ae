// Package qualify scores enriched contacts against configurable target
// criteria and attaches a qualification verdict.
package qualify

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Criteria defines the qualification targets. Empty keyword lists disable
// their criterion entirely; it then contributes to neither score nor
// max score.
type Criteria struct {
	TitleKeywords      []string `yaml:"title_keywords" mapstructure:"title_keywords"`
	DepartmentKeywords []string `yaml:"department_keywords" mapstructure:"department_keywords"`
	MinCompanySize     int      `yaml:"min_company_size" mapstructure:"min_company_size"`
	MaxCompanySize     int      `yaml:"max_company_size" mapstructure:"max_company_size"`
	TargetIndustries   []string `yaml:"target_industries" mapstructure:"target_industries"`
	TargetLocations    []string `yaml:"target_locations" mapstructure:"target_locations"`
	QualifiedThreshold float64  `yaml:"qualified_threshold" mapstructure:"qualified_threshold"`
}

// DefaultCriteria returns the stock qualification profile.
func DefaultCriteria() Criteria {
	return Criteria{
		MinCompanySize:     50,
		MaxCompanySize:     1000,
		QualifiedThreshold: 60,
	}
}

// LoadCriteria reads a criteria profile from a YAML file, filling unset
// numeric fields from the defaults.
func LoadCriteria(path string) (Criteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Criteria{}, eris.Wrapf(err, "qualify: read criteria %s", path)
	}
	crit := DefaultCriteria()
	if err := yaml.Unmarshal(data, &crit); err != nil {
		return Criteria{}, eris.Wrap(err, "qualify: parse criteria")
	}
	if crit.QualifiedThreshold <= 0 {
		crit.QualifiedThreshold = 60
	}
	return crit, nil
}

// Qualifier scores contacts against a criteria profile. It is a pure
// value-in value-out component with no side effects.
type Qualifier struct {
	crit        Criteria
	titles      []string
	departments []string
	industries  []string
	locations   []string
}

// New creates a Qualifier, pre-lowering all keyword lists.
func New(crit Criteria) *Qualifier {
	if crit.QualifiedThreshold <= 0 {
		crit.QualifiedThreshold = 60
	}
	return &Qualifier{
		crit:        crit,
		titles:      lowerAll(crit.TitleKeywords),
		departments: lowerAll(crit.DepartmentKeywords),
		industries:  lowerAll(crit.TargetIndustries),
		locations:   lowerAll(crit.TargetLocations),
	}
}

// Qualify scores one contact and returns a copy with the verdict attached.
// A criterion counts toward max score only when its target list is non-empty
// (where one applies) and the record carries a value for the relevant field,
// falling back from the top-level field to the nested company sub-record.
func (q *Qualifier) Qualify(c model.Contact) model.Contact {
	out := c.Clone()
	score, maxScore := 0, 0
	var reasons []string

	if len(q.titles) > 0 && strings.TrimSpace(c.Title) != "" {
		maxScore++
		title := strings.ToLower(c.Title)
		if kw, ok := matchKeyword(title, q.titles); ok {
			score++
			reasons = append(reasons, fmt.Sprintf("title %q contains keyword %q", title, kw))
		} else {
			reasons = append(reasons, fmt.Sprintf("title %q does not match any target keywords", title))
		}
	}

	if len(q.departments) > 0 && strings.TrimSpace(c.Department) != "" {
		maxScore++
		dept := strings.ToLower(c.Department)
		if kw, ok := matchKeyword(dept, q.departments); ok {
			score++
			reasons = append(reasons, fmt.Sprintf("department %q contains keyword %q", dept, kw))
		} else {
			reasons = append(reasons, fmt.Sprintf("department %q does not match any target keywords", dept))
		}
	}

	if sizeStr := companySizeOf(c); sizeStr != "" {
		maxScore++
		size, err := ParseCompanySize(sizeStr)
		switch {
		case err != nil:
			reasons = append(reasons, fmt.Sprintf("could not determine company size from %q", sizeStr))
		case size >= q.crit.MinCompanySize && size <= q.crit.MaxCompanySize:
			score++
			reasons = append(reasons, fmt.Sprintf("company size (%d) is within target range", size))
		default:
			reasons = append(reasons, fmt.Sprintf("company size (%d) is outside target range", size))
		}
	}

	if industry := industryOf(c); industry != "" && len(q.industries) > 0 {
		maxScore++
		lowered := strings.ToLower(industry)
		if kw, ok := matchKeyword(lowered, q.industries); ok {
			score++
			reasons = append(reasons, fmt.Sprintf("industry %q matches target %q", lowered, kw))
		} else {
			reasons = append(reasons, fmt.Sprintf("industry %q does not match any target industries", lowered))
		}
	}

	if location := locationOf(c); location != "" && len(q.locations) > 0 {
		maxScore++
		lowered := strings.ToLower(location)
		if kw, ok := matchKeyword(lowered, q.locations); ok {
			score++
			reasons = append(reasons, fmt.Sprintf("location %q matches target %q", lowered, kw))
		} else {
			reasons = append(reasons, fmt.Sprintf("location %q does not match any target locations", lowered))
		}
	}

	if strings.TrimSpace(c.Email) != "" {
		maxScore++
		if strings.Contains(c.Email, "@") {
			score++
			reasons = append(reasons, "contact has a valid email address")
		} else {
			reasons = append(reasons, "contact's email address appears invalid")
		}
	}

	pct := 0.0
	if maxScore > 0 {
		pct = float64(score) / float64(maxScore) * 100
	}
	out.Qualification = &model.Qualification{
		Score:      score,
		MaxScore:   maxScore,
		Percentage: pct,
		Reasons:    reasons,
		Qualified:  maxScore > 0 && pct >= q.crit.QualifiedThreshold,
	}
	return out
}

// ParseCompanySize parses a company headcount string. Accepted forms: plain
// integers, comma thousands separators, a trailing "+" (open-ended, lower
// bound used), and hyphenated ranges (lower bound used).
func ParseCompanySize(s string) (int, error) {
	v := strings.TrimSpace(s)
	if i := strings.Index(v, "-"); i >= 0 {
		v = v[:i]
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimSuffix(v, "+")
	v = strings.TrimSpace(v)

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, eris.Wrapf(err, "qualify: parse company size %q", s)
	}
	return n, nil
}

func companySizeOf(c model.Contact) string {
	if strings.TrimSpace(c.CompanySize) != "" {
		return c.CompanySize
	}
	if c.Company != nil {
		return strings.TrimSpace(c.Company.Employees)
	}
	return ""
}

func industryOf(c model.Contact) string {
	if strings.TrimSpace(c.CompanyIndustry) != "" {
		return c.CompanyIndustry
	}
	if c.Company != nil {
		return strings.TrimSpace(c.Company.Industry)
	}
	return ""
}

func locationOf(c model.Contact) string {
	if strings.TrimSpace(c.CompanyLocation) != "" {
		return c.CompanyLocation
	}
	if c.Company != nil && strings.TrimSpace(c.Company.Location) != "" {
		return c.Company.Location
	}
	return strings.TrimSpace(c.Extra["location"])
}

func matchKeyword(value string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(value, kw) {
			return kw, true
		}
	}
	return "", false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
