package model

import "strings"

// Contact represents a single person record loaded from an input file.
// Known logical fields are explicit; unrecognized input columns are carried
// in Extra so they survive the round trip into error reports.
type Contact struct {
	FirstName       string   `json:"first_name,omitempty"`
	LastName        string   `json:"last_name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Title           string   `json:"title,omitempty"`
	Department      string   `json:"department,omitempty"`
	CompanyName     string   `json:"company_name,omitempty"`
	CompanyWebsite  string   `json:"company_website,omitempty"`
	CompanyIndustry string   `json:"company_industry,omitempty"`
	CompanySize     string   `json:"company_size,omitempty"`
	CompanyLocation string   `json:"company_location,omitempty"`
	LinkedInURL     string   `json:"linkedin_url,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Company         *Company `json:"company,omitempty"`

	// Enriched is true once the contact has been merged with a matched
	// response entry from the person enrichment API.
	Enriched bool `json:"enriched"`

	// CompanyEnriched is true once a company lookup attached firmographic data.
	CompanyEnriched bool `json:"company_enriched"`

	// Extra holds passthrough key/value pairs for input columns that do not
	// map to a known field.
	Extra map[string]string `json:"extra,omitempty"`

	Qualification *Qualification `json:"qualification,omitempty"`
}

// Company holds firmographic attributes hoisted out of a flat enrichment
// payload or returned by a company lookup.
type Company struct {
	Name      string            `json:"name,omitempty"`
	Domain    string            `json:"domain,omitempty"`
	ID        string            `json:"id,omitempty"`
	Industry  string            `json:"industry,omitempty"`
	Revenue   string            `json:"revenue,omitempty"`
	Employees string            `json:"employees,omitempty"`
	Location  string            `json:"location,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Qualification is a scored verdict attached to a contact. MaxScore counts
// only criteria that had both configured targets and applicable input data.
type Qualification struct {
	Score      int      `json:"score"`
	MaxScore   int      `json:"max_score"`
	Percentage float64  `json:"percentage"`
	Reasons    []string `json:"reasons"`
	Qualified  bool     `json:"qualified"`
}

// Lead is a final success record. Only contact-level fields feed these
// columns; company data never does.
type Lead struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"contact_phone"`
}

// ErrorRecord pairs an input contact with a human-readable failure reason.
type ErrorRecord struct {
	Contact Contact `json:"contact"`
	Error   string  `json:"error"`
}

// FileResult summarizes one processed input file.
type FileResult struct {
	File       string `json:"file"`
	Processed  int    `json:"processed"`
	Errors     int    `json:"errors"`
	OutputPath string `json:"output_path"`
	ErrorPath  string `json:"error_path,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NormalizeKey lowercases and trims a value for matching.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NameKey returns the contact's normalized (first, last) matching identity.
func (c Contact) NameKey() [2]string {
	return [2]string{NormalizeKey(c.FirstName), NormalizeKey(c.LastName)}
}

// NormalizedEmail returns the contact's secondary matching key.
func (c Contact) NormalizedEmail() string {
	return NormalizeKey(c.Email)
}

// FullName joins first and last name, trimming when either is empty.
func (c Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Clone returns a deep copy so enrichment never mutates caller-owned records.
func (c Contact) Clone() Contact {
	out := c
	if c.Extra != nil {
		out.Extra = make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	if c.Company != nil {
		co := *c.Company
		if c.Company.Extra != nil {
			co.Extra = make(map[string]string, len(c.Company.Extra))
			for k, v := range c.Company.Extra {
				co.Extra[k] = v
			}
		}
		out.Company = &co
	}
	if c.Qualification != nil {
		q := *c.Qualification
		q.Reasons = append([]string(nil), c.Qualification.Reasons...)
		out.Qualification = &q
	}
	return out
}

// HasOutputFields reports whether the contact retains at least one of the
// three fields required in a success record.
func (c Contact) HasOutputFields() bool {
	return c.FullName() != "" || strings.TrimSpace(c.Email) != "" || strings.TrimSpace(c.Phone) != ""
}
