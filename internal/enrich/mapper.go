// Package enrich implements the batch enrichment engine: payload mapping,
// response reconciliation, company lookup, and the batch orchestrator.
package enrich

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// fieldTable is the explicit bidirectional mapping between local snake_case
// field names and the enrichment API's camelCase payload keys. An explicit
// table instead of a generic case converter keeps acronym-bearing keys
// (linkedInUrl, companyId) unambiguous in both directions.
var fieldTable = []struct {
	local    string
	external string
}{
	{"first_name", "firstName"},
	{"last_name", "lastName"},
	{"email", "email"},
	{"phone", "phone"},
	{"direct_phone", "directPhone"},
	{"title", "jobTitle"},
	{"department", "department"},
	{"linkedin_url", "linkedInUrl"},
	{"location", "location"},
}

// companyKeys is the fixed set of company-related payload keys hoisted out of
// a flat response entry into the nested company sub-record.
var companyKeys = map[string]func(*model.Company, string){
	"companyName":      func(co *model.Company, v string) { co.Name = v },
	"companyDomain":    func(co *model.Company, v string) { co.Domain = v },
	"companyId":        func(co *model.Company, v string) { co.ID = v },
	"industry":         func(co *model.Company, v string) { co.Industry = v },
	"companyRevenue":   func(co *model.Company, v string) { co.Revenue = v },
	"companyEmployees": func(co *model.Company, v string) { co.Employees = v },
	"companyLocation":  func(co *model.Company, v string) { co.Location = v },
}

var (
	localToExternal = map[string]string{}
	externalToLocal = map[string]string{}
)

func init() {
	for _, m := range fieldTable {
		localToExternal[m.local] = m.external
		externalToLocal[m.external] = m.local
	}
}

// ToPayload converts a contact into the outbound person-identifying payload.
// Only fields present on the contact are included. An empty result means the
// contact is excluded from the outbound request.
func ToPayload(c model.Contact) map[string]string {
	p := make(map[string]string)
	put := func(key, val string) {
		if strings.TrimSpace(val) != "" {
			p[key] = val
		}
	}
	put("firstName", c.FirstName)
	put("lastName", c.LastName)
	put("email", c.Email)
	put("jobTitle", c.Title)
	put("companyName", c.CompanyName)
	if strings.TrimSpace(c.CompanyWebsite) != "" {
		put("companyDomain", DeriveDomain(c.CompanyWebsite))
	}
	return p
}

// DeriveDomain extracts the bare registrable domain from a website URL,
// stripping a leading "www." label. When the URL yields no host the raw
// website string is returned unchanged.
func DeriveDomain(website string) string {
	raw := strings.TrimSpace(website)
	host := ""
	if u, err := url.Parse(raw); err == nil {
		host = u.Hostname()
	}
	if host == "" {
		// No scheme means url.Parse puts everything in Path.
		if u, err := url.Parse("https://" + raw); err == nil {
			host = u.Hostname()
		}
	}
	if host == "" {
		return raw
	}
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

// FromPayload converts a response entry back to local field names and hoists
// the fixed company key set into a nested company sub-record. Keys outside
// both tables pass through with their external name so nothing is dropped.
func FromPayload(entry map[string]any) (map[string]string, *model.Company) {
	flat := make(map[string]string, len(entry))
	var company *model.Company

	for key, raw := range entry {
		val, ok := stringify(raw)
		if !ok {
			continue
		}
		if set, isCompany := companyKeys[key]; isCompany {
			if company == nil {
				company = &model.Company{}
			}
			set(company, val)
			continue
		}
		if local, known := externalToLocal[key]; known {
			flat[local] = val
			continue
		}
		flat[key] = val
	}
	return flat, company
}

// Merge applies a matched response entry onto a copy of the original contact.
// Matched fields win on collision; the hoisted company sub-record replaces
// field-by-field rather than wholesale so lookup data from an earlier pass
// survives.
func Merge(orig model.Contact, entry map[string]any) model.Contact {
	out := orig.Clone()
	flat, company := FromPayload(entry)

	for local, val := range flat {
		if !applyField(&out, local, val) {
			if out.Extra == nil {
				out.Extra = make(map[string]string)
			}
			out.Extra[local] = val
		}
	}

	if company != nil {
		if out.Company == nil {
			out.Company = &model.Company{}
		}
		mergeCompany(out.Company, company)
	}
	return out
}

func mergeCompany(dst, src *model.Company) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Domain != "" {
		dst.Domain = src.Domain
	}
	if src.ID != "" {
		dst.ID = src.ID
	}
	if src.Industry != "" {
		dst.Industry = src.Industry
	}
	if src.Revenue != "" {
		dst.Revenue = src.Revenue
	}
	if src.Employees != "" {
		dst.Employees = src.Employees
	}
	if src.Location != "" {
		dst.Location = src.Location
	}
	for k, v := range src.Extra {
		if dst.Extra == nil {
			dst.Extra = make(map[string]string)
		}
		dst.Extra[k] = v
	}
}

// applyField sets a known local field on the contact. Returns false when the
// name is not a known field, leaving the caller to stash it in Extra.
func applyField(c *model.Contact, local, val string) bool {
	switch local {
	case "first_name":
		c.FirstName = val
	case "last_name":
		c.LastName = val
	case "email":
		c.Email = val
	case "phone":
		c.Phone = val
	case "direct_phone":
		// Direct dial only fills the phone slot when nothing better exists.
		if strings.TrimSpace(c.Phone) == "" {
			c.Phone = val
		} else {
			return false
		}
	case "title":
		c.Title = val
	case "department":
		c.Department = val
	case "linkedin_url":
		c.LinkedInURL = val
	case "company_name":
		c.CompanyName = val
	case "company_website":
		c.CompanyWebsite = val
	case "company_industry":
		c.CompanyIndustry = val
	case "company_size":
		c.CompanySize = val
	case "company_location":
		c.CompanyLocation = val
	case "notes":
		c.Notes = val
	default:
		return false
	}
	return true
}

// stringify renders a JSON payload value as a string. Nested structures are
// JSON-encoded so they survive into CSV output; nils are skipped.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t)), true
		}
		return fmt.Sprintf("%g", t), true
	case bool:
		return fmt.Sprintf("%t", t), true
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
