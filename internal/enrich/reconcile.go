package enrich

import (
	"github.com/sells-group/leadgen-cli/internal/model"
)

// Result pairs one input contact with its enrichment outcome. Exactly one
// Result is produced per input contact, in input order.
type Result struct {
	Contact model.Contact
	Matched bool
}

// Reconcile matches each contact in the batch against the response entries
// using the two-tier policy: name first, email as disambiguator or fallback.
//
//  1. A unique normalized (first, last) name match wins outright.
//  2. When several entries share the name key, the one whose normalized
//     email equals the contact's is chosen; no email agreement means the
//     name path yields nothing.
//  3. With no name match, the contact's normalized email is looked up
//     directly (last entry wins on duplicate response emails).
//  4. Otherwise the contact is returned unchanged and unmatched.
//
// Name collisions are common across companies; email is the most selective
// field available, which is why it disambiguates rather than leads.
func Reconcile(batch []model.Contact, entries []map[string]any) []Result {
	byName := make(map[[2]string][]map[string]any, len(entries))
	byEmail := make(map[string]map[string]any, len(entries))

	for _, e := range entries {
		first := model.NormalizeKey(entryString(e, "firstName"))
		last := model.NormalizeKey(entryString(e, "lastName"))
		key := [2]string{first, last}
		byName[key] = append(byName[key], e)

		if email := model.NormalizeKey(entryString(e, "email")); email != "" {
			byEmail[email] = e
		}
	}

	results := make([]Result, 0, len(batch))
	for _, c := range batch {
		entry := pick(c, byName, byEmail)
		if entry == nil {
			out := c.Clone()
			out.Enriched = false
			results = append(results, Result{Contact: out})
			continue
		}
		merged := Merge(c, entry)
		merged.Enriched = true
		results = append(results, Result{Contact: merged, Matched: true})
	}
	return results
}

func pick(c model.Contact, byName map[[2]string][]map[string]any, byEmail map[string]map[string]any) map[string]any {
	nameKey := c.NameKey()
	email := c.NormalizedEmail()

	if candidates, ok := byName[nameKey]; ok {
		if len(candidates) == 1 {
			return candidates[0]
		}
		if email != "" {
			for _, e := range candidates {
				if model.NormalizeKey(entryString(e, "email")) == email {
					return e
				}
			}
		}
		// Ambiguous name with no email agreement: fall through to the
		// email index before giving up.
	}

	if email != "" {
		if e, ok := byEmail[email]; ok {
			return e
		}
	}
	return nil
}

func entryString(e map[string]any, key string) string {
	if v, ok := e[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
