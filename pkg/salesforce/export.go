package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ExportResult summarizes a lead export run.
type ExportResult struct {
	Created int
	Skipped int
	Failed  int
}

// ExportLeads inserts the given leads as Salesforce Lead records. Leads whose
// email already belongs to a Lead in the org are skipped, so re-running an
// export after a partial failure does not duplicate records. Salesforce
// requires LastName and Company on every Lead, so the lead name is split and
// missing companies are recorded as "Unknown". Individual record failures are
// logged and counted but do not abort the run.
func ExportLeads(ctx context.Context, client Client, leads []model.Lead) (ExportResult, error) {
	var res ExportResult
	if len(leads) == 0 {
		return res, nil
	}

	existing, err := existingLeadEmails(ctx, client, leads)
	if err != nil {
		return res, err
	}

	inserted := make([]model.Lead, 0, len(leads))
	records := make([]map[string]any, 0, len(leads))
	for _, lead := range leads {
		if existing[strings.ToLower(lead.Email)] {
			res.Skipped++
			zap.L().Debug("sf: lead already exported", zap.String("email", lead.Email))
			continue
		}
		inserted = append(inserted, lead)
		records = append(records, leadRecord(lead))
	}
	if len(records) == 0 {
		return res, nil
	}

	results, err := client.InsertCollection(ctx, "Lead", records)
	if err != nil {
		return res, eris.Wrap(err, "sf: export leads")
	}
	for i, r := range results {
		if r.Success {
			res.Created++
			continue
		}
		res.Failed++
		zap.L().Warn("sf: lead insert failed",
			zap.String("email", inserted[i].Email),
			zap.Strings("errors", r.Errors),
		)
	}
	return res, nil
}

// leadEmail is the projection used by the duplicate check.
type leadEmail struct {
	Email string `json:"Email" salesforce:"Email"`
}

// existingLeadEmails queries the org for Leads already carrying one of the
// given emails and returns the lowercased set found. Leads without an email
// are never treated as duplicates.
func existingLeadEmails(ctx context.Context, client Client, leads []model.Lead) (map[string]bool, error) {
	quoted := make([]string, 0, len(leads))
	for _, lead := range leads {
		if lead.Email != "" {
			quoted = append(quoted, "'"+escapeSoql(lead.Email)+"'")
		}
	}
	existing := make(map[string]bool, len(quoted))
	if len(quoted) == 0 {
		return existing, nil
	}

	soql := fmt.Sprintf("SELECT Email FROM Lead WHERE Email IN (%s)", strings.Join(quoted, ", "))
	var records []leadEmail
	if err := client.Query(ctx, soql, &records); err != nil {
		return nil, eris.Wrap(err, "sf: query existing leads")
	}
	for _, r := range records {
		if r.Email != "" {
			existing[strings.ToLower(r.Email)] = true
		}
	}
	return existing, nil
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

// leadRecord maps a lead to Salesforce Lead fields.
func leadRecord(lead model.Lead) map[string]any {
	first, last := splitName(lead.Name)
	rec := map[string]any{
		"LastName": last,
		"Company":  "Unknown",
	}
	if first != "" {
		rec["FirstName"] = first
	}
	if lead.Email != "" {
		rec["Email"] = lead.Email
	}
	if lead.Phone != "" {
		rec["Phone"] = lead.Phone
	}
	return rec
}

// splitName separates a full name into first and last parts. Everything after
// the first space becomes the last name; a single token is treated as the last
// name since Salesforce requires one.
func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "Unknown"
	}
	first, last, found := strings.Cut(name, " ")
	if !found {
		return "", first
	}
	return first, strings.TrimSpace(last)
}
