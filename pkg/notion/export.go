package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ExportResult summarizes a lead export run.
type ExportResult struct {
	Created int
	Skipped int
}

// ExportLeads creates one page per lead in the target database. Leads whose
// email already exists in the database are skipped, so re-running an export
// after a partial failure does not duplicate pages.
func ExportLeads(ctx context.Context, client Client, databaseID string, leads []model.Lead) (ExportResult, error) {
	var res ExportResult
	for _, lead := range leads {
		exists, err := leadExists(ctx, client, databaseID, lead.Email)
		if err != nil {
			return res, err
		}
		if exists {
			res.Skipped++
			zap.L().Debug("notion: lead already exported", zap.String("email", lead.Email))
			continue
		}
		if _, err := client.CreatePage(ctx, pageRequest(databaseID, lead)); err != nil {
			return res, eris.Wrap(err, "notion: export lead")
		}
		res.Created++
	}
	return res, nil
}

// leadExists checks whether a page with the given email is already present.
// Leads without an email are never treated as duplicates.
func leadExists(ctx context.Context, client Client, databaseID, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	resp, err := client.QueryDatabase(ctx, databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Email",
			RichText: &notionapi.TextFilterCondition{Equals: email},
		},
		PageSize: 1,
	})
	if err != nil {
		return false, err
	}
	return len(resp.Results) > 0, nil
}

func pageRequest(databaseID string, lead model.Lead) *notionapi.PageCreateRequest {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: lead.Name}}},
		},
	}
	if lead.Email != "" {
		props["Email"] = notionapi.EmailProperty{Email: lead.Email}
	}
	if lead.Phone != "" {
		props["Contact Phone"] = notionapi.PhoneNumberProperty{PhoneNumber: lead.Phone}
	}
	return &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: notionapi.DatabaseID(databaseID)},
		Properties: props,
	}
}
