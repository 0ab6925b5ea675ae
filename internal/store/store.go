// Package store persists enrichment runs: input contacts, error records,
// and output leads. Backends: SQLite (default) and Postgres.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Store defines the persistence interface for enrichment results.
type Store interface {
	// InsertContact stores an input contact with its enrichment flags and
	// returns the row ID.
	InsertContact(ctx context.Context, c model.Contact) (string, error)

	// InsertError stores one failure reason linked to a stored contact.
	InsertError(ctx context.Context, contactID, message string) error

	// InsertLead stores one output lead.
	InsertLead(ctx context.Context, l model.Lead) error

	// CountLeads returns the number of stored output leads.
	CountLeads(ctx context.Context) (int, error)

	// Migrate creates tables and indexes.
	Migrate(ctx context.Context) error

	Close() error
}

// SaveRun persists one file's results: every error record's contact plus its
// failure reason, and every output lead.
func SaveRun(ctx context.Context, st Store, leads []model.Lead, errs []model.ErrorRecord) error {
	for _, e := range errs {
		id, err := st.InsertContact(ctx, e.Contact)
		if err != nil {
			return eris.Wrap(err, "store: save error contact")
		}
		if err := st.InsertError(ctx, id, e.Error); err != nil {
			return eris.Wrap(err, "store: save error record")
		}
	}
	for _, l := range leads {
		if err := st.InsertLead(ctx, l); err != nil {
			return eris.Wrap(err, "store: save lead")
		}
	}
	return nil
}
