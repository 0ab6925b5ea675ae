package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteStore_InsertContactAndError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.InsertContact(ctx, model.Contact{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane@acme.com",
		CompanyName: "Acme Corp",
		Enriched:    true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, st.InsertError(ctx, id, "no name, email, or phone found after enrichment"))
}

func TestSQLiteStore_LeadsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	n, err := st.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, st.InsertLead(ctx, model.Lead{Name: "Jane Doe", Email: "jane@acme.com", Phone: "555-0100"}))
	require.NoError(t, st.InsertLead(ctx, model.Lead{Name: "Bob Smith"}))

	n, err = st.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSaveRun(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	leads := []model.Lead{{Name: "Jane Doe", Email: "jane@acme.com"}}
	errs := []model.ErrorRecord{
		{Contact: model.Contact{FirstName: "Bob"}, Error: "batch enrichment error: api down"},
	}

	require.NoError(t, SaveRun(ctx, st, leads, errs))

	n, err := st.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
