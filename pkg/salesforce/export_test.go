package salesforce

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

type mockClient struct {
	inserted []map[string]any
	results  []CollectionResult
	err      error

	queries  []string
	existing []string
	queryErr error
}

func (m *mockClient) Query(_ context.Context, soql string, out any) error {
	m.queries = append(m.queries, soql)
	if m.queryErr != nil {
		return m.queryErr
	}
	records := out.(*[]leadEmail)
	for _, email := range m.existing {
		*records = append(*records, leadEmail{Email: email})
	}
	return nil
}

func (m *mockClient) InsertCollection(_ context.Context, _ string, records []map[string]any) ([]CollectionResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inserted = records
	if m.results != nil {
		return m.results, nil
	}
	out := make([]CollectionResult, len(records))
	for i := range out {
		out[i] = CollectionResult{ID: "id", Success: true}
	}
	return out, nil
}

func TestExportLeads_MapsFields(t *testing.T) {
	m := &mockClient{}
	leads := []model.Lead{
		{Name: "Jane Doe", Email: "jane@acme.com", Phone: "555-0100"},
		{Name: "Cher"},
	}

	res, err := ExportLeads(context.Background(), m, leads)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, m.inserted, 2)

	assert.Equal(t, "Jane", m.inserted[0]["FirstName"])
	assert.Equal(t, "Doe", m.inserted[0]["LastName"])
	assert.Equal(t, "Unknown", m.inserted[0]["Company"])
	assert.Equal(t, "jane@acme.com", m.inserted[0]["Email"])
	assert.Equal(t, "555-0100", m.inserted[0]["Phone"])

	// Single-token names become the required last name.
	assert.Equal(t, "Cher", m.inserted[1]["LastName"])
	_, hasFirst := m.inserted[1]["FirstName"]
	assert.False(t, hasFirst)
}

func TestExportLeads_CountsFailures(t *testing.T) {
	m := &mockClient{results: []CollectionResult{
		{ID: "a", Success: true},
		{Success: false, Errors: []string{"REQUIRED_FIELD_MISSING"}},
	}}
	leads := []model.Lead{{Name: "Jane Doe"}, {Name: "Bob Smith"}}

	res, err := ExportLeads(context.Background(), m, leads)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Failed)
}

func TestExportLeads_SkipsExistingEmails(t *testing.T) {
	m := &mockClient{existing: []string{"jane@acme.com"}}
	leads := []model.Lead{
		{Name: "Jane Doe", Email: "jane@acme.com"},
		{Name: "Bob Smith", Email: "bob@beta.com"},
	}

	res, err := ExportLeads(context.Background(), m, leads)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Created)
	require.Len(t, m.inserted, 1)
	assert.Equal(t, "bob@beta.com", m.inserted[0]["Email"])

	require.Len(t, m.queries, 1)
	assert.Contains(t, m.queries[0], "SELECT Email FROM Lead WHERE Email IN")
	assert.Contains(t, m.queries[0], "'jane@acme.com'")
	assert.Contains(t, m.queries[0], "'bob@beta.com'")
}

func TestExportLeads_AllExistingInsertsNothing(t *testing.T) {
	m := &mockClient{existing: []string{"jane@acme.com"}}

	res, err := ExportLeads(context.Background(), m, []model.Lead{{Name: "Jane Doe", Email: "jane@acme.com"}})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Created)
	assert.Empty(t, m.inserted)
}

func TestExportLeads_NoEmailsSkipsQuery(t *testing.T) {
	m := &mockClient{}

	res, err := ExportLeads(context.Background(), m, []model.Lead{{Name: "Jane Doe"}})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Empty(t, m.queries)
}

func TestExportLeads_QueryFailure(t *testing.T) {
	m := &mockClient{queryErr: errors.New("malformed query")}

	_, err := ExportLeads(context.Background(), m, []model.Lead{{Name: "Jane Doe", Email: "jane@acme.com"}})
	require.Error(t, err)
	assert.Empty(t, m.inserted)
}

func TestEscapeSoql(t *testing.T) {
	assert.Equal(t, "o\\'brien@acme.com", escapeSoql("o'brien@acme.com"))
}

func TestExportLeads_RequestFailure(t *testing.T) {
	m := &mockClient{err: errors.New("invalid session")}

	_, err := ExportLeads(context.Background(), m, []model.Lead{{Name: "Jane Doe"}})
	require.Error(t, err)
}

func TestExportLeads_Empty(t *testing.T) {
	res, err := ExportLeads(context.Background(), &mockClient{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in, first, last string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"Jane van der Berg", "Jane", "van der Berg"},
		{"Cher", "", "Cher"},
		{"", "", "Unknown"},
		{"  Jane  Doe  ", "Jane", "Doe"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, "input %q", tt.in)
		assert.Equal(t, tt.last, last, "input %q", tt.in)
	}
}
