package leadio

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteLeads_ExactColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "leads.csv")
	leads := []model.Lead{{Name: "Jane Doe", Email: "jane@acme.com", Phone: "555-0100"}}

	require.NoError(t, WriteLeads(path, leads))

	rows := readAll(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Name", "Email", "Contact Phone"}, rows[0])
	assert.Equal(t, []string{"Jane Doe", "jane@acme.com", "555-0100"}, rows[1])
}

func TestWriteLeads_EmptyStillWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, WriteLeads(path, nil))

	rows := readAll(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Name", "Email", "Contact Phone"}, rows[0])
}

func TestWriteErrors_IncludesExtraColumnsAndError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.csv")
	errs := []model.ErrorRecord{
		{
			Contact: model.Contact{
				FirstName: "Jane",
				Extra:     map[string]string{"zeta": "z", "alpha": "a"},
			},
			Error: "no name, email, or phone found after enrichment",
		},
		{
			Contact: model.Contact{FirstName: "Bob"},
			Error:   "batch enrichment error: api down",
		},
	}

	require.NoError(t, WriteErrors(path, errs))

	rows := readAll(t, path)
	require.Len(t, rows, 3)

	header := rows[0]
	// Extra columns are sorted and sit between contact columns and error.
	n := len(header)
	assert.Equal(t, "error", header[n-1])
	assert.Equal(t, "alpha", header[n-3])
	assert.Equal(t, "zeta", header[n-2])
	assert.Equal(t, "first_name", header[0])

	assert.Equal(t, "Jane", rows[1][0])
	assert.Equal(t, "a", rows[1][n-3])
	assert.Equal(t, "no name, email, or phone found after enrichment", rows[1][n-1])
	// Records without that Extra key leave the cell empty.
	assert.Equal(t, "", rows[2][n-3])
}

func TestWriteQualified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qualified.csv")
	contacts := []model.Contact{
		{
			FirstName: "Jane",
			Qualification: &model.Qualification{
				Score:      3,
				MaxScore:   4,
				Percentage: 75.0,
				Reasons:    []string{"title matches", "valid email"},
				Qualified:  true,
			},
		},
		{FirstName: "Bob"},
	}

	require.NoError(t, WriteQualified(path, contacts))

	rows := readAll(t, path)
	require.Len(t, rows, 3)
	n := len(rows[0])
	assert.Equal(t, []string{"score", "max_score", "percentage", "qualified", "reasons"}, rows[0][n-5:])
	assert.Equal(t, []string{"3", "4", "75.0", "true", "title matches; valid email"}, rows[1][n-5:])
	assert.Equal(t, []string{"0", "0", "0.0", "false", ""}, rows[2][n-5:])
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	results := []model.FileResult{
		{File: "a.csv", Processed: 10, Errors: 2, OutputPath: "out/enriched_contacts_a.csv", ErrorPath: "out/enrichment_errors_a.csv"},
		{File: "b.csv", Error: "read contacts: no such file"},
	}

	require.NoError(t, WriteSummary(path, results))

	rows := readAll(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"File", "Processed", "Errors", "Output File", "Error File", "Run Error"}, rows[0])
	assert.Equal(t, "10", rows[1][1])
	assert.Equal(t, "", rows[1][5])
	assert.Equal(t, "read contacts: no such file", rows[2][5])
}

func TestWriteSample_ReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, WriteSample(path))

	contacts, err := ReadContacts(path)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Alice", contacts[0].FirstName)
	assert.Equal(t, "CTO", contacts[0].Title)
	assert.Equal(t, "Bob", contacts[1].FirstName)
}

func TestOutputAndErrorPaths(t *testing.T) {
	assert.Equal(t,
		filepath.Join("out", "enriched_contacts_contacts.csv"),
		OutputPath("out", filepath.Join("csv_data", "contacts.csv")),
	)
	assert.Equal(t,
		filepath.Join("out", "enrichment_errors_contacts.csv"),
		ErrorPath("out", filepath.Join("csv_data", "contacts.xlsx")),
	)
}
