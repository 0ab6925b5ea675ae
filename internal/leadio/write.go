package leadio

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// leadColumns is the fixed header of the enriched-contacts output.
var leadColumns = []string{"Name", "Email", "Contact Phone"}

// contactColumns is the canonical column order for contact-shaped rows in
// error reports; Extra columns follow sorted, then the error column.
var contactColumns = []struct {
	name string
	get  func(model.Contact) string
}{
	{"first_name", func(c model.Contact) string { return c.FirstName }},
	{"last_name", func(c model.Contact) string { return c.LastName }},
	{"email", func(c model.Contact) string { return c.Email }},
	{"phone", func(c model.Contact) string { return c.Phone }},
	{"title", func(c model.Contact) string { return c.Title }},
	{"department", func(c model.Contact) string { return c.Department }},
	{"company_name", func(c model.Contact) string { return c.CompanyName }},
	{"company_website", func(c model.Contact) string { return c.CompanyWebsite }},
	{"company_industry", func(c model.Contact) string { return c.CompanyIndustry }},
	{"company_size", func(c model.Contact) string { return c.CompanySize }},
	{"company_location", func(c model.Contact) string { return c.CompanyLocation }},
	{"linkedin_url", func(c model.Contact) string { return c.LinkedInURL }},
	{"notes", func(c model.Contact) string { return c.Notes }},
}

// WriteLeads writes the enriched-contacts file.
func WriteLeads(path string, leads []model.Lead) error {
	rows := make([][]string, 0, len(leads)+1)
	rows = append(rows, leadColumns)
	for _, l := range leads {
		rows = append(rows, []string{l.Name, l.Email, l.Phone})
	}
	return writeCSV(path, rows)
}

// WriteErrors writes the enrichment-errors file: every original contact
// column (plus any Extra columns seen across the records) and a trailing
// error column.
func WriteErrors(path string, errs []model.ErrorRecord) error {
	extraSet := make(map[string]bool)
	for _, e := range errs {
		for k := range e.Contact.Extra {
			extraSet[k] = true
		}
	}
	extraCols := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extraCols = append(extraCols, k)
	}
	sort.Strings(extraCols)

	header := make([]string, 0, len(contactColumns)+len(extraCols)+1)
	for _, col := range contactColumns {
		header = append(header, col.name)
	}
	header = append(header, extraCols...)
	header = append(header, "error")

	rows := make([][]string, 0, len(errs)+1)
	rows = append(rows, header)
	for _, e := range errs {
		row := make([]string, 0, len(header))
		for _, col := range contactColumns {
			row = append(row, col.get(e.Contact))
		}
		for _, k := range extraCols {
			row = append(row, e.Contact.Extra[k])
		}
		row = append(row, e.Error)
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

// WriteQualified writes contacts with their qualification verdict columns.
func WriteQualified(path string, contacts []model.Contact) error {
	header := make([]string, 0, len(contactColumns)+5)
	for _, col := range contactColumns {
		header = append(header, col.name)
	}
	header = append(header, "score", "max_score", "percentage", "qualified", "reasons")

	rows := make([][]string, 0, len(contacts)+1)
	rows = append(rows, header)
	for _, c := range contacts {
		row := make([]string, 0, len(header))
		for _, col := range contactColumns {
			row = append(row, col.get(c))
		}
		q := c.Qualification
		if q == nil {
			q = &model.Qualification{}
		}
		row = append(row,
			strconv.Itoa(q.Score),
			strconv.Itoa(q.MaxScore),
			strconv.FormatFloat(q.Percentage, 'f', 1, 64),
			strconv.FormatBool(q.Qualified),
			strings.Join(q.Reasons, "; "),
		)
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

// WriteSummary writes the per-file run summary.
func WriteSummary(path string, results []model.FileResult) error {
	rows := [][]string{{"File", "Processed", "Errors", "Output File", "Error File", "Run Error"}}
	for _, r := range results {
		rows = append(rows, []string{
			r.File,
			strconv.Itoa(r.Processed),
			strconv.Itoa(r.Errors),
			r.OutputPath,
			r.ErrorPath,
			r.Error,
		})
	}
	return writeCSV(path, rows)
}

// WriteSample writes a two-row demonstration contact list.
func WriteSample(path string) error {
	rows := [][]string{
		{
			"first_name", "last_name", "email", "phone", "title",
			"company_name", "company_website", "company_industry",
			"company_size", "company_location", "linkedin_url", "notes",
		},
		{
			"Alice", "Smith", "alice.smith@example.com", "+1-555-123-4567", "CTO",
			"Acme Corp", "https://acme.com", "Software",
			"200", "New York, USA", "https://linkedin.com/in/alicesmith", "Sample contact",
		},
		{
			"Bob", "Johnson", "bob.johnson@example.com", "+1-555-987-6543", "VP Engineering",
			"Beta Inc", "https://beta.com", "Technology",
			"500", "San Francisco, USA", "https://linkedin.com/in/bobjohnson", "Sample contact",
		},
	}
	return writeCSV(path, rows)
}

// OutputPath returns the enriched-contacts path for an input file.
func OutputPath(outputDir, inputPath string) string {
	return filepath.Join(outputDir, "enriched_contacts_"+baseName(inputPath)+".csv")
}

// ErrorPath returns the enrichment-errors path for an input file.
func ErrorPath(outputDir, inputPath string) string {
	return filepath.Join(outputDir, "enrichment_errors_"+baseName(inputPath)+".csv")
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "leadio: create output dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "leadio: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return eris.Wrapf(err, "leadio: write %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "leadio: flush %s", path)
	}
	return nil
}
