// Package leadio reads contact lists from CSV and XLSX files and writes the
// enriched-lead and error-report outputs.
package leadio

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// headerFields maps recognized input column names (lowered, trimmed) to
// contact field setters. Anything else lands in the Extra bag.
var headerFields = map[string]func(*model.Contact, string){
	"first_name":       func(c *model.Contact, v string) { c.FirstName = v },
	"first name":       func(c *model.Contact, v string) { c.FirstName = v },
	"last_name":        func(c *model.Contact, v string) { c.LastName = v },
	"last name":        func(c *model.Contact, v string) { c.LastName = v },
	"email":            func(c *model.Contact, v string) { c.Email = v },
	"phone":            func(c *model.Contact, v string) { c.Phone = v },
	"contact phone":    func(c *model.Contact, v string) { c.Phone = v },
	"title":            func(c *model.Contact, v string) { c.Title = v },
	"department":       func(c *model.Contact, v string) { c.Department = v },
	"company_name":     func(c *model.Contact, v string) { c.CompanyName = v },
	"company":          func(c *model.Contact, v string) { c.CompanyName = v },
	"company_website":  func(c *model.Contact, v string) { c.CompanyWebsite = v },
	"website":          func(c *model.Contact, v string) { c.CompanyWebsite = v },
	"company_industry": func(c *model.Contact, v string) { c.CompanyIndustry = v },
	"company_size":     func(c *model.Contact, v string) { c.CompanySize = v },
	"company_location": func(c *model.Contact, v string) { c.CompanyLocation = v },
	"linkedin_url":     func(c *model.Contact, v string) { c.LinkedInURL = v },
	"notes":            func(c *model.Contact, v string) { c.Notes = v },
}

// ReadContacts loads a contact list from a .csv or .xlsx file, mapping
// header columns to contact fields. Unknown columns survive in Extra.
func ReadContacts(path string) ([]model.Contact, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	default:
		return readCSV(path)
	}
}

// ReadLeads loads a previously written enriched-lead CSV. Columns other than
// Name, Email, and Contact Phone are ignored.
func ReadLeads(path string) ([]model.Lead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leadio: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "leadio: parse csv %s", path)
	}
	if len(records) < 2 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	leads := make([]model.Lead, 0, len(records)-1)
	for _, row := range records[1:] {
		lead := model.Lead{
			Name:  cell(row, "name"),
			Email: cell(row, "email"),
			Phone: cell(row, "contact phone"),
		}
		if lead.Name == "" && lead.Email == "" && lead.Phone == "" {
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func readCSV(path string) ([]model.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leadio: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, eris.Wrapf(err, "leadio: read %s", path)
	}

	reader := csv.NewReader(bytes.NewReader(normalizeEncoding(raw)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "leadio: parse csv %s", path)
	}
	if len(records) < 2 {
		return nil, nil
	}
	return mapRows(records[0], records[1:]), nil
}

func readXLSX(path string) ([]model.Contact, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leadio: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, nil
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	if len(rows) < 2 {
		return nil, nil
	}
	return mapRows(rows[0], rows[1:]), nil
}

// mapRows pairs each header with the corresponding row value. Rows shorter
// than the header leave trailing fields empty; fully empty rows are skipped.
func mapRows(header []string, rows [][]string) []model.Contact {
	setters := make([]func(*model.Contact, string), len(header))
	extras := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if set, ok := headerFields[key]; ok {
			setters[i] = set
		} else {
			extras[i] = strings.TrimSpace(h)
		}
	}

	var contacts []model.Contact
	for _, row := range rows {
		var c model.Contact
		empty := true
		for i, val := range row {
			if i >= len(header) {
				break
			}
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}
			empty = false
			if setters[i] != nil {
				setters[i](&c, val)
				continue
			}
			if c.Extra == nil {
				c.Extra = make(map[string]string)
			}
			c.Extra[extras[i]] = val
		}
		if !empty {
			contacts = append(contacts, c)
		}
	}
	return contacts
}

// normalizeEncoding strips a UTF-8 BOM and decodes Windows-1252 exports that
// would otherwise produce invalid UTF-8.
func normalizeEncoding(raw []byte) []byte {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return raw
	}
	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), raw)
	if err != nil {
		return raw
	}
	return decoded
}
