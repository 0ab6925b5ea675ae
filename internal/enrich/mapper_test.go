package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestToPayload_OnlyPresentFields(t *testing.T) {
	c := model.Contact{
		FirstName:      "Jane",
		LastName:       "Doe",
		Email:          "jane@acme.com",
		Title:          "CTO",
		CompanyWebsite: "https://www.acme.com/about",
	}

	p := ToPayload(c)
	assert.Equal(t, map[string]string{
		"firstName":     "Jane",
		"lastName":      "Doe",
		"email":         "jane@acme.com",
		"jobTitle":      "CTO",
		"companyDomain": "acme.com",
	}, p)
}

func TestToPayload_EmptyContact(t *testing.T) {
	assert.Empty(t, ToPayload(model.Contact{}))
}

func TestDeriveDomain(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.acme.com/about", "acme.com"},
		{"http://acme.com", "acme.com"},
		{"acme.com", "acme.com"},
		{"www.acme.com", "acme.com"},
		{"WWW.Acme.COM", "acme.com"},
		{"acme.co.uk/contact", "acme.co.uk"},
		{"not a url at all", "not a url at all"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveDomain(tt.in), "input %q", tt.in)
	}
}

func TestFromPayload_HoistsCompanyKeys(t *testing.T) {
	entry := map[string]any{
		"firstName":        "Jane",
		"jobTitle":         "CTO",
		"linkedInUrl":      "https://linkedin.com/in/janedoe",
		"companyName":      "Acme Corp",
		"companyDomain":    "acme.com",
		"companyEmployees": float64(250),
		"somethingNew":     "kept",
	}

	flat, company := FromPayload(entry)

	assert.Equal(t, "Jane", flat["first_name"])
	assert.Equal(t, "CTO", flat["title"])
	assert.Equal(t, "https://linkedin.com/in/janedoe", flat["linkedin_url"])
	assert.Equal(t, "kept", flat["somethingNew"])
	assert.NotContains(t, flat, "companyName")

	require.NotNil(t, company)
	assert.Equal(t, "Acme Corp", company.Name)
	assert.Equal(t, "acme.com", company.Domain)
	assert.Equal(t, "250", company.Employees)
}

func TestFromPayload_NoCompanyKeys(t *testing.T) {
	flat, company := FromPayload(map[string]any{"firstName": "Jane"})
	assert.Nil(t, company)
	assert.Equal(t, "Jane", flat["first_name"])
}

func TestMerge_MatchedFieldsWin(t *testing.T) {
	orig := model.Contact{
		FirstName: "jane",
		LastName:  "doe",
		Email:     "old@acme.com",
		Notes:     "from csv",
	}
	entry := map[string]any{
		"firstName": "Jane",
		"email":     "jane@acme.com",
		"phone":     "555-0100",
	}

	merged := Merge(orig, entry)

	assert.Equal(t, "Jane", merged.FirstName)
	assert.Equal(t, "doe", merged.LastName)
	assert.Equal(t, "jane@acme.com", merged.Email)
	assert.Equal(t, "555-0100", merged.Phone)
	assert.Equal(t, "from csv", merged.Notes)

	// The input record is untouched.
	assert.Equal(t, "old@acme.com", orig.Email)
}

func TestMerge_DirectPhoneFillsEmptySlotOnly(t *testing.T) {
	merged := Merge(model.Contact{}, map[string]any{"directPhone": "555-0101"})
	assert.Equal(t, "555-0101", merged.Phone)

	merged = Merge(model.Contact{Phone: "555-0100"}, map[string]any{"directPhone": "555-0101"})
	assert.Equal(t, "555-0100", merged.Phone)
	assert.Equal(t, "555-0101", merged.Extra["direct_phone"])
}

func TestMerge_CompanyMergesFieldByField(t *testing.T) {
	orig := model.Contact{
		Company: &model.Company{Name: "Acme Corp", Location: "Austin, TX"},
	}
	entry := map[string]any{
		"companyDomain":   "acme.com",
		"companyindustry": "ignored wrong case",
		"industry":        "Software",
	}

	merged := Merge(orig, entry)

	require.NotNil(t, merged.Company)
	assert.Equal(t, "Acme Corp", merged.Company.Name)
	assert.Equal(t, "acme.com", merged.Company.Domain)
	assert.Equal(t, "Software", merged.Company.Industry)
	assert.Equal(t, "Austin, TX", merged.Company.Location)
}

func TestStringify(t *testing.T) {
	s, ok := stringify("x")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	s, ok = stringify(float64(42))
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	s, ok = stringify(1.5)
	assert.True(t, ok)
	assert.Equal(t, "1.5", s)

	s, ok = stringify(true)
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	s, ok = stringify(map[string]any{"a": "b"})
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":"b"}`, s)

	_, ok = stringify(nil)
	assert.False(t, ok)
}
