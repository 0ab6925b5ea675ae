package zoominfo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, creds Credentials) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(creds, WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestValid_APIKey(t *testing.T) {
	c := NewClient(Credentials{APIKey: "key"})
	assert.True(t, c.Valid(context.Background()))
}

func TestValid_NoCredentials(t *testing.T) {
	c := NewClient(Credentials{})
	assert.False(t, c.Valid(context.Background()))
}

func TestValid_UsernamePasswordExchange(t *testing.T) {
	var authCalls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth", r.URL.Path)
		authCalls++
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user", body["username"])
		json.NewEncoder(w).Encode(map[string]any{"token": "tok-1", "expiresIn": 3600}) //nolint:errcheck
	}, Credentials{Username: "user", Password: "pass"})

	assert.True(t, c.Valid(context.Background()))
	// Second check reuses the cached token.
	assert.True(t, c.Valid(context.Background()))
	assert.Equal(t, 1, authCalls)
}

func TestValid_RejectedCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, Credentials{Username: "user", Password: "wrong"})

	assert.False(t, c.Valid(context.Background()))
}

func TestEnrichPersons_SendsBearerAndParsesResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/person/bulk", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var body struct {
			Persons []map[string]string `json:"persons"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Persons, 1)
		assert.Equal(t, "Jane", body.Persons[0]["firstName"])

		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"results": []map[string]any{{"firstName": "Jane", "phone": "555-0100"}},
		})
	}, Credentials{APIKey: "key"})

	entries, err := c.EnrichPersons(context.Background(), []map[string]string{{"firstName": "Jane"}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "555-0100", entries[0]["phone"])
}

func TestEnrichPersons_EmptyInputSkipsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, Credentials{APIKey: "key"})

	entries, err := c.EnrichPersons(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestEnrichPersons_UnauthorizedIsNotAuthenticated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, Credentials{APIKey: "revoked"})

	_, err := c.EnrichPersons(context.Background(), []map[string]string{{"firstName": "Jane"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAuthenticated))
}

func TestEnrichPersons_TransientStatusIsWrapped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, Credentials{APIKey: "key"})

	_, err := c.EnrichPersons(context.Background(), []map[string]string{{"firstName": "Jane"}})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestEnrichPersons_ClientErrorIsNotTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}, Credentials{APIKey: "key"})

	_, err := c.EnrichPersons(context.Background(), []map[string]string{{"firstName": "Jane"}})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.False(t, errors.Is(err, ErrNotAuthenticated))
}

func TestLookupCompanies_PayloadShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/company/bulk", r.URL.Path)

		var body struct {
			Companies []map[string]string `json:"companies"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Companies, 2)
		assert.Equal(t, map[string]string{"domain": "acme.com"}, body.Companies[0])
		assert.Equal(t, map[string]string{"companyName": "Gamma LLC"}, body.Companies[1])

		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"results": []map[string]any{{"companyName": "Acme Corp", "domain": "acme.com"}},
		})
	}, Credentials{APIKey: "key"})

	entries, err := c.LookupCompanies(context.Background(), []CompanyQuery{
		{Domain: "acme.com"},
		{Name: "Gamma LLC"},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme Corp", entries[0]["companyName"])
}

func TestAccount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/account", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(Account{ //nolint:errcheck
			Plan:             "pro",
			CreditsRemaining: 900,
			CreditsUsed:      100,
			Email:            "ops@example.com",
		})
	}, Credentials{APIKey: "key"})

	acct, err := c.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pro", acct.Plan)
	assert.Equal(t, 900, acct.CreditsRemaining)
}

func TestCompanyQueryMarshal(t *testing.T) {
	b, err := json.Marshal(CompanyQuery{Domain: "acme.com", Name: "ignored"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"domain":"acme.com"}`, string(b))

	b, err = json.Marshal(CompanyQuery{Name: "Gamma LLC"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"companyName":"Gamma LLC"}`, string(b))
}
