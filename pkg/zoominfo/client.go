// Package zoominfo provides a client for the ZoomInfo bulk person and
// company enrichment API.
package zoominfo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// ErrNotAuthenticated is returned when the client has no usable credentials
// or the token endpoint rejected them. Callers treat it as fatal for the run.
var ErrNotAuthenticated = eris.New("zoominfo: not authenticated")

// Client defines the enrichment operations.
type Client interface {
	// Valid reports whether the client currently holds usable credentials.
	Valid(ctx context.Context) bool

	// Account fetches plan and credit information for the credentials.
	Account(ctx context.Context) (*Account, error)

	// EnrichPersons submits one bulk person request and returns the raw
	// response entries. The call performs no retries of its own; batch
	// retry policy belongs to the caller.
	EnrichPersons(ctx context.Context, persons []map[string]string) ([]map[string]any, error)

	// LookupCompanies submits one bulk company request.
	LookupCompanies(ctx context.Context, queries []CompanyQuery) ([]map[string]any, error)
}

// CompanyQuery identifies a company by domain (authoritative) or name (weak).
type CompanyQuery struct {
	Domain string
	Name   string
}

// MarshalJSON emits the API's identifier shape: domain when present,
// otherwise companyName.
func (q CompanyQuery) MarshalJSON() ([]byte, error) {
	if q.Domain != "" {
		return json.Marshal(map[string]string{"domain": q.Domain})
	}
	return json.Marshal(map[string]string{"companyName": q.Name})
}

// Account holds the subscription details returned by the account endpoint.
type Account struct {
	Plan             string `json:"plan"`
	CreditsRemaining int    `json:"creditsRemaining"`
	CreditsUsed      int    `json:"creditsUsed"`
	Email            string `json:"email"`
}

// Credentials configures authentication. APIKey takes precedence; otherwise
// Username/Password are exchanged for a bearer token with expiry tracking.
type Credentials struct {
	APIKey   string
	Username string
	Password string
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type httpClient struct {
	creds   Credentials
	baseURL string
	http    *http.Client
	limiter *rate.Limiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a new ZoomInfo client.
func NewClient(creds Credentials, opts ...Option) Client {
	c := &httpClient{
		creds:   creds,
		baseURL: "https://api.zoominfo.com/v1",
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Valid(ctx context.Context) bool {
	if c.creds.APIKey != "" {
		return true
	}
	if c.creds.Username == "" || c.creds.Password == "" {
		return false
	}
	_, err := c.bearer(ctx)
	return err == nil
}

// bearer returns a usable bearer token, exchanging username/password when the
// cached token is missing or expired.
func (c *httpClient) bearer(ctx context.Context) (string, error) {
	if c.creds.APIKey != "" {
		return c.creds.APIKey, nil
	}
	if c.creds.Username == "" || c.creds.Password == "" {
		return "", ErrNotAuthenticated
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"username": c.creds.Username,
		"password": c.creds.Password,
	})
	if err != nil {
		return "", eris.Wrap(err, "zoominfo: marshal auth payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth", bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "zoominfo: create auth request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "zoominfo: auth request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "zoominfo: read auth response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Wrapf(ErrNotAuthenticated, "status %d: %s", resp.StatusCode, string(body))
	}

	var auth struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}
	if err := json.Unmarshal(body, &auth); err != nil {
		return "", eris.Wrap(err, "zoominfo: decode auth response")
	}
	if auth.Token == "" {
		return "", eris.Wrap(ErrNotAuthenticated, "empty token")
	}
	if auth.ExpiresIn <= 0 {
		auth.ExpiresIn = 86400
	}
	c.token = auth.Token
	c.tokenExpiry = time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)
	return c.token, nil
}

// do issues one authenticated request and returns the body. Transient HTTP
// statuses are wrapped so callers can distinguish retryable failures.
func (c *httpClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "zoominfo: rate limit wait")
		}
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, eris.Wrap(err, "zoominfo: marshal request")
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "zoominfo: create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "zoominfo: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "zoominfo: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, eris.Wrapf(ErrNotAuthenticated, "status %d: %s", resp.StatusCode, string(body))
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("zoominfo: status %d: %s", resp.StatusCode, string(body)),
			resp.StatusCode,
		)
	default:
		return nil, eris.Errorf("zoominfo: unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

func (c *httpClient) Account(ctx context.Context) (*Account, error) {
	body, err := c.do(ctx, http.MethodGet, "/account", nil)
	if err != nil {
		return nil, err
	}
	var acct Account
	if err := json.Unmarshal(body, &acct); err != nil {
		return nil, eris.Wrap(err, "zoominfo: decode account response")
	}
	return &acct, nil
}

func (c *httpClient) EnrichPersons(ctx context.Context, persons []map[string]string) ([]map[string]any, error) {
	if len(persons) == 0 {
		return nil, nil
	}
	body, err := c.do(ctx, http.MethodPost, "/person/bulk", map[string]any{"persons": persons})
	if err != nil {
		return nil, err
	}
	var out struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "zoominfo: decode person response")
	}
	return out.Results, nil
}

func (c *httpClient) LookupCompanies(ctx context.Context, queries []CompanyQuery) ([]map[string]any, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	body, err := c.do(ctx, http.MethodPost, "/company/bulk", map[string]any{"companies": queries})
	if err != nil {
		return nil, err
	}
	var out struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "zoominfo: decode company response")
	}
	return out.Results, nil
}
