package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/zoominfo"
)

// companyLookupBatchSize is the bulk company endpoint's request cap.
const companyLookupBatchSize = 100

// CompanyEnricher attaches firmographic data to contacts via the bulk
// company endpoint. The pass is best-effort: lookup failures mark contacts
// as not company-enriched and never fail a run. A circuit breaker skips
// remaining lookup batches once the endpoint proves unhealthy.
type CompanyEnricher struct {
	client  zoominfo.Client
	breaker *resilience.CircuitBreaker
}

// NewCompanyEnricher creates a CompanyEnricher with a default breaker.
func NewCompanyEnricher(client zoominfo.Client) *CompanyEnricher {
	cfg := resilience.DefaultCircuitBreakerConfig()
	cfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("company lookup circuit state change",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return &CompanyEnricher{
		client:  client,
		breaker: resilience.NewCircuitBreaker(cfg),
	}
}

// Enrich resolves one company identifier per contact, deduplicates the
// lookups, fetches company data in bounded batches, and merges results back
// onto copies of the contacts. Domain equality is authoritative for both
// dedupe and result matching; name equality is a weak fallback only.
func (ce *CompanyEnricher) Enrich(ctx context.Context, contacts []model.Contact) []model.Contact {
	queries, perContact := collectCompanyQueries(contacts)
	out := make([]model.Contact, len(contacts))
	for i, c := range contacts {
		out[i] = c.Clone()
	}
	if len(queries) == 0 {
		zap.L().Warn("company lookup: no resolvable company identifiers")
		return out
	}

	results := ce.lookupAll(ctx, queries)
	if len(results) == 0 {
		return out
	}

	byDomain := make(map[string]map[string]any)
	byName := make(map[string]map[string]any)
	for _, r := range results {
		if d := model.NormalizeKey(entryString(r, "domain")); d != "" {
			byDomain[d] = r
		}
		if n := model.NormalizeKey(entryString(r, "companyName")); n != "" {
			byName[n] = r
		}
	}

	for i := range out {
		q, ok := perContact[i]
		if !ok {
			continue
		}
		var entry map[string]any
		if q.Domain != "" {
			entry = byDomain[model.NormalizeKey(q.Domain)]
		} else if q.Name != "" {
			entry = byName[model.NormalizeKey(q.Name)]
		}
		if entry == nil {
			continue
		}
		applyCompanyEntry(&out[i], entry)
	}
	return out
}

// lookupAll fetches company data for all queries in capped batches through
// the circuit breaker.
func (ce *CompanyEnricher) lookupAll(ctx context.Context, queries []zoominfo.CompanyQuery) []map[string]any {
	var results []map[string]any
	for start := 0; start < len(queries); start += companyLookupBatchSize {
		end := min(start+companyLookupBatchSize, len(queries))
		chunk := queries[start:end]

		err := ce.breaker.Execute(ctx, func(ctx context.Context) error {
			batch, lookupErr := ce.client.LookupCompanies(ctx, chunk)
			if lookupErr != nil {
				return lookupErr
			}
			results = append(results, batch...)
			return nil
		})
		if err != nil {
			zap.L().Warn("company lookup batch failed",
				zap.Int("from", start),
				zap.Int("to", end),
				zap.Error(err),
			)
		}
	}
	return results
}

// collectCompanyQueries derives one identifier per contact (website domain,
// else email domain, else company name) and deduplicates the lookup list.
// The second return maps contact index to its identifier.
func collectCompanyQueries(contacts []model.Contact) ([]zoominfo.CompanyQuery, map[int]zoominfo.CompanyQuery) {
	var queries []zoominfo.CompanyQuery
	perContact := make(map[int]zoominfo.CompanyQuery, len(contacts))

	seenDomain := make(map[string]bool)
	seenName := make(map[string]bool)

	for i, c := range contacts {
		q := companyQueryFor(c)
		if q.Domain == "" && q.Name == "" {
			continue
		}
		perContact[i] = q

		if q.Domain != "" {
			key := model.NormalizeKey(q.Domain)
			if !seenDomain[key] {
				seenDomain[key] = true
				queries = append(queries, q)
			}
			continue
		}
		key := model.NormalizeKey(q.Name)
		if !seenName[key] {
			seenName[key] = true
			queries = append(queries, q)
		}
	}
	return queries, perContact
}

func companyQueryFor(c model.Contact) zoominfo.CompanyQuery {
	if strings.TrimSpace(c.CompanyWebsite) != "" {
		if d := DeriveDomain(c.CompanyWebsite); d != "" {
			return zoominfo.CompanyQuery{Domain: d}
		}
	}
	if at := strings.LastIndex(c.Email, "@"); at >= 0 && at < len(c.Email)-1 {
		return zoominfo.CompanyQuery{Domain: model.NormalizeKey(c.Email[at+1:])}
	}
	if strings.TrimSpace(c.CompanyName) != "" {
		return zoominfo.CompanyQuery{Name: c.CompanyName}
	}
	return zoominfo.CompanyQuery{}
}

// applyCompanyEntry attaches the looked-up company sub-record and backfills
// missing top-level company fields.
func applyCompanyEntry(c *model.Contact, entry map[string]any) {
	co := &model.Company{}
	for key, raw := range entry {
		val, ok := stringify(raw)
		if !ok {
			continue
		}
		switch key {
		case "companyName":
			co.Name = val
		case "domain":
			co.Domain = val
		case "companyId", "id":
			co.ID = val
		case "industry":
			co.Industry = val
		case "revenue":
			co.Revenue = val
		case "employees":
			co.Employees = val
		case "location":
			co.Location = val
		default:
			if co.Extra == nil {
				co.Extra = make(map[string]string)
			}
			co.Extra[key] = val
		}
	}

	if c.Company == nil {
		c.Company = &model.Company{}
	}
	mergeCompany(c.Company, co)
	c.CompanyEnriched = true

	if c.CompanyName == "" {
		c.CompanyName = co.Name
	}
	if c.CompanyWebsite == "" && co.Domain != "" {
		c.CompanyWebsite = "https://" + co.Domain
	}
	if c.CompanyIndustry == "" {
		c.CompanyIndustry = co.Industry
	}
	if c.CompanySize == "" {
		c.CompanySize = co.Employees
	}
	if c.CompanyLocation == "" {
		c.CompanyLocation = co.Location
	}
}
