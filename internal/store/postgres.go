package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (or a mock in tests).
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS contacts (
	id               UUID PRIMARY KEY,
	first_name       TEXT,
	last_name        TEXT,
	email            TEXT,
	phone            TEXT,
	title            TEXT,
	company_name     TEXT,
	company_website  TEXT,
	company_industry TEXT,
	company_size     TEXT,
	company_location TEXT,
	enriched         BOOLEAN NOT NULL DEFAULT FALSE,
	company_enriched BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enrichment_errors (
	id         UUID PRIMARY KEY,
	contact_id UUID NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	error      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS output_leads (
	id            UUID PRIMARY KEY,
	name          TEXT,
	email         TEXT,
	contact_phone TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_enrichment_errors_contact_id ON enrichment_errors(contact_id);
CREATE INDEX IF NOT EXISTS idx_output_leads_email ON output_leads(email);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) InsertContact(ctx context.Context, c model.Contact) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contacts (
			id, first_name, last_name, email, phone, title,
			company_name, company_website, company_industry, company_size,
			company_location, enriched, company_enriched, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		id, c.FirstName, c.LastName, c.Email, c.Phone, c.Title,
		c.CompanyName, c.CompanyWebsite, c.CompanyIndustry, c.CompanySize,
		c.CompanyLocation, c.Enriched, c.CompanyEnriched, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert contact")
	}
	return id, nil
}

func (s *PostgresStore) InsertError(ctx context.Context, contactID, message string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_errors (id, contact_id, error, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), contactID, message, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: insert error")
}

func (s *PostgresStore) InsertLead(ctx context.Context, l model.Lead) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO output_leads (id, name, email, contact_phone, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), l.Name, l.Email, l.Phone, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: insert lead")
}

func (s *PostgresStore) CountLeads(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM output_leads`).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: count leads")
	}
	return n, nil
}

// Open selects a backend by driver name.
func Open(ctx context.Context, driver, databaseURL, sqlitePath string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	case "sqlite", "":
		return NewSQLite(sqlitePath)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
