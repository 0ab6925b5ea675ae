package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS contacts (
	id               TEXT PRIMARY KEY,
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
	enriched         INTEGER NOT NULL DEFAULT 0,
	company_enriched INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS enrichment_errors (
	id         TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	error      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS output_leads (
	id            TEXT PRIMARY KEY,
	name          TEXT,
	email         TEXT,
	contact_phone TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_enrichment_errors_contact_id ON enrichment_errors(contact_id);
CREATE INDEX IF NOT EXISTS idx_output_leads_email ON output_leads(email);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertContact(ctx context.Context, c model.Contact) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (
			id, first_name, last_name, email, phone, title,
			company_name, company_website, company_industry, company_size,
			company_location, enriched, company_enriched, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.FirstName, c.LastName, c.Email, c.Phone, c.Title,
		c.CompanyName, c.CompanyWebsite, c.CompanyIndustry, c.CompanySize,
		c.CompanyLocation, c.Enriched, c.CompanyEnriched, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert contact")
	}
	return id, nil
}

func (s *SQLiteStore) InsertError(ctx context.Context, contactID, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_errors (id, contact_id, error, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), contactID, message, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert error")
}

func (s *SQLiteStore) InsertLead(ctx context.Context, l model.Lead) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO output_leads (id, name, email, contact_phone, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), l.Name, l.Email, l.Phone, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert lead")
}

func (s *SQLiteStore) CountLeads(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM output_leads`).Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count leads")
	}
	return n, nil
}
