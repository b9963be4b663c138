// Package sqlstore persists smoke test results in a PostgreSQL table.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/lib/pq"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ResultRow is one account's outcome within a run
type ResultRow struct {
	RunID            string
	RunAt            time.Time
	BaseURL          string
	Role             string
	Email            string
	LoginSuccess     bool
	LogoutSuccess    bool
	ExpectedRedirect string
	ActualRedirect   string
	Status           string
	ErrorKind        string
	Error            string
}

// ResultStore writes result rows into one table
type ResultStore struct {
	db    *sql.DB
	table string
}

// Open connects to PostgreSQL with dsn and verifies the connection
func Open(ctx context.Context, dsn, table string) (*ResultStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store, err := NewResultStore(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewResultStore wraps an open database handle
func NewResultStore(db *sql.DB, table string) (*ResultStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ResultStore{db: db, table: table}, nil
}

// EnsureSchema creates the results table when it does not exist
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id SERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		run_at TIMESTAMPTZ NOT NULL,
		base_url TEXT NOT NULL,
		role TEXT NOT NULL,
		email TEXT NOT NULL,
		login_success BOOLEAN NOT NULL,
		logout_success BOOLEAN NOT NULL,
		expected_redirect TEXT NOT NULL,
		actual_redirect TEXT NOT NULL,
		status TEXT NOT NULL,
		error_kind TEXT,
		error TEXT
	)`, pq.QuoteIdentifier(s.table)))
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// InsertResults stores rows in a single transaction
func (s *ResultStore) InsertResults(ctx context.Context, rows []ResultRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (run_id, run_at, base_url, role, email, login_success, logout_success,
		expected_redirect, actual_redirect, status, error_kind, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, pq.QuoteIdentifier(s.table))

	for _, r := range rows {
		_, err := tx.ExecContext(ctx, stmt,
			r.RunID, r.RunAt, r.BaseURL, r.Role, r.Email, r.LoginSuccess, r.LogoutSuccess,
			r.ExpectedRedirect, r.ActualRedirect, r.Status, nullable(r.ErrorKind), nullable(r.Error))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert result for %s: %w", r.Email, err)
		}
	}
	return tx.Commit()
}

// CountRun returns how many rows a run stored
func (s *ResultStore) CountRun(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE run_id = $1`, pq.QuoteIdentifier(s.table)), runID).Scan(&n)
	return n, err
}

// Close closes the database handle
func (s *ResultStore) Close() error {
	return s.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
