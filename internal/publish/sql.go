package publish

import (
	"context"

	"smokegomodule/internal/types"
	"smokegomodule/shared/sqlstore"
)

// ResultStore is the persistence the SQL sink writes through
type ResultStore interface {
	EnsureSchema(ctx context.Context) error
	InsertResults(ctx context.Context, rows []sqlstore.ResultRow) error
	Close() error
}

// SQLPublisher stores one row per result
type SQLPublisher struct {
	store ResultStore
}

func NewSQLPublisher(store ResultStore) *SQLPublisher {
	return &SQLPublisher{store: store}
}

func (p *SQLPublisher) Name() string { return "postgres" }

func (p *SQLPublisher) Publish(ctx context.Context, report types.Report) error {
	if err := p.store.EnsureSchema(ctx); err != nil {
		return err
	}

	rows := make([]sqlstore.ResultRow, 0, len(report.Results))
	for _, r := range report.Results {
		rows = append(rows, sqlstore.ResultRow{
			RunID:            report.RunID,
			RunAt:            report.Timestamp,
			BaseURL:          report.BaseURL,
			Role:             r.Role,
			Email:            r.Email,
			LoginSuccess:     r.LoginSuccess,
			LogoutSuccess:    r.LogoutSuccess,
			ExpectedRedirect: r.ExpectedRedirect,
			ActualRedirect:   r.ActualRedirect,
			Status:           string(r.Status),
			ErrorKind:        string(r.ErrorKind),
			Error:            r.Error,
		})
	}
	return p.store.InsertResults(ctx, rows)
}

func (p *SQLPublisher) Close() error {
	return p.store.Close()
}
