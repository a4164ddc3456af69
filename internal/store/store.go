package store

import (
	"context"

	pgx "github.com/jackc/pgx/v5"
	"github.com/rajasatyajit/lifesaver/internal/models"
)

// Store defines the interface for report storage. ListReports returns
// reports in insertion order; ordering for display is the caller's job.
type Store interface {
	ListReports(ctx context.Context) ([]models.Report, error)
	// GetReport returns nil, nil when the id is unknown.
	GetReport(ctx context.Context, id string) (*models.Report, error)
	// InsertReport fails with errors.ErrConflict when the id already exists.
	InsertReport(ctx context.Context, r models.Report) error
	// UpdateReport returns nil, nil when the id is unknown.
	UpdateReport(ctx context.Context, id string, upd models.ReportUpdate) (*models.Report, error)
	Health(ctx context.Context) error
}

// Database interface for dependency injection
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Health(ctx context.Context) error
	IsConfigured() bool
}

// New creates a new store instance
func New(db Database) Store {
	if db.IsConfigured() {
		return NewPostgresStore(db)
	}
	// Fallback to in-memory store if no database
	return NewInMemoryStore()
}
