package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	apperrors "github.com/rajasatyajit/lifesaver/internal/errors"
	"github.com/rajasatyajit/lifesaver/internal/models"
)

const uniqueViolation = "23505"

const reportColumns = `id, created_at, updated_at, lat, lng, geohash, categories, answers,
	text, contact, photo_url, score, urgency, status, assigned_to, duplicate_of`

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db Database
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db Database) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListReports returns every report in insertion order
func (s *PostgresStore) ListReports(ctx context.Context) ([]models.Report, error) {
	rows, err := s.db.Query(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY seq`)
	if err != nil {
		return nil, apperrors.DatabaseError{Operation: "list reports", Err: err}
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError{Operation: "list reports", Err: err}
	}
	return reports, nil
}

// GetReport retrieves a single report by ID
func (s *PostgresStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	row := s.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// InsertReport stores a new report
func (s *PostgresStore) InsertReport(ctx context.Context, r models.Report) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	categories := r.Categories
	if categories == nil {
		categories = []string{}
	}

	query := `
		INSERT INTO reports (
			id, created_at, updated_at, lat, lng, geohash, categories, answers,
			text, contact, photo_url, score, urgency, status, assigned_to, duplicate_of
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
	`
	err = s.db.Exec(ctx, query,
		r.ID, r.CreatedAt, r.UpdatedAt, r.Lat, r.Lng, r.Geohash, categories, answers,
		r.Text, r.Contact, r.PhotoURL, r.Score, string(r.Urgency), string(r.Status),
		r.AssignedTo, r.DuplicateOf,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert report %s: %w", r.ID, apperrors.ErrConflict)
		}
		return apperrors.DatabaseError{Operation: "insert report", Err: err}
	}
	return nil
}

// UpdateReport applies the non-nil fields of upd in one statement
func (s *PostgresStore) UpdateReport(ctx context.Context, id string, upd models.ReportUpdate) (*models.Report, error) {
	if upd.IsEmpty() {
		return s.GetReport(ctx, id)
	}

	var sets []string
	args := []any{id}
	argIndex := 2

	if upd.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*upd.Status))
		argIndex++
	}
	if upd.ClearAssignedTo {
		sets = append(sets, "assigned_to = NULL")
	} else if upd.AssignedTo != nil {
		sets = append(sets, fmt.Sprintf("assigned_to = $%d", argIndex))
		args = append(args, *upd.AssignedTo)
		argIndex++
	}
	if upd.Text != nil {
		sets = append(sets, fmt.Sprintf("text = $%d", argIndex))
		args = append(args, *upd.Text)
		argIndex++
	}
	if !upd.UpdatedAt.IsZero() {
		sets = append(sets, fmt.Sprintf("updated_at = $%d", argIndex))
		args = append(args, upd.UpdatedAt)
	}

	query := `UPDATE reports SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + reportColumns

	r, err := scanReport(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// Health checks the database connection
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func scanReport(row pgx.Row) (models.Report, error) {
	var (
		r       models.Report
		answers []byte
		urgency string
		status  string
	)
	err := row.Scan(
		&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.Lat, &r.Lng, &r.Geohash, &r.Categories, &answers,
		&r.Text, &r.Contact, &r.PhotoURL, &r.Score, &urgency, &status, &r.AssignedTo, &r.DuplicateOf,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan report: %w", err)
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &r.Answers); err != nil {
			return r, fmt.Errorf("decode answers for report %s: %w", r.ID, err)
		}
	}
	r.Urgency = models.Urgency(urgency)
	r.Status = models.Status(status)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}
