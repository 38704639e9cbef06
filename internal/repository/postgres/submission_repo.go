package postgres

import (
	"context"
	"fmt"
	"strconv"

	"portfolio-contact-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is append-only: rows are never updated or deleted by the service
const schema = `
CREATE TABLE IF NOT EXISTS contact_submissions (
    id                UUID PRIMARY KEY,
    name              TEXT NOT NULL,
    email             TEXT NOT NULL,
    message           TEXT NOT NULL,
    client_ip         TEXT NOT NULL DEFAULT 'unknown',
    client_user_agent TEXT NOT NULL DEFAULT 'unknown',
    created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contact_submissions_created_at ON contact_submissions (created_at DESC);
`

type submissionRepo struct {
	db *pgxpool.Pool
}

// NewSubmissionRepository returns a PostgreSQL-backed submission store.
func NewSubmissionRepository(db *pgxpool.Pool) domain.SubmissionStore {
	return &submissionRepo{db: db}
}

// EnsureSchema creates the submissions table when it does not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create contact_submissions: %w", err)
	}
	return nil
}

func (r *submissionRepo) Save(ctx context.Context, rec *domain.SubmissionRecord) (string, error) {
	id := uuid.NewString()
	query := `INSERT INTO contact_submissions (id, name, email, message, client_ip, client_user_agent, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query, id, rec.Name, rec.Email, rec.Message, rec.ClientIP, rec.ClientUserAgent, rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert submission: %w", err)
	}
	return id, nil
}

func (r *submissionRepo) List(ctx context.Context, opts domain.ListOptions) ([]*domain.SubmissionRecord, error) {
	var args []any
	where := ""
	if !opts.Since.IsZero() {
		args = append(args, opts.Since)
		where = "WHERE created_at >= $1"
	}

	query := `SELECT id::text, name, email, message, client_ip, client_user_agent, created_at
              FROM contact_submissions ` + where + ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var records []*domain.SubmissionRecord
	for rows.Next() {
		var rec domain.SubmissionRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Message, &rec.ClientIP, &rec.ClientUserAgent, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *submissionRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
