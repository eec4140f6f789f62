package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresValidationMirror is the remote, best-effort copy of day
// validations: one row per user and date-key. It is advisory backup only;
// the local tracker document remains the source of truth and callers never
// roll back on a mirror failure.
type PostgresValidationMirror struct {
	db *sqlx.DB
}

func NewPostgresValidationMirror(db *sqlx.DB) *PostgresValidationMirror {
	return &PostgresValidationMirror{db: db}
}

func (m *PostgresValidationMirror) MirrorValidation(ctx context.Context, userID, dateKey string, validatedAt time.Time) error {
	query := `
		INSERT INTO day_validations (user_id, date_key, validated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, date_key) DO NOTHING`

	_, err := m.db.ExecContext(ctx, query, userID, dateKey, validatedAt.UTC())
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// Already mirrored: the first timestamp wins, same as locally.
			return nil
		}
		return err
	}
	return nil
}

// PostgresAdminDirectory answers admin lookups from the admins table of
// the shared backend database.
type PostgresAdminDirectory struct {
	db *sqlx.DB
}

func NewPostgresAdminDirectory(db *sqlx.DB) *PostgresAdminDirectory {
	return &PostgresAdminDirectory{db: db}
}

func (d *PostgresAdminDirectory) IsAdmin(ctx context.Context, uid string) (bool, error) {
	var count int
	err := d.db.GetContext(ctx, &count, `SELECT count(*) FROM admins WHERE user_id = $1`, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return count > 0, nil
}
