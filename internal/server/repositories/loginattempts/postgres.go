package loginattempts

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, email, ip string, ok bool, at time.Time) error {
	query :=
		`INSERT INTO login_attempts (email, ip, ok, created_at)
		 VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, email, ip, ok, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountFailuresByEmail(ctx context.Context, email string, since time.Time) (int, error) {
	query :=
		`SELECT COUNT(*) FROM login_attempts
		 WHERE email = $1 AND ok = FALSE AND created_at >= $2`

	return r.count(ctx, query, email, since)
}

func (r *PostgresRepository) CountFailuresByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	query :=
		`SELECT COUNT(*) FROM login_attempts
		 WHERE ip = $1 AND ok = FALSE AND created_at >= $2`

	return r.count(ctx, query, ip, since)
}

func (r *PostgresRepository) count(ctx context.Context, query string, key string, since time.Time) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, key, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
