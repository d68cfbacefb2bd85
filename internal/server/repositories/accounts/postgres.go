package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, password_hash, role, blocked, session_epoch, last_login_at, last_login_ip, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a         models.Account
		role      string
		lastLogin sql.NullTime
		lastIP    sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.Blocked, &a.SessionEpoch, &lastLogin, &lastIP, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Role = models.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLoginAt = &t
	}
	a.LastLoginIP = lastIP.String
	return &a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING session_epoch, created_at`

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Email, account.PasswordHash, string(account.Role)).Scan(&account.SessionEpoch, &account.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) RecordLogin(ctx context.Context, id string, ip string, at time.Time) (int64, error) {
	query :=
		`UPDATE accounts SET session_epoch = session_epoch + 1, last_login_at = $2, last_login_ip = $3
		 WHERE id = $1
		 RETURNING session_epoch`

	return r.returningEpoch(ctx, query, id, at, ip)
}

func (r *PostgresRepository) IncrementEpoch(ctx context.Context, id string) (int64, error) {
	query :=
		`UPDATE accounts SET session_epoch = session_epoch + 1
		 WHERE id = $1
		 RETURNING session_epoch`

	return r.returningEpoch(ctx, query, id)
}

func (r *PostgresRepository) SetBlocked(ctx context.Context, id string, blocked bool) (int64, error) {
	query :=
		`UPDATE accounts SET blocked = $2, session_epoch = session_epoch + 1
		 WHERE id = $1
		 RETURNING session_epoch`

	return r.returningEpoch(ctx, query, id, blocked)
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id string, passwordHash string) (int64, error) {
	query :=
		`UPDATE accounts SET password_hash = $2, session_epoch = session_epoch + 1
		 WHERE id = $1
		 RETURNING session_epoch`

	return r.returningEpoch(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) SetRole(ctx context.Context, id string, role models.Role) error {
	query := `UPDATE accounts SET role = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, string(role))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) KickAllByRole(ctx context.Context, role models.Role) (int64, error) {
	query := `UPDATE accounts SET session_epoch = session_epoch + 1 WHERE role = $1`

	res, err := r.db.ExecContext(ctx, query, string(role))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) returningEpoch(ctx context.Context, query string, args ...any) (int64, error) {
	var epoch int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&epoch); err != nil {
		return 0, mapError(err)
	}
	return epoch, nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
