package maintenance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context) (*models.MaintenanceConfig, error) {
	return r.get(ctx, `SELECT maintenance_active, maintenance_message, updated_at FROM app_config WHERE id = 1`)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context) (*models.MaintenanceConfig, error) {
	return r.get(ctx, `SELECT maintenance_active, maintenance_message, updated_at FROM app_config WHERE id = 1 FOR UPDATE`)
}

func (r *PostgresRepository) GetForShare(ctx context.Context) (*models.MaintenanceConfig, error) {
	return r.get(ctx, `SELECT maintenance_active, maintenance_message, updated_at FROM app_config WHERE id = 1 FOR SHARE`)
}

func (r *PostgresRepository) get(ctx context.Context, query string) (*models.MaintenanceConfig, error) {
	c := &models.MaintenanceConfig{}
	err := r.db.QueryRowContext(ctx, query).Scan(&c.Active, &c.Message, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.MaintenanceConfig{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, active bool, message string, at time.Time) (*models.MaintenanceConfig, error) {
	query :=
		`INSERT INTO app_config (id, maintenance_active, maintenance_message, updated_at)
		 VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET maintenance_active = EXCLUDED.maintenance_active,
		     maintenance_message = EXCLUDED.maintenance_message,
		     updated_at = EXCLUDED.updated_at
		 RETURNING maintenance_active, maintenance_message, updated_at`

	c := &models.MaintenanceConfig{}
	if err := r.db.QueryRowContext(ctx, query, active, message, at).Scan(&c.Active, &c.Message, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetNotice(ctx context.Context) (*models.SystemNotice, error) {
	query := `SELECT notice_active, notice_text, notice_updated_at FROM app_config WHERE id = 1`

	n := &models.SystemNotice{}
	err := r.db.QueryRowContext(ctx, query).Scan(&n.Active, &n.Text, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.SystemNotice{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SetNotice(ctx context.Context, active bool, text string, at time.Time) (*models.SystemNotice, error) {
	query :=
		`INSERT INTO app_config (id, notice_active, notice_text, notice_updated_at)
		 VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET notice_active = EXCLUDED.notice_active,
		     notice_text = EXCLUDED.notice_text,
		     notice_updated_at = EXCLUDED.notice_updated_at
		 RETURNING notice_active, notice_text, notice_updated_at`

	n := &models.SystemNotice{}
	if err := r.db.QueryRowContext(ctx, query, active, text, at).Scan(&n.Active, &n.Text, &n.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
