package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tvportal/internal/client/models"
	"github.com/dmitrijs2005/tvportal/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, server string) (*models.Session, error) {
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT server, email, token, expires_at FROM sessions WHERE server = ?`, server,
	).Scan(&s.Server, &s.Email, &s.Token, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session[%s]: %w", server, err)
	}
	return s, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s *models.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (server, email, token, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(server) DO UPDATE SET
			email = excluded.email,
			token = excluded.token,
			expires_at = excluded.expires_at
	`, s.Server, s.Email, s.Token, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to save session[%s]: %w", s.Server, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, server string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE server = ?`, server)
	if err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", server, err)
	}
	return nil
}
