package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, rec *models.AuditRecord) error {
	query :=
		`INSERT INTO audit_log (actor_id, actor_email, action, target_id, target, meta, ip, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`

	var meta any
	if len(rec.Meta) > 0 {
		meta = string(rec.Meta)
	}

	err := r.db.QueryRowContext(ctx, query,
		rec.ActorID, rec.ActorEmail, string(rec.Action), nullString(rec.TargetID), nullString(rec.Target),
		meta, nullString(rec.IP), nullString(rec.UserAgent), rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditRecord, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Action != "" {
		where = append(where, "action = "+arg(filter.Action))
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= "+arg(filter.Since))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := arg("%" + q + "%")
		where = append(where, fmt.Sprintf("(actor_email ILIKE %[1]s OR target ILIKE %[1]s OR action ILIKE %[1]s OR meta::text ILIKE %[1]s)", p))
	}

	query := `SELECT id, actor_id, actor_email, action, target_id, target, meta, ip, user_agent, created_at FROM audit_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Take > 0 {
		query += " LIMIT " + arg(filter.Take)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.AuditRecord
	for rows.Next() {
		var (
			rec                      models.AuditRecord
			action                   string
			targetID, target, ip, ua sql.NullString
			meta                     []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.ActorEmail, &action, &targetID, &target, &meta, &ip, &ua, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rec.Action = models.AuditAction(action)
		rec.TargetID = targetID.String
		rec.Target = target.String
		rec.IP = ip.String
		rec.UserAgent = ua.String
		if len(meta) > 0 {
			rec.Meta = meta
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
