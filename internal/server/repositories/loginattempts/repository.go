// Package loginattempts is the append-only login attempt ledger.
package loginattempts

import (
	"context"
	"time"
)

type Repository interface {
	Record(ctx context.Context, email, ip string, ok bool, at time.Time) error
	CountFailuresByEmail(ctx context.Context, email string, since time.Time) (int, error)
	CountFailuresByIP(ctx context.Context, ip string, since time.Time) (int, error)
}
