package models

import "time"

// PasswordReset stores the sha256 of a reset token, never the token itself.
type PasswordReset struct {
	Email     string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
