// Package models holds the server-side domain types shared by repositories,
// services and transports.
package models

import (
	"time"
)

// Role is the privilege level of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is a portal subscriber or administrator. SessionEpoch only grows;
// a token is honoured while its captured epoch equals the stored one.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Blocked      bool
	SessionEpoch int64
	LastLoginAt  *time.Time
	LastLoginIP  string
	CreatedAt    time.Time
}

// Principal is the live identity behind a validated session.
type Principal struct {
	AccountID string
	Email     string
	Role      Role
}

// IsAdmin reports whether the principal currently holds the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// RequestMeta carries the client details recorded by the ledger and the
// audit log.
type RequestMeta struct {
	IP        string
	UserAgent string
}
