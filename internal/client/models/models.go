// Package models holds the client-side views of what SessionAuthority returns.
package models

// Account is one row of the admin account listing.
type Account struct {
	ID          string
	Email       string
	Role        string
	Blocked     bool
	CreatedAt   string
	LastLoginAt string
	LastLoginIP string
}

// Whoami is the live identity behind the stored session.
type Whoami struct {
	ID    string
	Email string
	Role  string
}

// Maintenance is the maintenance state; Kicked is only set after a change.
type Maintenance struct {
	Active    bool
	Message   string
	UpdatedAt string
	Kicked    int64
}

type Notice struct {
	Active    bool
	Text      string
	UpdatedAt string
}

type AuditRecord struct {
	ID         int64
	ActorEmail string
	Action     string
	Target     string
	Meta       string
	IP         string
	CreatedAt  string
}

// AuditExport points at an uploaded NDJSON export.
type AuditExport struct {
	Key   string
	URL   string
	Count int64
}

// Session is what portalctl keeps on disk between runs.
type Session struct {
	Server    string
	Email     string
	Token     string
	ExpiresAt string
}
