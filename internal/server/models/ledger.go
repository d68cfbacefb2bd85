package models

import "time"

// LoginAttempt is one row of the login-attempt ledger.
type LoginAttempt struct {
	Email     string
	IP        string
	OK        bool
	CreatedAt time.Time
}
