package models

import "time"

// MaintenanceConfig is the singleton maintenance switch.
type MaintenanceConfig struct {
	Active    bool
	Message   string
	UpdatedAt time.Time
}

// SystemNotice is the admin-controlled banner shown on every portal page.
// It lives next to the maintenance switch but never gates anything.
type SystemNotice struct {
	Active    bool
	Text      string
	UpdatedAt time.Time
}
