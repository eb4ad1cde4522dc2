package models

import "time"

// ConnectionState describes the live feed connection as seen by the dashboard.
type ConnectionState string

const (
	ConnectionIdle         ConnectionState = "idle"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
	ConnectionDisconnected ConnectionState = "disconnected"
)

// Status carries the non-domain fields a user needs to judge how fresh the
// dashboard is.
type Status struct {
	Connection     ConnectionState `json:"connection"`
	ConnectionErr  string          `json:"connectionError,omitempty"`
	LastFetchErr   string          `json:"lastError,omitempty"`
	LastFetchToken uint64          `json:"lastToken"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Snapshot is a point-in-time copy of the dashboard state.
type Snapshot struct {
	Reading *Reading       `json:"reading"`
	History []HistoryEntry `json:"history"`
	Status  Status         `json:"status"`
}
