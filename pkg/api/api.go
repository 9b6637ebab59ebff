// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the monitor's status API.
package api

import "time"

// StatusReport is the JSON form of the monitor's most recent cycle report.
type StatusReport struct {
	Cluster     string         `json:"cluster"`
	GeneratedAt time.Time      `json:"generated_at"`
	Counts      map[string]int `json:"counts"`
	Total       int            `json:"total"`
	Download    SlotStatus     `json:"download"`
	Upload      SlotStatus     `json:"upload"`
	Error       *string        `json:"error,omitempty"`
}

// SlotStatus describes one background task slot.
type SlotStatus struct {
	Busy      bool       `json:"busy"`
	FieldID   string     `json:"field_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
