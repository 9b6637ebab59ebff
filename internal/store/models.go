// Package store contains the database layer for the field monitor.
package store

import "time"

// Status is the processing state of a field as recorded in the status database.
// The set of tags is open: the pipeline and manual edits may write values the
// monitor has never seen, and those are counted like any other tag.
type Status string

const (
	StatusNotStarted Status = "Not started"
	StatusQueued     Status = "Queued"
	StatusComplete   Status = "Complete"
	StatusArchived   Status = "Archived"
)

// Field is one unit of work (an observation) tracked by the status database.
type Field struct {
	ID       string
	Status   Status
	Cluster  string
	Priority int
	// Location is carried through untouched; the monitor never interprets it.
	Location  Location
	UpdatedAt time.Time
}

// Location holds the pointing centre of a field in degrees.
type Location struct {
	RA  float64
	Dec float64
}
