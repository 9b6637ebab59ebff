package monitor

import "ddfmonitor/internal/store"

// CountStatuses tallies a snapshot by status tag. Every field is counted
// exactly once, so the values always sum to len(snapshot).
func CountStatuses(snapshot []store.Field) map[store.Status]int {
	counts := make(map[store.Status]int)
	for _, f := range snapshot {
		counts[f.Status]++
	}
	return counts
}

// WantDownload decides whether a new field should be fetched this cycle.
// A missing Queued key counts as zero.
func WantDownload(counts map[store.Status]int, queueLimit int, slot Slot) bool {
	return slot.Free() && counts[store.StatusQueued] < queueLimit
}

// SelectUpload returns the first Complete field in snapshot order, provided
// the upload slot is free.
func SelectUpload(snapshot []store.Field, slot Slot) (string, bool) {
	if !slot.Free() {
		return "", false
	}
	for _, f := range snapshot {
		if f.Status == store.StatusComplete {
			return f.ID, true
		}
	}
	return "", false
}
