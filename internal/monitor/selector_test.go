package monitor

import (
	"context"
	"testing"

	"ddfmonitor/internal/store"
)

func TestCountStatuses(t *testing.T) {
	snapshot := fields(store.StatusQueued, store.StatusQueued, store.StatusComplete, "Running", "Archived")
	counts := CountStatuses(snapshot)

	if counts[store.StatusQueued] != 2 || counts[store.StatusComplete] != 1 || counts["Running"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}

	sum := 0
	for _, n := range counts {
		sum += n
	}
	if sum != len(snapshot) {
		t.Errorf("expected counts to sum to %d, got %d", len(snapshot), sum)
	}
}

func TestCountStatuses_Empty(t *testing.T) {
	counts := CountStatuses(nil)
	if len(counts) != 0 {
		t.Errorf("expected no counts, got %v", counts)
	}
	if counts[store.StatusQueued] != 0 {
		t.Error("expected missing key to read as zero")
	}
}

func TestWantDownload(t *testing.T) {
	busy, _ := Slot{Kind: SlotDownload}.Occupy(&Task{FieldID: "P1", done: make(chan struct{})})

	tests := []struct {
		name   string
		counts map[store.Status]int
		limit  int
		slot   Slot
		want   bool
	}{
		{"below limit", map[store.Status]int{store.StatusQueued: 9}, 10, Slot{}, true},
		{"at limit", map[store.Status]int{store.StatusQueued: 10}, 10, Slot{}, false},
		{"above limit", map[store.Status]int{store.StatusQueued: 11}, 10, Slot{}, false},
		{"missing queued key", map[store.Status]int{store.StatusComplete: 4}, 10, Slot{}, true},
		{"nil counts", nil, 10, Slot{}, true},
		{"slot busy", map[store.Status]int{}, 10, busy, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WantDownload(tt.counts, tt.limit, tt.slot); got != tt.want {
				t.Errorf("WantDownload() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectUpload(t *testing.T) {
	snapshot := []store.Field{
		{ID: "A", Status: store.StatusNotStarted},
		{ID: "B", Status: store.StatusQueued},
		{ID: "C", Status: store.StatusComplete},
		{ID: "D", Status: store.StatusComplete},
	}

	id, ok := SelectUpload(snapshot, Slot{Kind: SlotUpload})
	if !ok || id != "C" {
		t.Errorf("expected C, got %q (ok=%v)", id, ok)
	}
}

func TestSelectUpload_NoComplete(t *testing.T) {
	if _, ok := SelectUpload(fields(store.StatusQueued, store.StatusArchived), Slot{}); ok {
		t.Error("expected no upload without a Complete field")
	}
}

func TestSelectUpload_SlotBusy(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	task := startTask(context.Background(), "X", func(ctx context.Context) error {
		<-release
		return nil
	}, discardLogger())
	busy, _ := Slot{Kind: SlotUpload}.Occupy(task)

	if _, ok := SelectUpload(fields(store.StatusComplete), busy); ok {
		t.Error("expected no upload while the slot is busy")
	}
}
