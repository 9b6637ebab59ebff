package monitor

import "errors"

// ErrSlotBusy is returned when placing a task into an occupied slot.
var ErrSlotBusy = errors.New("slot is busy")

// SlotKind names the activity a slot is reserved for.
type SlotKind string

const (
	SlotDownload SlotKind = "download"
	SlotUpload   SlotKind = "upload"
)

// Slot holds at most one in-flight task. The field id lives on the task,
// so a slot is either fully empty or fully occupied.
// Slots are values: step functions take one and return the updated copy.
type Slot struct {
	Kind SlotKind
	task *Task
}

// Slots is the complete in-process state of the monitor.
type Slots struct {
	Download Slot
	Upload   Slot
}

// NewSlots returns two empty slots.
func NewSlots() Slots {
	return Slots{
		Download: Slot{Kind: SlotDownload},
		Upload:   Slot{Kind: SlotUpload},
	}
}

// Free reports whether the slot can take a new task.
func (s Slot) Free() bool {
	return s.task == nil
}

// FieldID returns the field being processed, or "" when the slot is empty.
func (s Slot) FieldID() string {
	if s.task == nil {
		return ""
	}
	return s.task.FieldID
}

// Task returns the occupying task, or nil.
func (s Slot) Task() *Task {
	return s.task
}

// Occupy places t into an empty slot.
func (s Slot) Occupy(t *Task) (Slot, error) {
	if !s.Free() {
		return s, ErrSlotBusy
	}
	s.task = t
	return s, nil
}

// Poll is the liveness check: if the occupying task has ended, for any
// reason, the slot is emptied and ended is true. It never blocks.
func (s Slot) Poll() (next Slot, ended bool) {
	if s.task != nil && s.task.Finished() {
		s.task = nil
		return s, true
	}
	return s, false
}
