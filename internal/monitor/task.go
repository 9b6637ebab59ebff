package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Task is the handle of one background run occupying a slot.
// The monitor only ever asks whether it has ended.
type Task struct {
	ID        uuid.UUID
	FieldID   string
	StartedAt time.Time
	done      chan struct{}
}

// startTask runs fn in its own goroutine. A panic inside fn ends the task
// like any other return.
func startTask(ctx context.Context, fieldID string, fn func(context.Context) error, logger *slog.Logger) *Task {
	t := &Task{
		ID:        uuid.New(),
		FieldID:   fieldID,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("task crashed", "task_id", t.ID, "field_id", fieldID, "panic", fmt.Sprint(r))
			}
		}()
		if err := fn(ctx); err != nil {
			logger.Warn("task ended with error", "task_id", t.ID, "field_id", fieldID, "error", err)
		}
	}()

	return t
}

// Finished reports, without blocking, whether the task has ended.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done is closed when the task ends.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
