// Package monitor keeps the field queue of one cluster moving: every cycle it
// reads the status database, prints a report, frees slots whose task has ended,
// and starts at most one pipeline run and one upload.
package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"ddfmonitor/internal/logger"
	"ddfmonitor/internal/runner"
	"ddfmonitor/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPollInterval is the sleep between two cycles.
const DefaultPollInterval = 300 * time.Second

// Config holds the monitor settings.
type Config struct {
	Cluster      string
	BaseDir      string
	QueueLimit   int
	PollInterval time.Duration
}

// Monitor is the control loop. Slot state is owned by the goroutine running Run.
type Monitor struct {
	store    store.FieldStore
	pipeline runner.Runner
	uploader runner.Runner
	config   Config
	out      io.Writer
	logger   *slog.Logger
	metrics  *metrics

	mu     sync.RWMutex
	latest *Report

	done chan struct{}
}

// New creates a monitor. out receives the console report; logger the structured log.
func New(fs store.FieldStore, pipeline, uploader runner.Runner, config Config, out io.Writer, log *slog.Logger) *Monitor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.QueueLimit <= 0 {
		config.QueueLimit = 10
	}
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = slog.Default()
	}

	m := &Monitor{
		store:    fs,
		pipeline: pipeline,
		uploader: uploader,
		config:   config,
		out:      out,
		logger:   log.With("cluster", config.Cluster),
		done:     make(chan struct{}),
	}

	met, err := newMetrics(m.LatestReport)
	if err != nil {
		m.logger.Warn("failed to register metrics", "error", err)
	}
	m.metrics = met

	return m
}

// Run cycles until ctx is cancelled. On cancellation no new work is started
// and Run returns once the tasks still occupying a slot have ended.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.done)

	m.logger.Info("monitor starting",
		"queue_limit", m.config.QueueLimit,
		"poll_interval", m.config.PollInterval.String(),
		"base_dir", m.config.BaseDir,
	)

	slots := NewSlots()
	for {
		slots = m.Cycle(ctx, slots)

		select {
		case <-ctx.Done():
			m.drain(slots)
			return ctx.Err()
		case <-time.After(m.config.PollInterval):
		}
	}
}

// Done returns a channel that is closed when Run has returned.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

func (m *Monitor) drain(slots Slots) {
	for _, s := range []Slot{slots.Download, slots.Upload} {
		if t := s.Task(); t != nil {
			m.logger.Info("waiting for running task", "slot", s.Kind, "field_id", t.FieldID)
			<-t.Done()
		}
	}
	m.logger.Info("monitor stopped")
}

// Cycle performs one pass of the loop and returns the updated slots.
// Errors never escape: a failed snapshot skips the rest of the cycle.
func (m *Monitor) Cycle(ctx context.Context, slots Slots) Slots {
	ctx = logger.WithCycleID(ctx, uuid.NewString())
	log := logger.FromContext(ctx, m.logger)

	ctx, span := otel.Tracer("ddfmonitor").Start(ctx, "monitor_cycle",
		trace.WithAttributes(attribute.String("cluster", m.config.Cluster)),
	)
	defer span.End()

	snapshot, err := m.store.FetchClusterSnapshot(ctx, m.config.Cluster)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		log.Error("failed to fetch cluster snapshot", "error", err)
		if m.metrics != nil {
			m.metrics.cycleErrors.Add(ctx, 1)
		}

		report := Report{
			Cluster:  m.config.Cluster,
			Time:     time.Now(),
			Download: slotState(slots.Download),
			Upload:   slotState(slots.Upload),
			Err:      err,
		}
		m.render(log, report)
		m.publish(report)
		return slots
	}

	report := newReport(m.config.Cluster, time.Now(), snapshot, slots)
	m.render(log, report)
	span.SetAttributes(attribute.Int("fields", report.Total))

	// Liveness checks strictly precede any placement into the same slot.
	slots.Download = m.checkLiveness(ctx, log, slots.Download)
	slots.Upload = m.checkLiveness(ctx, log, slots.Upload)

	if WantDownload(report.Counts, m.config.QueueLimit, slots.Download) {
		slots.Download = m.startDownload(ctx, log, slots.Download)
	}

	if fieldID, ok := SelectUpload(snapshot, slots.Upload); ok {
		m.say("We need to upload a new file (%s)!", fieldID)
		slots.Upload = m.launch(ctx, log, slots.Upload, fieldID, m.uploader)
	}

	report.Download = slotState(slots.Download)
	report.Upload = slotState(slots.Upload)
	m.publish(report)

	return slots
}

func (m *Monitor) checkLiveness(ctx context.Context, log *slog.Logger, s Slot) Slot {
	fieldID := s.FieldID()
	next, ended := s.Poll()
	if ended {
		m.say("%s task seems to have terminated (%s)", titleKind(s.Kind), fieldID)
		log.Info("task terminated", "slot", s.Kind, "field_id", fieldID)
		if m.metrics != nil {
			m.metrics.tasksEnded.Add(ctx, 1, slotAttr(s.Kind))
		}
	} else if !s.Free() {
		log.Debug("task still running", "slot", s.Kind, "field_id", fieldID)
	}
	return next
}

func (m *Monitor) startDownload(ctx context.Context, log *slog.Logger, s Slot) Slot {
	fieldID, ok, err := m.store.FetchNextPending(ctx)
	if err != nil {
		log.Error("failed to fetch next pending field", "error", err)
		return s
	}
	if !ok {
		log.Info("no pending fields left to download")
		return s
	}

	m.say("We need to download a new file (%s)!", fieldID)
	return m.launch(ctx, log, s, fieldID, m.pipeline)
}

func (m *Monitor) launch(ctx context.Context, log *slog.Logger, s Slot, fieldID string, r runner.Runner) Slot {
	baseDir := m.config.BaseDir
	// Tasks outlive the monitor's context: nothing cancels in-flight work.
	taskCtx := context.WithoutCancel(ctx)
	t := startTask(taskCtx, fieldID, func(ctx context.Context) error {
		return r.Run(ctx, fieldID, baseDir)
	}, log.With("slot", s.Kind))

	next, err := s.Occupy(t)
	if err != nil {
		// Unreachable while callers check Free first.
		log.Error("slot occupied", "slot", s.Kind, "error", err)
		return s
	}

	log.Info("task started", "slot", s.Kind, "field_id", fieldID, "task_id", t.ID)
	if m.metrics != nil {
		m.metrics.tasksStarted.Add(ctx, 1, slotAttr(s.Kind))
	}
	return next
}

func (m *Monitor) render(log *slog.Logger, r Report) {
	if err := r.Render(m.out); err != nil {
		log.Warn("failed to write report", "error", err)
	}
}

func (m *Monitor) say(format string, args ...any) {
	fmt.Fprintf(m.out, format+"\n", args...)
}

func (m *Monitor) publish(r Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = &r
}

// LatestReport returns the report of the last completed cycle.
func (m *Monitor) LatestReport() (Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return Report{}, false
	}
	return *m.latest, true
}

func titleKind(k SlotKind) string {
	switch k {
	case SlotDownload:
		return "Download"
	case SlotUpload:
		return "Upload"
	default:
		return string(k)
	}
}
