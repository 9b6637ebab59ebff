package monitor

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	tasksStarted metric.Int64Counter
	tasksEnded   metric.Int64Counter
	cycleErrors  metric.Int64Counter
}

// newMetrics registers the monitor's instruments on the global MeterProvider.
// Gauges are observed from the latest published report at scrape time.
func newMetrics(latest func() (Report, bool)) (*metrics, error) {
	meter := otel.Meter("ddfmonitor")

	tasksStarted, err := meter.Int64Counter("ddfmonitor.tasks.started",
		metric.WithDescription("Background tasks placed into a slot"))
	if err != nil {
		return nil, err
	}
	tasksEnded, err := meter.Int64Counter("ddfmonitor.tasks.ended",
		metric.WithDescription("Background tasks detected as terminated"))
	if err != nil {
		return nil, err
	}
	cycleErrors, err := meter.Int64Counter("ddfmonitor.cycle.errors",
		metric.WithDescription("Cycles skipped because the status store was unavailable"))
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge("ddfmonitor.fields",
		metric.WithDescription("Fields of the monitored cluster by status"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			r, ok := latest()
			if !ok || r.Err != nil {
				return nil
			}
			for status, n := range r.Counts {
				obs.Observe(int64(n), metric.WithAttributes(attribute.String("status", string(status))))
			}
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge("ddfmonitor.slot.busy",
		metric.WithDescription("1 while a slot holds a running task"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			r, ok := latest()
			if !ok {
				return nil
			}
			obs.Observe(boolToInt(r.Download.Busy), metric.WithAttributes(attribute.String("slot", string(SlotDownload))))
			obs.Observe(boolToInt(r.Upload.Busy), metric.WithAttributes(attribute.String("slot", string(SlotUpload))))
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		tasksStarted: tasksStarted,
		tasksEnded:   tasksEnded,
		cycleErrors:  cycleErrors,
	}, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func slotAttr(kind SlotKind) metric.AddOption {
	return metric.WithAttributes(attribute.String("slot", string(kind)))
}
