package monitor

import (
	"fmt"
	"io"
	"sort"
	"time"

	"ddfmonitor/internal/store"
	"ddfmonitor/pkg/api"
)

const reportRule = "-----------------------------------------------"

// SlotState is a point-in-time view of a slot.
type SlotState struct {
	Busy      bool
	FieldID   string
	StartedAt time.Time
}

func slotState(s Slot) SlotState {
	if s.Free() {
		return SlotState{}
	}
	return SlotState{Busy: true, FieldID: s.task.FieldID, StartedAt: s.task.StartedAt}
}

// Report is the per-cycle summary printed to the console and served on /status.
type Report struct {
	Cluster  string
	Time     time.Time
	Counts   map[store.Status]int
	Total    int
	Download SlotState
	Upload   SlotState
	// Err is set when the snapshot could not be fetched.
	Err error
}

func newReport(cluster string, now time.Time, snapshot []store.Field, slots Slots) Report {
	return Report{
		Cluster:  cluster,
		Time:     now,
		Counts:   CountStatuses(snapshot),
		Total:    len(snapshot),
		Download: slotState(slots.Download),
		Upload:   slotState(slots.Upload),
	}
}

// Statuses returns the status tags of the report in sorted order.
func (r Report) Statuses() []store.Status {
	keys := make([]store.Status, 0, len(r.Counts))
	for k := range r.Counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Render writes the human readable block.
func (r Report) Render(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("\n%s\n", reportRule)
	printf("DDF-pipeline status on cluster %s\n", r.Cluster)
	printf("%s\n\n", r.Time.Format("2006-01-02 15:04:05"))

	if r.Err != nil {
		printf("Status store unavailable: %v\n", r.Err)
	} else {
		for _, k := range r.Statuses() {
			printf("%-20s : %d\n", k, r.Counts[k])
		}
	}

	if r.Download.Busy {
		printf("Download task is running (%s)\n", r.Download.FieldID)
	}
	if r.Upload.Busy {
		printf("Upload task is running (%s)\n", r.Upload.FieldID)
	}
	printf("%s\n", reportRule)

	return err
}

// API converts the report to its JSON form.
func (r Report) API() api.StatusReport {
	out := api.StatusReport{
		Cluster:     r.Cluster,
		GeneratedAt: r.Time,
		Counts:      make(map[string]int, len(r.Counts)),
		Total:       r.Total,
		Download:    r.Download.api(),
		Upload:      r.Upload.api(),
	}
	for k, v := range r.Counts {
		out.Counts[string(k)] = v
	}
	if r.Err != nil {
		msg := r.Err.Error()
		out.Error = &msg
	}
	return out
}

func (s SlotState) api() api.SlotStatus {
	if !s.Busy {
		return api.SlotStatus{}
	}
	started := s.StartedAt
	return api.SlotStatus{Busy: true, FieldID: s.FieldID, StartedAt: &started}
}
