package store

import "context"

// FieldStore is the read side of the status database used by the monitor loop.
type FieldStore interface {
	// FetchClusterSnapshot returns the fields assigned to cluster, in a stable order.
	// Fields that have not been started yet are not part of a cluster snapshot.
	FetchClusterSnapshot(ctx context.Context, cluster string) ([]Field, error)

	// FetchNextPending returns the id of the next field that should be downloaded.
	// ok is false when nothing is pending.
	FetchNextPending(ctx context.Context) (id string, ok bool, err error)
}

// StatusWriter is used by collaborators (pipeline, uploader) that report
// progress back through the database. The monitor itself never writes.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id string, status Status) error
}
