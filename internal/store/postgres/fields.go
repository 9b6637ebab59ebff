package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ddfmonitor/internal/store"

	"github.com/lib/pq"
)

// unassigned statuses never show up in a cluster snapshot.
var unassigned = []string{string(store.StatusNotStarted)}

// FetchClusterSnapshot returns every started field assigned to cluster, ordered by id.
func (s *Store) FetchClusterSnapshot(ctx context.Context, cluster string) ([]store.Field, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, clustername, priority, ra, decl, updated_at
		FROM fields
		WHERE clustername = $1 AND status <> ALL($2)
		ORDER BY id ASC
	`, cluster, pq.Array(unassigned))
	if err != nil {
		return nil, fmt.Errorf("snapshot query for cluster %s failed: %w", cluster, err)
	}
	defer rows.Close()

	var fields []store.Field
	for rows.Next() {
		var f store.Field
		var clusterName sql.NullString
		if err := rows.Scan(&f.ID, &f.Status, &clusterName, &f.Priority, &f.Location.RA, &f.Location.Dec, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("snapshot scan failed: %w", err)
		}
		f.Cluster = clusterName.String
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot rows error: %w", err)
	}

	return fields, nil
}

// FetchNextPending picks the highest priority field that has not been started.
func (s *Store) FetchNextPending(ctx context.Context) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM fields
		WHERE status = $1
		ORDER BY priority DESC, id ASC
		LIMIT 1
	`, store.StatusNotStarted).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("next pending query failed: %w", err)
	}

	return id, true, nil
}

// UpdateStatus sets the status of a single field.
func (s *Store) UpdateStatus(ctx context.Context, id string, status store.Status) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		UPDATE fields
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of field %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("field %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
