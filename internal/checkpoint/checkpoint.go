package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/twinbridge/twinbridge-core/internal/infrastructure/database"
)

// Store persists per-partition stream cursors in the local database.
// A cursor is the enqueued time of the last fully processed event;
// anything at or before it has already been written downstream and is
// skipped on redelivery.
//
// Safe for concurrent use: the underlying database serialises writers.
type Store struct {
	db *database.DB
}

// NewStore builds a checkpoint store over an opened and migrated
// local database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Position returns the cursor for one partition. ok is false when the
// partition has never been checkpointed.
func (s *Store) Position(ctx context.Context, partition string) (position time.Time, ok bool, err error) {
	var ns int64
	err = s.db.QueryRowContext(ctx,
		"SELECT position_ns FROM stream_checkpoints WHERE partition_id = ?",
		partition,
	).Scan(&ns)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading checkpoint for partition %q: %w", partition, err)
	}
	return time.Unix(0, ns).UTC(), true, nil
}

// Advance moves the cursor for one partition forward. Positions never
// move backwards: an older position than the stored one is a no-op, so
// out-of-order redeliveries cannot rewind the cursor.
func (s *Store) Advance(ctx context.Context, partition string, position time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stream_checkpoints (partition_id, position_ns, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(partition_id) DO UPDATE SET
			position_ns = excluded.position_ns,
			updated_at = excluded.updated_at
		WHERE excluded.position_ns > stream_checkpoints.position_ns
	`,
		partition,
		position.UnixNano(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("advancing checkpoint for partition %q: %w", partition, err)
	}
	return nil
}

// Positions returns the cursors of every checkpointed partition, for
// the status endpoint.
func (s *Store) Positions(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		"SELECT partition_id, position_ns FROM stream_checkpoints",
	)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	defer rows.Close()

	positions := make(map[string]time.Time)
	for rows.Next() {
		var partition string
		var ns int64
		if err := rows.Scan(&partition, &ns); err != nil {
			return nil, fmt.Errorf("scanning checkpoint row: %w", err)
		}
		positions[partition] = time.Unix(0, ns).UTC()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating checkpoints: %w", err)
	}
	return positions, nil
}
