// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"fmt"
)

// MetadataTracker keeps durable per-(user, device, entity_type) sync
// bookkeeping. Rows are created on first sync attempt and updated in place
// afterwards; sync_count and error_count only ever increase.
type MetadataTracker struct {
	clock Clock
}

func NewMetadataTracker(clock Clock) *MetadataTracker {
	return &MetadataTracker{clock: clock}
}

// RecordOutcome bumps the counters for one reconciliation attempt. It is a
// single upsert so concurrent batches for the same triple cannot lose an
// increment. syncErr is stored as last_error only for failed outcomes.
func (t *MetadataTracker) RecordOutcome(ctx context.Context, q Querier, userID, deviceID, entityType, status string, syncErr error) error {
	var lastError *string
	if syncErr != nil {
		msg := syncErr.Error()
		lastError = &msg
	}

	now := t.clock.Now()
	_, err := q.Exec(ctx, `
INSERT INTO sync_metadata
    (user_id, device_id, entity_type, sync_count, error_count,
     last_sync_at, last_sync_status, last_error, server_created_at, server_updated_at)
VALUES ($1, $2, $3, 1, CASE WHEN $4 = 'failed' THEN 1 ELSE 0 END, $5, $4, $6, $5, $5)
ON CONFLICT (user_id, device_id, entity_type) DO UPDATE SET
    sync_count        = sync_metadata.sync_count + 1,
    error_count       = sync_metadata.error_count +
                        CASE WHEN EXCLUDED.last_sync_status = 'failed' THEN 1 ELSE 0 END,
    last_sync_at      = EXCLUDED.last_sync_at,
    last_sync_status  = EXCLUDED.last_sync_status,
    last_error        = EXCLUDED.last_error,
    server_updated_at = EXCLUDED.server_updated_at`,
		userID, deviceID, entityType, status, now, lastError)
	if err != nil {
		return fmt.Errorf("record sync outcome %s/%s: %w", entityType, status, err)
	}
	return nil
}

// GetSyncStatus returns all metadata rows for a (user, device) pair, one per
// entity type that has ever synced.
func (t *MetadataTracker) GetSyncStatus(ctx context.Context, q Querier, userID, deviceID string) ([]SyncMetadataEntity, error) {
	rows, err := q.Query(ctx, `
SELECT id, user_id, device_id, entity_type, sync_count, error_count,
       last_sync_at, last_sync_status, last_error
FROM sync_metadata
WHERE user_id = $1 AND device_id = $2`,
		userID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("query sync metadata: %w", err)
	}
	defer rows.Close()

	var out []SyncMetadataEntity
	for rows.Next() {
		var m SyncMetadataEntity
		if err := rows.Scan(&m.ID, &m.UserID, &m.DeviceID, &m.EntityType,
			&m.SyncCount, &m.ErrorCount, &m.LastSyncAt, &m.LastSyncStatus, &m.LastError); err != nil {
			return nil, fmt.Errorf("scan sync metadata row: %w", err)
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("read sync metadata rows: %w", rows.Err())
	}
	return out, nil
}
