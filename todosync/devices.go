// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"fmt"
)

// TouchDevice upserts last-seen bookkeeping for the device association.
// First contact creates the association row; device lifecycle (naming,
// deactivation) belongs to the registry that owns the devices table.
func (s *SyncService) TouchDevice(ctx context.Context, q Querier, userID, deviceID string) error {
	now := s.clock.Now()
	_, err := q.Exec(ctx, `
INSERT INTO devices (user_id, device_id, last_seen_at, server_created_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (user_id, device_id) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at`,
		userID, deviceID, now)
	if err != nil {
		return fmt.Errorf("touch device %s: %w", deviceID, err)
	}
	return nil
}

// touchDeviceBestEffort updates last-seen without letting registry failures
// fail the sync call.
func (s *SyncService) touchDeviceBestEffort(ctx context.Context, userID, deviceID string) {
	if err := s.TouchDevice(ctx, s.pool, userID, deviceID); err != nil {
		s.logger.Warn("Device last-seen update failed", "error", err,
			"user_id", userID, "device_id", deviceID)
	}
}
