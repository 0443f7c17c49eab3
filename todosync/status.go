// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"fmt"
)

// GetSyncStatus returns per-entity-type sync bookkeeping for one device.
// Entity types that have never synced simply don't appear in the map.
func (s *SyncService) GetSyncStatus(ctx context.Context, userID, deviceID string) (*StatusResponse, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}
	if err := validateDeviceID(deviceID); err != nil {
		return nil, err
	}

	entries, err := s.metadata.GetSyncStatus(ctx, s.pool, userID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("sync status: %w", err)
	}

	resp := &StatusResponse{
		LastSync:        make(map[string]EntitySyncStatus, len(entries)),
		ServerTimestamp: s.clock.Now(),
		// Could be derived from updated_at watermarks; the original never
		// implemented it either.
		PendingChanges: false,
	}
	for _, m := range entries {
		resp.LastSync[m.EntityType] = EntitySyncStatus{
			LastSyncAt: m.LastSyncAt,
			Status:     m.LastSyncStatus,
			SyncCount:  m.SyncCount,
			ErrorCount: m.ErrorCount,
		}
	}
	return resp, nil
}
