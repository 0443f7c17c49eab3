// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"fmt"
)

// ProcessDownload returns the user's records for one device: the full
// snapshot when since is 0, or only rows with updated_at > since otherwise.
// Scope is the user, not the device, so every device receives the data
// written by all of the user's devices. Tombstones are always included so
// deletions propagate. Row ordering is not guaranteed.
func (s *SyncService) ProcessDownload(ctx context.Context, userID, deviceID string, since int64) (*DownloadResponse, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}
	if err := validateDeviceID(deviceID); err != nil {
		return nil, err
	}

	s.touchDeviceBestEffort(ctx, userID, deviceID)

	totalStart := s.stageStart()
	fetchStart := s.stageStart()
	resp, err := s.fetchDownload(ctx, userID, since)
	s.observeStage(ctx, MetricsOpDownload, MetricsStageDownloadFetch, fetchStart, 0, err != nil)
	if err != nil {
		s.logger.Error("Sync download failed", "error", err,
			"user_id", userID, "device_id", deviceID, "since", since)
		s.recordFailureOutcome(ctx, userID, deviceID, EntityDownload, err)
		return nil, fmt.Errorf("download failed: %w", err)
	}

	if err := s.metadata.RecordOutcome(ctx, s.pool, userID, deviceID, EntityDownload, SyncStatusSuccess, nil); err != nil {
		s.logger.Warn("Failed to record download outcome", "error", err,
			"user_id", userID, "device_id", deviceID)
	}

	resp.SyncTimestamp = s.clock.Now()
	s.observeStage(ctx, MetricsOpDownload, MetricsStageTotal, totalStart,
		len(resp.Tasks)+len(resp.Categories), false)
	s.logger.Info("Sync download completed",
		"user_id", userID, "device_id", deviceID, "since", since,
		"categories", len(resp.Categories), "tasks", len(resp.Tasks))

	return resp, nil
}

func (s *SyncService) fetchDownload(ctx context.Context, userID string, since int64) (*DownloadResponse, error) {
	resp := &DownloadResponse{}
	var err error

	if since > 0 {
		resp.Categories, err = s.categories.Store().FindUpdatedSince(ctx, s.pool, userID, since)
		if err != nil {
			return nil, err
		}
		resp.Tasks, err = s.tasks.Store().FindUpdatedSince(ctx, s.pool, userID, since)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}

	// Full snapshot includes tombstones so a fresh device can purge local
	// copies of records deleted elsewhere.
	resp.Categories, err = s.categories.Store().FindByUserID(ctx, s.pool, userID, true)
	if err != nil {
		return nil, err
	}
	resp.Tasks, err = s.tasks.Store().FindByUserID(ctx, s.pool, userID, true)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
