// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ProcessUpload reconciles one device's batch inside a single transaction.
//
// Records are processed in the array order the client sent, categories
// before tasks so category references land first. A per-record conflict is
// tallied, not raised; a success outcome is recorded per entity type even
// when some of its records were rejected. Any error escaping the transaction
// rolls back the whole batch and records a failed outcome for the synthetic
// "upload" entity type after the rollback.
func (s *SyncService) ProcessUpload(ctx context.Context, userID string, req *UploadRequest) (*UploadResponse, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}
	if err := validateUploadRequest(req); err != nil {
		return nil, err
	}
	if s.config.MaxUploadBatchSize > 0 && batchSize(req.Data) > s.config.MaxUploadBatchSize {
		return nil, fmt.Errorf("%w: batch too large: records=%d limit=%d",
			ErrValidation, batchSize(req.Data), s.config.MaxUploadBatchSize)
	}

	deviceID := req.DeviceID
	s.touchDeviceBestEffort(ctx, userID, deviceID)

	resp := &UploadResponse{
		Uploaded:  make(map[string]int),
		Conflicts: make(map[string]int),
	}

	totalStart := s.stageStart()
	txStart := s.stageStart()

	// REPEATABLE READ keeps the batch's reads off other writers' in-flight
	// rows; the per-record LWW write itself is a single statement, so the
	// weaker read-committed would already rule out lost updates.
	err := pgx.BeginTxFunc(ctx, s.pool,
		pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadWrite},
		func(tx pgx.Tx) error {
			if req.Data.Categories != nil {
				stageStart := s.stageStart()
				uploaded, conflicts, err := reconcileBatch(ctx, tx, s.categories, userID, deviceID, req.Data.Categories)
				s.observeStage(ctx, MetricsOpUpload, MetricsStageUploadCategories, stageStart, len(req.Data.Categories), err != nil)
				if err != nil {
					return fmt.Errorf("categories: %w", err)
				}
				resp.Uploaded[EntityCategories] = uploaded
				resp.Conflicts[EntityCategories] = conflicts
				if err := s.metadata.RecordOutcome(ctx, tx, userID, deviceID, EntityCategories, SyncStatusSuccess, nil); err != nil {
					return err
				}
			}

			if req.Data.Tasks != nil {
				stageStart := s.stageStart()
				uploaded, conflicts, err := reconcileBatch(ctx, tx, s.tasks, userID, deviceID, req.Data.Tasks)
				s.observeStage(ctx, MetricsOpUpload, MetricsStageUploadTasks, stageStart, len(req.Data.Tasks), err != nil)
				if err != nil {
					return fmt.Errorf("tasks: %w", err)
				}
				resp.Uploaded[EntityTasks] = uploaded
				resp.Conflicts[EntityTasks] = conflicts
				if err := s.metadata.RecordOutcome(ctx, tx, userID, deviceID, EntityTasks, SyncStatusSuccess, nil); err != nil {
					return err
				}
			}

			return nil
		})
	s.observeStage(ctx, MetricsOpUpload, MetricsStageUploadTx, txStart, batchSize(req.Data), err != nil)

	if err != nil {
		s.logger.Error("Sync upload failed", "error", err,
			"user_id", userID, "device_id", deviceID)
		// Recorded after the rollback so the failure survives it; its own
		// errors are logged inside recordFailureOutcome, never raised, so
		// the original error stays visible to the caller.
		s.recordFailureOutcome(ctx, userID, deviceID, EntityUpload, err)
		return nil, fmt.Errorf("upload batch failed: %w", err)
	}

	resp.SyncTimestamp = s.clock.Now()
	s.observeStage(ctx, MetricsOpUpload, MetricsStageTotal, totalStart, batchSize(req.Data), false)
	s.logger.Info("Sync upload completed",
		"user_id", userID, "device_id", deviceID,
		"uploaded", resp.Uploaded, "conflicts", resp.Conflicts)

	return resp, nil
}

// reconcileBatch runs every record of one entity type through the LWW upsert
// in client order and tallies the outcomes.
func reconcileBatch[T Syncable](ctx context.Context, tx pgx.Tx, r *Reconciler[T], userID, deviceID string, records []T) (uploaded, conflicts int, err error) {
	for i, rec := range records {
		res, err := r.Upsert(ctx, tx, userID, deviceID, rec)
		if err != nil {
			return uploaded, conflicts, fmt.Errorf("record %d (client_id=%d): %w", i, rec.ClientID(), err)
		}
		if res.Outcome.Accepted() {
			uploaded++
		} else {
			conflicts++
		}
	}
	return uploaded, conflicts, nil
}

// recordFailureOutcome writes a failed metadata row outside any transaction.
func (s *SyncService) recordFailureOutcome(ctx context.Context, userID, deviceID, entityType string, cause error) {
	if err := s.metadata.RecordOutcome(ctx, s.pool, userID, deviceID, entityType, SyncStatusFailed, cause); err != nil {
		s.logger.Warn("Failed to record sync failure outcome", "error", err,
			"user_id", userID, "device_id", deviceID, "entity_type", entityType)
	}
}
