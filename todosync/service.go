// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceConfig holds configuration for the sync service.
type ServiceConfig struct {
	AppName string // Application name for logging and connection tracking

	// MaxUploadBatchSize caps the total record count of one upload across all
	// entity types (0 = unlimited). Oversized batches are rejected before the
	// transaction starts.
	MaxUploadBatchSize int

	StageMetrics    StageMetricsRecorder // Optional stage timing sink
	LogStageTimings bool                 // Log stage timings at debug level
}

// SyncService is the reconciliation engine: it owns the store handles and
// coordinates upload/download cycles. Construct it once and share it across
// requests; every call re-reads current state from the store, nothing is
// cached between calls.
type SyncService struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	config *ServiceConfig
	clock  Clock

	tasks      *Reconciler[*Task]
	categories *Reconciler[*Category]
	metadata   *MetadataTracker

	mu     sync.RWMutex
	closed bool
}

// NewSyncService creates a sync service from an existing pool and
// initializes the schema. The pool's lifecycle stays with the caller.
func NewSyncService(pool *pgxpool.Pool, config *ServiceConfig, logger *slog.Logger) (*SyncService, error) {
	if config == nil {
		config = &ServiceConfig{AppName: "go-todosync"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	clock := Clock(SystemClock{})
	service := &SyncService{
		pool:       pool,
		logger:     logger,
		config:     config,
		clock:      clock,
		tasks:      NewReconciler(NewStore(TaskTableSpec(), clock), clock),
		categories: NewReconciler(NewStore(CategoryTableSpec(), clock), clock),
		metadata:   NewMetadataTracker(clock),
	}

	ctx := context.Background()
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return service.initializeSchemaInTx(ctx, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sync service: %w", err)
	}

	return service, nil
}

// Close shuts down the sync service. Safe to call multiple times; the
// database pool is not closed, the caller owns it.
func (s *SyncService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Debug("Sync service shut down")
	return nil
}

// Pool returns the underlying connection pool for advanced callers.
func (s *SyncService) Pool() *pgxpool.Pool {
	return s.pool
}

// Clock returns the service clock.
func (s *SyncService) Clock() Clock {
	return s.clock
}

// WithClock replaces the service clock and rebuilds the stores around it.
// Intended for tests that need deterministic timestamps.
func (s *SyncService) WithClock(clock Clock) *SyncService {
	s.clock = clock
	s.tasks = NewReconciler(NewStore(TaskTableSpec(), clock), clock)
	s.categories = NewReconciler(NewStore(CategoryTableSpec(), clock), clock)
	s.metadata = NewMetadataTracker(clock)
	return s
}

func (s *SyncService) checkClosed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return errors.New("sync service has been closed")
	}
	return nil
}
