// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// RetentionSweeper hard-deletes tombstones older than a retention window.
// Tombstone growth is unbounded by default (matching the sync protocol,
// which never garbage-collects); running a sweeper is an explicit opt-in,
// and a purged tombstone can no longer propagate its deletion to a device
// that has been offline longer than the window.
type RetentionSweeper struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	clock  Clock
	days   int
	cron   *cron.Cron
}

func NewRetentionSweeper(pool *pgxpool.Pool, logger *slog.Logger, clock Clock, days int) (*RetentionSweeper, error) {
	if days <= 0 {
		return nil, fmt.Errorf("retention window must be positive, got %d days", days)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &RetentionSweeper{
		pool:   pool,
		logger: logger,
		clock:  clock,
		days:   days,
		cron:   cron.New(),
	}, nil
}

// Start schedules a daily sweep. Stop releases the schedule.
func (rs *RetentionSweeper) Start() error {
	_, err := rs.cron.AddFunc("@daily", func() {
		if _, err := rs.SweepOnce(context.Background()); err != nil {
			rs.logger.Error("Tombstone sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule tombstone sweep: %w", err)
	}
	rs.cron.Start()
	rs.logger.Info("Tombstone retention sweeper started", "retention_days", rs.days)
	return nil
}

func (rs *RetentionSweeper) Stop() {
	ctx := rs.cron.Stop()
	<-ctx.Done()
}

// SweepOnce removes tombstones whose deleted_at is older than the window
// and returns the number of rows purged.
func (rs *RetentionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := rs.clock.Now() - int64(rs.days)*86400

	var purged int64
	for _, table := range []string{"tasks", "categories"} {
		tag, err := rs.pool.Exec(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE deleted AND deleted_at IS NOT NULL AND deleted_at < $1`, table),
			cutoff)
		if err != nil {
			return purged, fmt.Errorf("purge %s tombstones: %w", table, err)
		}
		purged += tag.RowsAffected()
	}

	rs.logger.Info("Tombstone sweep completed", "purged", purged, "cutoff", cutoff)
	return purged, nil
}
