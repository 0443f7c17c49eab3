// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// initializeSchemaInTx creates the sync tables if they don't exist.
//
// Timestamps are Unix seconds. updated_at is the client-supplied LWW
// authority; server_created_at/server_updated_at are server bookkeeping and
// never participate in conflict resolution. The UNIQUE composite key backs
// the single-statement ON CONFLICT apply in the store.
func (s *SyncService) initializeSchemaInTx(ctx context.Context, tx pgx.Tx) error {
	migrations := []string{
		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS tasks (
			id                BIGSERIAL PRIMARY KEY,
			user_id           TEXT    NOT NULL,
			device_id         TEXT    NOT NULL,
			client_id         BIGINT  NOT NULL,
			title             TEXT    NOT NULL,
			description       TEXT,
			due_date          BIGINT,
			is_completed      BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at      BIGINT,
			category_id       BIGINT,
			priority          INT     NOT NULL DEFAULT 1,
			updated_at        BIGINT  NOT NULL,
			deleted           BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at        BIGINT,
			server_created_at BIGINT  NOT NULL,
			server_updated_at BIGINT  NOT NULL,
			UNIQUE (user_id, device_id, client_id)
		)`,

		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS categories (
			id                BIGSERIAL PRIMARY KEY,
			user_id           TEXT    NOT NULL,
			device_id         TEXT    NOT NULL,
			client_id         BIGINT  NOT NULL,
			name              TEXT    NOT NULL,
			color             TEXT,
			updated_at        BIGINT  NOT NULL,
			deleted           BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at        BIGINT,
			server_created_at BIGINT  NOT NULL,
			server_updated_at BIGINT  NOT NULL,
			UNIQUE (user_id, device_id, client_id)
		)`,

		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS sync_metadata (
			id                BIGSERIAL PRIMARY KEY,
			user_id           TEXT   NOT NULL,
			device_id         TEXT   NOT NULL,
			entity_type       TEXT   NOT NULL,
			sync_count        BIGINT NOT NULL DEFAULT 0,
			error_count       BIGINT NOT NULL DEFAULT 0,
			last_sync_at      BIGINT NOT NULL,
			last_sync_status  TEXT   NOT NULL CHECK (last_sync_status IN ('success','failed')),
			last_error        TEXT,
			server_created_at BIGINT NOT NULL,
			server_updated_at BIGINT NOT NULL,
			UNIQUE (user_id, device_id, entity_type)
		)`,

		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS devices (
			id                BIGSERIAL PRIMARY KEY,
			user_id           TEXT   NOT NULL,
			device_id         TEXT   NOT NULL,
			last_seen_at      BIGINT NOT NULL,
			server_created_at BIGINT NOT NULL,
			UNIQUE (user_id, device_id)
		)`,

		// Read-path indexes: per-user snapshots and delta-since queries.
		`CREATE INDEX IF NOT EXISTS tasks_user_updated_idx ON tasks (user_id, updated_at)`,
		`CREATE INDEX IF NOT EXISTS categories_user_updated_idx ON categories (user_id, updated_at)`,
	}

	for i, migration := range migrations {
		if _, err := tx.Exec(ctx, migration); err != nil {
			return fmt.Errorf("schema migration %d failed: %w", i+1, err)
		}
	}
	s.logger.Debug("Sync schema initialized", "migrations", len(migrations))

	return nil
}
