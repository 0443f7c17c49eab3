// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so store reads can
// run on the pool while batch writes run inside the orchestrator's
// transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TableSpec describes one syncable table to the generic store: the mutable
// columns written on every accept, and how to bind them to the entity struct.
type TableSpec[T Syncable] struct {
	Table string

	// Columns are the client-owned columns in write order: entity fields
	// followed by updated_at, deleted, deleted_at. Key and server bookkeeping
	// columns are handled by the store itself.
	Columns []string

	New func() T

	// Args returns the values for Columns, same order.
	Args func(rec T) []any

	// Dest returns scan destinations for a full row read:
	// id, user_id, device_id, client_id, Columns..., server_created_at,
	// server_updated_at.
	Dest func(rec T) []any
}

// Result codes of the store's atomic apply.
type applyCode int

const (
	applyInserted applyCode = iota // first row for the composite key
	applyUpdated                   // overwritten in place, LWW won or tied
	applyStale                     // LWW lost; row untouched
)

// Store is composite-key persistence for one syncable table. Exactly one
// current row exists per (user_id, device_id, client_id); Apply either
// inserts the first, overwrites it in place, or leaves it alone.
type Store[T Syncable] struct {
	spec  TableSpec[T]
	clock Clock

	selectList string
	findSQL    string
	insertSQL  string
	updateSQL  string
	applySQL   string
}

func NewStore[T Syncable](spec TableSpec[T], clock Clock) *Store[T] {
	st := &Store[T]{spec: spec, clock: clock}
	st.selectList = "id, user_id, device_id, client_id, " +
		strings.Join(spec.Columns, ", ") + ", server_created_at, server_updated_at"

	st.findSQL = fmt.Sprintf(
		`SELECT %s FROM %s WHERE user_id = $1 AND device_id = $2 AND client_id = $3`,
		st.selectList, spec.Table)

	insertCols := "user_id, device_id, client_id, " + strings.Join(spec.Columns, ", ") +
		", server_created_at, server_updated_at"
	n := 3 + len(spec.Columns) + 2
	st.insertSQL = fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		spec.Table, insertCols, placeholders(1, n), st.selectList)

	sets := make([]string, 0, len(spec.Columns)+1)
	for i, col := range spec.Columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+4))
	}
	sets = append(sets, fmt.Sprintf("server_updated_at = $%d", len(spec.Columns)+4))
	st.updateSQL = fmt.Sprintf(
		`UPDATE %s SET %s WHERE user_id = $1 AND device_id = $2 AND client_id = $3`,
		spec.Table, strings.Join(sets, ", "))

	// Single-statement LWW apply. The existence check, the insert, and the
	// conditional overwrite are one atomic write, so two concurrent uploads
	// for the same composite key cannot interleave a check with a write. The
	// ">=" keeps equal-timestamp re-submissions idempotent (incoming wins).
	// No row back means the incoming record lost the comparison.
	excluded := make([]string, 0, len(spec.Columns)+1)
	for _, col := range spec.Columns {
		excluded = append(excluded, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	excluded = append(excluded, "server_updated_at = EXCLUDED.server_updated_at")
	st.applySQL = fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
ON CONFLICT (user_id, device_id, client_id) DO UPDATE SET %s
WHERE EXCLUDED.updated_at >= %s.updated_at
RETURNING (xmax = 0) AS inserted, %s`,
		spec.Table, insertCols, placeholders(1, n),
		strings.Join(excluded, ", "), spec.Table, st.selectList)

	return st
}

func placeholders(start, count int) string {
	parts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		parts = append(parts, fmt.Sprintf("$%d", start+i))
	}
	return strings.Join(parts, ", ")
}

// FindByCompositeKey returns the current row for the triple, or the zero
// value when absent.
func (st *Store[T]) FindByCompositeKey(ctx context.Context, q Querier, userID, deviceID string, clientID int64) (T, error) {
	rec := st.spec.New()
	err := q.QueryRow(ctx, st.findSQL, userID, deviceID, clientID).Scan(st.spec.Dest(rec)...)
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, nil
		}
		return zero, fmt.Errorf("find %s by composite key: %w", st.spec.Table, err)
	}
	return rec, nil
}

// Insert writes the first row for a composite key. The server assigns the
// primary id and the server_created_at/server_updated_at bookkeeping pair;
// the client-supplied updated_at is stored verbatim for future LWW
// comparisons.
func (st *Store[T]) Insert(ctx context.Context, q Querier, rec T) (T, error) {
	now := st.clock.Now()
	args := st.keyArgs(rec)
	args = append(args, st.spec.Args(rec)...)
	args = append(args, now, now)
	if err := q.QueryRow(ctx, st.insertSQL, args...).Scan(st.spec.Dest(rec)...); err != nil {
		var zero T
		return zero, fmt.Errorf("insert %s: %w", st.spec.Table, err)
	}
	return rec, nil
}

// UpdateInPlace overwrites the client-owned columns of the row matched by
// the composite key. It is a silent no-op when no row matches; callers must
// have confirmed existence first. The reconciler does not use this for the
// hot path precisely because of that check-then-write gap; it exists for
// callers that already hold the row.
func (st *Store[T]) UpdateInPlace(ctx context.Context, q Querier, userID, deviceID string, clientID int64, rec T) error {
	args := []any{userID, deviceID, clientID}
	args = append(args, st.spec.Args(rec)...)
	args = append(args, st.clock.Now())
	if _, err := q.Exec(ctx, st.updateSQL, args...); err != nil {
		return fmt.Errorf("update %s in place: %w", st.spec.Table, err)
	}
	return nil
}

// Apply runs the atomic insert-or-LWW-overwrite for a normalized record and
// returns the stored row for the composite key when the write was accepted.
func (st *Store[T]) Apply(ctx context.Context, q Querier, rec T) (applyCode, T, error) {
	now := st.clock.Now()
	args := st.keyArgs(rec)
	args = append(args, st.spec.Args(rec)...)
	args = append(args, now, now)

	stored := st.spec.New()
	dest := append([]any{new(bool)}, st.spec.Dest(stored)...)
	inserted := dest[0].(*bool)
	err := q.QueryRow(ctx, st.applySQL, args...).Scan(dest...)
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return applyStale, zero, nil
		}
		return applyStale, zero, fmt.Errorf("apply %s: %w", st.spec.Table, err)
	}
	if *inserted {
		return applyInserted, stored, nil
	}
	return applyUpdated, stored, nil
}

// FindByUserID returns every row owned by the user across all their devices.
// Tombstones are filtered out unless includeDeleted is set. No ordering is
// guaranteed.
func (st *Store[T]) FindByUserID(ctx context.Context, q Querier, userID string, includeDeleted bool) ([]T, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1`, st.selectList, st.spec.Table)
	if !includeDeleted {
		sql += " AND NOT deleted"
	}
	return st.collect(ctx, q, sql, userID)
}

// FindUpdatedSince returns the user's rows with updated_at strictly greater
// than since, tombstones included so deletions propagate.
func (st *Store[T]) FindUpdatedSince(ctx context.Context, q Querier, userID string, since int64) ([]T, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 AND updated_at > $2`, st.selectList, st.spec.Table)
	return st.collect(ctx, q, sql, userID, since)
}

func (st *Store[T]) collect(ctx context.Context, q Querier, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", st.spec.Table, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		rec := st.spec.New()
		if err := rows.Scan(st.spec.Dest(rec)...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", st.spec.Table, err)
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("read %s rows: %w", st.spec.Table, rows.Err())
	}
	return out, nil
}

func (st *Store[T]) keyArgs(rec T) []any {
	userID, deviceID := rec.Owner()
	return []any{userID, deviceID, rec.ClientID()}
}
