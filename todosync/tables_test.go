// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"strings"
	"testing"
)

// The generic store builds its SQL from the table spec, so the Args and Dest
// slices must line up with Columns exactly or values land in the wrong
// columns.

func TestTaskTableSpec_Alignment(t *testing.T) {
	spec := TaskTableSpec()
	task := spec.New()

	if got := len(spec.Args(task)); got != len(spec.Columns) {
		t.Errorf("Args length %d must match Columns length %d", got, len(spec.Columns))
	}
	// id, user_id, device_id, client_id + columns + server_created_at, server_updated_at
	wantDest := len(spec.Columns) + 6
	if got := len(spec.Dest(task)); got != wantDest {
		t.Errorf("Dest length %d must be %d", got, wantDest)
	}
}

func TestCategoryTableSpec_Alignment(t *testing.T) {
	spec := CategoryTableSpec()
	cat := spec.New()

	if got := len(spec.Args(cat)); got != len(spec.Columns) {
		t.Errorf("Args length %d must match Columns length %d", got, len(spec.Columns))
	}
	wantDest := len(spec.Columns) + 6
	if got := len(spec.Dest(cat)); got != wantDest {
		t.Errorf("Dest length %d must be %d", got, wantDest)
	}
}

func TestStore_ApplySQLShape(t *testing.T) {
	store := NewStore(TaskTableSpec(), SystemClock{})

	sql := store.applySQL
	if !strings.Contains(sql, "ON CONFLICT (user_id, device_id, client_id)") {
		t.Error("apply statement must target the composite key")
	}
	if !strings.Contains(sql, "EXCLUDED.updated_at >= tasks.updated_at") {
		t.Error("apply statement must keep the incoming-wins tie-break")
	}
	if !strings.Contains(sql, "RETURNING (xmax = 0)") {
		t.Error("apply statement must report insert vs update")
	}
}

func TestStore_SelectListOrderMatchesDest(t *testing.T) {
	store := NewStore(TaskTableSpec(), SystemClock{})

	wantPrefix := "id, user_id, device_id, client_id, title"
	if !strings.HasPrefix(store.selectList, wantPrefix) {
		t.Errorf("select list must start with the key columns, got %q", store.selectList)
	}
	if !strings.HasSuffix(store.selectList, "server_created_at, server_updated_at") {
		t.Errorf("select list must end with the server bookkeeping pair, got %q", store.selectList)
	}
}
