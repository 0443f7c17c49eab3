// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

// TaskTableSpec binds the tasks table to the generic store.
func TaskTableSpec() TableSpec[*Task] {
	return TableSpec[*Task]{
		Table: "tasks",
		Columns: []string{
			"title", "description", "due_date", "is_completed", "completed_at",
			"category_id", "priority", "updated_at", "deleted", "deleted_at",
		},
		New: func() *Task { return &Task{} },
		Args: func(t *Task) []any {
			return []any{
				t.Title, t.Description, t.DueDate, t.IsCompleted, t.CompletedAt,
				t.CategoryID, t.Priority, t.UpdatedAt, t.Deleted, t.DeletedAt,
			}
		},
		Dest: func(t *Task) []any {
			return []any{
				&t.ID, &t.UserID, &t.DeviceID, &t.ClientRecordID,
				&t.Title, &t.Description, &t.DueDate, &t.IsCompleted, &t.CompletedAt,
				&t.CategoryID, &t.Priority, &t.UpdatedAt, &t.Deleted, &t.DeletedAt,
				&t.ServerCreatedAt, &t.ServerUpdatedAt,
			}
		},
	}
}

// CategoryTableSpec binds the categories table to the generic store.
func CategoryTableSpec() TableSpec[*Category] {
	return TableSpec[*Category]{
		Table: "categories",
		Columns: []string{
			"name", "color", "updated_at", "deleted", "deleted_at",
		},
		New: func() *Category { return &Category{} },
		Args: func(c *Category) []any {
			return []any{c.Name, c.Color, c.UpdatedAt, c.Deleted, c.DeletedAt}
		},
		Dest: func(c *Category) []any {
			return []any{
				&c.ID, &c.UserID, &c.DeviceID, &c.ClientRecordID,
				&c.Name, &c.Color, &c.UpdatedAt, &c.Deleted, &c.DeletedAt,
				&c.ServerCreatedAt, &c.ServerUpdatedAt,
			}
		},
	}
}
