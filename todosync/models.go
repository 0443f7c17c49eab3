// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"database/sql/driver"
	"fmt"
)

// Syncable is the shared capability of every record that flows through the
// reconciliation engine. It is implemented by *Task and *Category.
//
// Identity is the composite key (user_id, device_id, client_id): client_id is
// assigned by the originating device and is only unique within that pair, so
// the owner fields are stamped server-side from the authenticated request
// before any record touches storage.
type Syncable interface {
	Owner() (userID, deviceID string)
	SetOwner(userID, deviceID string)
	ClientID() int64

	// LWWTimestamp is the client-supplied updated_at used as the conflict
	// authority. It is preserved verbatim by the store.
	LWWTimestamp() int64
	Tombstoned() bool

	// Normalize fills defaults on an uploaded record: a missing updated_at
	// falls back to now, missing deleted/deleted_at default to not-deleted,
	// and entity-specific defaults are applied.
	Normalize(now int64)
}

// NumBool is a boolean that travels as 0/1 on the wire. The mobile clients
// persist flags as SQLite integers and upload them as numbers; the original
// server stored and echoed them the same way, so the JSON contract is
// numeric. Incoming payloads may carry true/false as well.
type NumBool bool

func (b NumBool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (b *NumBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null", "0", "false":
		*b = false
	case "1", "true":
		*b = true
	default:
		// Tolerate any other number the way the original did: truthy wins.
		var n float64
		if _, err := fmt.Sscanf(string(data), "%g", &n); err != nil {
			return fmt.Errorf("cannot unmarshal %s into a 0/1 flag", data)
		}
		*b = n != 0
	}
	return nil
}

// Value implements driver.Valuer so the flag is stored as a real boolean.
func (b NumBool) Value() (driver.Value, error) {
	return bool(b), nil
}

// Scan implements sql.Scanner for reads back out of the store.
func (b *NumBool) Scan(src any) error {
	switch v := src.(type) {
	case bool:
		*b = NumBool(v)
	case int64:
		*b = v != 0
	case nil:
		*b = false
	default:
		return fmt.Errorf("cannot scan %T into NumBool", src)
	}
	return nil
}

// Task is a syncable todo item. Client-owned fields keep the wire names the
// mobile apps depend on; server bookkeeping fields are separate from the
// client-supplied updated_at so LWW comparisons always see the client value.
type Task struct {
	ID              int64   `json:"id,omitempty" db:"id"`
	UserID          string  `json:"user_id,omitempty" db:"user_id"`
	DeviceID        string  `json:"device_id,omitempty" db:"device_id"`
	ClientRecordID  int64   `json:"client_id" db:"client_id"`
	Title           *string `json:"title" db:"title"`
	Description     *string `json:"description" db:"description"`
	DueDate         *int64  `json:"due_date" db:"due_date"`
	IsCompleted     NumBool `json:"is_completed" db:"is_completed"`
	CompletedAt     *int64  `json:"completed_at" db:"completed_at"`
	CategoryID      *int64  `json:"category_id" db:"category_id"`
	Priority        int     `json:"priority" db:"priority"`
	UpdatedAt       int64   `json:"updated_at" db:"updated_at"`
	Deleted         NumBool `json:"deleted" db:"deleted"`
	DeletedAt       *int64  `json:"deleted_at" db:"deleted_at"`
	ServerCreatedAt int64   `json:"created_at,omitempty" db:"server_created_at"`
	ServerUpdatedAt int64   `json:"-" db:"server_updated_at"`
}

func (t *Task) Owner() (string, string)          { return t.UserID, t.DeviceID }
func (t *Task) SetOwner(userID, deviceID string) { t.UserID, t.DeviceID = userID, deviceID }
func (t *Task) ClientID() int64                  { return t.ClientRecordID }
func (t *Task) LWWTimestamp() int64              { return t.UpdatedAt }
func (t *Task) Tombstoned() bool                 { return bool(t.Deleted) }

func (t *Task) Normalize(now int64) {
	if t.Priority == 0 {
		t.Priority = 1
	}
	if t.UpdatedAt <= 0 {
		t.UpdatedAt = now
	}
	if !t.Deleted {
		t.DeletedAt = nil
	}
	if !t.IsCompleted {
		t.CompletedAt = nil
	}
}

// Category is a syncable task category.
type Category struct {
	ID              int64   `json:"id,omitempty" db:"id"`
	UserID          string  `json:"user_id,omitempty" db:"user_id"`
	DeviceID        string  `json:"device_id,omitempty" db:"device_id"`
	ClientRecordID  int64   `json:"client_id" db:"client_id"`
	Name            *string `json:"name" db:"name"`
	Color           *string `json:"color" db:"color"`
	UpdatedAt       int64   `json:"updated_at" db:"updated_at"`
	Deleted         NumBool `json:"deleted" db:"deleted"`
	DeletedAt       *int64  `json:"deleted_at" db:"deleted_at"`
	ServerCreatedAt int64   `json:"created_at,omitempty" db:"server_created_at"`
	ServerUpdatedAt int64   `json:"-" db:"server_updated_at"`
}

func (c *Category) Owner() (string, string)          { return c.UserID, c.DeviceID }
func (c *Category) SetOwner(userID, deviceID string) { c.UserID, c.DeviceID = userID, deviceID }
func (c *Category) ClientID() int64                  { return c.ClientRecordID }
func (c *Category) LWWTimestamp() int64              { return c.UpdatedAt }
func (c *Category) Tombstoned() bool                 { return bool(c.Deleted) }

func (c *Category) Normalize(now int64) {
	if c.UpdatedAt <= 0 {
		c.UpdatedAt = now
	}
	if !c.Deleted {
		c.DeletedAt = nil
	}
}

// SyncMetadataEntity is one row of per-(user, device, entity_type) sync
// bookkeeping. Counters only ever move up.
type SyncMetadataEntity struct {
	ID             int64   `db:"id"`
	UserID         string  `db:"user_id"`
	DeviceID       string  `db:"device_id"`
	EntityType     string  `db:"entity_type"`
	SyncCount      int64   `db:"sync_count"`
	ErrorCount     int64   `db:"error_count"`
	LastSyncAt     int64   `db:"last_sync_at"`
	LastSyncStatus string  `db:"last_sync_status"`
	LastError      *string `db:"last_error"`
}

// DeviceEntity is the device registry row the orchestrator touches for
// last-seen bookkeeping. Device lifecycle is owned elsewhere.
type DeviceEntity struct {
	ID         int64  `db:"id"`
	UserID     string `db:"user_id"`
	DeviceID   string `db:"device_id"`
	LastSeenAt int64  `db:"last_seen_at"`
}
