// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

// REST/JSON models for the sync API. Field names are part of the contract
// with the mobile clients (client_id, updated_at, is_completed, deleted, ...)
// and must not change.

// UploadRequest is a batch upload from one device.
type UploadRequest struct {
	DeviceID      string      `json:"device_id"`
	SyncTimestamp int64       `json:"sync_timestamp,omitempty"` // client's view of its last sync, informational
	Data          *UploadData `json:"data"`
}

// UploadData carries the per-entity record arrays. A nil array means the
// device has nothing for that entity type; an empty array still records a
// metadata outcome for it.
type UploadData struct {
	Tasks      []*Task     `json:"tasks"`
	Categories []*Category `json:"categories"`
}

// UploadResponse reports per-entity-type accept/conflict tallies. Only
// entity types present in the request appear in the maps.
type UploadResponse struct {
	Uploaded      map[string]int `json:"uploaded"`
	Conflicts     map[string]int `json:"conflicts"`
	SyncTimestamp int64          `json:"sync_timestamp"`
}

// DownloadResponse returns all of the user's rows across all their devices:
// the full snapshot for since=0, or the strict delta for since>0. Tombstones
// are included either way so clients can purge local copies.
type DownloadResponse struct {
	Categories    []*Category `json:"categories"`
	Tasks         []*Task     `json:"tasks"`
	SyncTimestamp int64       `json:"sync_timestamp"`
}

// EntitySyncStatus is one entity type's slice of the status response.
type EntitySyncStatus struct {
	LastSyncAt int64  `json:"last_sync_at"`
	Status     string `json:"status"`
	SyncCount  int64  `json:"sync_count"`
	ErrorCount int64  `json:"error_count"`
}

// StatusResponse maps entity types to their sync bookkeeping.
type StatusResponse struct {
	LastSync        map[string]EntitySyncStatus `json:"last_sync"`
	ServerTimestamp int64                       `json:"server_timestamp"`
	PendingChanges  bool                        `json:"pending_changes"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
