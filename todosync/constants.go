// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

// Entity type constants used in sync metadata rows
const (
	EntityTasks      = "tasks"
	EntityCategories = "categories"

	// Synthetic entity types: "upload" records batch-level upload failures,
	// "download" records the whole download operation.
	EntityUpload   = "upload"
	EntityDownload = "download"
)

// Sync status constants
const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// Outcome is the per-record result of a reconciliation upsert.
type Outcome int

const (
	// OutcomeAcceptedNew means no row existed for the composite key and the
	// incoming record was inserted.
	OutcomeAcceptedNew Outcome = iota

	// OutcomeAcceptedUpdate means the incoming record's updated_at was >= the
	// stored value and the row was overwritten in place.
	OutcomeAcceptedUpdate

	// OutcomeRejectedConflict means the incoming record lost the LWW
	// comparison. Rejection is a normal outcome, not an error.
	OutcomeRejectedConflict
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAcceptedNew:
		return "accepted_new"
	case OutcomeAcceptedUpdate:
		return "accepted_update"
	case OutcomeRejectedConflict:
		return "rejected_conflict"
	default:
		return "unknown"
	}
}

// Accepted reports whether the record was applied (inserted or overwritten).
func (o Outcome) Accepted() bool {
	return o == OutcomeAcceptedNew || o == OutcomeAcceptedUpdate
}
