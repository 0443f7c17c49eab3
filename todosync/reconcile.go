// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"fmt"
)

// UpsertResult is the outcome of reconciling one incoming record against
// current state. On accept, Record holds the stored row; on conflict,
// Existing holds the row that won.
type UpsertResult[T Syncable] struct {
	Outcome  Outcome
	Record   T
	Existing T
}

// Reconciler applies the whole-record LWW upsert for one entity type.
type Reconciler[T Syncable] struct {
	store *Store[T]
	clock Clock
}

func NewReconciler[T Syncable](store *Store[T], clock Clock) *Reconciler[T] {
	return &Reconciler[T]{store: store, clock: clock}
}

// Upsert decides accept/reject for one incoming record. The decision and the
// write are a single conditional statement in the store, so there is no
// window between checking the stored updated_at and overwriting the row.
// A rejected conflict is a normal result, not an error.
func (r *Reconciler[T]) Upsert(ctx context.Context, q Querier, userID, deviceID string, incoming T) (UpsertResult[T], error) {
	incoming.SetOwner(userID, deviceID)
	incoming.Normalize(r.clock.Now())

	code, stored, err := r.store.Apply(ctx, q, incoming)
	if err != nil {
		return UpsertResult[T]{}, err
	}

	switch code {
	case applyInserted:
		return UpsertResult[T]{Outcome: OutcomeAcceptedNew, Record: stored}, nil
	case applyUpdated:
		return UpsertResult[T]{Outcome: OutcomeAcceptedUpdate, Record: stored}, nil
	default:
		existing, err := r.store.FindByCompositeKey(ctx, q, userID, deviceID, incoming.ClientID())
		if err != nil {
			return UpsertResult[T]{}, fmt.Errorf("load existing row for conflict: %w", err)
		}
		return UpsertResult[T]{Outcome: OutcomeRejectedConflict, Existing: existing}, nil
	}
}

// Store exposes the underlying record store for read paths.
func (r *Reconciler[T]) Store() *Store[T] {
	return r.store
}
