// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

// newUnitService builds a service with no database pool. Only paths that
// reject before touching storage may run against it.
func newUnitService(config *ServiceConfig) *SyncService {
	clock := Clock(SystemClock{})
	return &SyncService{
		config:     config,
		logger:     slog.Default(),
		clock:      clock,
		tasks:      NewReconciler(NewStore(TaskTableSpec(), clock), clock),
		categories: NewReconciler(NewStore(CategoryTableSpec(), clock), clock),
		metadata:   NewMetadataTracker(clock),
	}
}

func TestProcessUpload_RejectsMissingDeviceID(t *testing.T) {
	svc := newUnitService(&ServiceConfig{})

	_, err := svc.ProcessUpload(context.Background(), "user-1", &UploadRequest{
		DeviceID: "  ",
		Data:     &UploadData{},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessUpload_RejectsMissingData(t *testing.T) {
	svc := newUnitService(&ServiceConfig{})

	_, err := svc.ProcessUpload(context.Background(), "user-1", &UploadRequest{
		DeviceID: "device-1",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.ProcessUpload(context.Background(), "user-1", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for nil request, got %v", err)
	}
}

func TestProcessUpload_BatchTooLargeIsRejected(t *testing.T) {
	svc := newUnitService(&ServiceConfig{MaxUploadBatchSize: 2})

	title := "t"
	req := &UploadRequest{
		DeviceID: "device-1",
		Data: &UploadData{
			Tasks: []*Task{
				{ClientRecordID: 1, Title: &title, UpdatedAt: 1},
				{ClientRecordID: 2, Title: &title, UpdatedAt: 1},
			},
			Categories: []*Category{
				{ClientRecordID: 1, Name: &title, UpdatedAt: 1},
			},
		},
	}

	_, err := svc.ProcessUpload(context.Background(), "user-1", req)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected batch to be rejected when over limit, got %v", err)
	}
}

func TestProcessDownload_RejectsMissingDeviceID(t *testing.T) {
	svc := newUnitService(&ServiceConfig{})

	_, err := svc.ProcessDownload(context.Background(), "user-1", "", 0)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSyncService_CloseRejectsFurtherCalls(t *testing.T) {
	svc := newUnitService(&ServiceConfig{})

	if err := svc.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}

	_, err := svc.ProcessUpload(context.Background(), "user-1", &UploadRequest{
		DeviceID: "device-1",
		Data:     &UploadData{},
	})
	if err == nil {
		t.Fatal("expected error after close")
	}

	_, err = svc.ProcessDownload(context.Background(), "user-1", "device-1", 0)
	if err == nil {
		t.Fatal("expected error after close")
	}
}

func TestBatchSize(t *testing.T) {
	if got := batchSize(nil); got != 0 {
		t.Errorf("nil data: expected 0, got %d", got)
	}
	data := &UploadData{
		Tasks:      []*Task{{}, {}},
		Categories: []*Category{{}},
	}
	if got := batchSize(data); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}
