// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/dotodo/go-todosync/todosync"
)

// TestHarness runs tests against a real PostgreSQL database. Every harness
// gets a fresh random user ID, so tests are isolated from each other without
// truncation.
type TestHarness struct {
	t       *testing.T
	ctx     context.Context
	pool    *pgxpool.Pool
	service *todosync.SyncService
	server  *Server
	jwtAuth *todosync.JWTAuth

	userID       string
	device1ID    string
	device2ID    string
	device1Token string
	device2Token string
}

func NewTestHarness(t *testing.T) *TestHarness {
	return NewTestHarnessWithConfig(t, nil)
}

// NewTestHarnessWithConfig allows overriding service config for tests
// (e.g., batch limits).
func NewTestHarnessWithConfig(t *testing.T, mutate func(cfg *todosync.ServiceConfig)) *TestHarness {
	ctx := context.Background()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	pool, err := pgxpool.New(ctx, databaseURL)
	require.NoError(t, err)

	cfg := &todosync.ServiceConfig{AppName: "go-todosync-test"}
	if mutate != nil {
		mutate(cfg)
	}

	service, err := todosync.NewSyncService(pool, cfg, logger)
	require.NoError(t, err)

	jwtAuth := todosync.NewJWTAuth("test-secret-key")
	server := NewServer(service, jwtAuth, logger)

	userID := "user-" + uuid.New().String()
	device1ID := "device1-" + uuid.New().String()
	device2ID := "device2-" + uuid.New().String()

	device1Token, err := jwtAuth.GenerateToken(userID, device1ID, time.Hour)
	require.NoError(t, err)
	device2Token, err := jwtAuth.GenerateToken(userID, device2ID, time.Hour)
	require.NoError(t, err)

	return &TestHarness{
		t:            t,
		ctx:          ctx,
		pool:         pool,
		service:      service,
		server:       server,
		jwtAuth:      jwtAuth,
		userID:       userID,
		device1ID:    device1ID,
		device2ID:    device2ID,
		device1Token: device1Token,
		device2Token: device2Token,
	}
}

func (h *TestHarness) Cleanup() {
	if h.service != nil {
		h.service.Close()
	}
	if h.pool != nil {
		h.pool.Close()
	}
}

// DoUpload performs an upload request through the full HTTP stack.
func (h *TestHarness) DoUpload(token string, req *todosync.UploadRequest) (*todosync.UploadResponse, *http.Response) {
	body, err := json.Marshal(req)
	require.NoError(h.t, err)

	httpReq := httptest.NewRequest("POST", "/api/sync/upload", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	recorder := httptest.NewRecorder()
	h.server.ServeHTTP(recorder, httpReq)

	var uploadResp todosync.UploadResponse
	if recorder.Code == http.StatusOK {
		require.NoError(h.t, json.NewDecoder(recorder.Body).Decode(&uploadResp))
	}
	return &uploadResp, recorder.Result()
}

// DoDownload performs a download request.
func (h *TestHarness) DoDownload(token, deviceID string, since int64) (*todosync.DownloadResponse, *http.Response) {
	url := fmt.Sprintf("/api/sync/download?device_id=%s&since=%d", deviceID, since)
	httpReq := httptest.NewRequest("GET", url, nil)
	httpReq.Header.Set("Authorization", "Bearer "+token)

	recorder := httptest.NewRecorder()
	h.server.ServeHTTP(recorder, httpReq)

	var downloadResp todosync.DownloadResponse
	if recorder.Code == http.StatusOK {
		require.NoError(h.t, json.NewDecoder(recorder.Body).Decode(&downloadResp))
	}
	return &downloadResp, recorder.Result()
}

// DoStatus performs a status request.
func (h *TestHarness) DoStatus(token, deviceID string) (*todosync.StatusResponse, *http.Response) {
	httpReq := httptest.NewRequest("GET", "/api/sync/status?device_id="+deviceID, nil)
	httpReq.Header.Set("Authorization", "Bearer "+token)

	recorder := httptest.NewRecorder()
	h.server.ServeHTTP(recorder, httpReq)

	var statusResp todosync.StatusResponse
	if recorder.Code == http.StatusOK {
		require.NoError(h.t, json.NewDecoder(recorder.Body).Decode(&statusResp))
	}
	return &statusResp, recorder.Result()
}

// MakeTask builds an upload-ready task owned by the harness user.
func (h *TestHarness) MakeTask(clientID int64, title string, updatedAt int64) *todosync.Task {
	return &todosync.Task{
		ClientRecordID: clientID,
		Title:          &title,
		UpdatedAt:      updatedAt,
	}
}

// MakeCategory builds an upload-ready category.
func (h *TestHarness) MakeCategory(clientID int64, name string, updatedAt int64) *todosync.Category {
	return &todosync.Category{
		ClientRecordID: clientID,
		Name:           &name,
		UpdatedAt:      updatedAt,
	}
}

// UploadTasks is shorthand for a single-entity-type upload from device 1.
func (h *TestHarness) UploadTasks(token, deviceID string, tasks ...*todosync.Task) *todosync.UploadResponse {
	resp, httpResp := h.DoUpload(token, &todosync.UploadRequest{
		DeviceID: deviceID,
		Data:     &todosync.UploadData{Tasks: tasks},
	})
	require.Equal(h.t, http.StatusOK, httpResp.StatusCode)
	return resp
}

// TaskRowCount counts stored task rows for one composite key.
func (h *TestHarness) TaskRowCount(deviceID string, clientID int64) int {
	var n int
	err := h.pool.QueryRow(h.ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND device_id = $2 AND client_id = $3`,
		h.userID, deviceID, clientID).Scan(&n)
	require.NoError(h.t, err)
	return n
}

// StoredTaskTitle reads the current title for one composite key.
func (h *TestHarness) StoredTaskTitle(deviceID string, clientID int64) string {
	var title string
	err := h.pool.QueryRow(h.ctx,
		`SELECT title FROM tasks WHERE user_id = $1 AND device_id = $2 AND client_id = $3`,
		h.userID, deviceID, clientID).Scan(&title)
	require.NoError(h.t, err)
	return title
}

// MetadataRow reads the sync bookkeeping for one entity type.
func (h *TestHarness) MetadataRow(deviceID, entityType string) (syncCount, errorCount int64, status string) {
	err := h.pool.QueryRow(h.ctx,
		`SELECT sync_count, error_count, last_sync_status FROM sync_metadata
		 WHERE user_id = $1 AND device_id = $2 AND entity_type = $3`,
		h.userID, deviceID, entityType).Scan(&syncCount, &errorCount, &status)
	require.NoError(h.t, err)
	return syncCount, errorCount, status
}
