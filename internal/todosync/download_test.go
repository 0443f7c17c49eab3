// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotodo/go-todosync/todosync"
)

// Download scoping: results cover the whole user, across all their devices.

func TestDownload_FullSnapshotUnionsAllDevices(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()

	h.UploadTasks(h.device1Token, h.device1ID, h.MakeTask(1, "from device 1", 1000))
	h.UploadTasks(h.device2Token, h.device2ID, h.MakeTask(1, "from device 2", 1000))

	snap, httpResp := h.DoDownload(h.device1Token, h.device1ID, 0)
	require.Equal(t, http.StatusOK, httpResp.StatusCode)
	require.Len(t, snap.Tasks, 2)
	require.Greater(t, snap.SyncTimestamp, int64(0))

	devices := map[string]bool{}
	for _, task := range snap.Tasks {
		devices[task.DeviceID] = true
	}
	require.True(t, devices[h.device1ID])
	require.True(t, devices[h.device2ID])
}

func TestDownload_DeltaIsStrictlyAfterSince(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()

	h.UploadTasks(h.device1Token, h.device1ID,
		h.MakeTask(1, "at cursor", 1000),
		h.MakeTask(2, "after cursor", 1001))

	// since is exclusive: the record at exactly 1000 does not reappear.
	delta, _ := h.DoDownload(h.device1Token, h.device1ID, 1000)
	require.Len(t, delta.Tasks, 1)
	require.Equal(t, int64(2), delta.Tasks[0].ClientRecordID)
}

func TestDownload_DeltaIncludesBothEntityTypes(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()

	h.DoUpload(h.device1Token, uploadCategories(h.device1ID, h.MakeCategory(1, "work", 2000)))
	h.UploadTasks(h.device1Token, h.device1ID, h.MakeTask(1, "write report", 2000))

	delta, _ := h.DoDownload(h.device2Token, h.device2ID, 1500)
	require.Len(t, delta.Categories, 1)
	require.Len(t, delta.Tasks, 1)
}

func TestDownload_DoesNotLeakOtherUsers(t *testing.T) {
	h1 := NewTestHarness(t)
	defer h1.Cleanup()
	h2 := NewTestHarness(t)
	defer h2.Cleanup()

	h1.UploadTasks(h1.device1Token, h1.device1ID, h1.MakeTask(1, "private", 1000))

	snap, _ := h2.DoDownload(h2.device1Token, h2.device1ID, 0)
	require.Empty(t, snap.Tasks)
}

func TestDownload_MissingDeviceIDIsRejected(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()

	_, httpResp := h.DoDownload(h.device1Token, "", 0)
	require.Equal(t, http.StatusBadRequest, httpResp.StatusCode)
}

func TestDownload_NonPositiveSinceMeansFullSnapshot(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()

	h.UploadTasks(h.device1Token, h.device1ID, h.MakeTask(1, "task", 1000))

	// Negative values coerce to a full snapshot, same as since=0.
	snap, httpResp := h.DoDownload(h.device1Token, h.device1ID, -5)
	require.Equal(t, http.StatusOK, httpResp.StatusCode)
	require.Len(t, snap.Tasks, 1)
}

func TestDownload_UnparseableSinceMeansFullSnapshot(t *testing.T) {
	h := NewTestHarness(t)
	defer h.Cleanup()

	h.UploadTasks(h.device1Token, h.device1ID, h.MakeTask(1, "task", 5000))

	req := httptest.NewRequest("GET", "/api/sync/download?device_id="+h.device1ID+"&since=abc", nil)
	req.Header.Set("Authorization", "Bearer "+h.device1Token)
	recorder := httptest.NewRecorder()
	h.server.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var snap todosync.DownloadResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&snap))
	require.Len(t, snap.Tasks, 1)
}
