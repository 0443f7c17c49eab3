// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

// ClientAuthenticator extracts the verified identity from HTTP requests.
// Implementations should validate auth (e.g., JWT) and provide both
// identifiers; the engine trusts the pair it receives.
type ClientAuthenticator interface {
	GetUserID(r *http.Request) (string, error)
	GetDeviceID(r *http.Request) (string, error)
}

// HTTPSyncHandlers provides the HTTP glue over the sync engine. Handlers
// parse transport concerns only and delegate everything else to the service.
type HTTPSyncHandlers struct {
	service       *SyncService
	authenticator ClientAuthenticator
	logger        *slog.Logger
}

func NewHTTPSyncHandlers(service *SyncService, authenticator ClientAuthenticator, logger *slog.Logger) *HTTPSyncHandlers {
	return &HTTPSyncHandlers{
		service:       service,
		authenticator: authenticator,
		logger:        logger,
	}
}

// HandleUpload processes a batch upload. The device_id in the body is the
// contract with existing clients; a mismatch against the token's device
// claim is logged but, as in the original service, not rejected.
func (h *HTTPSyncHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST method is allowed")
		return
	}

	userID, err := h.authenticator.GetUserID(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	var uploadReq UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&uploadReq); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse upload request")
		return
	}

	if did, err := h.authenticator.GetDeviceID(r); err == nil && did != uploadReq.DeviceID {
		h.logger.Warn("Upload device_id differs from token claim",
			"user_id", userID, "claimed", uploadReq.DeviceID, "token", did)
	}

	response, err := h.service.ProcessUpload(r.Context(), userID, &uploadReq)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			h.writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		h.logger.Error("Failed to process upload", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "upload_failed", "Failed to process upload")
		return
	}

	h.writeJSON(w, response)
}

// HandleDownload processes a download request. since=0 (or absent) means a
// full snapshot; since>0 returns the delta after that Unix-second timestamp.
func (h *HTTPSyncHandlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET method is allowed")
		return
	}

	userID, err := h.authenticator.GetUserID(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	deviceID := r.URL.Query().Get("device_id")

	// Absent, malformed, or non-positive since all mean a full snapshot,
	// matching what existing clients get from the service they sync against.
	since := int64(0)
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		if parsed, err := strconv.ParseInt(sinceStr, 10, 64); err == nil && parsed > 0 {
			since = parsed
		}
	}

	response, err := h.service.ProcessDownload(r.Context(), userID, deviceID, since)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			h.writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		h.logger.Error("Failed to process download", "error", err, "user_id", userID, "device_id", deviceID)
		h.writeError(w, http.StatusInternalServerError, "download_failed", "Failed to process download")
		return
	}

	h.writeJSON(w, response)
}

// HandleStatus returns per-entity-type sync bookkeeping for a device.
func (h *HTTPSyncHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET method is allowed")
		return
	}

	userID, err := h.authenticator.GetUserID(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	deviceID := r.URL.Query().Get("device_id")

	response, err := h.service.GetSyncStatus(r.Context(), userID, deviceID)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			h.writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		h.logger.Error("Failed to read sync status", "error", err, "user_id", userID, "device_id", deviceID)
		h.writeError(w, http.StatusInternalServerError, "status_failed", "Failed to read sync status")
		return
	}

	h.writeJSON(w, response)
}

func (h *HTTPSyncHandlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *HTTPSyncHandlers) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: errorCode, Message: message}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}

	h.logger.Debug("HTTP error response",
		"status_code", statusCode,
		"error_code", errorCode,
		"message", message)
}
