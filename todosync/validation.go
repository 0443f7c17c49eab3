// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation marks client errors: the request never starts a batch and
// maps to a 400 at the transport layer.
var ErrValidation = errors.New("validation failed")

func validateUploadRequest(req *UploadRequest) error {
	if req == nil || strings.TrimSpace(req.DeviceID) == "" || req.Data == nil {
		return fmt.Errorf("%w: device_id and data are required", ErrValidation)
	}
	return nil
}

func validateDeviceID(deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return fmt.Errorf("%w: device_id is required", ErrValidation)
	}
	return nil
}

// batchSize counts every record in the request across entity types.
func batchSize(data *UploadData) int {
	if data == nil {
		return 0
	}
	return len(data.Tasks) + len(data.Categories)
}
