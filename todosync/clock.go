// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import "time"

// Clock supplies Unix-second timestamps. All sync bookkeeping reads time
// through it so tests can pin the current instant. Client-supplied
// updated_at values are never generated here; the clock only provides the
// fallback when a record arrives without one, plus last_sync_at and the
// sync_timestamp echoed in responses.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// FixedClock always returns the same instant.
type FixedClock int64

func (c FixedClock) Now() int64 {
	return int64(c)
}
