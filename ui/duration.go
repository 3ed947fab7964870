// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"time"
)

// quietSpinnerDuration is the duration below which a successful spinner
// clears its line instead of reporting the duration.
const quietSpinnerDuration = 500 * time.Millisecond

// FormatDuration formats the duration of a phase: "42ms" below one
// second, "1.25s" below one minute, "2m03.50s" beyond.
func FormatDuration(d time.Duration) string {
	d = max(d, 0)
	if ms := d.Round(time.Millisecond); ms < time.Second {
		return fmt.Sprintf("%dms", ms.Milliseconds())
	}
	d = d.Round(10 * time.Millisecond)
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	mins := d / time.Minute
	return fmt.Sprintf("%dm%05.2fs", mins, (d - mins*time.Minute).Seconds())
}
