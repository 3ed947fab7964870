// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui_test

import (
	"testing"
	"time"

	"go.chromium.org/infra/build/ninja2soong/ui"
)

func TestFormatDuration(t *testing.T) {
	for _, tc := range []struct {
		dur  time.Duration
		want string
	}{
		{
			want: "0ms",
		},
		{
			dur:  -time.Second,
			want: "0ms",
		},
		{
			dur:  42*time.Millisecond + 400*time.Microsecond,
			want: "42ms",
		},
		{
			dur:  999*time.Millisecond + 600*time.Microsecond,
			want: "1.00s",
		},
		{
			dur:  1250 * time.Millisecond,
			want: "1.25s",
		},
		{
			dur:  59*time.Second + 996*time.Millisecond,
			want: "1m00.00s",
		},
		{
			dur:  2*time.Minute + 3*time.Second + 500*time.Millisecond,
			want: "2m03.50s",
		},
		{
			dur:  1*time.Hour + 12*time.Minute + 34*time.Second + 100*time.Millisecond,
			want: "72m34.10s",
		},
	} {
		got := ui.FormatDuration(tc.dur)
		if got != tc.want {
			t.Errorf("ui.FormatDuration(%v)=%q; want=%q", tc.dur, got, tc.want)
		}
	}
}
