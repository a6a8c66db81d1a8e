// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui_test

import (
	"testing"
	"time"

	"github.com/kilnbuild/kiln/ui"
)

func TestFormatDuration(t *testing.T) {
	for _, tc := range []struct {
		dur  time.Duration
		want string
	}{
		{dur: 0, want: "0.00s"},
		{dur: 4 * time.Millisecond, want: "0.00s"},
		{dur: 5 * time.Millisecond, want: "0.01s"},
		{dur: 1500 * time.Millisecond, want: "1.50s"},
		{dur: 59*time.Second + 999*time.Millisecond, want: "1m00.00s"},
		{dur: 2*time.Minute + 3*time.Second, want: "2m03.00s"},
		{dur: 12*time.Minute + 34*time.Second, want: "12m34.00s"},
		{dur: time.Hour + 2*time.Second, want: "1h0m02.00s"},
		{dur: 3*time.Hour + 25*time.Minute + 45*time.Second + 120*time.Millisecond, want: "3h25m45.12s"},
	} {
		if got := ui.FormatDuration(tc.dur); got != tc.want {
			t.Errorf("ui.FormatDuration(%v)=%q; want=%q", tc.dur, got, tc.want)
		}
	}
}
