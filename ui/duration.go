// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"time"
)

// FormatDuration formats d as "1.23s", "4m05.67s" or "1h2m03.45s",
// rounded to 10ms.
func FormatDuration(d time.Duration) string {
	d = d.Round(10 * time.Millisecond)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := (d % time.Minute).Seconds()
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm%05.2fs", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%05.2fs", m, s)
	}
	return fmt.Sprintf("%.2fs", s)
}

// DurationThreshold is a duration under which a finished spinner
// leaves no line.
const DurationThreshold = 1 * time.Second
