// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilnbuild/kiln/ui"
)

// progress reports finished steps as "[done/total] VERB target".
type progress struct {
	ui      ui.UI
	started time.Time

	mu    sync.Mutex
	done  int
	total int
}

func newProgress(u ui.UI, total int) *progress {
	return &progress{
		ui:      u,
		started: time.Now(),
		total:   total,
	}
}

// step reports a finished step.
func (p *progress) step(verb, target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.ui.PrintLines(fmt.Sprintf("%s [%d/%d] %s %s",
		ui.FormatDuration(time.Since(p.started)),
		p.done, p.total, verb, target))
}

// output prints step output below the progress line.
func (p *progress) output(msg string) {
	if msg == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ui.PrintLines("\n", "\n", msg+"\n")
}
