// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// task calls fn once per period until it is stopped.
type task struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func startTask(c clock.Clock, period time.Duration, fn func()) *task {
	ctx, cancel := context.WithCancel(context.Background())
	t := task{
		cancel: cancel,
	}

	ticker := c.Ticker(period)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return &t
}

// stop cancels the task and waits for it to exit.  It must not be called
// while holding a lock fn takes.
func (t *task) stop() {
	if t == nil {
		return
	}
	t.cancel()
	t.wg.Wait()
}
