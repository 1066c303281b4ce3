// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Option interface {
	apply(s *Scheduler)
}

type optionFunc func(*Scheduler)

func (f optionFunc) apply(s *Scheduler) {
	f(s)
}

// UseClock provides a way to set the clock used.  This is used for testing.
func UseClock(c clock.Clock) Option {
	return optionFunc(func(s *Scheduler) {
		s.clock = c
	})
}

// TickPeriod sets the duration of one interval unit.  The default is one
// second.
func TickPeriod(d time.Duration) Option {
	return optionFunc(func(s *Scheduler) {
		if d > 0 {
			s.period = d
		}
	})
}

// OnFinalize registers the function told about every session that ends,
// either because it completed or because it was stopped.  It is called
// without any scheduler lock held.
func OnFinalize(fn func(Summary)) Option {
	return optionFunc(func(s *Scheduler) {
		s.finalize = fn
	})
}

// WithLogger sets the logger used for dropped samples and state changes.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	})
}

// WithRegisterer registers the scheduler metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return optionFunc(func(s *Scheduler) {
		s.reg = r
	})
}
