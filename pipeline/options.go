// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Option interface {
	apply(p *Pipeline)
}

type optionFunc func(*Pipeline)

func (f optionFunc) apply(p *Pipeline) {
	f(p)
}

// UseClock provides a way to set the clock used.  This is used for testing.
func UseClock(c clock.Clock) Option {
	return optionFunc(func(p *Pipeline) {
		p.clock = c
	})
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	})
}

// WithRegisterer registers the pipeline and scheduler metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return optionFunc(func(p *Pipeline) {
		p.reg = r
	})
}
