// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	sessions   prometheus.Counter
	ticks      prometheus.Counter
	overruns   prometheus.Counter
	outOfOrder prometheus.Counter
	state      prometheus.Gauge
}

// newMetrics creates the collectors, registering them with r unless r is nil.
func newMetrics(r prometheus.Registerer) metrics {
	f := promauto.With(r)

	return metrics{
		sessions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "labscope",
			Subsystem: "logging",
			Name:      "sessions_total",
			Help:      "Logging sessions started.",
		}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "labscope",
			Subsystem: "logging",
			Name:      "ticks_total",
			Help:      "Logging ticks where every channel contributed a sample.",
		}),
		overruns: f.NewCounter(prometheus.CounterOpts{
			Namespace: "labscope",
			Subsystem: "logging",
			Name:      "timer_overruns_total",
			Help:      "Timer fires dropped because the previous tick was still pending.",
		}),
		outOfOrder: f.NewCounter(prometheus.CounterOpts{
			Namespace: "labscope",
			Subsystem: "logging",
			Name:      "out_of_order_total",
			Help:      "Channel buffers ignored because lower channels were not yet sampled.",
		}),
		state: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "labscope",
			Subsystem: "logging",
			Name:      "state",
			Help:      "Scheduler state (idle=0, armed=1, sampling=2, done=3) at the moment.",
		}),
	}
}
