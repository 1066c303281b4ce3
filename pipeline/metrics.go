// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	buffers   *prometheus.CounterVec
	ignored   prometheus.Counter
	busyDrops prometheus.Counter
	logged    prometheus.Counter
	published prometheus.Counter
	frozen    prometheus.Gauge
}

func newMetrics(r prometheus.Registerer) metrics {
	f := promauto.With(r)

	return metrics{
		buffers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labscope",
			Subsystem: "acquisition",
			Name:      "buffers_total",
			Help:      "Buffers received from the capture source.",
		}, []string{"channel"}),
		ignored: f.NewCounter(prometheus.CounterOpts{
			Namespace: "labscope",
			Subsystem: "acquisition",
			Name:      "ignored_buffers_total",
			Help:      "Buffers for channels that do not exist.",
		}),
		busyDrops: f.NewCounter(prometheus.CounterOpts{
			Namespace: "labscope",
			Subsystem: "logging",
			Name:      "busy_drops_total",
			Help:      "Buffers not considered for logging because an emit was in progress.",
		}),
		logged: f.NewCounter(prometheus.CounterOpts{
			Namespace: "labscope",
			Subsystem: "logging",
			Name:      "values_total",
			Help:      "Calibrated values written to the session log.",
		}),
		published: f.NewCounter(prometheus.CounterOpts{
			Namespace: "labscope",
			Subsystem: "display",
			Name:      "publishes_total",
			Help:      "Calibrated values published to the display.",
		}),
		frozen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "labscope",
			Subsystem: "display",
			Name:      "frozen",
			Help:      "1 when the waveform display is frozen.",
		}),
	}
}
