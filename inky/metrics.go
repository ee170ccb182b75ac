// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package inky

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// driverMetrics holds the Prometheus collectors a Driver reports refresh
// activity through. A nil *driverMetrics is always safe to call observeRefresh
// and observeFailure on: both methods return early on a nil receiver, so
// Drivers call them unconditionally and metrics stay fully optional.
type driverMetrics struct {
	refreshes       prometheus.Counter
	refreshFailures prometheus.Counter
	refreshDuration prometheus.Histogram
}

// newDriverMetrics builds a driverMetrics and registers it against reg. reg
// may be nil, in which case newDriverMetrics returns nil and every Driver
// skips metric collection entirely.
func newDriverMetrics(reg prometheus.Registerer, variant string) *driverMetrics {
	if reg == nil {
		return nil
	}
	labels := prometheus.Labels{"variant": variant}
	m := &driverMetrics{
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "inky",
			Name:        "refreshes_total",
			Help:        "Number of completed panel refreshes.",
			ConstLabels: labels,
		}),
		refreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "inky",
			Name:        "refresh_failures_total",
			Help:        "Number of panel refreshes that returned an error.",
			ConstLabels: labels,
		}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "inky",
			Name:        "refresh_duration_seconds",
			Help:        "Wall-clock duration of a full panel refresh, including the busy-wait.",
			ConstLabels: labels,
			Buckets:     []float64{0.5, 1, 2, 5, 10, 15, 20, 30, 45, 60},
		}),
	}
	reg.MustRegister(m.refreshes, m.refreshFailures, m.refreshDuration)
	return m
}

func (m *driverMetrics) observeRefresh(d time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.Inc()
	m.refreshDuration.Observe(d.Seconds())
}

func (m *driverMetrics) observeFailure() {
	if m == nil {
		return
	}
	m.refreshFailures.Inc()
}
