// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanbench

import "github.com/prometheus/client_golang/prometheus"

// Metrics are updated by a Driver as invocations complete.
type Metrics struct {
	// InvocationLatency records the wall time of every invocation, in seconds,
	// whether or not it succeeded.
	InvocationLatency prometheus.Histogram
	// FailedInvocations counts invocations that returned an error or printed
	// no results.
	FailedInvocations prometheus.Counter
}

// NewMetrics returns Metrics with the default buckets, registered with reg
// when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) Metrics {
	m := Metrics{
		InvocationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bitunpack_scanbench_invocation_seconds",
			Help:    "Wall time of one benchmark binary invocation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		FailedInvocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bitunpack_scanbench_failed_invocations_total",
			Help: "Benchmark binary invocations that failed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.InvocationLatency, m.FailedInvocations)
	}
	return m
}
