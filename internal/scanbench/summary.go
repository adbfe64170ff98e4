// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanbench

import (
	"cmp"
	"slices"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Runtimes are recorded in microseconds, between 1µs and an hour.
const (
	minRecordedMicros = 1
	maxRecordedMicros = int64(time.Hour / time.Microsecond)
)

// Summary describes the runtime distribution of one variant across a sweep.
type Summary struct {
	Variant string
	Count   int64
	// Runtimes in milliseconds.
	Mean, P50, P99, Max float64
}

// Summarize returns one Summary per variant, ordered by variant name.
// Runtimes outside [1µs, 1h] are clamped.
func Summarize(results []Result) []Summary {
	hists := make(map[string]*hdrhistogram.Histogram)
	for _, r := range results {
		h := hists[r.Variant]
		if h == nil {
			h = hdrhistogram.New(minRecordedMicros, maxRecordedMicros, 3)
			hists[r.Variant] = h
		}
		us := int64(r.AvgRuntimeMs * 1000)
		us = max(minRecordedMicros, min(us, maxRecordedMicros))
		// The value is clamped to the histogram's range, so this cannot fail.
		_ = h.RecordValue(us)
	}

	sums := make([]Summary, 0, len(hists))
	for variant, h := range hists {
		sums = append(sums, Summary{
			Variant: variant,
			Count:   h.TotalCount(),
			Mean:    h.Mean() / 1000,
			P50:     float64(h.ValueAtPercentile(50)) / 1000,
			P99:     float64(h.ValueAtPercentile(99)) / 1000,
			Max:     float64(h.Max()) / 1000,
		})
	}
	slices.SortFunc(sums, func(a, b Summary) int {
		return cmp.Compare(a.Variant, b.Variant)
	})
	return sums
}
