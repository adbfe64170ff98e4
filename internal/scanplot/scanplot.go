// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package scanplot renders the CSV produced by scanbench as terminal charts.
package scanplot

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/cockroachdb/bitunpack/internal/scanbench"
	"github.com/cockroachdb/errors"
	"github.com/guptarohit/asciigraph"
)

// Row is one CSV row together with its derived per-predicate runtime.
type Row struct {
	scanbench.Result
	RuntimePerPredicate float64
}

// ReadCSV reads the CSV written by scanbench.WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	results, err := scanbench.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(results))
	for i, res := range results {
		if res.PredicateCount <= 0 {
			return nil, errors.Newf("scanplot: row %d has predicate count %d", i+1, res.PredicateCount)
		}
		rows[i] = Row{
			Result:              res,
			RuntimePerPredicate: res.AvgRuntimeMs / float64(res.PredicateCount),
		}
	}
	return rows, nil
}

// Metric selects the value plotted for a row.
type Metric int

const (
	// Absolute is the average runtime of the invocation in ms.
	Absolute Metric = iota
	// Normalized is the average runtime per predicate in ms.
	Normalized
)

func (m Metric) value(r Row) float64 {
	if m == Normalized {
		return r.RuntimePerPredicate
	}
	return r.AvgRuntimeMs
}

func (m Metric) String() string {
	if m == Normalized {
		return "ms / predicate"
	}
	return "ms"
}

// Variants returns the variants whose name starts with prefix, in order of
// first appearance.
func Variants(rows []Row, prefix string) []string {
	var variants []string
	for _, r := range rows {
		if strings.HasPrefix(r.Variant, prefix) && !slices.Contains(variants, r.Variant) {
			variants = append(variants, r.Variant)
		}
	}
	return variants
}

// DataSizes returns the distinct data sizes in ascending order.
func DataSizes(rows []Row) []int {
	var sizes []int
	for _, r := range rows {
		sizes = append(sizes, r.DataSize)
	}
	slices.Sort(sizes)
	return slices.Compact(sizes)
}

// Point is one value of a series.
type Point struct {
	PredicateCount int
	Value          float64
}

// Series returns the values of variant at dataSize, ordered by predicate
// count.
func Series(rows []Row, variant string, dataSize int, m Metric) []Point {
	var pts []Point
	for _, r := range rows {
		if r.Variant == variant && r.DataSize == dataSize {
			pts = append(pts, Point{PredicateCount: r.PredicateCount, Value: m.value(r)})
		}
	}
	slices.SortStableFunc(pts, func(a, b Point) int { return a.PredicateCount - b.PredicateCount })
	return pts
}

// Improvement returns, for every predicate count measured for both variants
// at dataSize, the percentage by which candidate is faster than base:
// (base - candidate) / base * 100.
func Improvement(rows []Row, base, candidate string, dataSize int) ([]Point, error) {
	baseline := make(map[int]float64)
	for _, p := range Series(rows, base, dataSize, Absolute) {
		baseline[p.PredicateCount] = p.Value
	}
	var pts []Point
	for _, p := range Series(rows, candidate, dataSize, Absolute) {
		b, ok := baseline[p.PredicateCount]
		if !ok {
			continue
		}
		if b == 0 {
			return nil, errors.Newf("scanplot: %s has zero runtime at %d predicates", base, p.PredicateCount)
		}
		pts = append(pts, Point{PredicateCount: p.PredicateCount, Value: (b - p.Value) / b * 100})
	}
	if len(pts) == 0 {
		return nil, errors.Newf("scanplot: %s and %s share no predicate counts at data size %d", base, candidate, dataSize)
	}
	return pts, nil
}

// Options configures Render.
type Options struct {
	// VariantPrefix restricts the charted variants.
	VariantPrefix string
	// Baseline and Candidate, when both set, add an improvement chart.
	Baseline, Candidate string
	Height, Width       int
}

func (o Options) graphOptions(caption string) []asciigraph.Option {
	opts := []asciigraph.Option{asciigraph.Caption(caption)}
	if o.Height > 0 {
		opts = append(opts, asciigraph.Height(o.Height))
	}
	if o.Width > 0 {
		opts = append(opts, asciigraph.Width(o.Width))
	}
	return opts
}

func values(pts []Point) []float64 {
	vs := make([]float64, len(pts))
	for i, p := range pts {
		vs[i] = p.Value
	}
	return vs
}

// Render draws, for every data size, the absolute and normalized runtime of
// each variant against the predicate count, followed by the improvement of
// Candidate over Baseline if requested.
func Render(w io.Writer, rows []Row, opts Options) error {
	variants := Variants(rows, opts.VariantPrefix)
	if len(variants) == 0 {
		return errors.Newf("scanplot: no variants with prefix %q", opts.VariantPrefix)
	}
	for _, size := range DataSizes(rows) {
		for _, m := range []Metric{Absolute, Normalized} {
			var data [][]float64
			var names []string
			for _, v := range variants {
				if pts := Series(rows, v, size, m); len(pts) > 0 {
					data = append(data, values(pts))
					names = append(names, v)
				}
			}
			if len(data) == 0 {
				continue
			}
			caption := fmt.Sprintf("data size %d: %s by predicate count (%s)", size, m, strings.Join(names, ", "))
			fmt.Fprintf(w, "%s\n\n", asciigraph.PlotMany(data, opts.graphOptions(caption)...))
		}
		if opts.Baseline == "" || opts.Candidate == "" {
			continue
		}
		pts, err := Improvement(rows, opts.Baseline, opts.Candidate, size)
		if err != nil {
			return err
		}
		caption := fmt.Sprintf("data size %d: %% improvement of %s over %s", size, opts.Candidate, opts.Baseline)
		fmt.Fprintf(w, "%s\n\n", asciigraph.Plot(values(pts), opts.graphOptions(caption)...))
	}
	return nil
}
