// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanbench

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Result is the average runtime of one variant in one invocation.
type Result struct {
	DataSize       int
	PredicateCount int
	Variant        string
	AvgRuntimeMs   float64
}

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{"data_size", "predicate_count", "variant", "avg_runtime_ms"}

// ParseOutput extracts the results from the standard output of one
// invocation. Lines not starting with '*' are ignored; a starred line that
// does not parse is an error.
func ParseOutput(dataSize, predicateCount int, r io.Reader) ([]Result, error) {
	var results []Result
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		body, ok := strings.CutPrefix(line, "*")
		if !ok {
			continue
		}
		variant, rest, ok := strings.Cut(strings.TrimSpace(body), ": ")
		if !ok || variant == "" {
			return nil, errors.Newf("scanbench: malformed result line %q", line)
		}
		runtime, _, _ := strings.Cut(rest, ";")
		runtime, ok = strings.CutSuffix(strings.TrimSpace(runtime), "ms")
		if !ok {
			return nil, errors.Newf("scanbench: result line %q has no runtime in ms", line)
		}
		ms, err := strconv.ParseFloat(strings.TrimSpace(runtime), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "scanbench: result line %q", line)
		}
		results = append(results, Result{
			DataSize:       dataSize,
			PredicateCount: predicateCount,
			Variant:        variant,
			AvgRuntimeMs:   ms,
		})
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "scanbench: reading output")
	}
	return results, nil
}

// WriteCSV writes the results, preceded by CSVHeader.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return errors.Wrap(err, "scanbench: writing csv")
	}
	for _, r := range results {
		if err := cw.Write([]string{
			strconv.Itoa(r.DataSize),
			strconv.Itoa(r.PredicateCount),
			r.Variant,
			strconv.FormatFloat(r.AvgRuntimeMs, 'f', -1, 64),
		}); err != nil {
			return errors.Wrap(err, "scanbench: writing csv")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "scanbench: writing csv")
}

// ReadCSV reads results written by WriteCSV. Lines starting with '#' are
// comments.
func ReadCSV(r io.Reader) ([]Result, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = len(CSVHeader)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "scanbench: reading csv")
	}
	if len(records) == 0 {
		return nil, errors.New("scanbench: empty csv")
	}
	for i, h := range CSVHeader {
		if records[0][i] != h {
			return nil, errors.Newf("scanbench: csv column %d is %q, want %q", i, records[0][i], h)
		}
	}
	results := make([]Result, 0, len(records)-1)
	for i, rec := range records[1:] {
		var r Result
		var err error
		if r.DataSize, err = strconv.Atoi(rec[0]); err != nil {
			return nil, errors.Wrapf(err, "scanbench: csv row %d", i+1)
		}
		if r.PredicateCount, err = strconv.Atoi(rec[1]); err != nil {
			return nil, errors.Wrapf(err, "scanbench: csv row %d", i+1)
		}
		r.Variant = rec[2]
		if r.AvgRuntimeMs, err = strconv.ParseFloat(rec[3], 64); err != nil {
			return nil, errors.Wrapf(err, "scanbench: csv row %d", i+1)
		}
		results = append(results, r)
	}
	return results, nil
}
