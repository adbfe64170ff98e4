// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tool implements the bitunpack command line tools: the table
// generators, the callgrind cost extractor, and the scan benchmark driver and
// plotter.
package tool

import (
	"github.com/cockroachdb/bitunpack/internal/base"
	"github.com/cockroachdb/bitunpack/internal/scanbench"
	"github.com/spf13/cobra"
)

// T is the container for all of the tools.
type T struct {
	Commands  []*cobra.Command
	tables    *tablesT
	callgrind *callgrindT
	bench     *benchT

	logger base.Logger
	runner scanbench.Runner
}

// Option configures T.
type Option func(*T)

// WithLogger sets the logger used for progress messages.
func WithLogger(l base.Logger) Option {
	return func(t *T) { t.logger = l }
}

// WithBenchRunner replaces the subprocess runner of the bench commands.
func WithBenchRunner(r scanbench.Runner) Option {
	return func(t *T) { t.runner = r }
}

// New creates the tools.
func New(opts ...Option) *T {
	t := &T{
		logger: base.DefaultLogger{},
		runner: scanbench.ExecRunner,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.tables = newTables()
	t.callgrind = newCallgrind()
	t.bench = newBench(t.logger, t.runner)
	t.Commands = append(t.tables.Commands(),
		t.callgrind.Root,
		t.bench.Root,
		t.bench.Plot,
	)
	return t
}
