// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanbench

import (
	"bytes"
	"context"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/bitunpack/internal/base"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// ErrBinaryFailed marks errors returned when the benchmark binary exits
// unsuccessfully.
var ErrBinaryFailed = errors.New("scanbench: benchmark binary failed")

// ErrNoResults marks errors returned when a successful invocation printed no
// result lines.
var ErrNoResults = errors.New("scanbench: no results")

// Invocation is one run of the benchmark binary.
type Invocation struct {
	DataSize       int
	PredicateCount int
}

// Args returns the command line arguments of the invocation, excluding the
// binary.
func (inv Invocation) Args(cfg Config) []string {
	return []string{
		strconv.Itoa(inv.DataSize),
		strconv.Itoa(cfg.Repetitions),
		cfg.Mode,
		strconv.Itoa(inv.PredicateCount),
	}
}

// Runner runs a binary and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the binary as a subprocess. A non-zero exit is marked with
// ErrBinaryFailed and carries the process's standard error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, errors.Mark(
				errors.Newf("%s %s: %v: %s", name, strings.Join(args, " "), exitErr, strings.TrimSpace(stderr.String())),
				ErrBinaryFailed)
		}
		return nil, errors.Wrapf(err, "running %s", name)
	}
	return stdout.Bytes(), nil
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger used to report progress.
func WithLogger(l base.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithMetrics sets the metrics updated by Run.
func WithMetrics(m Metrics) Option {
	return func(d *Driver) { d.metrics = m }
}

// WithRunner replaces ExecRunner.
func WithRunner(r Runner) Option {
	return func(d *Driver) { d.run = r }
}

// Driver sweeps the benchmark binary over the configured data sizes and
// predicate counts.
type Driver struct {
	cfg     Config
	logger  base.Logger
	run     Runner
	metrics Metrics
}

// NewDriver validates cfg and returns a Driver for it.
func NewDriver(cfg Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{cfg: cfg, logger: base.NoopLogger{}, run: ExecRunner}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics.InvocationLatency == nil || d.metrics.FailedInvocations == nil {
		d.metrics = NewMetrics(nil)
	}
	return d, nil
}

// Invocations returns the invocations of the sweep, by data size and then
// predicate count.
func (d *Driver) Invocations() []Invocation {
	var invs []Invocation
	for _, size := range d.cfg.DataSizes {
		for n := d.cfg.MinPredicates; n <= d.cfg.MaxPredicates; n += d.cfg.PredicateStep {
			invs = append(invs, Invocation{DataSize: size, PredicateCount: n})
		}
	}
	return invs
}

// Run executes every invocation, at most Config.Concurrency at a time, and
// returns the results in invocation order. The first failure cancels the
// invocations still running and is returned.
func (d *Driver) Run(ctx context.Context) ([]Result, error) {
	invs := d.Invocations()
	results := make([][]Result, len(invs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for i, inv := range invs {
		g.Go(func() error {
			rs, err := d.invoke(ctx, inv)
			if err != nil {
				d.metrics.FailedInvocations.Inc()
				return err
			}
			d.logger.Infof("data size %d, %d predicates: %d variants", inv.DataSize, inv.PredicateCount, len(rs))
			results[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

func (d *Driver) invoke(ctx context.Context, inv Invocation) ([]Result, error) {
	start := time.Now()
	out, err := d.run(ctx, d.cfg.Binary, inv.Args(d.cfg)...)
	d.metrics.InvocationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, errors.Wrapf(err, "scanbench: data size %d, %d predicates", inv.DataSize, inv.PredicateCount)
	}
	rs, err := ParseOutput(inv.DataSize, inv.PredicateCount, bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, errors.Mark(
			errors.Newf("scanbench: data size %d, %d predicates: no result lines", inv.DataSize, inv.PredicateCount),
			ErrNoResults)
	}
	return rs, nil
}
