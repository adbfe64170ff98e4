// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanbench

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/crlib/testutils/leaktest"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/output", func(t *testing.T, td *datadriven.TestData) string {
		var buf bytes.Buffer
		switch td.Cmd {
		case "parse":
			var size, predicates int
			td.ScanArgs(t, "data-size", &size)
			td.ScanArgs(t, "predicates", &predicates)
			results, err := ParseOutput(size, predicates, strings.NewReader(td.Input))
			if err != nil {
				return err.Error()
			}
			require.NoError(t, WriteCSV(&buf, results))

		case "read-csv":
			results, err := ReadCSV(strings.NewReader(td.Input))
			if err != nil {
				return err.Error()
			}
			for _, r := range results {
				fmt.Fprintf(&buf, "%+v\n", r)
			}

		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
		return buf.String()
	})
}

// textEqual returns the unified diff between want and got, if any.
func textEqual(want, got string) error {
	d, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
	})
	if d != "" {
		return errors.Errorf("output differs:\n%s", d)
	}
	return nil
}

func testConfig() Config {
	return Config{
		Binary:        "simdscan",
		DataSizes:     []int{10, 20},
		Repetitions:   3,
		Mode:          "sharedscan",
		MinPredicates: 1,
		MaxPredicates: 5,
		PredicateStep: 2,
		Concurrency:   4,
	}
}

// fakeBinary prints a scalar runtime of size+predicates ms and a SIMD
// runtime of predicates+0.5 ms.
func fakeBinary(ctx context.Context, name string, args ...string) ([]byte, error) {
	size, _ := strconv.Atoi(args[0])
	predicates, _ := strconv.Atoi(args[3])
	return fmt.Appendf(nil, "header\n* scalar: %dms; x\n* simd: %d.5ms\n", size+predicates, predicates), nil
}

func TestDriverSweep(t *testing.T) {
	defer leaktest.AfterTest(t)()

	var mu sync.Mutex
	var calls [][]string
	var running, peak atomic.Int32
	runner := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		mu.Lock()
		calls = append(calls, append([]string{name}, args...))
		mu.Unlock()
		return fakeBinary(ctx, name, args...)
	}

	d, err := NewDriver(testConfig(), WithRunner(runner))
	require.NoError(t, err)
	require.Len(t, d.Invocations(), 6)

	results, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, calls, 6)
	require.LessOrEqual(t, peak.Load(), int32(4))
	require.Contains(t, calls, []string{"simdscan", "20", "3", "sharedscan", "5"})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results))
	want, err := os.ReadFile(filepath.Join("testdata", "sweep.csv"))
	require.NoError(t, err)
	require.NoError(t, textEqual(string(want), buf.String()))

	// The CSV round trips.
	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, results, back)
}

func TestDriverFailure(t *testing.T) {
	defer leaktest.AfterTest(t)()

	runner := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if args[3] == "3" {
			return nil, errors.Mark(errors.New("exit status 2: out of memory"), ErrBinaryFailed)
		}
		return fakeBinary(ctx, name, args...)
	}
	m := NewMetrics(prometheus.NewRegistry())
	d, err := NewDriver(testConfig(), WithRunner(runner), WithMetrics(m))
	require.NoError(t, err)
	_, err = d.Run(context.Background())
	require.True(t, errors.Is(err, ErrBinaryFailed), "%v", err)
	require.ErrorContains(t, err, "3 predicates")

	// A failure does not stop invocations that were already scheduled.
	var metric dto.Metric
	require.NoError(t, m.InvocationLatency.Write(&metric))
	require.Equal(t, uint64(6), metric.GetHistogram().GetSampleCount())
	require.NoError(t, m.FailedInvocations.Write(&metric))
	require.Equal(t, 2.0, metric.GetCounter().GetValue())

	silent := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("nothing to report\n"), nil
	}
	d, err = NewDriver(testConfig(), WithRunner(silent))
	require.NoError(t, err)
	_, err = d.Run(context.Background())
	require.True(t, errors.Is(err, ErrNoResults), "%v", err)
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no shell available")
	}
	ctx := context.Background()
	out, err := ExecRunner(ctx, "sh", "-c", "echo '* simd: 1.5ms'")
	require.NoError(t, err)
	results, err := ParseOutput(1, 1, bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, []Result{{DataSize: 1, PredicateCount: 1, Variant: "simd", AvgRuntimeMs: 1.5}}, results)

	_, err = ExecRunner(ctx, "sh", "-c", "echo '* simd: 1ms'; echo boom >&2; exit 3")
	require.True(t, errors.Is(err, ErrBinaryFailed), "%v", err)
	require.ErrorContains(t, err, "boom")
}

func TestConfig(t *testing.T) {
	t.Setenv("BITUNPACK_SCAN_BINARY", "/opt/simdscan")
	t.Setenv("BITUNPACK_DATA_SIZES", "10,40")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, Config{
		Binary:        "/opt/simdscan",
		DataSizes:     []int{10, 40},
		Repetitions:   1,
		Mode:          "sharedscan",
		MinPredicates: 1,
		MaxPredicates: 512,
		PredicateStep: 1,
		Concurrency:   1,
	}, cfg)
	require.NoError(t, cfg.Validate())

	envFile := filepath.Join(t.TempDir(), "bench.env")
	require.NoError(t, os.WriteFile(envFile, []byte("BITUNPACK_MODE=scan\nBITUNPACK_SCAN_BINARY=/ignored\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("BITUNPACK_MODE") })
	cfg, err = LoadConfig(envFile)
	require.NoError(t, err)
	require.Equal(t, "scan", cfg.Mode)
	// The environment wins over the file.
	require.Equal(t, "/opt/simdscan", cfg.Binary)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		mutate func(*Config)
		want   string
	}{
		{func(c *Config) { c.Binary = "" }, "no benchmark binary"},
		{func(c *Config) { c.DataSizes = nil }, "no data sizes"},
		{func(c *Config) { c.DataSizes = []int{10, 0} }, "data size must be positive"},
		{func(c *Config) { c.Repetitions = 0 }, "repetitions must be positive"},
		{func(c *Config) { c.Mode = "" }, "empty mode"},
		{func(c *Config) { c.MinPredicates = 0 }, "min predicates"},
		{func(c *Config) { c.MaxPredicates = 0 }, "below min predicates"},
		{func(c *Config) { c.PredicateStep = 0 }, "predicate step"},
		{func(c *Config) { c.Concurrency = 0 }, "concurrency"},
	} {
		t.Run(tc.want, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tc.want)
			_, err := NewDriver(cfg)
			require.Error(t, err)
		})
	}
}

func TestSummarize(t *testing.T) {
	var results []Result
	for i := 1; i <= 100; i++ {
		results = append(results,
			Result{DataSize: 40, PredicateCount: i, Variant: "simd", AvgRuntimeMs: float64(i)},
			Result{DataSize: 40, PredicateCount: i, Variant: "scalar", AvgRuntimeMs: 2},
		)
	}
	sums := Summarize(results)
	require.Len(t, sums, 2)
	require.Equal(t, "scalar", sums[0].Variant)
	require.Equal(t, int64(100), sums[0].Count)
	require.InDelta(t, 2, sums[0].P99, 0.01)

	simd := sums[1]
	require.Equal(t, "simd", simd.Variant)
	require.Equal(t, int64(100), simd.Count)
	require.InDelta(t, 50.5, simd.Mean, 0.1)
	require.InDelta(t, 50, simd.P50, 0.1)
	require.InDelta(t, 99, simd.P99, 0.1)
	require.InDelta(t, 100, simd.Max, 0.1)

	require.Empty(t, Summarize(nil))
}
