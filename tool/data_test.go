// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/bitunpack/internal/base"
	"github.com/cockroachdb/bitunpack/internal/scanbench"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// fakeScan stands in for the scan benchmark binary. It fails when invoked as
// "fail" and otherwise reports a scalar runtime of size+predicates ms and a
// SIMD runtime of predicates+0.5 ms.
func fakeScan(_ context.Context, name string, args ...string) ([]byte, error) {
	if name == "fail" {
		return nil, errors.Mark(
			errors.Newf("%s %s: exit status 1: out of memory", name, strings.Join(args, " ")),
			scanbench.ErrBinaryFailed)
	}
	size, _ := strconv.Atoi(args[0])
	predicates, _ := strconv.Atoi(args[3])
	return fmt.Appendf(nil, "* scalar: %dms\n* simd: %d.5ms\n", size+predicates, predicates), nil
}

// execCommand runs the tool with the given arguments and returns everything
// it printed along with the error returned to cobra.
func execCommand(args ...string) (string, error) {
	var buf bytes.Buffer
	stdout = &buf
	stderr = &buf
	defer func() {
		stdout = os.Stdout
		stderr = os.Stderr
	}()

	c := &cobra.Command{SilenceErrors: true, SilenceUsage: true}
	c.AddCommand(New(WithLogger(base.NoopLogger{}), WithBenchRunner(fakeScan)).Commands...)
	c.SetArgs(args)
	c.SetOutput(&buf)
	err := c.Execute()
	return buf.String(), err
}

// runCommand runs the tool and returns its output followed by the error, if
// any.
func runCommand(args ...string) string {
	out, err := execCommand(args...)
	if err != nil {
		out += err.Error() + "\n"
	}
	return out
}

func runTests(t *testing.T, path string) {
	datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
		args := []string{d.Cmd}
		for _, arg := range d.CmdArgs {
			args = append(args, arg.String())
		}
		args = append(args, strings.Fields(d.Input)...)
		return runCommand(args...)
	})
}

func TestTables(t *testing.T) {
	runTests(t, "testdata/tables")
}

func TestCallgrind(t *testing.T) {
	runTests(t, "testdata/callgrind")
}

func TestBench(t *testing.T) {
	for k, v := range map[string]string{
		"BITUNPACK_SCAN_BINARY":    "",
		"BITUNPACK_DATA_SIZES":     "10,20",
		"BITUNPACK_REPETITIONS":    "2",
		"BITUNPACK_MODE":           "sharedscan",
		"BITUNPACK_MIN_PREDICATES": "1",
		"BITUNPACK_MAX_PREDICATES": "3",
		"BITUNPACK_PREDICATE_STEP": "2",
		"BITUNPACK_CONCURRENCY":    "1",
	} {
		t.Setenv(k, v)
	}
	runTests(t, "testdata/bench")
}
