// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package callgrind

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func scanMatcher(t *testing.T, td *datadriven.TestData) Matcher {
	var name string
	if td.HasArg("fn") {
		td.ScanArgs(t, "fn", &name)
		return ExactName(name)
	}
	td.ScanArgs(t, "contains", &name)
	return NameContains(name)
}

func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, td *datadriven.TestData) string {
			switch td.Cmd {
			case "classify":
				var buf bytes.Buffer
				for _, line := range crstrings.Lines(td.Input) {
					fmt.Fprintln(&buf, Classify(line))
				}
				return buf.String()

			case "cost":
				c, err := Parse(strings.NewReader(td.Input), scanMatcher(t, td))
				if err != nil {
					return err.Error()
				}
				return c.String()

			default:
				return fmt.Sprintf("unknown command: %s", td.Cmd)
			}
		})
	})
}

const sampleProfile = `version: 1
creator: callgrind-3.18.1
cmd: ./simdscan 40 1 sharedscan 4
positions: line
events: Ir Dr Dw
summary: 2000 300 100

fl=(1) simd_scan_decompression.cpp
fn=(1) decompress_128_nosweep(__m128i*, unsigned long, int*)
56 400 80 40
57 100 20

fn=(2) main
10 5 1 1
cfl=(1)
cfn=(1)
calls=1 56
11 500 100 40

fn=(1)
60 20 4 2
`

func TestNotFoundIsDistinct(t *testing.T) {
	_, err := Parse(strings.NewReader(sampleProfile), ExactName("decompress_standard"))
	require.True(t, errors.Is(err, ErrFunctionNotFound))

	c, err := Parse(strings.NewReader(sampleProfile), NameContains("decompress_128_nosweep"))
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{"Ir": 520, "Dr": 104, "Dw": 42}, c.Map())
	v, ok := c.Get("Dw")
	require.True(t, ok)
	require.Equal(t, uint64(42), v)
	_, ok = c.Get("Bc")
	require.False(t, ok)
}

func TestInclusiveCost(t *testing.T) {
	dir := t.TempDir()
	want := map[string]uint64{"Ir": 505, "Dr": 101, "Dw": 41}

	writeFile := func(name string, compress func(w io.Writer) (io.WriteCloser, error)) string {
		var buf bytes.Buffer
		if compress == nil {
			buf.WriteString(sampleProfile)
		} else {
			zw, err := compress(&buf)
			require.NoError(t, err)
			_, err = io.WriteString(zw, sampleProfile)
			require.NoError(t, err)
			require.NoError(t, zw.Close())
		}
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
		return path
	}

	paths := []string{
		writeFile("callgrind.out.1", nil),
		writeFile("callgrind.out.2.gz", func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		}),
		writeFile("callgrind.out.3.zst", func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		}),
		writeFile("callgrind.out.4.sz", func(w io.Writer) (io.WriteCloser, error) {
			return snappy.NewBufferedWriter(w), nil
		}),
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			c, err := InclusiveCost(path, ExactName("main"))
			require.NoError(t, err)
			require.Equal(t, want, c.Map())
		})
	}

	_, err := InclusiveCost(filepath.Join(dir, "missing"), ExactName("main"))
	require.Error(t, err)
}
