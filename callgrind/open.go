// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package callgrind

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// InclusiveCost reads the profile at path and returns the inclusive cost of
// the function selected by m. Profiles ending in ".gz", ".zst" or ".sz"
// (framed snappy) are decompressed.
func InclusiveCost(path string, m Matcher) (Cost, error) {
	f, err := os.Open(path)
	if err != nil {
		return Cost{}, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return Cost{}, errors.Wrapf(err, "callgrind: %s", path)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return Cost{}, errors.Wrapf(err, "callgrind: %s", path)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(path, ".sz"):
		r = snappy.NewReader(f)
	}
	return Parse(r, m)
}
