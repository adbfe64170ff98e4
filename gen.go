// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitunpack

import (
	"bytes"
	"fmt"
	"go/token"
	"io"
	"slices"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/imports"
)

// WriteGoTables writes Go source declaring the shuffle and shift masks of the
// given factors for group width w. For each factor the tables hold one entry
// per group of a mask period; group g uses entry g%len(entries). The output is
// gofmt'ed.
func WriteGoTables(out io.Writer, pkg string, w GroupWidth, factors []CompressionFactor) error {
	if !token.IsIdentifier(pkg) {
		return invalidf("invalid package name %q", pkg)
	}
	if err := w.Validate(); err != nil {
		return err
	}
	factors = slices.Clone(factors)
	slices.Sort(factors)
	factors = slices.Compact(factors)
	for _, cf := range factors {
		if err := CheckFit(cf, w); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by \"bitunpack gen\"; DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)

	fmt.Fprintf(&buf, "// shuffleMasks%d[cf] holds the byte permute masks extracting %d lanes of\n", w, w)
	fmt.Fprintf(&buf, "// %d bits from a %d-byte load, one per group of a mask period.\n", w.LaneBits(), LoadWidth)
	fmt.Fprintf(&buf, "var shuffleMasks%d = [%d][][%d]byte{\n", w, MaxLaneBits+1, LoadWidth)
	for _, cf := range factors {
		fmt.Fprintf(&buf, "%d: {\n", cf)
		for g := range PatternPeriod(cf, w) {
			buf.WriteString("{")
			for i, b := range computeMasks(cf, w, g).ByteShuffle() {
				if i > 0 {
					buf.WriteString(", ")
				}
				fmt.Fprintf(&buf, "0x%02x", b)
			}
			buf.WriteString("},\n")
		}
		buf.WriteString("},\n")
	}
	buf.WriteString("}\n\n")

	fmt.Fprintf(&buf, "// shiftMasks%d[cf] holds the per-lane right shifts matching shuffleMasks%d.\n", w, w)
	fmt.Fprintf(&buf, "var shiftMasks%d = [%d][][%d]uint8{\n", w, MaxLaneBits+1, w)
	for _, cf := range factors {
		fmt.Fprintf(&buf, "%d: {\n", cf)
		for g := range PatternPeriod(cf, w) {
			buf.WriteString("{")
			for i, s := range computeMasks(cf, w, g).Shift {
				if i > 0 {
					buf.WriteString(", ")
				}
				fmt.Fprintf(&buf, "%d", s)
			}
			buf.WriteString("},\n")
		}
		buf.WriteString("},\n")
	}
	buf.WriteString("}\n")

	src, err := imports.Process(fmt.Sprintf("masks%d.go", w), buf.Bytes(), nil)
	if err != nil {
		return errors.Wrap(err, "bitunpack: formatting generated tables")
	}
	_, err = out.Write(src)
	return errors.Wrap(err, "bitunpack: writing generated tables")
}
