// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitunpack

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// ErrInvalidInput is the mark carried by every error returned for input that
// lies outside the domain of a table generator.
var ErrInvalidInput = errors.New("bitunpack: invalid input")

// LoadWidth is the number of bytes fetched by one vector load.
const LoadWidth = 16

// MaxLaneBits is the widest output lane, and so the largest compression
// factor any table accepts.
const MaxLaneBits = 32

// CompressionFactor is the number of bits occupied by one packed value.
type CompressionFactor int

// SafeValue implements redact.SafeValue.
func (CompressionFactor) SafeValue() {}

var _ redact.SafeValue = CompressionFactor(0)

// Validate returns an error if the factor is outside [1, MaxLaneBits].
func (cf CompressionFactor) Validate() error {
	if cf < 1 || cf > MaxLaneBits {
		return invalidf("compression factor %d out of range [1, %d]", cf, MaxLaneBits)
	}
	return nil
}

// GroupWidth is the number of lanes extracted from one vector load.
type GroupWidth int

const (
	// Group4 extracts four 32-bit lanes per load.
	Group4 GroupWidth = 4
	// Group8 extracts eight 16-bit lanes per load.
	Group8 GroupWidth = 8
)

// SafeValue implements redact.SafeValue.
func (GroupWidth) SafeValue() {}

// GroupWidths lists the supported group widths.
var GroupWidths = []GroupWidth{Group4, Group8}

// Validate returns an error unless w is Group4 or Group8.
func (w GroupWidth) Validate() error {
	switch w {
	case Group4, Group8:
		return nil
	}
	return invalidf("group width %d not supported (want 4 or 8)", w)
}

// LaneBytes returns the number of bytes each lane gathers from the load.
func (w GroupWidth) LaneBytes() int {
	return LoadWidth / int(w)
}

// LaneBits returns the width in bits of one output lane.
func (w GroupWidth) LaneBits() int {
	return 8 * w.LaneBytes()
}

func invalidf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidInput)
}
