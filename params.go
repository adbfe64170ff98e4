// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitunpack

import (
	"fmt"
	"iter"

	"github.com/cockroachdb/bitunpack/internal/invariants"
)

// Param locates one packed value within the byte stream.
type Param struct {
	Lane int
	// ByteOffset is the byte holding the value's first bit.
	ByteOffset int
	// BitShift is the position of the value's first bit within that byte,
	// in [0, 7].
	BitShift int
}

// String implements fmt.Stringer.
func (p Param) String() string {
	return fmt.Sprintf("lane=%d byte=%d shift=%d", p.Lane, p.ByteOffset, p.BitShift)
}

// Locate returns the byte offset and bit shift of the given lane. The caller
// is responsible for validating cf.
func Locate(cf CompressionFactor, lane int) Param {
	invariants.Assertf(cf >= 1 && lane >= 0, "bitunpack: Locate(%d, %d)", cf, lane)
	bit := lane * int(cf)
	return Param{Lane: lane, ByteOffset: bit / 8, BitShift: bit % 8}
}

// Params returns the unbounded sequence of parameters for lanes 0, 1, 2, ...
// Callers stop iterating when they have enough rows.
func Params(cf CompressionFactor) iter.Seq[Param] {
	return func(yield func(Param) bool) {
		for lane := 0; ; lane++ {
			if !yield(Locate(cf, lane)) {
				return
			}
		}
	}
}

// ParameterTable returns the parameters of lanes [0, lanes).
func ParameterTable(cf CompressionFactor, lanes int) ([]Param, error) {
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	if lanes < 0 {
		return nil, invalidf("lane count %d is negative", lanes)
	}
	rows := make([]Param, 0, lanes)
	for p := range Params(cf) {
		if len(rows) == lanes {
			break
		}
		rows = append(rows, p)
	}
	return rows, nil
}
