// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitunpack

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// PackedSize returns the number of bytes needed to pack n values of cf bits.
func PackedSize(cf CompressionFactor, n int) int {
	return (n*int(cf) + 7) / 8
}

func valueMask(cf CompressionFactor) uint64 {
	return uint64(1)<<uint(cf) - 1
}

// Pack packs values back to back using cf bits each, least significant bit
// first. Every value must fit in cf bits.
func Pack(values []uint32, cf CompressionFactor) ([]byte, error) {
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, PackedSize(cf, len(values)))
	for i, v := range values {
		if uint64(v) > valueMask(cf) {
			return nil, invalidf("value %d at index %d does not fit in %d bits", v, i, cf)
		}
		p := Locate(cf, i)
		x := uint64(v) << uint(p.BitShift)
		for b := p.ByteOffset; x != 0; b++ {
			out[b] |= byte(x)
			x >>= 8
		}
	}
	return out, nil
}

// readLE reads up to n bytes of src starting at off as a little-endian
// integer. Bytes past the end of src read as zero.
func readLE(src []byte, off, n int) uint64 {
	var x uint64
	for b := n - 1; b >= 0; b-- {
		x <<= 8
		if off+b < len(src) {
			x |= uint64(src[off+b])
		}
	}
	return x
}

// Unpack decodes the first n values of a buffer packed with cf bits per
// value, one value at a time. It is the reference the vector procedure is
// checked against.
func Unpack(packed []byte, cf CompressionFactor, n int) ([]uint32, error) {
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, invalidf("value count %d is negative", n)
	}
	if need := PackedSize(cf, n); len(packed) < need {
		return nil, invalidf("%d values of %d bits need %d bytes, have %d", n, cf, need, len(packed))
	}
	out := make([]uint32, n)
	mask := valueMask(cf)
	// A value spans at most 5 bytes: 7 bits of padding plus 32 bits of value.
	for i := range out {
		p := Locate(cf, i)
		out[i] = uint32(readLE(packed, p.ByteOffset, 5) >> uint(p.BitShift) & mask)
	}
	return out, nil
}

// loadWindow emulates an unaligned vector load. Bytes past the end of the
// input read as zero.
func loadWindow(src []byte, off int) [LoadWidth]byte {
	var w [LoadWidth]byte
	if off < len(src) {
		copy(w[:], src[off:])
	}
	return w
}

// shuffleBytes emulates a byte permute (PSHUFB): each output byte is the
// input byte selected by the mask, or zero when the mask's high bit is set.
func shuffleBytes(src [LoadWidth]byte, mask [LoadWidth]byte) [LoadWidth]byte {
	var out [LoadWidth]byte
	for i, m := range mask {
		if m&unusedByte == 0 {
			out[i] = src[m&(LoadWidth-1)]
		}
	}
	return out
}

// shiftLanes splits a shuffled register into lanes of type T, shifts each
// lane right by its shift mask entry and keeps the low cf bits.
func shiftLanes[T constraints.Unsigned](
	reg [LoadWidth]byte, laneBytes int, shift []int, cf CompressionFactor,
) []T {
	lanes := make([]T, len(shift))
	mask := valueMask(cf)
	for k := range lanes {
		x := readLE(reg[:], k*laneBytes, laneBytes)
		lanes[k] = T(x >> uint(shift[k]) & mask)
	}
	return lanes
}

func widen[T constraints.Unsigned](lanes []T) []uint32 {
	out := make([]uint32, len(lanes))
	for i, v := range lanes {
		out[i] = uint32(v)
	}
	return out
}

// ExtractGroup emulates the extraction of one group from packed: a load at
// m.BaseByte, a shuffle with m.ByteShuffle and a per-lane shift with m.Shift,
// using lanes of m.Width.LaneBits bits.
func ExtractGroup(packed []byte, cf CompressionFactor, m GroupMasks) ([]uint32, error) {
	if err := CheckFit(cf, m.Width); err != nil {
		return nil, err
	}
	reg := shuffleBytes(loadWindow(packed, m.BaseByte), m.ByteShuffle())
	switch m.Width {
	case Group4:
		return widen(shiftLanes[uint32](reg, m.Width.LaneBytes(), m.Shift, cf)), nil
	default:
		return widen(shiftLanes[uint16](reg, m.Width.LaneBytes(), m.Shift, cf)), nil
	}
}

// Emulate runs the procedure against packed in software and writes the
// unpacked lanes to out. Stores past the end of out are dropped, so out may be
// shorter than p.Lanes(). packed must hold at least the values written to
// out.
func (p *Procedure) Emulate(packed []byte, out []uint32) error {
	n := min(len(out), p.Lanes())
	if need := PackedSize(p.cf, n); len(packed) < need {
		return invalidf("%d values of %d bits need %d bytes, have %d", n, p.cf, need, len(packed))
	}
	var reg [LoadWidth]byte
	var lanes []uint32
	shuffles := make([][LoadWidth]byte, len(p.masks))
	for h := range p.masks {
		shuffles[h] = p.masks[h].ByteShuffle()
	}
	for op := range p.Ops() {
		switch op.Kind {
		case OpLoad:
			reg = loadWindow(packed, op.Offset)
		case OpShuffle:
			reg = shuffleBytes(reg, shuffles[op.Mask])
		case OpShift:
			lanes = shiftLanes[uint32](reg, Group4.LaneBytes(), p.masks[op.Mask].Shift, p.cf)
		case OpStore:
			if op.Offset >= len(out) {
				continue
			}
			copy(out[op.Offset:], lanes)
		default:
			return errors.AssertionFailedf("bitunpack: unknown op %s", op.Kind)
		}
	}
	return nil
}
