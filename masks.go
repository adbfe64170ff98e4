// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitunpack

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/bitunpack/internal/invariants"
)

// unusedByte marks a byte of a permute mask that is not filled from the load.
// PSHUFB and TBL both write zero for an index with the high bit set.
const unusedByte = 0x80

// GroupMasks holds the masks needed to extract one group of lanes from a
// single vector load anchored at BaseByte.
type GroupMasks struct {
	Width GroupWidth
	Group int
	// BaseByte is the absolute byte offset the load is anchored at; it is the
	// byte holding the first bit of the group's first lane.
	BaseByte int
	// Shuffle holds, per lane, the byte offset relative to BaseByte.
	Shuffle []int
	// Shift holds, per lane, the bit offset within the first byte.
	Shift []int
}

// FirstLane returns the absolute index of the group's first lane.
func (m GroupMasks) FirstLane() int {
	return m.Group * int(m.Width)
}

// ByteShuffle expands the lane offsets into a byte-level permute mask: lane k
// occupies LaneBytes consecutive output bytes filled from load bytes
// Shuffle[k], Shuffle[k]+1, and so on. Bytes that would read past the end of
// the load are marked unused.
func (m GroupMasks) ByteShuffle() [LoadWidth]byte {
	var out [LoadWidth]byte
	laneBytes := m.Width.LaneBytes()
	for k, off := range m.Shuffle {
		for b := 0; b < laneBytes; b++ {
			src := off + b
			if src >= LoadWidth {
				out[k*laneBytes+b] = unusedByte
				continue
			}
			out[k*laneBytes+b] = byte(src)
		}
	}
	return out
}

// String implements fmt.Stringer.
func (m GroupMasks) String() string {
	return fmt.Sprintf("group=%d lane=%d base=%d shuffle=%s shift=%s",
		m.Group, m.FirstLane(), m.BaseByte, formatTuple(m.Shuffle), formatTuple(m.Shift))
}

func formatTuple(vals []int) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", v)
	}
	b.WriteByte(')')
	return b.String()
}

// ComputeMasks returns the shuffle and shift masks of the given group. The
// factor must fit the width (see CheckFit).
func ComputeMasks(cf CompressionFactor, w GroupWidth, group int) (GroupMasks, error) {
	if err := w.Validate(); err != nil {
		return GroupMasks{}, err
	}
	if err := CheckFit(cf, w); err != nil {
		return GroupMasks{}, err
	}
	if group < 0 {
		return GroupMasks{}, invalidf("group index %d is negative", group)
	}
	return computeMasks(cf, w, group), nil
}

// computeMasks is ComputeMasks without argument validation.
func computeMasks(cf CompressionFactor, w GroupWidth, group int) GroupMasks {
	m := GroupMasks{
		Width:    w,
		Group:    group,
		BaseByte: int(w) * group * int(cf) / 8,
		Shuffle:  make([]int, w),
		Shift:    make([]int, w),
	}
	for k := range int(w) {
		p := Locate(cf, m.FirstLane()+k)
		m.Shuffle[k] = p.ByteOffset - m.BaseByte
		m.Shift[k] = p.BitShift
		invariants.Assertf(m.BaseByte+m.Shuffle[k] == p.ByteOffset && m.Shuffle[k] >= 0,
			"bitunpack: lane %d: base %d + shuffle %d != byte %d", p.Lane, m.BaseByte, m.Shuffle[k], p.ByteOffset)
	}
	return m
}

// MaskTable returns the masks of groups [0, groups).
func MaskTable(cf CompressionFactor, w GroupWidth, groups int) ([]GroupMasks, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := CheckFit(cf, w); err != nil {
		return nil, err
	}
	if groups < 0 {
		return nil, invalidf("group count %d is negative", groups)
	}
	rows := make([]GroupMasks, groups)
	for g := range rows {
		rows[g] = computeMasks(cf, w, g)
	}
	return rows, nil
}

// PatternPeriod returns the number of consecutive groups after which the
// masks repeat: group g and group g+PatternPeriod have identical shuffle and
// shift masks because their base bits differ by a whole number of bytes.
func PatternPeriod(cf CompressionFactor, w GroupWidth) int {
	bitsPerGroup := int(w) * int(cf)
	p := 1
	for (p*bitsPerGroup)%8 != 0 {
		p++
	}
	return p
}

// CheckFit returns an error if some group of the given width would need bytes
// beyond the vector load, or bits beyond its output lane, to extract a value
// of cf bits. Both conditions are checked for every lane of one full mask
// period, which covers all groups.
func CheckFit(cf CompressionFactor, w GroupWidth) error {
	if err := cf.Validate(); err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if int(cf) > w.LaneBits() {
		return invalidf("compression factor %d exceeds the %d-bit lanes of group width %d (max %d)",
			cf, w.LaneBits(), w, MaxCompressionFactor(w))
	}
	laneBytes := w.LaneBytes()
	for g := range PatternPeriod(cf, w) {
		m := computeMasks(cf, w, g)
		for k := range m.Shuffle {
			if m.Shuffle[k]+laneBytes > LoadWidth {
				return invalidf("compression factor %d: lane %d of group %d reads past the %d-byte load (max %d)",
					cf, k, g, LoadWidth, MaxCompressionFactor(w))
			}
			if m.Shift[k]+int(cf) > w.LaneBits() {
				return invalidf("compression factor %d: lane %d of group %d needs %d bits in a %d-bit lane (max %d)",
					cf, k, g, m.Shift[k]+int(cf), w.LaneBits(), MaxCompressionFactor(w))
			}
		}
	}
	return nil
}

// fits is CheckFit without the error construction.
func fits(cf CompressionFactor, w GroupWidth) bool {
	if int(cf) > w.LaneBits() {
		return false
	}
	for g := range PatternPeriod(cf, w) {
		m := computeMasks(cf, w, g)
		for k := range m.Shuffle {
			if m.Shuffle[k]+w.LaneBytes() > LoadWidth || m.Shift[k]+int(cf) > w.LaneBits() {
				return false
			}
		}
	}
	return true
}

// MaxCompressionFactor returns the largest factor cf such that every factor in
// [1, cf] fits the group width. Some larger factors may fit as well (for
// example byte-aligned ones); CheckFit is authoritative.
func MaxCompressionFactor(w GroupWidth) CompressionFactor {
	var cf CompressionFactor
	if w.Validate() != nil {
		return cf
	}
	for cf < MaxLaneBits && fits(cf+1, w) {
		cf++
	}
	return cf
}

// FittingFactors returns every factor in [1, MaxLaneBits] that fits the group
// width.
func FittingFactors(w GroupWidth) []CompressionFactor {
	var out []CompressionFactor
	if w.Validate() != nil {
		return out
	}
	for cf := CompressionFactor(1); cf <= MaxLaneBits; cf++ {
		if fits(cf, w) {
			out = append(out, cf)
		}
	}
	return out
}
