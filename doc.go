// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package bitunpack computes the parameter tables used to decompress
// bit-packed integer arrays with SIMD byte-shuffle and bit-shift
// instructions.
//
// A bit-packed array stores n values of CompressionFactor bits each back to
// back, least significant bit first. Value i starts at bit i*cf of the stream,
// i.e. in byte (i*cf)/8 at bit (i*cf)%8. Locate and ParameterTable expose that
// mapping directly.
//
// A vector decompressor loads LoadWidth bytes at a time and extracts a group
// of lanes from each load. ComputeMasks re-bases the per-lane byte offsets on
// the group's first byte (the shuffle mask) and keeps the sub-byte position
// (the shift mask). Two group widths are supported: Group4, which extracts
// four 32-bit lanes per 128-bit register, and Group8, which extracts eight
// 16-bit lanes.
//
// Procedure sequences the group-of-4 masks into a whole-buffer walk of load,
// shuffle, shift and store operations. It is a plan: Emulate runs it against a
// byte slice in software so the plan can be checked against the scalar
// reference decoder Unpack.
package bitunpack
