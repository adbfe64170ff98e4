// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitunpack

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	tbl := tablewriter.NewWriter(w)
	// Header cells are measured by SetHeader, so wrapping must be off first.
	tbl.SetAutoFormatHeaders(false)
	tbl.SetAutoWrapText(false)
	tbl.SetHeader(header)
	tbl.SetAlignment(tablewriter.ALIGN_RIGHT)
	tbl.SetBorder(false)
	return tbl
}

// WriteParameterTable renders rows produced by ParameterTable.
func WriteParameterTable(w io.Writer, rows []Param) {
	tbl := newTable(w, "index", "input offset", "padding")
	for _, p := range rows {
		tbl.Append([]string{
			strconv.Itoa(p.Lane),
			strconv.Itoa(p.ByteOffset),
			strconv.Itoa(p.BitShift),
		})
	}
	tbl.Render()
}

// WriteMaskTable renders rows produced by MaskTable.
func WriteMaskTable(w io.Writer, rows []GroupMasks) {
	tbl := newTable(w, "index", "first byte", "offset from load (shuffle mask)", "padding (shift mask)")
	for _, m := range rows {
		tbl.Append([]string{
			strconv.Itoa(m.FirstLane()),
			strconv.Itoa(m.BaseByte),
			formatTuple(m.Shuffle),
			formatTuple(m.Shift),
		})
	}
	tbl.Render()
}
