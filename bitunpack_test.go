// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitunpack

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
)

func scanFactor(t *testing.T, td *datadriven.TestData) CompressionFactor {
	var cf int
	td.ScanArgs(t, "cf", &cf)
	return CompressionFactor(cf)
}

func scanWidth(t *testing.T, td *datadriven.TestData) GroupWidth {
	var w int
	td.ScanArgs(t, "width", &w)
	return GroupWidth(w)
}

func scanProcedure(t *testing.T, td *datadriven.TestData) (*Procedure, error) {
	var maxIndex int
	td.ScanArgs(t, "max-index", &maxIndex)
	var opts []ProcedureOption
	if td.HasArg("groups-per-step") {
		var n int
		td.ScanArgs(t, "groups-per-step", &n)
		opts = append(opts, WithGroupsPerStep(n))
	}
	return NewProcedure(scanFactor(t, td), maxIndex, opts...)
}

func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, td *datadriven.TestData) string {
			var buf bytes.Buffer
			switch td.Cmd {
			case "params":
				var lanes int
				td.ScanArgs(t, "lanes", &lanes)
				rows, err := ParameterTable(scanFactor(t, td), lanes)
				if err != nil {
					return err.Error()
				}
				for _, p := range rows {
					fmt.Fprintln(&buf, p)
				}

			case "masks":
				var groups int
				td.ScanArgs(t, "groups", &groups)
				rows, err := MaskTable(scanFactor(t, td), scanWidth(t, td), groups)
				if err != nil {
					return err.Error()
				}
				for _, m := range rows {
					fmt.Fprintln(&buf, m)
				}

			case "byte-shuffle":
				var group int
				td.ScanArgs(t, "group", &group)
				m, err := ComputeMasks(scanFactor(t, td), scanWidth(t, td), group)
				if err != nil {
					return err.Error()
				}
				mask := m.ByteShuffle()
				for i, b := range mask {
					if i > 0 {
						buf.WriteByte(' ')
					}
					fmt.Fprintf(&buf, "%02x", b)
				}
				buf.WriteByte('\n')

			case "check-fit":
				if err := CheckFit(scanFactor(t, td), scanWidth(t, td)); err != nil {
					return err.Error()
				}
				return "ok"

			case "limits":
				for _, w := range GroupWidths {
					fmt.Fprintf(&buf, "width=%d lane-bits=%d max=%d fitting=%v\n",
						w, w.LaneBits(), MaxCompressionFactor(w), FittingFactors(w))
				}

			case "ops":
				p, err := scanProcedure(t, td)
				if err != nil {
					return err.Error()
				}
				fmt.Fprintf(&buf, "steps=%d lanes=%d input-bytes=%d\n", p.Steps(), p.Lanes(), p.InputBytes())
				for op := range p.Ops() {
					fmt.Fprintln(&buf, op)
				}

			case "trace":
				p, err := scanProcedure(t, td)
				if err != nil {
					return err.Error()
				}
				if err := WriteTrace(&buf, p); err != nil {
					return err.Error()
				}

			case "unpack":
				values, err := parseValues(td.Input)
				if err != nil {
					return err.Error()
				}
				cf := scanFactor(t, td)
				packed, err := Pack(values, cf)
				if err != nil {
					return err.Error()
				}
				fmt.Fprintf(&buf, "packed: % x\n", packed)
				got, err := Unpack(packed, cf, len(values))
				if err != nil {
					return err.Error()
				}
				fmt.Fprintf(&buf, "unpacked: %v\n", got)

			default:
				return fmt.Sprintf("unknown command: %s", td.Cmd)
			}
			return buf.String()
		})
	})
}

func parseValues(input string) ([]uint32, error) {
	var values []uint32
	for _, f := range strings.Fields(input) {
		var v uint32
		if _, err := fmt.Sscanf(f, "%d", &v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
