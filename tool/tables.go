// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/cockroachdb/bitunpack"
	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sys/cpu"
)

// tablesT implements the table generators and their checks.
type tablesT struct {
	Params *cobra.Command
	Masks  *cobra.Command
	Unpack *cobra.Command
	Verify *cobra.Command
	Gen    *cobra.Command
	Limits *cobra.Command

	lanes         int
	width         widthFlag
	groups        int
	maxIndex      int
	groupsPerStep int
	verbose       bool
	values        int
	seed          uint64
	pkg           string
	out           string
	host          bool
}

func newTables() *tablesT {
	t := &tablesT{width: widthFlag(bitunpack.Group4)}

	t.Params = &cobra.Command{
		Use:   "params <factor>",
		Short: "print the byte offset and bit shift of each lane",
		Long: `
Print, for the first --lanes lanes of a buffer packed with <factor> bits per
value, the byte holding the lane's first bit and the bit padding within it.
`,
		Args: factorArgs(1),
		RunE: t.runParams,
	}
	t.Masks = &cobra.Command{
		Use:   "masks <factor>",
		Short: "print the shuffle and shift masks of each group",
		Long: `
Print, for the first --groups groups of --width lanes, the byte the group's
load is anchored at, the offset of each lane from that byte (the shuffle mask)
and the bit padding of each lane (the shift mask).
`,
		Args: factorArgs(1),
		RunE: t.runMasks,
	}
	t.Unpack = &cobra.Command{
		Use:   "unpack <factor>",
		Short: "print the vectorized unpacking procedure",
		Long: `
Print the load, shuffle, shift and store operations that unpack lanes
[0, --max-index] of a buffer packed with <factor> bits per value.
`,
		Args: factorArgs(1),
		RunE: t.runUnpack,
	}
	t.Verify = &cobra.Command{
		Use:   "verify <factors...>",
		Short: "check the unpacking procedure against a scalar decoder",
		Long: `
Pack --values random values for each factor, run the unpacking procedure over
them in software and compare every lane with the scalar decoder.
`,
		Args: factorArgs(1),
		RunE: t.runVerify,
	}
	t.Gen = &cobra.Command{
		Use:   "gen [factors...]",
		Short: "generate Go mask tables",
		Long: `
Generate a Go source file declaring the shuffle and shift masks of one mask
period of groups for each factor. Without factors, every factor that fits
--width is generated.
`,
		Args: factorArgs(0),
		RunE: t.runGen,
	}
	t.Limits = &cobra.Command{
		Use:   "limits",
		Short: "print the compression factors each group width supports",
		Args:  cobra.NoArgs,
		RunE:  t.runLimits,
	}

	t.Params.Flags().IntVar(&t.lanes, "lanes", 32, "number of lanes to print")
	for _, cmd := range []*cobra.Command{t.Masks, t.Gen} {
		cmd.Flags().Var(&t.width, "width", "lanes per group (4 or 8)")
	}
	t.Masks.Flags().IntVar(&t.groups, "groups", 8, "number of groups to print")
	for _, cmd := range []*cobra.Command{t.Unpack, t.Verify} {
		cmd.Flags().IntVar(
			&t.groupsPerStep, "groups-per-step", bitunpack.DefaultGroupsPerStep,
			"groups of eight lanes unpacked per outer step")
		cmd.Flags().BoolVarP(&t.verbose, "verbose", "v", false, "print sizes")
	}
	t.Unpack.Flags().IntVar(&t.maxIndex, "max-index", 127, "highest lane to unpack")
	t.Verify.Flags().IntVar(&t.values, "values", 1000, "number of values to pack")
	t.Verify.Flags().Uint64Var(&t.seed, "seed", 1, "random seed")
	t.Gen.Flags().StringVar(&t.pkg, "package", "simdscan", "package of the generated file")
	t.Gen.Flags().StringVarP(&t.out, "out", "o", "", "output file (default stdout)")
	t.Limits.Flags().BoolVar(&t.host, "host", false, "also print the vector extensions of this CPU")
	return t
}

// Commands returns the top-level commands.
func (t *tablesT) Commands() []*cobra.Command {
	return []*cobra.Command{t.Params, t.Masks, t.Unpack, t.Verify, t.Gen, t.Limits}
}

func (t *tablesT) runParams(cmd *cobra.Command, args []string) error {
	cf, _ := parseFactor(args[0])
	rows, err := bitunpack.ParameterTable(cf, t.lanes)
	if err != nil {
		return err
	}
	bitunpack.WriteParameterTable(stdout, rows)
	return nil
}

func (t *tablesT) runMasks(cmd *cobra.Command, args []string) error {
	cf, _ := parseFactor(args[0])
	rows, err := bitunpack.MaskTable(cf, bitunpack.GroupWidth(t.width), t.groups)
	if err != nil {
		return err
	}
	bitunpack.WriteMaskTable(stdout, rows)
	return nil
}

func (t *tablesT) runUnpack(cmd *cobra.Command, args []string) error {
	cf, _ := parseFactor(args[0])
	p, err := bitunpack.NewProcedure(cf, t.maxIndex, bitunpack.WithGroupsPerStep(t.groupsPerStep))
	if err != nil {
		return err
	}
	if err := bitunpack.WriteTrace(stdout, p); err != nil {
		return err
	}
	if t.verbose {
		fmt.Fprintf(stdout, "%s lanes in %d steps from %s of packed input\n",
			crhumanize.Count(int64(p.Lanes()), crhumanize.Compact), p.Steps(),
			crhumanize.Bytes(int64(p.InputBytes()), crhumanize.Compact, crhumanize.OmitI))
	}
	return nil
}

func (t *tablesT) runVerify(cmd *cobra.Command, args []string) error {
	factors, _ := parseFactors(args)
	if t.values < 1 {
		return errors.Mark(errors.Newf("--values must be positive, got %d", t.values), bitunpack.ErrInvalidInput)
	}
	rng := rand.New(rand.NewPCG(t.seed, t.seed))
	var failed int
	for _, cf := range factors {
		if err := t.verify(cf, rng); err != nil {
			fmt.Fprintf(stderr, "cf=%d: %s\n", cf, err)
			failed++
		}
	}
	if failed > 0 {
		return errors.Newf("verify: %d of %d factors failed", failed, len(factors))
	}
	return nil
}

func (t *tablesT) verify(cf bitunpack.CompressionFactor, rng *rand.Rand) error {
	p, err := bitunpack.NewProcedure(cf, t.values-1, bitunpack.WithGroupsPerStep(t.groupsPerStep))
	if err != nil {
		return err
	}
	values := make([]uint32, t.values)
	for i := range values {
		values[i] = uint32(rng.Uint64() & (1<<uint(cf) - 1))
	}
	packed, err := bitunpack.Pack(values, cf)
	if err != nil {
		return err
	}
	want, err := bitunpack.Unpack(packed, cf, len(values))
	if err != nil {
		return err
	}
	got := make([]uint32, len(values))
	if err := p.Emulate(packed, got); err != nil {
		return err
	}
	for i := range want {
		if got[i] != want[i] || want[i] != values[i] {
			return errors.Newf("lane %d: unpacked %d, decoded %d, packed %d", i, got[i], want[i], values[i])
		}
	}
	fmt.Fprintf(stdout, "cf=%d: %d values ok\n", cf, len(values))
	if t.verbose {
		fmt.Fprintf(stdout, "  %s values packed into %s\n",
			crhumanize.Count(int64(len(values)), crhumanize.Compact),
			crhumanize.Bytes(int64(len(packed)), crhumanize.Compact, crhumanize.OmitI))
	}
	return nil
}

func (t *tablesT) runGen(cmd *cobra.Command, args []string) error {
	w := bitunpack.GroupWidth(t.width)
	factors, _ := parseFactors(args)
	if len(factors) == 0 {
		factors = bitunpack.FittingFactors(w)
	}
	var buf bytes.Buffer
	if err := bitunpack.WriteGoTables(&buf, t.pkg, w, factors); err != nil {
		return err
	}
	if t.out == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(t.out, buf.Bytes(), 0644)
}

func (t *tablesT) runLimits(cmd *cobra.Command, args []string) error {
	for _, w := range bitunpack.GroupWidths {
		fitting := bitunpack.FittingFactors(w)
		maxCF := bitunpack.MaxCompressionFactor(w)
		fmt.Fprintf(stdout, "width %d: %d-bit lanes, factors 1-%d", w, w.LaneBits(), maxCF)
		if extra := fitting[slices.Index(fitting, maxCF)+1:]; len(extra) > 0 {
			fmt.Fprintf(stdout, " and %v", extra)
		}
		fmt.Fprintf(stdout, ", mask period %v\n", periods(w, fitting))
	}
	if t.host {
		fmt.Fprintf(stdout, "host: ssse3=%t sse4.1=%t avx2=%t asimd=%t\n",
			cpu.X86.HasSSSE3, cpu.X86.HasSSE41, cpu.X86.HasAVX2, cpu.ARM64.HasASIMD)
	}
	return nil
}

// periods returns the distinct mask periods of the given factors.
func periods(w bitunpack.GroupWidth, factors []bitunpack.CompressionFactor) []int {
	var ps []int
	for _, cf := range factors {
		ps = append(ps, bitunpack.PatternPeriod(cf, w))
	}
	slices.Sort(ps)
	return slices.Compact(ps)
}
