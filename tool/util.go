// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/bitunpack"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var stdout = io.Writer(os.Stdout)
var stderr = io.Writer(os.Stderr)

// widthFlag is a pflag.Value holding a validated group width.
type widthFlag bitunpack.GroupWidth

func (w *widthFlag) String() string {
	return strconv.Itoa(int(*w))
}

func (w *widthFlag) Type() string {
	return "width"
}

func (w *widthFlag) Set(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Mark(errors.Newf("group width %q is not an integer", v), bitunpack.ErrInvalidInput)
	}
	if err := bitunpack.GroupWidth(n).Validate(); err != nil {
		return err
	}
	*w = widthFlag(n)
	return nil
}

func parseFactor(arg string) (bitunpack.CompressionFactor, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Mark(errors.Newf("compression factor %q is not an integer", arg), bitunpack.ErrInvalidInput)
	}
	cf := bitunpack.CompressionFactor(n)
	if err := cf.Validate(); err != nil {
		return 0, err
	}
	return cf, nil
}

func parseFactors(args []string) ([]bitunpack.CompressionFactor, error) {
	factors := make([]bitunpack.CompressionFactor, 0, len(args))
	for _, arg := range args {
		cf, err := parseFactor(arg)
		if err != nil {
			return nil, err
		}
		factors = append(factors, cf)
	}
	return factors, nil
}

// factorArgs validates that every positional argument is a compression
// factor, and that there are at least min of them.
func factorArgs(min int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < min {
			return errors.Newf("requires at least %d compression factor(s), received %d", min, len(args))
		}
		_, err := parseFactors(args)
		return err
	}
}
