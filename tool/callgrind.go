// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"

	"github.com/cockroachdb/bitunpack/callgrind"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// callgrindT implements the callgrind profile tools.
type callgrindT struct {
	Root *cobra.Command
	Cost *cobra.Command

	fn       string
	contains string
}

func newCallgrind() *callgrindT {
	c := &callgrindT{}
	c.Root = &cobra.Command{
		Use:   "callgrind",
		Short: "callgrind profile tools",
	}
	c.Cost = &cobra.Command{
		Use:   "cost <profiles...>",
		Short: "print the inclusive cost of a function",
		Long: `
Print the event costs attributed to a function in each callgrind profile,
summed over every block of the function. Profiles ending in .gz, .zst or .sz
are decompressed.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.runCost,
	}
	c.Root.AddCommand(c.Cost)
	c.Cost.Flags().StringVar(&c.fn, "fn", "", "exact function name")
	c.Cost.Flags().StringVar(&c.contains, "contains", "", "substring of the function name")
	return c
}

func (c *callgrindT) matcher() (callgrind.Matcher, error) {
	switch {
	case c.fn != "" && c.contains != "":
		return nil, errors.New("--fn and --contains are mutually exclusive")
	case c.fn != "":
		return callgrind.ExactName(c.fn), nil
	case c.contains != "":
		return callgrind.NameContains(c.contains), nil
	}
	return nil, errors.New("one of --fn or --contains is required")
}

func (c *callgrindT) runCost(cmd *cobra.Command, args []string) error {
	m, err := c.matcher()
	if err != nil {
		return err
	}
	for _, path := range args {
		cost, err := callgrind.InclusiveCost(path, m)
		if err != nil {
			return err
		}
		if len(args) > 1 {
			fmt.Fprintf(stdout, "%s: ", path)
		}
		fmt.Fprintf(stdout, "%s\n", cost)
	}
	return nil
}
