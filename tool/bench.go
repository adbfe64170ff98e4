// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/bitunpack/internal/base"
	"github.com/cockroachdb/bitunpack/internal/scanbench"
	"github.com/cockroachdb/bitunpack/internal/scanplot"
	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
)

// benchT implements the scan benchmark tools.
type benchT struct {
	Root    *cobra.Command
	Run     *cobra.Command
	Summary *cobra.Command
	Plot    *cobra.Command

	logger base.Logger
	runner scanbench.Runner

	envFiles    []string
	binary      string
	concurrency int
	out         string
	plotOpts    scanplot.Options
}

func newBench(logger base.Logger, runner scanbench.Runner) *benchT {
	b := &benchT{logger: logger, runner: runner}
	b.Root = &cobra.Command{
		Use:   "bench",
		Short: "scan benchmark tools",
	}
	b.Run = &cobra.Command{
		Use:   "run",
		Short: "run the scan benchmark binary over a sweep of predicate counts",
		Long: `
Run the scan benchmark binary once per data size and predicate count and write
the average runtime of every variant as CSV. The sweep is configured through
BITUNPACK_* environment variables, optionally loaded from --env-file:

  BITUNPACK_SCAN_BINARY     path of the benchmark binary
  BITUNPACK_DATA_SIZES      comma separated data sizes (default 40)
  BITUNPACK_REPETITIONS     repetitions per invocation (default 1)
  BITUNPACK_MODE            benchmark mode (default sharedscan)
  BITUNPACK_MIN_PREDICATES  first predicate count (default 1)
  BITUNPACK_MAX_PREDICATES  last predicate count (default 512)
  BITUNPACK_PREDICATE_STEP  predicate count increment (default 1)
  BITUNPACK_CONCURRENCY     invocations run at once (default 1)
`,
		Args: cobra.NoArgs,
		RunE: b.runRun,
	}
	b.Summary = &cobra.Command{
		Use:   "summary <csv>",
		Short: "summarize the runtime distribution of each variant",
		Args:  cobra.ExactArgs(1),
		RunE:  b.runSummary,
	}
	b.Plot = &cobra.Command{
		Use:   "plot <csv>",
		Short: "chart benchmark results",
		Long: `
Chart the absolute and per-predicate runtime of each variant against the
predicate count, one chart per data size. With --baseline and --candidate, also
chart the percentage by which the candidate improves on the baseline.
`,
		Args: cobra.ExactArgs(1),
		RunE: b.runPlot,
	}
	b.Root.AddCommand(b.Run, b.Summary)

	b.Run.Flags().StringSliceVar(&b.envFiles, "env-file", nil, "env files to load before reading the environment")
	b.Run.Flags().StringVar(&b.binary, "binary", "", "override BITUNPACK_SCAN_BINARY")
	b.Run.Flags().IntVarP(&b.concurrency, "concurrency", "c", 0, "override BITUNPACK_CONCURRENCY")
	b.Run.Flags().StringVarP(&b.out, "out", "o", "", "output file (default stdout)")

	b.Plot.Flags().StringVar(&b.plotOpts.VariantPrefix, "prefix", "", "only chart variants with this prefix")
	b.Plot.Flags().StringVar(&b.plotOpts.Baseline, "baseline", "", "variant the improvement is measured against")
	b.Plot.Flags().StringVar(&b.plotOpts.Candidate, "candidate", "", "variant whose improvement is charted")
	b.Plot.Flags().IntVar(&b.plotOpts.Height, "height", 10, "chart height in rows")
	b.Plot.Flags().IntVar(&b.plotOpts.Width, "width", 0, "chart width in columns (default one per point)")
	return b
}

func (b *benchT) runRun(cmd *cobra.Command, args []string) (err error) {
	cfg, err := scanbench.LoadConfig(b.envFiles...)
	if err != nil {
		return err
	}
	if b.binary != "" {
		cfg.Binary = b.binary
	}
	if b.concurrency != 0 {
		cfg.Concurrency = b.concurrency
	}
	m := scanbench.NewMetrics(nil)
	d, err := scanbench.NewDriver(cfg,
		scanbench.WithLogger(b.logger), scanbench.WithRunner(b.runner), scanbench.WithMetrics(m))
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := d.Run(ctx)
	b.logMetrics(m)
	if err != nil {
		return err
	}
	w := stdout
	if b.out != "" {
		var f *os.File
		if f, err = os.Create(b.out); err != nil {
			return err
		}
		defer func() { err = errors.CombineErrors(err, f.Close()) }()
		w = f
	}
	return scanbench.WriteCSV(w, results)
}

func (b *benchT) logMetrics(m scanbench.Metrics) {
	var latency, failed dto.Metric
	if m.InvocationLatency.Write(&latency) != nil || m.FailedInvocations.Write(&failed) != nil {
		return
	}
	h := latency.GetHistogram()
	b.logger.Infof("bench: %d invocations (%d failed) in %.3fs",
		h.GetSampleCount(), int64(failed.GetCounter().GetValue()), h.GetSampleSum())
}

func readResults(path string) ([]scanbench.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return scanbench.ReadCSV(f)
}

func (b *benchT) runSummary(cmd *cobra.Command, args []string) error {
	results, err := readResults(args[0])
	if err != nil {
		return err
	}
	writeSummary(stdout, scanbench.Summarize(results))
	return nil
}

func writeSummary(w io.Writer, sums []scanbench.Summary) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetAutoFormatHeaders(false)
	tbl.SetHeader([]string{"variant", "runs", "mean ms", "p50 ms", "p99 ms", "max ms"})
	tbl.SetAlignment(tablewriter.ALIGN_RIGHT)
	tbl.SetBorder(false)
	for _, s := range sums {
		tbl.Append([]string{
			s.Variant,
			fmt.Sprint(s.Count),
			fmt.Sprintf("%.3f", s.Mean),
			fmt.Sprintf("%.3f", s.P50),
			fmt.Sprintf("%.3f", s.P99),
			fmt.Sprintf("%.3f", s.Max),
		})
	}
	tbl.Render()
}

func (b *benchT) runPlot(cmd *cobra.Command, args []string) error {
	if (b.plotOpts.Baseline == "") != (b.plotOpts.Candidate == "") {
		return errors.New("--baseline and --candidate must be given together")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	rows, err := scanplot.ReadCSV(f)
	if err != nil {
		return err
	}
	return scanplot.Render(stdout, rows, b.plotOpts)
}
