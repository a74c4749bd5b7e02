// Command houdini is the front end for the batch VC-checking and
// Houdini-inference engine: it wires the solver session (B), the batch
// prover driver (D), counterexample projection (E), the inference
// engine (F), lifecycle observation (G), the preamble manifest (H),
// the transcript lock (I), and solver dialect config (J) into two
// subcommands, `check` and `infer`.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vcforge/houdini/pkg/logging"
)

var (
	flagLogDir      string
	flagVerbosity   int
	flagTimeout     int
	flagJSON        bool
	flagDialectFile string
	flagSolverPath  string
	flagMetrics     bool
	flagTraces      bool
	flagMetricsAddr string
	flagPreambleDir string
)

var rootCmd = &cobra.Command{
	Use:   "houdini",
	Short: "Batch VC checking and Houdini-style invariant inference",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "directory for structured application logs")
	rootCmd.PersistentFlags().IntVar(&flagVerbosity, "verbosity", 1, "solver traffic verbosity: 0=silent, 1=commands, 2=truncated")
	rootCmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 30, "per-check timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagDialectFile, "dialects-file", "", "override file for solver dialect definitions")
	rootCmd.PersistentFlags().StringVar(&flagSolverPath, "solver-path", "", "override the dialect's default solver command")
	rootCmd.PersistentFlags().BoolVar(&flagMetrics, "metrics", false, "report houdini_* metrics to stdout on each collection interval")
	rootCmd.PersistentFlags().BoolVar(&flagTraces, "traces", false, "report per-check spans to stdout")
	rootCmd.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus solver-resource metrics on this address during the run (e.g. :9090)")
	rootCmd.PersistentFlags().StringVar(&flagPreambleDir, "preamble-dir", "", "directory of common-axiom/sort-declaration source files to fingerprint and watch for out-of-band edits")

	rootCmd.AddCommand(checkCmd, inferCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(service string) *logging.Logger {
	return logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  flagLogDir,
		Service: service,
	})
}
