package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vcforge/houdini/internal/config"
	"github.com/vcforge/houdini/internal/filelock"
	"github.com/vcforge/houdini/internal/prover"
	"github.com/vcforge/houdini/internal/solver"
)

var checkDialectName string
var checkControlFlowConstant int

var checkCmd = &cobra.Command{
	Use:   "check <preamble-file> <vc-file>",
	Short: "Run a single batch VC check against a solver",
	Args:  cobra.ExactArgs(2),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkDialectName, "solver", "z3", "solver dialect name (see dialects.yaml)")
	checkCmd.Flags().IntVar(&checkControlFlowConstant, "control-flow-constant", 0, "procedure identifier for control-flow path extraction")
}

func runCheck(cmd *cobra.Command, args []string) error {
	preambleFile, vcFile := args[0], args[1]

	preambleBytes, err := os.ReadFile(preambleFile)
	if err != nil {
		return fmt.Errorf("read preamble: %w", err)
	}
	vcBytes, err := os.ReadFile(vcFile)
	if err != nil {
		return fmt.Errorf("read vc: %w", err)
	}

	reg, err := config.Default(flagDialectFile)
	if err != nil {
		return fmt.Errorf("load dialects: %w", err)
	}
	dialect, ok := reg.Get(checkDialectName)
	if !ok {
		return fmt.Errorf("unknown solver dialect %q", checkDialectName)
	}
	command := dialect.Command
	if flagSolverPath != "" {
		command = flagSolverPath
	}

	logger := newLogger("houdini-check")
	defer logger.Close()

	var logWriter *os.File
	var locker *filelock.Manager
	if flagLogDir != "" {
		locker, err = filelock.NewManager(filepath.Join(flagLogDir, "locks"))
		if err != nil {
			return fmt.Errorf("init transcript lock: %w", err)
		}
		transcriptPath := filepath.Join(flagLogDir, filepath.Base(vcFile)+".transcript.smt2")
		if err := locker.Acquire(transcriptPath); err != nil {
			return fmt.Errorf("acquire transcript lock: %w", err)
		}
		defer locker.Release(transcriptPath)
		logWriter, err = os.OpenFile(transcriptPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("open transcript: %w", err)
		}
		defer logWriter.Close()
	}

	session := solver.New(solver.Config{
		Command:   command,
		Args:      dialect.Args,
		Verbosity: solver.Verbosity(flagVerbosity),
		Logger:    logger.Slog(),
		LogWriter: logWriter,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(flagTimeout)*time.Second)
	defer cancel()

	metrics, shutdownMetrics, err := setupMetrics(flagMetrics)
	if err != nil {
		return fmt.Errorf("setup metrics: %w", err)
	}
	defer shutdownMetrics(ctx)
	shutdownTracing, err := setupTracing(flagTraces)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer shutdownTracing(ctx)

	watcher, err := watchPreamble(ctx, flagPreambleDir, logger.Slog())
	if err != nil {
		return fmt.Errorf("preamble manifest: %w", err)
	}
	if watcher != nil {
		defer watcher.Close()
	}

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start solver: %w", err)
	}
	defer func() {
		session.Close()
		if session.ExitError() != nil {
			metrics.SolverSessionExits.Add(ctx, 1, metric.WithAttributes(attribute.String("implementation", vcFile)))
		}
	}()

	gen := &staticVCGenerator{
		preamble: splitLines(string(preambleBytes)),
		vc:       strings.TrimSpace(string(vcBytes)),
	}
	driver := prover.New(session, gen, dialect.ProverDialect())

	if err := driver.BeginCheck(); err != nil {
		return fmt.Errorf("begin check: %w", err)
	}
	ctx, span := tracer().Start(ctx, "houdini.check", trace.WithAttributes(attribute.String("vc_file", vcFile)))
	start := time.Now()
	result, err := driver.Check(ctx, gen.vc, checkControlFlowConstant, nil)
	elapsed := time.Since(start).Seconds()
	span.End()
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	if err := driver.EndCheck(); err != nil {
		return fmt.Errorf("end check: %w", err)
	}

	attrs := metric.WithAttributes(attribute.String("outcome", result.Outcome.String()))
	metrics.SolverChecksTotal.Add(ctx, 1, attrs)
	metrics.SolverCheckDuration.Record(ctx, elapsed, attrs)

	return printCheckResult(cmd, result)
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func printCheckResult(cmd *cobra.Command, result prover.Result) error {
	if flagJSON {
		out := struct {
			Outcome   string   `json:"outcome"`
			HasModel  bool     `json:"has_model"`
			Path      []string `json:"path,omitempty"`
			RLimit    int64    `json:"rlimit,omitempty"`
			HasRLimit bool     `json:"has_rlimit"`
		}{
			Outcome:   result.Outcome.String(),
			HasModel:  result.HasModel,
			Path:      result.Path,
			RLimit:    result.RLimit,
			HasRLimit: result.HasRLimit,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "outcome: %s\n", result.Outcome.String())
	if result.HasRLimit {
		fmt.Fprintf(cmd.OutOrStdout(), "rlimit: %d\n", result.RLimit)
	}
	if len(result.Path) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "path: %s\n", strings.Join(result.Path, " -> "))
	}
	if result.HasModel {
		fmt.Fprintf(cmd.OutOrStdout(), "model:\n%s\n", result.Model.String())
	}
	return nil
}
