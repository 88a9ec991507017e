// Package main is the entry point for the guard binary.
// It evaluates a declarative policy bundle against a JSON input document and
// prints a pass/fail snapshot of every policy in the bundle.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/polisai/polis-guard/pkg/audit"
	"github.com/polisai/polis-guard/pkg/logging"
	"github.com/polisai/polis-guard/pkg/policy"
	"github.com/polisai/polis-guard/pkg/policyfile"
)

const defaultLogLevel = "info"

// cliConfig holds the parsed CLI configuration.
type cliConfig struct {
	Bundle   string
	Input    string
	LogLevel string
	Pretty   bool
	Watch    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for guard
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "guard",
		Short: "Evaluate a policy bundle against an input document",
		Long: `Evaluates every policy in a declarative bundle (YAML + Rego) against a
JSON input document and prints a full pass/fail snapshot.

The exit status is nonzero when any policy fails, so guard can gate
pipelines directly.

Example:
  guard --bundle policies.yaml --input request.json`,
		RunE:         runGuard,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringP("bundle", "b", "", "Path to the policy bundle (YAML)")
	rootCmd.Flags().StringP("input", "i", "", "Path to the JSON input document")
	rootCmd.Flags().StringP("log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("pretty", false, "Human-readable log output")
	rootCmd.Flags().BoolP("watch", "w", false, "Watch the bundle and re-evaluate on change")
	_ = rootCmd.MarkFlagRequired("bundle")
	_ = rootCmd.MarkFlagRequired("input")

	return rootCmd
}

func runGuard(cmd *cobra.Command, _ []string) error {
	cfg, err := parseFlags(cmd)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.Pretty})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	set, err := policyfile.Load(ctx, cfg.Bundle)
	if err != nil {
		return err
	}

	doc, err := readInput(cfg.Input)
	if err != nil {
		return err
	}

	recorder := audit.NewRecorder(logger, nil)
	failed := evaluate(cmd, recorder, set, doc)

	if cfg.Watch {
		watcher, err := policyfile.NewWatcher(cfg.Bundle, func(next *policy.Set[map[string]any]) {
			evaluate(cmd, recorder, next, doc)
		}, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop() //nolint:errcheck

		<-ctx.Done()
		return nil
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d policies failed", failed, set.Len())
	}
	return nil
}

func parseFlags(cmd *cobra.Command) (cliConfig, error) {
	var cfg cliConfig
	var err error

	if cfg.Bundle, err = cmd.Flags().GetString("bundle"); err != nil {
		return cfg, err
	}
	if cfg.Input, err = cmd.Flags().GetString("input"); err != nil {
		return cfg, err
	}
	if cfg.LogLevel, err = cmd.Flags().GetString("log-level"); err != nil {
		return cfg, err
	}
	if cfg.Pretty, err = cmd.Flags().GetBool("pretty"); err != nil {
		return cfg, err
	}
	if cfg.Watch, err = cmd.Flags().GetBool("watch"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func readInput(path string) (map[string]any, error) {
	//nolint:gosec // Input path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input document %s: %w", path, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse input document %s: %w", path, err)
	}
	return doc, nil
}

// evaluate runs the full snapshot and prints one line per policy, returning
// the number of failures.
func evaluate(cmd *cobra.Command, recorder *audit.Recorder, set *policy.Set[map[string]any], doc map[string]any) int {
	names := set.Names()
	probes := make([]policy.Probe, 0, len(names))
	for _, name := range names {
		probes = append(probes, policy.Bind(set.Policy(name), doc))
	}

	results := audit.Snapshot(recorder, probes...)

	failed := 0
	for _, name := range names {
		status := "PASS"
		if !results[name] {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", status, name)
	}
	return failed
}
