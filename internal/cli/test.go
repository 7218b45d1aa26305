package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/docsql/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario name substring
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files",
		Long: `Run YAML scenario files against fresh in-memory databases.

Each scenario runs its SQL steps in order and checks the declared
expectations. When <scenarios-dir>/golden exists, every scenario is also
compared against its {name}.golden snapshot.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  docsql test ./scenarios
  docsql test ./scenarios --filter orders
  docsql test ./scenarios --update
  docsql test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only scenarios whose name contains this")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	suiteOpts := harness.SuiteOptions{Filter: opts.Filter, Update: opts.Update}
	goldenDir := filepath.Join(dir, "golden")
	if _, err := os.Stat(goldenDir); err == nil || opts.Update {
		suiteOpts.GoldenDir = goldenDir
	}

	result, err := harness.RunSuite(dir, suiteOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}

	if opts.Format == "json" {
		if err := outputTestJSON(cmd, result); err != nil {
			return err
		}
	} else {
		outputTestText(cmd, result, opts.Update)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestJSON outputs the suite result as JSON.
func outputTestJSON(cmd *cobra.Command, result *harness.SuiteResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response = CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    "E_TEST_FAILED",
				Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
				Details: result,
			},
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTestText outputs the suite result as human-readable text.
func outputTestText(cmd *cobra.Command, result *harness.SuiteResult, updated bool) {
	w := cmd.OutOrStdout()

	if result.TotalScenarios == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}

	for _, f := range result.Failures {
		fmt.Fprintf(w, "✗ %s (%s)\n", f.Scenario, f.Path)
		for _, e := range f.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	if updated {
		fmt.Fprintln(w, "Golden files updated.")
	}

	fmt.Fprintln(w)
	if result.Failed == 0 {
		fmt.Fprintf(w, "✓ All %d scenarios passed\n", result.TotalScenarios)
	}
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total", result.Passed, result.Failed, result.TotalScenarios)
	if result.Skipped > 0 {
		fmt.Fprintf(w, " (%d skipped)", result.Skipped)
	}
	fmt.Fprintln(w)
}
