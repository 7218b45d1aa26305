package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/docsql/internal/engine"
	"github.com/roach88/docsql/internal/store"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	SQL     string
	Explain bool
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec [file]",
		Short: "Execute SQL statements",
		Long: `Execute a SQL submission against the configured project.

Statements are separated by ';' and run in order. Execution stops at the
first failing statement; statements before it stay committed.

The SQL comes from -e, from the given file, or from stdin when the file
is '-'.

Exit codes:
  0 - All statements succeeded
  1 - A statement failed
  2 - Command error (bad configuration, unreadable file, etc.)

Examples:
  docsql exec -e "SELECT * FROM users"
  docsql exec schema.sql
  docsql exec --explain -e "SELECT city, COUNT(*) FROM users GROUP BY city"
  cat seed.sql | docsql exec -`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readSubmission(opts.SQL, args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return execSQL(opts, sql, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.SQL, "execute", "e", "", "SQL to execute")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print the explanation trace of each SELECT")

	return cmd
}

// readSubmission picks the SQL source: -e text, a file, or stdin for "-".
func readSubmission(inline string, args []string, stdin io.Reader) (string, error) {
	switch {
	case inline != "" && len(args) > 0:
		return "", NewExitError(ExitCommandError, "use either -e or a file, not both")
	case inline != "":
		return inline, nil
	case len(args) == 0:
		return "", NewExitError(ExitCommandError, "no SQL given: use -e or a file argument")
	case args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", WrapExitError(ExitCommandError, "failed to read SQL file", err)
		}
		return string(data), nil
	}
}

func execSQL(opts *ExecOptions, sql string, cmd *cobra.Command) error {
	if strings.TrimSpace(sql) == "" {
		return NewExitError(ExitCommandError, "empty submission")
	}

	e, err := openEnv(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	results, err := e.execute(cmd.Context(), sql)
	if err != nil {
		if opts.Format == "text" {
			if outErr := f.Results(results, opts.Explain); outErr != nil {
				return outErr
			}
		}
		return reportExecError(f, results, err)
	}
	return f.Results(results, opts.Explain)
}

// reportExecError prints a failed submission and returns the exit error.
// JSON output carries the completed results in the error details.
func reportExecError(f *OutputFormatter, results []*engine.Result, err error) error {
	code := errorCode(err)
	var details any
	if f.Format == "json" {
		details = results
	}
	if outErr := f.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("statement failed [%s]", code), err)
}

// errorCode names an execution error for output.
func errorCode(err error) string {
	if code := engine.CodeOf(err); code != "" {
		return string(code)
	}
	if errors.Is(err, store.ErrUnauthorized) {
		return "E_UNAUTHORIZED"
	}
	return "E_EXEC"
}
