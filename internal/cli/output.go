package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/roach88/docsql/internal/engine"
	"github.com/roach88/docsql/internal/row"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Statement or scenario failure
	ExitCommandError = 2 // Command error (invalid paths, bad configuration, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // QueryError code or E_* command code
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Results prints statement results: a table per SELECT, the message for
// every other statement. With explain, each SELECT is followed by its
// explanation trace.
func (f *OutputFormatter) Results(results []*engine.Result, explain bool) error {
	if f.Format == "json" {
		return f.Success(results)
	}

	for _, res := range results {
		if res.Message != "" {
			fmt.Fprintln(f.Writer, res.Message)
			continue
		}
		f.renderTable(res)
		if explain {
			for _, line := range res.Explanation {
				fmt.Fprintf(f.Writer, "  -> %s\n", line)
			}
		}
	}
	return nil
}

// renderTable draws a result set with go-pretty and a row count footer.
func (f *OutputFormatter) renderTable(res *engine.Result) {
	if len(res.Columns) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(f.Writer)
		t.SetStyle(table.StyleRounded)
		t.Style().Options.SeparateRows = false

		header := make(table.Row, len(res.Columns))
		for i, c := range res.Columns {
			header[i] = c
		}
		t.AppendHeader(header)

		for _, rw := range res.Rows {
			cells := make(table.Row, len(res.Columns))
			for i, c := range res.Columns {
				v, _ := rw.Get(c)
				cells[i] = formatCell(v)
			}
			t.AppendRow(cells)
		}
		t.Render()
	}
	fmt.Fprintf(f.Writer, "(%d rows)\n", len(res.Rows))
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return row.String(v)
}
