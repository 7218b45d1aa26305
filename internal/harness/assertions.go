package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/docsql/internal/engine"
	"github.com/roach88/docsql/internal/row"
)

// AssertionError is returned when a step does not meet its expectation.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Step     int    // Zero-based step index
	SQL      string // Step submission
	Field    string // Expectation that failed (columns, rows, message…)
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: steps[%d] %s\n", e.Step, e.Field)
	fmt.Fprintf(&buf, "  SQL: %s\n", oneLine(e.SQL))
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkStep compares a step outcome against its expectation and returns
// every mismatch.
func checkStep(index int, step Step, got StepResult) []error {
	fail := func(field, expected, actual string) error {
		return &AssertionError{Step: index, SQL: step.SQL, Field: field, Expected: expected, Actual: actual}
	}

	want := step.Expect
	if want == nil {
		want = &Expect{}
	}

	if want.Error != "" {
		if got.Error == "" {
			return []error{fail("error", want.Error, "step succeeded")}
		}
		if got.Code != want.Error && !strings.Contains(got.Error, want.Error) {
			return []error{fail("error", want.Error, got.Error)}
		}
		return nil
	}
	if got.Error != "" {
		return []error{fail("error", "no error", got.Error)}
	}

	last := got.Last()
	if last == nil {
		return []error{fail("result", "a statement result", "no statements ran")}
	}

	var errs []error
	if len(want.Columns) > 0 && !reflect.DeepEqual(want.Columns, last.Columns) {
		errs = append(errs, fail("columns", fmt.Sprint(want.Columns), fmt.Sprint(last.Columns)))
	}
	if want.RowCount != nil && *want.RowCount != len(last.Rows) {
		errs = append(errs, fail("row_count", fmt.Sprint(*want.RowCount), fmt.Sprint(len(last.Rows))))
	}
	if want.Rows != nil {
		if err := checkRows(want, last); err != "" {
			errs = append(errs, fail("rows", fmt.Sprint(want.Rows), err))
		}
	}
	if want.Message != "" && want.Message != last.Message {
		errs = append(errs, fail("message", fmt.Sprintf("%q", want.Message), fmt.Sprintf("%q", last.Message)))
	}
	if want.MessageContains != "" && !strings.Contains(last.Message, want.MessageContains) {
		errs = append(errs, fail("message_contains", fmt.Sprintf("%q", want.MessageContains), fmt.Sprintf("%q", last.Message)))
	}
	return errs
}

// checkRows compares rows positionally. Values are read by the expected
// column names, or the result's own columns when none are given. Returns a
// description of the first mismatch, or "".
func checkRows(want *Expect, got *engine.Result) string {
	if len(want.Rows) != len(got.Rows) {
		return fmt.Sprintf("%d rows: %v", len(got.Rows), rowValues(got.Rows, got.Columns))
	}

	columns := want.Columns
	if len(columns) == 0 {
		columns = got.Columns
	}

	actual := rowValues(got.Rows, columns)
	for i, wantRow := range want.Rows {
		if len(wantRow) != len(columns) {
			return fmt.Sprintf("row %d has %d columns %v", i, len(columns), actual[i])
		}
		for j, v := range wantRow {
			if !reflect.DeepEqual(row.Normalize(v), actual[i][j]) {
				return fmt.Sprintf("row %d column %s = %#v in %v", i, columns[j], actual[i][j], actual)
			}
		}
	}
	return ""
}

func rowValues(rows []*row.Row, columns []string) [][]any {
	out := make([][]any, len(rows))
	for i, rw := range rows {
		vals := make([]any, len(columns))
		for j, c := range columns {
			vals[j], _ = rw.Get(c)
		}
		out[i] = vals
	}
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// codeOf extracts the QueryError code from err, if any.
func codeOf(err error) string {
	return string(engine.CodeOf(err))
}
