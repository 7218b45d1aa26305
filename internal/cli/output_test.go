package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docsql/internal/engine"
	"github.com/roach88/docsql/internal/row"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"project": "shop"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("TABLE_NOT_FOUND", "table 't' does not exist", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "TABLE_NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "table 't' does not exist", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"statement": "SELEC 1"}
	err := formatter.Error("SYNTAX_ERROR", "syntax error", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("Project 'shop' ready (owner alice).")
	require.NoError(t, err)
	assert.Equal(t, "Project 'shop' ready (owner alice).\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("TABLE_NOT_FOUND", "table 't' does not exist", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [TABLE_NOT_FOUND]")
	assert.Contains(t, buf.String(), "does not exist")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"statement": "SELECT * FROM t"}
	err := formatter.Error("TABLE_NOT_FOUND", "table 't' does not exist", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [TABLE_NOT_FOUND]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Opening %s", "shop.db")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Opening shop.db")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "E_TEST_FAILED",
		Message: "1 scenario(s) failed",
		Details: []string{"CREATE TABLE t (id INT)"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "E_TEST_FAILED", decoded.Code)
	assert.Equal(t, "1 scenario(s) failed", decoded.Message)
}

func TestOutputFormatter_ResultsText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	r := row.New()
	r.Set("name", "Ann")
	r.Set("age", nil)
	results := []*engine.Result{
		{Rows: []*row.Row{}, Columns: []string{}, Message: "1 rows inserted."},
		{Rows: []*row.Row{r}, Columns: []string{"name", "age"}, Explanation: []string{"Loaded 1 rows from table 'p'."}},
	}

	require.NoError(t, formatter.Results(results, false))
	out := buf.String()
	assert.Contains(t, out, "1 rows inserted.\n")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(1 rows)")
	assert.NotContains(t, out, "Loaded")

	buf.Reset()
	require.NoError(t, formatter.Results(results[1:], true))
	assert.Contains(t, buf.String(), "  -> Loaded 1 rows from table 'p'.")
}

func TestOutputFormatter_ResultsEmptySelect(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Results([]*engine.Result{{Rows: []*row.Row{}, Columns: []string{}}}, false))
	assert.Equal(t, "(0 rows)\n", buf.String())
}

func TestOutputFormatter_ResultsJSONKeepsColumnOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	r := row.New()
	r.Set("z", 1.0)
	r.Set("a", "x")
	require.NoError(t, formatter.Results([]*engine.Result{{Rows: []*row.Row{r}, Columns: []string{"z", "a"}}}, false))

	assert.Contains(t, buf.String(), `"rows":[{"z":1,"a":"x"}]`)
	assert.Contains(t, buf.String(), `"status":"ok"`)
}
