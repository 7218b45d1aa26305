package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliRun executes the root command with args and returns stdout.
func cliRun(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// testDB isolates the working directory and HOME, initializes a project
// and returns the flags that select it.
func testDB(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	flags := []string{"--db", filepath.Join(dir, "test.db"), "--project", "shop", "--actor", "alice"}
	_, err := cliRun(t, "", append([]string{"init"}, flags...)...)
	require.NoError(t, err)
	return flags
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "exec", "repl", "schema", "test", "serve"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"config", "db", "project", "actor", "tz", "verbose", "format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag --%s", name)
	}
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	testDB(t)

	_, err := cliRun(t, "", "schema", "--format", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootOptions_Overrides(t *testing.T) {
	assert.Empty(t, (&RootOptions{}).overrides())

	opts := &RootOptions{Database: "x.db", Project: "p", Actor: "a", Timezone: "UTC", Verbose: true}
	assert.Equal(t, map[string]any{
		"database.path":   "x.db",
		"project.id":      "p",
		"project.actor":   "a",
		"engine.timezone": "UTC",
		"log.level":       "debug",
	}, opts.overrides())
}

func TestInit(t *testing.T) {
	flags := testDB(t)

	out, err := cliRun(t, "", append([]string{"init"}, flags...)...)

	require.NoError(t, err)
	assert.Equal(t, "Project 'shop' ready (owner alice).\n", out)
}

func TestInit_BadConfig(t *testing.T) {
	testDB(t)

	_, err := cliRun(t, "", "init", "--config", "missing.yaml")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
