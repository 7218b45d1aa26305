package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

const (
	passingScenario = `
name: counts
description: Count generated rows
steps:
  - sql: SELECT COUNT(*) AS n FROM generate_series(1, 3)
    expect:
      rows: [[3]]
`
	failingScenario = `
name: wrong_count
description: Expects the wrong count
steps:
  - sql: SELECT COUNT(*) AS n FROM generate_series(1, 3)
    expect:
      rows: [[4]]
`
)

func TestRunSuite(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", passingScenario)
	writeScenario(t, dir, "b.yml", failingScenario)
	writeScenario(t, dir, "c.yaml", "name: broken\n")
	writeScenario(t, dir, "notes.txt", "ignored")

	res, err := RunSuite(dir, SuiteOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalScenarios)
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "wrong_count", res.Failures[0].Scenario)
	assert.Equal(t, "c.yaml", res.Failures[1].Scenario)
	assert.Contains(t, res.Failures[1].Errors[0], "description is required")
}

func TestRunSuite_Filter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", passingScenario)
	writeScenario(t, dir, "b.yaml", failingScenario)

	res, err := RunSuite(dir, SuiteOptions{Filter: "counts"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalScenarios)
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 1, res.Skipped)
}

func TestRunSuite_GoldenSnapshots(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden")
	writeScenario(t, dir, "a.yaml", passingScenario)

	res, err := RunSuite(dir, SuiteOptions{GoldenDir: golden})
	require.NoError(t, err)
	require.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Failures[0].Errors[0], "does not exist")

	res, err = RunSuite(dir, SuiteOptions{GoldenDir: golden, Update: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Passed)
	assert.FileExists(t, filepath.Join(golden, "counts.golden"))

	res, err = RunSuite(dir, SuiteOptions{GoldenDir: golden})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Passed)

	require.NoError(t, os.WriteFile(filepath.Join(golden, "counts.golden"), []byte("{}\n"), 0o644))
	res, err = RunSuite(dir, SuiteOptions{GoldenDir: golden})
	require.NoError(t, err)
	require.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Failures[0].Errors[0], "snapshot differs")
}
