package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a SQL conformance scenario.
// Steps run in order against one fresh database; each step may carry
// expectations about its outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Timezone is the session timezone NOW() reports in. Empty means UTC.
	Timezone string `yaml:"timezone,omitempty"`

	// Now freezes the wall clock. Zero means testutil.DefaultTime.
	Now time.Time `yaml:"now,omitempty"`

	// Seed seeds UUID() and GENERATE_DATA. Zero means testutil.DefaultSeed.
	Seed uint64 `yaml:"seed,omitempty"`

	// Steps contains the submissions to execute.
	Steps []Step `yaml:"steps"`
}

// Step is one SQL submission. It may hold several statements; expectations
// apply to the result of the last statement that ran.
type Step struct {
	SQL string `yaml:"sql"`

	// Expect specifies the expected outcome. If nil, the step only has to
	// succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the expected outcome of a step. Unset fields are not
// checked.
type Expect struct {
	// Columns is the expected projection, in order.
	Columns []string `yaml:"columns,omitempty"`

	// Rows lists the expected row values in column order.
	Rows [][]any `yaml:"rows,omitempty"`

	// RowCount is the expected number of rows.
	RowCount *int `yaml:"row_count,omitempty"`

	// Message is the exact expected result message.
	Message string `yaml:"message,omitempty"`

	// MessageContains is a substring the result message must contain.
	MessageContains string `yaml:"message_contains,omitempty"`

	// Error is an error code (e.g. TABLE_NOT_FOUND) or a substring of the
	// error text. When set, the step must fail.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario from YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}

	for i, step := range s.Steps {
		if step.SQL == "" {
			return fmt.Errorf("steps[%d]: sql is required", i)
		}
		if err := validateExpect(i, step.Expect); err != nil {
			return err
		}
	}

	return nil
}

// validateExpect rejects expectations that can never hold together.
func validateExpect(index int, e *Expect) error {
	if e == nil {
		return nil
	}

	hasOutcome := len(e.Columns) > 0 || e.Rows != nil || e.RowCount != nil ||
		e.Message != "" || e.MessageContains != ""
	if e.Error != "" && hasOutcome {
		return fmt.Errorf("steps[%d].expect: error cannot be combined with result fields", index)
	}

	if e.RowCount != nil && *e.RowCount < 0 {
		return fmt.Errorf("steps[%d].expect: row_count must be non-negative", index)
	}

	if e.RowCount != nil && e.Rows != nil && *e.RowCount != len(e.Rows) {
		return fmt.Errorf("steps[%d].expect: row_count %d disagrees with %d rows", index, *e.RowCount, len(e.Rows))
	}

	if len(e.Columns) > 0 {
		for j, r := range e.Rows {
			if len(r) != len(e.Columns) {
				return fmt.Errorf("steps[%d].expect.rows[%d]: has %d values for %d columns", index, j, len(r), len(e.Columns))
			}
		}
	}

	return nil
}
