package harness

import "github.com/roach88/docsql/internal/engine"

// StepResult records what one step produced.
type StepResult struct {
	SQL string `json:"sql"`

	// Results holds one entry per statement that completed.
	Results []*engine.Result `json:"results"`

	// Error is the failure text of the statement that stopped the step.
	Error string `json:"error,omitempty"`

	// Code is the QueryError code of that failure, when it has one.
	Code string `json:"code,omitempty"`
}

// Last returns the result of the last statement that completed, or nil.
func (s *StepResult) Last() *engine.Result {
	if len(s.Results) == 0 {
		return nil
	}
	return s.Results[len(s.Results)-1]
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step met its expectations.
	Pass bool `json:"pass"`

	// Steps contains one entry per executed step, in order.
	Steps []StepResult `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
