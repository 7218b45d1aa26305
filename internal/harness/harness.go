package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/docsql/internal/cache"
	"github.com/roach88/docsql/internal/engine"
	"github.com/roach88/docsql/internal/store"
	"github.com/roach88/docsql/internal/testutil"
)

// Scenario runs use a dedicated project owned by this actor.
const (
	scenarioProject = "scenario"
	scenarioActor   = "harness"
)

// Harness is the test execution engine.
// It runs scenarios with a fixed clock and a seeded random source.
type Harness struct {
	store  *store.SQLiteStore
	engine *engine.Engine
	clock  *testutil.FixedClock
	sess   engine.Session
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database and scenario project
// 2. Execute steps in order, recording every statement result
// 3. Check each step against its expectation
//
// A failed expectation marks the result failed but does not stop the run.
// The returned error reports infrastructure failures only.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.EnsureProject(ctx, scenarioProject, scenarioActor); err != nil {
		return nil, fmt.Errorf("failed to create scenario project: %w", err)
	}

	seed := scenario.Seed
	if seed == 0 {
		seed = testutil.DefaultSeed
	}
	clock := testutil.NewFixedClock(scenario.Now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	h := &Harness{
		store: st,
		engine: engine.New(st,
			engine.WithCache(cache.NewTTL(64, time.Minute)),
			engine.WithClock(clock),
			engine.WithRand(testutil.NewRand(seed)),
			engine.WithLogger(logger),
		),
		clock:  clock,
		sess:   engine.NewSession(scenarioProject, scenarioActor, scenario.Timezone),
		logger: logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		got := h.executeStep(ctx, step)
		result.Steps = append(result.Steps, got)
		for _, err := range checkStep(i, step, got) {
			result.AddError(err.Error())
		}

		h.logger.Info("scenario step completed",
			"scenario", scenario.Name,
			"step", i,
			"statements", len(got.Results),
			"error", got.Error,
		)
	}

	return result, nil
}

// executeStep runs one submission and captures its outcome.
func (h *Harness) executeStep(ctx context.Context, step Step) StepResult {
	results, err := h.engine.Execute(ctx, h.sess, step.SQL)
	got := StepResult{SQL: step.SQL, Results: results}
	if got.Results == nil {
		got.Results = []*engine.Result{}
	}
	if err != nil {
		got.Error = err.Error()
		got.Code = codeOf(err)
	}
	return got
}
