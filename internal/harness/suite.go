package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteOptions controls RunSuite.
type SuiteOptions struct {
	// Filter keeps only scenarios whose name contains it.
	Filter string

	// GoldenDir, when set, holds a {name}.golden snapshot per scenario.
	GoldenDir string

	// Update rewrites golden snapshots instead of comparing them.
	Update bool
}

// SuiteResult contains results from running a directory of scenarios.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Skipped        int               `json:"skipped"` // Excluded by filter
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a failed scenario.
type ScenarioFailure struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path"`
	Errors   []string `json:"errors"`
}

// ScenarioFiles lists the *.yaml and *.yml files under dir, sorted.
func ScenarioFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios in %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// RunSuite loads and runs every scenario under dir.
//
// A scenario that cannot be loaded counts as failed; the suite keeps going.
// The returned error reports infrastructure failures only.
func RunSuite(dir string, opts SuiteOptions) (*SuiteResult, error) {
	paths, err := ScenarioFiles(dir)
	if err != nil {
		return nil, err
	}

	res := &SuiteResult{}
	for _, path := range paths {
		scenario, err := LoadScenario(path)
		if err != nil {
			res.TotalScenarios++
			res.fail(filepath.Base(path), path, []string{err.Error()})
			continue
		}
		if opts.Filter != "" && !strings.Contains(scenario.Name, opts.Filter) {
			res.Skipped++
			continue
		}
		res.TotalScenarios++

		result, err := Run(scenario)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}

		errs := result.Errors
		if opts.GoldenDir != "" {
			if msg, err := compareSnapshot(opts, scenario.Name, result); err != nil {
				return nil, err
			} else if msg != "" {
				errs = append(errs, msg)
			}
		}

		if len(errs) > 0 {
			res.fail(scenario.Name, path, errs)
			continue
		}
		res.Passed++
	}
	return res, nil
}

func (r *SuiteResult) fail(name, path string, errs []string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{Scenario: name, Path: path, Errors: errs})
}

// compareSnapshot checks or rewrites one golden file. It returns a failure
// message for a missing or differing snapshot.
func compareSnapshot(opts SuiteOptions, name string, result *Result) (string, error) {
	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return "", fmt.Errorf("scenario %s: marshal snapshot: %w", name, err)
	}
	path := filepath.Join(opts.GoldenDir, name+".golden")

	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
			return "", fmt.Errorf("create golden dir: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("write golden file: %w", err)
		}
		return "", nil
	}

	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Sprintf("golden file %s does not exist (run with --update)", path), nil
	}
	if err != nil {
		return "", fmt.Errorf("read golden file: %w", err)
	}
	if !bytes.Equal(want, data) {
		return fmt.Sprintf("snapshot differs from %s", path), nil
	}
	return "", nil
}
