package harness

import (
	"fmt"
	"os"
	"path/filepath"
)

// ScenarioNotFoundError is returned when a referenced scenario file
// doesn't exist.
type ScenarioNotFoundError struct {
	ScenarioPath string
	ResolvedPath string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf(
		"scenario file %q does not exist (resolved to: %s)",
		e.ScenarioPath,
		e.ResolvedPath,
	)
}

// SuiteResult contains results from running a set of scenarios.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents one failed scenario.
type ScenarioFailure struct {
	ScenarioName string   `json:"scenario_name"`
	ScenarioPath string   `json:"scenario_path"`
	Errors       []string `json:"errors"`
}

// RunSuite loads and runs every scenario at the given paths, collecting
// a summary. Paths that are directories are expanded to their .yaml/.yml
// files; plain paths are resolved relative to baseDir when not absolute.
func RunSuite(paths []string, baseDir string) (*SuiteResult, error) {
	result := &SuiteResult{}

	for _, path := range paths {
		resolved := path
		if !filepath.IsAbs(resolved) && baseDir != "" {
			resolved = filepath.Join(baseDir, resolved)
		}

		info, err := os.Stat(resolved)
		if os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{ScenarioPath: path, ResolvedPath: resolved}
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", resolved, err)
		}

		if info.IsDir() {
			scenarios, err := LoadScenarioDir(resolved)
			if err != nil {
				return nil, err
			}
			for _, s := range scenarios {
				runOne(result, s, resolved)
			}
			continue
		}

		s, err := LoadScenario(resolved)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", resolved, err)
		}
		runOne(result, s, resolved)
	}

	return result, nil
}

// runOne executes a single scenario and folds the outcome into the
// suite result.
func runOne(result *SuiteResult, s *Scenario, path string) {
	result.TotalScenarios++

	runResult, err := Run(s)
	if err != nil {
		result.Failed++
		result.Failures = append(result.Failures, ScenarioFailure{
			ScenarioName: s.Name,
			ScenarioPath: path,
			Errors:       []string{fmt.Sprintf("scenario execution failed: %v", err)},
		})
		return
	}

	if !runResult.Pass {
		result.Failed++
		result.Failures = append(result.Failures, ScenarioFailure{
			ScenarioName: s.Name,
			ScenarioPath: path,
			Errors:       runResult.Errors,
		})
		return
	}

	result.Passed++
}
