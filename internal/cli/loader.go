package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric   = "E001" // Generic/unknown error
	ErrCodeScanError = "E002" // Directory scan error
	ErrCodeNoFiles   = "E003" // No scenario files found
	ErrCodeNotFound  = "E005" // Path not found

	// Scenario validation errors
	ErrCodeSchemaViolation = "E101" // YAML does not satisfy the scenario schema
	ErrCodeYAMLSyntax      = "E102" // YAML is not parseable
	ErrCodeSemantics       = "E103" // Schema-valid but semantically inconsistent
)

// FindScenarioFiles walks a directory and returns every .yaml/.yml file,
// optionally filtered by a glob pattern applied to the base name without
// extension. Results are sorted for deterministic command output.
func FindScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
