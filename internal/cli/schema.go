package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/encoding/yaml"
)

//go:embed scenario_schema.cue
var scenarioSchemaSource string

// ValidationError is one schema violation found in a scenario file.
type ValidationError struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// scenarioSchema compiles the embedded CUE schema and returns the
// #Scenario definition.
func scenarioSchema() (cue.Value, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(scenarioSchemaSource, cue.Filename("scenario_schema.cue"))
	if err := value.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compiling scenario schema: %w", err)
	}

	schema := value.LookupPath(cue.ParsePath("#Scenario"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("looking up scenario definition: %w", err)
	}
	return schema, nil
}

// ValidateScenarioFile checks one scenario YAML file against the schema.
// Returns one ValidationError per violation; an empty slice means the
// file is schema-valid.
func ValidateScenarioFile(schema cue.Value, path string) ([]ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Validate(data, schema); err != nil {
		return cueErrorsToValidationErrors(path, err), nil
	}
	return nil, nil
}

// cueErrorsToValidationErrors flattens a CUE error list into per-line
// validation errors.
func cueErrorsToValidationErrors(path string, err error) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		ve := ValidationError{
			File:    path,
			Code:    ErrCodeSchemaViolation,
			Message: e.Error(),
		}
		if pos := e.Position(); pos.IsValid() {
			ve.Line = pos.Line()
		}
		out = append(out, ve)
	}
	if len(out) == 0 {
		out = append(out, ValidationError{
			File:    path,
			Code:    ErrCodeSchemaViolation,
			Message: err.Error(),
		})
	}
	return out
}
