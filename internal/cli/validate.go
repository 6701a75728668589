package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keygate-dev/keygate/internal/harness"
)

// ValidationResult holds validation results across all checked files.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml|scenarios-dir>",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario YAML files against the scenario schema.

Performs two passes per file: CUE schema validation (shape, types,
enum vocabularies, with line positions) and semantic validation
(delegate references, step consistency). Faster than simulate for
authoring feedback.

Exit codes:
  0 - All scenario files valid
  1 - One or more files failed validation
  2 - Command error (directory not found, no scenario files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(scenariosDir); err != nil {
		return outputValidateError(formatter, ErrCodeNotFound,
			fmt.Sprintf("scenario path not found: %s", scenariosDir))
	}

	// A single file and a directory both walk to the same list.
	files, err := FindScenarioFiles(scenariosDir, "")
	if err != nil {
		return outputValidateError(formatter, ErrCodeScanError,
			fmt.Sprintf("error scanning directory: %v", err))
	}
	if len(files) == 0 {
		return outputValidateError(formatter, ErrCodeNoFiles,
			fmt.Sprintf("no scenario files found in %s", scenariosDir))
	}

	schema, err := scenarioSchema()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario schema", err)
	}

	result := ValidationResult{Valid: true, Files: len(files)}

	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)

		schemaErrs, err := ValidateScenarioFile(schema, file)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to validate scenario", err)
		}
		if len(schemaErrs) > 0 {
			result.Errors = append(result.Errors, schemaErrs...)
			// Semantic checks on a shape-invalid file would only repeat
			// the schema findings.
			continue
		}

		if _, err := harness.LoadScenario(file); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				File:    file,
				Code:    ErrCodeSemantics,
				Message: err.Error(),
			})
		}
	}

	result.Valid = len(result.Errors) == 0
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d scenario file(s) valid\n", result.Files)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs per-file validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: result.Errors[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", e.File, e.Line)
		} else {
			fmt.Fprintln(formatter.Writer, e.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
