package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

const passingScenarioYAML = `name: claimed
description: "delegate accepts the key"
session_token: session-cli
delegates:
  - name: d
    mode: accept
steps:
  - key:
      virtual_key: 64
      scan_code: 20
      action: down
      character: a
      expect_claimed: true
assertions:
  - type: injection_count
    count: 0
  - type: decision_outcome
    event_seq: 1
    outcome: handled
`

const failingScenarioYAML = `name: wrong_count
description: "asserts an injection that never happens"
delegates:
  - name: d
    mode: accept
steps:
  - key:
      virtual_key: 64
      scan_code: 20
      action: down
assertions:
  - type: injection_count
    count: 7
`

// writeScenarioDir writes named scenario files into a temp dir.
func writeScenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestSimulate_AllPass(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"claimed.yaml": passingScenarioYAML})

	out, err := executeCommand(t, "simulate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ claimed")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestSimulate_FailureSetsExitCode(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{
		"claimed.yaml":     passingScenarioYAML,
		"wrong_count.yaml": failingScenarioYAML,
	})

	out, err := executeCommand(t, "simulate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestSimulate_JSONOutput(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"claimed.yaml": passingScenarioYAML})

	out, err := executeCommand(t, "--format", "json", "simulate", dir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result SimulateResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 1, result.Passed)
	assert.Zero(t, result.Failed)
}

func TestSimulate_Filter(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{
		"claimed.yaml":     passingScenarioYAML,
		"wrong_count.yaml": failingScenarioYAML,
	})

	// Filter skips the failing scenario entirely.
	out, err := executeCommand(t, "simulate", dir, "--filter", "claimed")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestSimulate_UnloadableScenarioFails(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"broken.yaml": "name: only-a-name"})

	out, err := executeCommand(t, "simulate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Load error")
}

func TestSimulate_MissingDirectory(t *testing.T) {
	_, err := executeCommand(t, "simulate", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSimulate_EmptyDirectory(t *testing.T) {
	out, err := executeCommand(t, "simulate", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{
		"b.yaml": "x",
		"a.yml":  "x",
		"c.txt":  "x",
	})

	files, err := FindScenarioFiles(dir, "")
	require.NoError(t, err)
	require.Len(t, files, 2)
	// Sorted for deterministic output.
	assert.Equal(t, "a.yml", filepath.Base(files[0]))
	assert.Equal(t, "b.yaml", filepath.Base(files[1]))

	filtered, err := FindScenarioFiles(dir, "b*")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "b.yaml", filepath.Base(filtered[0]))
}
