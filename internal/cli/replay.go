package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/keygate-dev/keygate/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database     string
	SessionToken string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionToken  string `json:"session_token"`
	Events        int    `json:"events"`
	Verdicts      int    `json:"verdicts"`
	Decisions     int    `json:"decisions"`
	Undecided     int    `json:"undecided"`
	IsComplete    bool   `json:"is_complete"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Replay the journal to verify determinism and report session statistics.

Each session's timeline is rebuilt twice from the journal and compared
record-for-record. Per-session statistics include observed events,
delegate verdicts, decisions, and events still awaiting a decision.

Exit codes:
  0 - All sessions replay deterministically
  1 - Determinism verification failed (differences detected)
  2 - Command error (journal not found, etc.)

Examples:
  keygate replay --db ./keygate.db
  keygate replay --db ./keygate.db --session session-1
  keygate replay --db ./keygate.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionToken, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	var tokens []string
	if opts.SessionToken != "" {
		tokens = []string{opts.SessionToken}
	} else {
		tokens, err = j.ListSessionTokens(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list session tokens", err)
		}
	}

	if len(tokens) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, ReplayResult{
				Sessions:         []ReplaySessionResult{},
				TotalSessions:    0,
				AllDeterministic: true,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in journal.")
		return nil
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(tokens)),
		TotalSessions:    len(tokens),
		AllDeterministic: true,
	}

	for _, token := range tokens {
		sessionResult, err := replayAndVerifySession(ctx, j, token)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", token), err)
		}

		result.Sessions = append(result.Sessions, sessionResult)
		if !sessionResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}

	return outputReplayText(cmd, result, opts.Verbose)
}

// replayAndVerifySession replays a single session twice and verifies
// both timelines are identical.
func replayAndVerifySession(ctx context.Context, j *journal.Journal, sessionToken string) (ReplaySessionResult, error) {
	state, err := j.GetSessionState(ctx, sessionToken)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	first, err := j.ReplaySession(ctx, sessionToken)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("first replay failed: %w", err)
	}

	second, err := j.ReplaySession(ctx, sessionToken)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("second replay failed: %w", err)
	}

	return ReplaySessionResult{
		SessionToken:  sessionToken,
		Events:        len(state.Events),
		Verdicts:      len(state.Verdicts),
		Decisions:     len(state.Decisions),
		Undecided:     state.Undecided,
		IsComplete:    state.Undecided == 0,
		Deterministic: compareTimelines(first, second),
	}, nil
}

// compareTimelines compares two replay timelines record-for-record.
func compareTimelines(first, second []journal.TimelineEntry) bool {
	if len(first) != len(second) {
		return false
	}
	for i := range first {
		if !entriesEqual(first[i], second[i]) {
			return false
		}
	}
	return true
}

// entriesEqual compares two timeline entries for equality.
func entriesEqual(a, b journal.TimelineEntry) bool {
	if a.Type != b.Type || a.Seq != b.Seq || a.ID != b.ID {
		return false
	}
	if (a.Event == nil) != (b.Event == nil) ||
		(a.Verdict == nil) != (b.Verdict == nil) ||
		(a.Decision == nil) != (b.Decision == nil) {
		return false
	}
	if a.Event != nil && !reflect.DeepEqual(a.Event, b.Event) {
		return false
	}
	if a.Verdict != nil && !reflect.DeepEqual(a.Verdict, b.Verdict) {
		return false
	}
	if a.Decision != nil && !reflect.DeepEqual(a.Decision, b.Decision) {
		return false
	}
	return true
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, session := range result.Sessions {
		status := "✓"
		if !session.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Session: %s\n", status, session.SessionToken)

		if verbose {
			fmt.Fprintf(w, "  Events:    %d\n", session.Events)
			fmt.Fprintf(w, "  Verdicts:  %d\n", session.Verdicts)
			fmt.Fprintf(w, "  Decisions: %d\n", session.Decisions)
			fmt.Fprintf(w, "  Undecided: %d\n", session.Undecided)
		} else {
			fmt.Fprintf(w, "  Records: %d events, %d verdicts, %d decisions\n",
				session.Events, session.Verdicts, session.Decisions)
		}

		if !session.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
