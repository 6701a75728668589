package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/keygate-dev/keygate/internal/journal"
	"github.com/keygate-dev/keygate/internal/keyevent"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database     string
	SessionToken string
	ScanCode     int // optional - filter to one physical key
}

// TimelineEvent represents a single record in the trace timeline.
type TimelineEvent struct {
	Seq        int64  `json:"seq"`
	Type       string `json:"type"` // "event", "verdict" or "decision"
	ID         string `json:"id"`
	Kind       string `json:"kind,omitempty"`
	VirtualKey int    `json:"virtual_key,omitempty"`
	ScanCode   int    `json:"scan_code,omitempty"`
	Action     string `json:"action,omitempty"`
	DelegateID int    `json:"delegate_id,omitempty"`
	Accepted   *bool  `json:"accepted,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	EventSeq   int64  `json:"event_seq,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	SessionToken string          `json:"session_token"`
	Timeline     []TimelineEvent `json:"timeline"`
	Stats        TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the session.
type TraceStats struct {
	TotalRecords int  `json:"total_records"`
	Events       int  `json:"events"`
	Loopbacks    int  `json:"loopbacks"`
	Verdicts     int  `json:"verdicts"`
	Decisions    int  `json:"decisions"`
	Redispatched int  `json:"redispatched"`
	Undecided    int  `json:"undecided"`
	IsComplete   bool `json:"is_complete"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Dump the arbitration timeline for a session",
		Long: `Dump the journaled arbitration timeline for a session.

Shows every observed key event, each delegate verdict, and the final
decision per event, in the exact order the arbiter recorded them.

Examples:
  keygate trace --db ./keygate.db --session session-1
  keygate trace --db ./keygate.db --session session-1 --scan-code 30
  keygate trace --db ./keygate.db --session session-1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionToken, "session", "", "session token to trace (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().IntVar(&opts.ScanCode, "scan-code", 0, "filter to one scan code")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	state, err := j.GetSessionState(ctx, opts.SessionToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to get session state", err)
	}

	entries, err := j.ReplaySession(ctx, opts.SessionToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay session", err)
	}

	if len(entries) == 0 {
		if opts.Format == "json" {
			return outputTraceJSON(cmd, TraceResult{
				SessionToken: opts.SessionToken,
				Timeline:     []TimelineEvent{},
				Stats:        TraceStats{IsComplete: true},
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No records found for session: %s\n", opts.SessionToken)
		return nil
	}

	result := TraceResult{
		SessionToken: opts.SessionToken,
		Timeline:     buildTimeline(entries, opts.ScanCode),
		Stats:        buildStats(state),
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}

	return outputTraceText(cmd, result, opts.Verbose)
}

// buildTimeline converts journal entries to timeline events. When
// scanCode is non-zero, only events for that scan code and their
// verdicts and decisions are included.
func buildTimeline(entries []journal.TimelineEntry, scanCode int) []TimelineEvent {
	// Event IDs matching the filter, for keeping their verdicts/decisions.
	matched := make(map[string]bool)
	if scanCode != 0 {
		for _, entry := range entries {
			if entry.Type == journal.EntryEvent && entry.Event.Event.ScanCode == scanCode {
				matched[entry.ID] = true
			}
		}
	}

	var timeline []TimelineEvent
	for _, entry := range entries {
		switch entry.Type {
		case journal.EntryEvent:
			ev := entry.Event
			if scanCode != 0 && ev.Event.ScanCode != scanCode {
				continue
			}
			timeline = append(timeline, TimelineEvent{
				Seq:        ev.Seq,
				Type:       "event",
				ID:         ev.ID,
				Kind:       string(ev.Kind),
				VirtualKey: ev.Event.VirtualKey,
				ScanCode:   ev.Event.ScanCode,
				Action:     ev.Event.Action.String(),
			})

		case journal.EntryVerdict:
			v := entry.Verdict
			if scanCode != 0 && !matched[v.EventID] {
				continue
			}
			accepted := v.Accepted
			timeline = append(timeline, TimelineEvent{
				Seq:        v.Seq,
				Type:       "verdict",
				ID:         v.ID,
				DelegateID: v.DelegateID,
				Accepted:   &accepted,
				EventSeq:   v.EventSeq,
			})

		case journal.EntryDecision:
			d := entry.Decision
			if scanCode != 0 && !matched[d.EventID] {
				continue
			}
			timeline = append(timeline, TimelineEvent{
				Seq:      d.Seq,
				Type:     "decision",
				ID:       d.ID,
				Outcome:  string(d.Outcome),
				EventSeq: d.EventSeq,
			})
		}
	}

	return timeline
}

// buildStats summarizes a session state.
func buildStats(state journal.SessionState) TraceStats {
	stats := TraceStats{
		TotalRecords: len(state.Events) + len(state.Verdicts) + len(state.Decisions),
		Verdicts:     len(state.Verdicts),
		Decisions:    len(state.Decisions),
		Undecided:    state.Undecided,
		IsComplete:   state.Undecided == 0,
	}
	for _, e := range state.Events {
		if e.Kind == keyevent.KindLoopback {
			stats.Loopbacks++
		} else {
			stats.Events++
		}
	}
	for _, d := range state.Decisions {
		if d.Outcome == keyevent.OutcomeRedispatched {
			stats.Redispatched++
		}
	}
	return stats
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for Session: %s\n", result.SessionToken)
	fmt.Fprintf(w, "Status: %s\n", completeStatus(result.Stats.IsComplete, result.Stats.Undecided))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no records)")
	} else {
		for _, event := range result.Timeline {
			formatTimelineEvent(w, event, verbose)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Raw Events:   %d\n", result.Stats.Events)
	fmt.Fprintf(w, "  Loopbacks:    %d\n", result.Stats.Loopbacks)
	fmt.Fprintf(w, "  Verdicts:     %d\n", result.Stats.Verdicts)
	fmt.Fprintf(w, "  Decisions:    %d\n", result.Stats.Decisions)
	fmt.Fprintf(w, "  Redispatched: %d\n", result.Stats.Redispatched)
	fmt.Fprintf(w, "  Undecided:    %d\n", result.Stats.Undecided)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TimelineEvent, verbose bool) {
	switch event.Type {
	case "event":
		fmt.Fprintf(w, "  [%d] EVENT %s scan=%d action=%s\n", event.Seq, event.Kind, event.ScanCode, event.Action)
		if verbose {
			fmt.Fprintf(w, "       VK: %d  ID: %s\n", event.VirtualKey, truncateID(event.ID))
		}

	case "verdict":
		word := "rejected"
		if event.Accepted != nil && *event.Accepted {
			word = "accepted"
		}
		fmt.Fprintf(w, "  [%d] VERDICT delegate=%d %s (event %d)\n", event.Seq, event.DelegateID, word, event.EventSeq)
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
		}

	case "decision":
		fmt.Fprintf(w, "  [%d] DECISION %s (event %d)\n", event.Seq, event.Outcome, event.EventSeq)
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
		}
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// completeStatus returns a human-readable completion status.
func completeStatus(isComplete bool, undecided int) string {
	if isComplete {
		return "Complete"
	}
	return fmt.Sprintf("Incomplete (%d undecided event(s))", undecided)
}
