package harness

// TraceEntry is one journaled record in a scenario's replay timeline,
// flattened for assertions and golden comparison.
//
// Entries reference events by journal seq rather than content-addressed
// ID so traces stay human-readable and golden files hand-checkable.
type TraceEntry struct {
	Type string `json:"type"` // "event", "verdict", or "decision"
	Seq  int64  `json:"seq"`

	// Event fields
	Kind       string `json:"kind,omitempty"`
	VirtualKey int    `json:"virtual_key,omitempty"`
	ScanCode   int    `json:"scan_code,omitempty"`
	Action     string `json:"action,omitempty"`
	Character  string `json:"character,omitempty"`
	Extended   bool   `json:"extended,omitempty"`
	WasDown    bool   `json:"was_down,omitempty"`

	// Verdict fields
	Delegate int  `json:"delegate,omitempty"`
	Accepted bool `json:"accepted,omitempty"`

	// Verdict and decision fields
	EventSeq int64 `json:"event_seq,omitempty"`

	// Decision fields
	Outcome string `json:"outcome,omitempty"`
}

// Injection is one redispatch request the arbiter performed.
type Injection struct {
	ScanCode int    `json:"scan_code"`
	Action   string `json:"action"`
	Extended bool   `json:"extended,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect_claimed matched and
	// every assertion held.
	Pass bool `json:"pass"`

	// Trace contains the session's journaled records in seq order.
	Trace []TraceEntry `json:"trace"`

	// Injections lists the redispatch requests in injection order.
	Injections []Injection `json:"injections,omitempty"`

	// OutstandingRedispatch is the arbiter's RedispatchedCount after the
	// final step.
	OutstandingRedispatch int `json:"outstanding_redispatch"`

	// PendingCount is the arbiter's PendingCount after the final step.
	PendingCount int `json:"pending_count"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
