package arbiter

import "github.com/google/uuid"

// TokenGenerator produces the session token that correlates all journal
// records written by one arbiter instance.
// Implemented by UUIDv7Generator (production) and StaticGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, so sessions sort
// by creation time in the journal - convenient for trace inspection.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// StaticGenerator returns a fixed session token.
//
// This enables deterministic test execution and golden trace comparison:
// the same scenario with the same token produces a byte-identical journal.
type StaticGenerator struct {
	token string
}

// NewStaticGenerator creates a generator that always returns token.
// An empty token falls back to "session-default".
func NewStaticGenerator(token string) *StaticGenerator {
	if token == "" {
		token = "session-default"
	}
	return &StaticGenerator{token: token}
}

// Generate returns the fixed token.
func (g *StaticGenerator) Generate() string {
	return g.token
}
