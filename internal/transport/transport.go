// Package transport provides the injected model-call capability the AI
// merge worker depends on: a single-turn, no-tool-use function from
// (system, user) text to a response string. Concrete implementations are
// swapped in by the caller; the merge engine's own packages only ever see
// the Call interface, so the Anthropic SDK is never imported outside this
// package and cmd/auto-claude-merge's wiring.
package transport

import "context"

// Call resolves a single model turn. No tool use, deterministic-output
// expectation (the caller parses fenced code out of the response).
type Call func(ctx context.Context, system, user string) (string, error)

// ErrUnavailable is returned by a Call implementation when no credential
// is configured, signalling the caller should fall back to the heuristic
// merge path rather than treat this as a fatal error.
var ErrUnavailable = unavailableError{}

type unavailableError struct{}

func (unavailableError) Error() string { return "transport: model unavailable" }
