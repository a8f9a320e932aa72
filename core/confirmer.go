package core

import "context"

// ConfirmAction is the user's decision for a single gated capability invocation.
type ConfirmAction string

const (
	// ConfirmAllow approves the single pending invocation.
	ConfirmAllow ConfirmAction = "allow"
	// ConfirmAllowAll approves the pending invocation and pre-approves the
	// capability for the rest of the conversation.
	ConfirmAllowAll ConfirmAction = "allow_all"
	// ConfirmDeny rejects the pending invocation.
	ConfirmDeny ConfirmAction = "deny"
)

// ConfirmDecision resolves one pending confirmation identified by the
// invocation id from the originating confirmation_requested event.
type ConfirmDecision struct {
	InvocationID string        `json:"invocation_id"`
	Action       ConfirmAction `json:"action"`
	Capability   string        `json:"capability,omitempty"`
}

// Confirmer coordinates out-of-band human decisions for gated capability
// invocations. Await and Resolve are called from different goroutines: the
// conversation loop blocks in Await while a transport layer feeds user
// decisions through Resolve.
//
// Contract:
//   - Await returns ConfirmDeny (with nil error) when the decision window
//     times out; a run must never hang on an unanswered confirmation.
//   - Each invocation id resolves at most once; later Resolve calls for the
//     same id report an error.
//   - Await honors ctx cancellation, returning ConfirmDeny plus ctx.Err().
type Confirmer interface {
	Await(ctx context.Context, invocationID string) (ConfirmAction, error)
	Resolve(decision ConfirmDecision) error
}
