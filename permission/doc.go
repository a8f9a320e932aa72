// Package permission implements the policy gate deciding whether a capability
// invocation is allowed, denied or requires user confirmation.
//
// The Gate is a pure decision function over an immutable Policy: identical
// requests always produce identical decisions. Session-scoped approvals
// ("allow all") are applied by the conversation loop, not here, so a denial
// can never be overridden by an earlier approval.
package permission
