// Package session houses concrete implementations of core.ConversationStore.
// The interface itself (and the Conversation type) live in the core package
// to centralize domain contracts. Keeping only implementations here prevents
// higher level packages (agent, runner) from depending on concrete storage.
//
// Add additional backends (Redis, Postgres, etc.) in sub-packages without
// changing any calling code; only the wiring layer decides which
// implementation to instantiate.
package session
