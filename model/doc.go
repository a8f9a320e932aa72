// Package model defines the provider-agnostic abstractions for driving
// language model generation inside Honolulu.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function declarations (ToolDefinition)
//   - Expose an ordered streaming chunk taxonomy (text, tool-call-start,
//     tool-call-delta, tool-call-end) so transports can render partial output
//   - Facilitate lightweight scripting for tests (MockProvider)
//
// Providers (OpenAI, Anthropic, Gemini) implement the Provider interface from
// this package so the router and loop remain decoupled from vendor SDKs.
package model
