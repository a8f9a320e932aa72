// Package tool implements the capability subsystem that lets agents invoke
// structured tools (APIs, computations, side-effects) with schema validated
// arguments, consistent error handling and rich metadata for LLM guidance.
package tool

import (
	"fmt"

	"github.com/howtimeschange/honolulu/core"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tools are registered with a Registry and exposed to models through function
// calling, allowing agents to perform actions beyond text generation such as
// API calls, calculations, file operations, or any other programmatic work.
//
// All tools have access to ToolContext for conversation identity, memory and
// artifact management. Sensitive tools declare RequiresConfirmation so the
// permission layer can route their invocations through the user.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
//   - Follow consistent naming conventions
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should be descriptive and follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the LLM to help it understand when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	// The Registry compiles this schema and validates arguments before Call.
	Parameters() map[string]interface{}

	// RequiresConfirmation reports whether invocations of this tool must be
	// approved by the user before execution (subject to the permission mode).
	RequiresConfirmation() bool

	// Call executes the tool with structured arguments and ToolContext.
	// Arguments have already been validated against the tool's schema.
	Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error)
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// Error codes used across the package.
const (
	// CodeNotFound marks invocations of unregistered tools.
	CodeNotFound = "NOT_FOUND"
	// CodeValidation marks argument schema violations.
	CodeValidation = "VALIDATION_ERROR"
	// CodeExecution marks failures inside the tool implementation.
	CodeExecution = "EXECUTION_ERROR"
)
