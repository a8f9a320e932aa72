package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType discriminates the closed set of lifecycle event variants a run
// can emit. Consumers should treat unknown values as forward-compatible noise.
type EventType string

const (
	// EventThinking signals the agent is about to call the model.
	EventThinking EventType = "thinking"
	// EventTextChunk carries an incremental fragment of assistant text.
	EventTextChunk EventType = "text_chunk"
	// EventToolCallAnnounced reports a capability invocation requested by the model.
	EventToolCallAnnounced EventType = "tool_call_announced"
	// EventConfirmationRequested asks the user to approve or deny a gated invocation.
	EventConfirmationRequested EventType = "confirmation_requested"
	// EventToolResult reports the outcome of a capability invocation.
	EventToolResult EventType = "tool_result"
	// EventSubAgentStarted marks the start of a delegated sub-agent run.
	EventSubAgentStarted EventType = "sub_agent_started"
	// EventSubAgentProgress forwards intermediate output from a sub-agent run.
	EventSubAgentProgress EventType = "sub_agent_progress"
	// EventSubAgentFinished marks the completion of a delegated sub-agent run.
	EventSubAgentFinished EventType = "sub_agent_finished"
	// EventDone carries the final assistant response and terminates the stream.
	EventDone EventType = "done"
	// EventError reports a failure. Top-level errors terminate the stream;
	// errors attributed to a sub-agent are informational.
	EventError EventType = "error"
)

// ToolCall is the externally visible view of a capability invocation request
// with arguments decoded into a map (unlike the wire-level FunctionCall which
// keeps the raw serialized payload).
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the externally visible outcome of a capability invocation.
// Exactly one of Response/Error is meaningful unless Denied is set, in which
// case Response carries the denial notice shown to the model.
type ToolResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Denied   bool   `json:"denied,omitempty"`
}

// Event is the primary unit of communication between agents, the runner and
// external clients. After emission it should be treated as immutable. It
// captures:
//   - Correlation (RunID, ID, Author)
//   - The lifecycle variant (Type) plus its variant-specific payload
//   - Sub-agent attribution for delegated work
//   - High precision UTC timestamp
//
// Exactly one payload field group is populated per variant: Text for
// thinking/text_chunk/sub_agent_*/done, ToolCall for
// tool_call_announced/confirmation_requested, ToolResult for tool_result and
// ErrorMessage for error.
type Event struct {
	ID           string      `json:"id"`
	RunID        string      `json:"run_id"`
	Author       string      `json:"author"`
	Type         EventType   `json:"type"`
	Timestamp    time.Time   `json:"timestamp"`
	Text         string      `json:"text,omitempty"`
	ToolCall     *ToolCall   `json:"tool_call,omitempty"`
	ToolResult   *ToolResult `json:"tool_result,omitempty"`
	SubAgent     string      `json:"sub_agent,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// NewEvent creates a bare event authored by 'author' bound to a run.
// Prefer helper constructors for the concrete lifecycle variants.
func NewEvent(runID, author string, typ EventType) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Author:    author,
		Type:      typ,
		Timestamp: time.Now().UTC(),
	}
}

// NewThinkingEvent signals the agent is consulting the model.
func NewThinkingEvent(runID, author, text string) Event {
	e := NewEvent(runID, author, EventThinking)
	e.Text = text
	return e
}

// NewTextChunkEvent carries an incremental assistant text fragment.
func NewTextChunkEvent(runID, author, text string) Event {
	e := NewEvent(runID, author, EventTextChunk)
	e.Text = text
	return e
}

// NewToolCallEvent announces a capability invocation requested by the model.
func NewToolCallEvent(runID, author string, call ToolCall) Event {
	e := NewEvent(runID, author, EventToolCallAnnounced)
	e.ToolCall = &call
	return e
}

// NewConfirmationRequestedEvent asks the user to approve or deny the given
// invocation. The invocation id inside the call correlates the later decision.
func NewConfirmationRequestedEvent(runID, author string, call ToolCall) Event {
	e := NewEvent(runID, author, EventConfirmationRequested)
	e.ToolCall = &call
	return e
}

// NewToolResultEvent records the completion result of a capability invocation.
func NewToolResultEvent(runID, author string, result ToolResult) Event {
	e := NewEvent(runID, author, EventToolResult)
	e.ToolResult = &result
	return e
}

// NewSubAgentStartedEvent marks the start of a delegated run. Text carries the
// delegated task description.
func NewSubAgentStartedEvent(runID, author, subAgent, task string) Event {
	e := NewEvent(runID, author, EventSubAgentStarted)
	e.SubAgent = subAgent
	e.Text = task
	return e
}

// NewSubAgentProgressEvent forwards intermediate sub-agent output.
func NewSubAgentProgressEvent(runID, author, subAgent, text string) Event {
	e := NewEvent(runID, author, EventSubAgentProgress)
	e.SubAgent = subAgent
	e.Text = text
	return e
}

// NewSubAgentFinishedEvent marks the completion of a delegated run. Text
// carries the sub-agent's final output.
func NewSubAgentFinishedEvent(runID, author, subAgent, output string) Event {
	e := NewEvent(runID, author, EventSubAgentFinished)
	e.SubAgent = subAgent
	e.Text = output
	return e
}

// NewDoneEvent carries the final assistant response for the run.
func NewDoneEvent(runID, author, text string) Event {
	e := NewEvent(runID, author, EventDone)
	e.Text = text
	return e
}

// NewErrorEvent reports a run failure.
func NewErrorEvent(runID, author, msg string) Event {
	e := NewEvent(runID, author, EventError)
	e.ErrorMessage = msg
	return e
}

// NewSubAgentErrorEvent reports a failure inside a delegated run. The parent
// run continues; the failure surfaces to the model as an ordinary tool result.
func NewSubAgentErrorEvent(runID, author, subAgent, msg string) Event {
	e := NewEvent(runID, author, EventError)
	e.SubAgent = subAgent
	e.ErrorMessage = msg
	return e
}

// NewID generates a new unique identifier for events and invocations.
//
// This function creates a UUID-based unique identifier that can be used
// for correlation throughout the framework.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }

// IsTerminal reports whether this event ends its run's stream. Done events
// always terminate; error events terminate only when not attributed to a
// sub-agent.
func (e Event) IsTerminal() bool {
	return e.Type == EventDone || (e.Type == EventError && e.SubAgent == "")
}

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
// Useful for metrics & numeric serialization paths.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }
