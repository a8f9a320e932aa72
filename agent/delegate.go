package agent

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/howtimeschange/honolulu/core"
)

// DelegationTool exposes a sub-agent to the model as an ordinary capability.
// Calling it runs the sub-agent's full conversation loop with a fresh
// conversation and budget, forwards its progress as sub-agent events on the
// parent stream, archives the terminal output as an artifact and returns it
// as the tool result. A failed delegation (including a spent sub-agent
// budget) comes back as a failed tool result, never as a parent error.
type DelegationTool struct {
	sub *SubAgent
}

// NewDelegationTool wraps a sub-agent as a tool.
func NewDelegationTool(sub *SubAgent) *DelegationTool {
	return &DelegationTool{sub: sub}
}

// Name implements tool.Tool.
func (d *DelegationTool) Name() string { return "delegate_to_" + d.sub.Name() }

// Description implements tool.Tool.
func (d *DelegationTool) Description() string {
	return fmt.Sprintf("Delegate a task to the %s. %s", d.sub.DisplayName(), d.sub.Description())
}

// Parameters implements tool.Tool.
func (d *DelegationTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task": map[string]interface{}{
				"type":        "string",
				"description": "The task to delegate to the sub-agent",
			},
			"context": map[string]interface{}{
				"type":        "string",
				"description": "Additional context for the task (optional)",
			},
		},
		"required": []string{"task"},
	}
}

// RequiresConfirmation implements tool.Tool. Delegations themselves are not
// gated; the sub-agent's own tool invocations still are.
func (d *DelegationTool) RequiresConfirmation() bool { return false }

type delegationArgs struct {
	Task    string `mapstructure:"task"`
	Context string `mapstructure:"context"`
}

// Call implements tool.Tool. It blocks until the delegated run terminates.
func (d *DelegationTool) Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error) {
	var in delegationArgs
	if err := mapstructure.Decode(args, &in); err != nil {
		return nil, fmt.Errorf("decode delegation arguments: %w", err)
	}
	if in.Task == "" {
		return nil, fmt.Errorf("task must not be empty")
	}

	runCtx := toolCtx.InternalRunContext()
	author := runCtx.Agent.Name
	subName := d.sub.Name()
	subRunID := core.NewID()

	task := in.Task
	if in.Context != "" {
		task = in.Task + "\n\nAdditional context: " + in.Context
	}

	if err := toolCtx.EmitEvent(core.NewSubAgentStartedEvent(runCtx.RunID, author, subName, in.Task)); err != nil {
		return nil, err
	}

	childEmit := make(chan core.Event, 64)
	childCtx := runCtx.NewChildContext(
		core.AgentInfo{Name: subName, Type: "sub_agent"},
		subRunID,
		core.NewUserContent(task),
		core.NewConversation(core.NewID()),
		core.NewCallBudget(d.sub.MaxModelCalls()),
		childEmit,
	)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- d.sub.agent.Run(childCtx)
		close(childEmit)
	}()

	var output string
	var failure string
	for ev := range childEmit {
		switch ev.Type {
		case core.EventTextChunk:
			if err := toolCtx.EmitEvent(core.NewSubAgentProgressEvent(runCtx.RunID, author, subName, ev.Text)); err != nil {
				return nil, err
			}
		case core.EventDone:
			output = ev.Text
			if err := toolCtx.EmitEvent(core.NewSubAgentFinishedEvent(runCtx.RunID, author, subName, output)); err != nil {
				return nil, err
			}
		case core.EventError:
			failure = ev.ErrorMessage
			if err := toolCtx.EmitEvent(core.NewSubAgentErrorEvent(runCtx.RunID, author, subName, failure)); err != nil {
				return nil, err
			}
		case core.EventToolCallAnnounced, core.EventToolResult:
			ev.SubAgent = subName
			if err := toolCtx.EmitEvent(ev); err != nil {
				return nil, err
			}
		}
	}

	if runErr := <-runErrCh; runErr != nil {
		return nil, runErr
	}
	if failure != "" {
		return nil, fmt.Errorf("%s failed: %s", subName, failure)
	}

	// Archive the delegation output for later retrieval.
	_ = toolCtx.SaveArtifact("delegation_"+subRunID, []byte(output))

	return output, nil
}
