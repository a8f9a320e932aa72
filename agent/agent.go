package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/logging"
	"github.com/howtimeschange/honolulu/metrics"
	"github.com/howtimeschange/honolulu/model"
	"github.com/howtimeschange/honolulu/permission"
	"github.com/howtimeschange/honolulu/router"
	"github.com/howtimeschange/honolulu/tool"
)

// DefaultMaxModelCalls bounds a primary agent's model calls per run.
const DefaultMaxModelCalls = 50

// DeniedMessage is the fixed tool-result text the model sees when the user
// or the gate declines a capability invocation.
const DeniedMessage = "User denied this tool execution."

// defaultMemoryRecall is how many memory snippets are injected per run.
const defaultMemoryRecall = 3

// Caller issues one model generation with provider selection and fallback.
// *router.Router satisfies it; SingleProvider adapts a bare model.Provider.
type Caller interface {
	Call(ctx context.Context, req model.Request, f router.Features) (<-chan model.Response, <-chan error)
}

// SingleProvider adapts one provider into a Caller without routing.
func SingleProvider(p model.Provider) Caller { return singleCaller{p: p} }

type singleCaller struct{ p model.Provider }

func (s singleCaller) Call(ctx context.Context, req model.Request, _ router.Features) (<-chan model.Response, <-chan error) {
	return s.p.Generate(ctx, req)
}

// Options configures an Agent.
type Options struct {
	Description   string
	Type          string
	Instruction   Instruction
	Registry      *tool.Registry
	Gate          *permission.Gate
	MaxModelCalls int
	MaxTokens     int64
	MemoryRecall  int
	Logger        logging.Logger
	Metrics       *metrics.Metrics
}

// Agent drives the bounded model/tool conversation loop for one run at a
// time. The zero ceiling from Options is replaced by DefaultMaxModelCalls;
// a nil Registry means the model is offered no tools; a nil Gate evaluates
// the default interactive policy.
type Agent struct {
	name          string
	description   string
	agentType     string
	caller        Caller
	instruction   Instruction
	registry      *tool.Registry
	gate          *permission.Gate
	maxModelCalls int
	maxTokens     int64
	memoryRecall  int
	logger        logging.Logger
	metrics       *metrics.Metrics
}

// New constructs an Agent around a model caller.
func New(name string, caller Caller, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Type:          "worker",
		Registry:      tool.NewRegistry(),
		MaxModelCalls: DefaultMaxModelCalls,
		MemoryRecall:  defaultMemoryRecall,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Registry == nil {
		opts.Registry = tool.NewRegistry()
	}
	if opts.Gate == nil {
		opts.Gate = permission.New(permission.DefaultPolicy())
	}
	if opts.MaxModelCalls <= 0 {
		opts.MaxModelCalls = DefaultMaxModelCalls
	}
	if opts.Description == "" {
		opts.Description = fmt.Sprintf("Agent %s", name)
	}
	return &Agent{
		name:          name,
		description:   opts.Description,
		agentType:     opts.Type,
		caller:        caller,
		instruction:   opts.Instruction,
		registry:      opts.Registry,
		gate:          opts.Gate,
		maxModelCalls: opts.MaxModelCalls,
		maxTokens:     opts.MaxTokens,
		memoryRecall:  opts.MemoryRecall,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}
}

// Name returns the agent's external identifier.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's purpose description.
func (a *Agent) Description() string { return a.description }

// MaxModelCalls returns the per-run model call ceiling.
func (a *Agent) MaxModelCalls() int { return a.maxModelCalls }

// Registry returns the agent's tool registry.
func (a *Agent) Registry() *tool.Registry { return a.registry }

// Run implements core.Agent. It appends the user turn, consults the model
// and executes requested tool invocations until the model finishes with
// plain text or the call budget runs out. Domain failures (budget spent,
// all providers down) terminate the stream with an error event and a nil
// return; a non-nil return means the run was cancelled before a terminal
// event could be emitted.
func (a *Agent) Run(runCtx *core.RunContext) error {
	instructions, err := a.instruction.Resolve(runCtx)
	if err != nil {
		return a.fail(runCtx, fmt.Errorf("resolve instruction: %w", err))
	}

	userText := runCtx.UserContent.Text()
	if len(runCtx.UserContent.Parts) > 0 {
		runCtx.AppendContent(runCtx.UserContent)
	}

	if block := a.recallMemory(runCtx, userText); block != "" {
		if instructions != "" {
			instructions += "\n\n"
		}
		instructions += block
	}

	features := router.Extract(userText)
	tools := a.toolDefinitions()

	for {
		if err := runCtx.Budget.Next(); err != nil {
			return a.fail(runCtx, err)
		}

		if err := runCtx.EmitEvent(core.NewThinkingEvent(runCtx.RunID, a.name, "")); err != nil {
			return err
		}

		req := model.Request{
			Instructions: instructions,
			Contents:     runCtx.History(),
			Tools:        tools,
			Stream:       true,
			MaxTokens:    a.maxTokens,
		}

		final, err := a.consume(runCtx, req, features)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return a.fail(runCtx, err)
		}

		runCtx.AppendContent(final.Content)

		calls := final.Content.FunctionCalls()
		if len(calls) == 0 {
			return runCtx.EmitEvent(core.NewDoneEvent(runCtx.RunID, a.name, final.Content.Text()))
		}

		for _, call := range calls {
			if err := a.invoke(runCtx, call); err != nil {
				return err
			}
		}
	}
}

// consume drives one model call, forwarding text chunks as events and
// returning the final aggregated response.
func (a *Agent) consume(runCtx *core.RunContext, req model.Request, features router.Features) (model.Response, error) {
	respCh, errCh := a.caller.Call(runCtx.Context, req, features)

	var final model.Response
	sawFinal := false
	for resp := range respCh {
		if resp.Partial {
			if resp.Delta != nil && resp.Delta.Type == model.DeltaText && resp.Delta.Text != "" {
				if err := runCtx.EmitEvent(core.NewTextChunkEvent(runCtx.RunID, a.name, resp.Delta.Text)); err != nil {
					return model.Response{}, err
				}
			}
			continue
		}
		final = resp
		sawFinal = true
	}

	if err := <-errCh; err != nil {
		return model.Response{}, err
	}
	if !sawFinal {
		return model.Response{}, fmt.Errorf("model stream ended without a final response")
	}
	if final.Content.Role == "" {
		final.Content.Role = "assistant"
	}
	return final, nil
}

// invoke resolves gating and confirmation for one tool call and produces
// exactly one tool result: event plus transcript entry.
func (a *Agent) invoke(runCtx *core.RunContext, call core.FunctionCall) error {
	invocationID := call.ID
	if invocationID == "" {
		invocationID = core.NewID()
	}

	args := decodeArguments(call.Arguments)
	announced := core.ToolCall{ID: invocationID, Name: call.Name, Arguments: args}

	if err := runCtx.EmitEvent(core.NewToolCallEvent(runCtx.RunID, a.name, announced)); err != nil {
		return err
	}

	decision := a.gate.Decide(permission.Request{
		Capability:           call.Name,
		Arguments:            args,
		RequiresConfirmation: a.registry.RequiresConfirmation(call.Name),
	})

	switch decision.Verdict {
	case permission.VerdictDeny:
		a.logger.Info("tool.denied", "tool", call.Name, "reason", decision.Reason)
		return a.denyResult(runCtx, invocationID, call.Name, decision.Reason)

	case permission.VerdictNeedConfirmation:
		if runCtx.Conversation != nil && runCtx.Conversation.IsApproved(call.Name) {
			break
		}
		if err := runCtx.EmitEvent(core.NewConfirmationRequestedEvent(runCtx.RunID, a.name, announced)); err != nil {
			return err
		}
		action, err := runCtx.AwaitConfirmation(invocationID)
		if err != nil {
			return err
		}
		switch action {
		case core.ConfirmAllowAll:
			if runCtx.Conversation != nil {
				runCtx.Conversation.Approve(call.Name)
			}
		case core.ConfirmAllow:
		default:
			return a.denyResult(runCtx, invocationID, call.Name, "")
		}
	}

	return a.execute(runCtx, invocationID, call.Name, args)
}

// execute runs the tool through the registry and records its outcome.
func (a *Agent) execute(runCtx *core.RunContext, invocationID, name string, args map[string]any) error {
	toolCtx := core.NewToolContext(runCtx, invocationID)

	start := time.Now()
	response, err := a.registry.Execute(toolCtx, name, args)
	dur := time.Since(start)

	result := core.ToolResult{ID: invocationID, Name: name}
	if err != nil {
		result.Error = err.Error()
		a.metrics.RecordToolExecution(name, "error", dur)
		a.logger.Warn("tool.failed", "tool", name, "error", err.Error())
	} else {
		result.Response = response
		a.metrics.RecordToolExecution(name, "success", dur)
		a.logger.Debug("tool.succeeded", "tool", name, "duration", dur.String())
	}

	return a.emitResult(runCtx, result)
}

// denyResult produces the denial tool result. The fixed denial text keeps
// the model from retrying; a gate reason is appended when present.
func (a *Agent) denyResult(runCtx *core.RunContext, invocationID, name, reason string) error {
	text := DeniedMessage
	if reason != "" {
		text = DeniedMessage + " " + reason
	}

	a.metrics.RecordToolExecution(name, "denied", 0)

	return a.emitResult(runCtx, core.ToolResult{
		ID:       invocationID,
		Name:     name,
		Response: text,
		Denied:   true,
	})
}

// emitResult publishes the tool result event and appends the matching
// transcript entry so the next model call sees the outcome.
func (a *Agent) emitResult(runCtx *core.RunContext, result core.ToolResult) error {
	if err := runCtx.EmitEvent(core.NewToolResultEvent(runCtx.RunID, a.name, result)); err != nil {
		return err
	}

	runCtx.AppendContent(core.Content{
		Role: "tool",
		Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID:       result.ID,
			Name:     result.Name,
			Response: result.Response,
			Error:    result.Error,
			Denied:   result.Denied,
		}}},
	})

	return nil
}

// fail terminates the stream with an error event. Cancellation during the
// emit surfaces as the returned error.
func (a *Agent) fail(runCtx *core.RunContext, cause error) error {
	a.logger.Error("run.failed", "agent", a.name, "run_id", runCtx.RunID, "error", cause.Error())
	return runCtx.EmitEvent(core.NewErrorEvent(runCtx.RunID, a.name, cause.Error()))
}

// recallMemory builds the memory context block for the user turn, or ""
// when no store is attached or nothing relevant is found.
func (a *Agent) recallMemory(runCtx *core.RunContext, userText string) string {
	if runCtx.MemoryStore == nil || a.memoryRecall <= 0 || strings.TrimSpace(userText) == "" {
		return ""
	}

	results, err := runCtx.SearchMemory(userText, a.memoryRecall)
	if err != nil || len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Relevant context from memory:")
	for _, r := range results {
		b.WriteString("\n- ")
		b.WriteString(r.Content)
	}
	return b.String()
}

func (a *Agent) toolDefinitions() []model.ToolDefinition {
	tools := a.registry.Tools()
	if len(tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// decodeArguments parses the serialized argument payload. Malformed payloads
// decode to an empty map so schema validation reports the failure as an
// ordinary tool error instead of crashing the turn.
func decodeArguments(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
