// Package anthropic provides a Provider adapter for the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/model"
)

// Options configures the Anthropic provider adapter (model id, temperature,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Provider wraps the Anthropic Messages API behind the generic model.Provider interface.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Provider{
		client: &client,
		opts:   opts,
	}
}

// NewFromClient creates a new Anthropic provider from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Provider{
		client: client,
		opts:   opts,
	}
}

// Generate implements unified streaming / non-streaming generation. It adapts
// Anthropic Messages (with tool use) into model.Response events.
func (p *Provider) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       p.opts.Model,
			Messages:    p.buildMessages(req.Contents),
			MaxTokens:   p.maxTokens(req),
			Temperature: anthropic.Float(p.opts.Temperature),
		}

		if req.Instructions != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
		}

		if len(req.Tools) > 0 {
			params.Tools = p.buildTools(req.Tools)
		}

		if req.Stream {
			p.handleStreaming(ctx, params, out, errCh)
			return
		}

		p.handleNonStreaming(ctx, params, out, errCh)
	}()

	return out, errCh
}

func (p *Provider) maxTokens(req model.Request) int64 {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return p.opts.MaxTokens
}

// handleNonStreaming issues a single Messages call and emits one final response.
func (p *Provider) handleNonStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("anthropic api error: %w", err)
		return
	}

	var parts []core.Part
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			if textBlock.Text != "" {
				parts = append(parts, core.TextPart{Text: textBlock.Text})
			}
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if argsBytes, merr := json.Marshal(toolBlock.Input); merr == nil {
					args = string(argsBytes)
				}
			}
			parts = append(parts, core.FunctionCallPart{
				FunctionCall: core.FunctionCall{
					ID:        toolBlock.ID,
					Name:      toolBlock.Name,
					Arguments: args,
				},
			})
		}
	}

	finishReason := "stop"
	if resp.StopReason != "" {
		finishReason = string(resp.StopReason)
	}

	out <- model.Response{
		ID:           resp.ID,
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: finishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}

// handleStreaming consumes the SSE stream, forwarding text deltas immediately
// and accumulating tool use input fragments until their block stops. Tool
// argument payloads are only reported complete on the tool_call_end delta.
func (p *Provider) handleStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := p.client.Messages.NewStreaming(ctx, params)

	var textBuilder strings.Builder
	var parts []core.Part
	var currentCall *core.FunctionCall
	var currentInput strings.Builder
	var usage model.TokenUsage
	finishReason := "stop"

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "message_start":
			messageStart := event.AsMessageStart()
			usage.PromptTokens = int(messageStart.Message.Usage.InputTokens)

		case "content_block_start":
			contentBlockStart := event.AsContentBlockStart()
			if contentBlockStart.ContentBlock.Type == "tool_use" {
				toolUse := contentBlockStart.ContentBlock.AsToolUse()
				currentCall = &core.FunctionCall{ID: toolUse.ID, Name: toolUse.Name}
				currentInput.Reset()
				out <- model.Response{
					Partial: true,
					Delta:   &model.Delta{Type: model.DeltaToolCallStart, CallID: toolUse.ID, Name: toolUse.Name},
				}
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					textBuilder.WriteString(delta.Text)
					out <- model.Response{
						Partial: true,
						Delta:   &model.Delta{Type: model.DeltaText, Text: delta.Text},
					}
				}
			case "input_json_delta":
				if delta.PartialJSON != "" && currentCall != nil {
					currentInput.WriteString(delta.PartialJSON)
					out <- model.Response{
						Partial: true,
						Delta:   &model.Delta{Type: model.DeltaToolCallDelta, CallID: currentCall.ID, Arguments: delta.PartialJSON},
					}
				}
			}

		case "content_block_stop":
			if currentCall != nil {
				currentCall.Arguments = currentInput.String()
				out <- model.Response{
					Partial: true,
					Delta: &model.Delta{
						Type:      model.DeltaToolCallEnd,
						CallID:    currentCall.ID,
						Name:      currentCall.Name,
						Arguments: currentCall.Arguments,
					},
				}
				parts = append(parts, core.FunctionCallPart{FunctionCall: *currentCall})
				currentCall = nil
			}

		case "message_delta":
			messageDelta := event.AsMessageDelta()
			usage.CompletionTokens = int(messageDelta.Usage.OutputTokens)
			if messageDelta.Delta.StopReason != "" {
				finishReason = string(messageDelta.Delta.StopReason)
			}
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("anthropic streaming error: %w", err)
		return
	}

	finalParts := make([]core.Part, 0, len(parts)+1)
	if textBuilder.Len() > 0 {
		finalParts = append(finalParts, core.TextPart{Text: textBuilder.String()})
	}
	finalParts = append(finalParts, parts...)

	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	out <- model.Response{
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: finalParts},
		FinishReason: finishReason,
		Usage:        &usage,
	}
}

// buildMessages converts conversation contents to Anthropic messages. Tool
// results become tool_result blocks inside user messages, consecutive results
// folded into one message as the Messages API requires.
func (p *Provider) buildMessages(contents []core.Content) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(pendingResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, c := range contents {
		switch c.Role {
		case "system":
			continue // handled via params.System
		case "tool":
			for _, part := range c.Parts {
				fr, ok := part.(core.FunctionResponsePart)
				if !ok {
					continue
				}
				pendingResults = append(pendingResults, anthropic.NewToolResultBlock(
					fr.FunctionResponse.ID,
					responseText(fr.FunctionResponse),
					fr.FunctionResponse.Error != "" || fr.FunctionResponse.Denied,
				))
			}
		case "assistant":
			flushResults()
			if content := p.buildAssistantContent(c.Parts); len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		default: // user and unknown roles
			flushResults()
			if content := buildTextContent(c.Parts); len(content) > 0 {
				messages = append(messages, anthropic.NewUserMessage(content...))
			}
		}
	}
	flushResults()

	return messages
}

// buildAssistantContent converts assistant parts into text and tool_use blocks.
func (p *Provider) buildAssistantContent(parts []core.Part) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion

	for _, part := range parts {
		switch v := part.(type) {
		case core.TextPart:
			if v.Text != "" {
				content = append(content, anthropic.NewTextBlock(v.Text))
			}
		case core.FunctionCallPart:
			var input interface{}
			if v.FunctionCall.Arguments != "" {
				if err := json.Unmarshal([]byte(v.FunctionCall.Arguments), &input); err != nil {
					input = v.FunctionCall.Arguments // keep raw string when unparseable
				}
			}
			if input == nil {
				input = map[string]interface{}{}
			}
			content = append(content, anthropic.NewToolUseBlock(v.FunctionCall.ID, input, v.FunctionCall.Name))
		}
	}

	return content
}

func buildTextContent(parts []core.Part) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	for _, part := range parts {
		if tp, ok := part.(core.TextPart); ok && tp.Text != "" {
			content = append(content, anthropic.NewTextBlock(tp.Text))
		}
	}
	return content
}

// responseText renders a function response as the text payload of a
// tool_result block.
func responseText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return fr.Error
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", fr.Response)
}

// buildTools converts normalized tool definitions to the Anthropic tool format.
func (p *Provider) buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))

	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if params := tool.Function.Parameters; params != nil {
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := params["required"]; exists {
				switch req := required.(type) {
				case []string:
					inputSchema.Required = req
				case []interface{}:
					for _, r := range req {
						if s, ok := r.(string); ok {
							inputSchema.Required = append(inputSchema.Required, s)
						}
					}
				}
			}
		}

		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Function.Name)
	}

	return anthropicTools
}

// Info returns metadata describing this Anthropic provider implementation.
func (p *Provider) Info() model.Info {
	return model.Info{
		Name:          string(p.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
