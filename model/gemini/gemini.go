// Package gemini provides a Provider adapter for the Google Gemini API using
// the Google Gen AI SDK. Function calls arrive as complete parts, so each one
// surfaces as a start/end delta pair around its full argument payload.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/model"
)

// Options configures the Gemini provider adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Provider wraps the Gemini generate-content API behind the generic
// model.Provider interface.
type Provider struct {
	client *genai.Client
	opts   Options
}

// New creates a new Gemini provider, building a client from the API key.
func New(ctx context.Context, optFns ...func(o *Options)) (*Provider, error) {
	opts := Options{
		Model:       "gemini-2.0-flash",
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Provider{client: client, opts: opts}, nil
}

// NewFromClient creates a new Gemini provider from an existing client.
func NewFromClient(client *genai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:       "gemini-2.0-flash",
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation. The SDK
// only exposes a streaming iterator, so non-streaming requests suppress the
// partial deltas and emit the assembled final response alone.
func (p *Provider) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		contents := buildContents(req.Contents)
		config := p.buildConfig(req)

		var textBuilder strings.Builder
		var parts []core.Part
		var usage model.TokenUsage
		callSeq := 0

		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.opts.Model, contents, config) {
			if err != nil {
				errCh <- fmt.Errorf("gemini api error: %w", err)
				return
			}
			if resp == nil {
				continue
			}
			if resp.UsageMetadata != nil {
				usage = model.TokenUsage{
					PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
					CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
					TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
				}
			}
			for _, candidate := range resp.Candidates {
				if candidate == nil || candidate.Content == nil {
					continue
				}
				for _, part := range candidate.Content.Parts {
					if part == nil {
						continue
					}
					if part.Text != "" {
						textBuilder.WriteString(part.Text)
						if req.Stream {
							out <- model.Response{
								Partial: true,
								Delta:   &model.Delta{Type: model.DeltaText, Text: part.Text},
							}
						}
					}
					if part.FunctionCall != nil {
						callSeq++
						argsJSON, jerr := json.Marshal(part.FunctionCall.Args)
						if jerr != nil {
							argsJSON = []byte("{}")
						}
						call := core.FunctionCall{
							ID:        functionCallID(part.FunctionCall, callSeq),
							Name:      part.FunctionCall.Name,
							Arguments: string(argsJSON),
						}
						if req.Stream {
							out <- model.Response{
								Partial: true,
								Delta:   &model.Delta{Type: model.DeltaToolCallStart, CallID: call.ID, Name: call.Name},
							}
							out <- model.Response{
								Partial: true,
								Delta:   &model.Delta{Type: model.DeltaToolCallEnd, CallID: call.ID, Name: call.Name, Arguments: call.Arguments},
							}
						}
						parts = append(parts, core.FunctionCallPart{FunctionCall: call})
					}
				}
			}
		}

		finalParts := make([]core.Part, 0, len(parts)+1)
		if textBuilder.Len() > 0 {
			finalParts = append(finalParts, core.TextPart{Text: textBuilder.String()})
		}
		finalParts = append(finalParts, parts...)

		finish := "stop"
		if len(parts) > 0 {
			finish = "tool_calls"
		}

		out <- model.Response{
			Partial:      false,
			Content:      core.Content{Role: "assistant", Parts: finalParts},
			FinishReason: finish,
			Usage:        &usage,
		}
	}()

	return out, errCh
}

// functionCallID generates an invocation id; Gemini does not always assign one.
func functionCallID(fc *genai.FunctionCall, seq int) string {
	if fc.ID != "" {
		return fc.ID
	}
	return fmt.Sprintf("%s_%d_%s", fc.Name, seq, core.NewID())
}

// buildContents converts conversation contents into Gemini contents. Assistant
// turns use the "model" role; tool results become function response parts.
func buildContents(contents []core.Content) []*genai.Content {
	var result []*genai.Content

	for _, c := range contents {
		switch c.Role {
		case "system":
			continue // carried as SystemInstruction
		case "tool":
			content := &genai.Content{Role: "user"}
			for _, part := range c.Parts {
				fr, ok := part.(core.FunctionResponsePart)
				if !ok {
					continue
				}
				content.Parts = append(content.Parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						Name:     fr.FunctionResponse.Name,
						Response: functionResponsePayload(fr.FunctionResponse),
					},
				})
			}
			if len(content.Parts) > 0 {
				result = append(result, content)
			}
		case "assistant":
			content := &genai.Content{Role: "model"}
			for _, part := range c.Parts {
				switch v := part.(type) {
				case core.TextPart:
					if v.Text != "" {
						content.Parts = append(content.Parts, &genai.Part{Text: v.Text})
					}
				case core.FunctionCallPart:
					var args map[string]any
					if v.FunctionCall.Arguments != "" {
						_ = json.Unmarshal([]byte(v.FunctionCall.Arguments), &args)
					}
					content.Parts = append(content.Parts, &genai.Part{
						FunctionCall: &genai.FunctionCall{
							Name: v.FunctionCall.Name,
							Args: args,
						},
					})
				}
			}
			if len(content.Parts) > 0 {
				result = append(result, content)
			}
		default: // user and unknown roles
			text := c.Text()
			if text != "" {
				result = append(result, &genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: text}},
				})
			}
		}
	}

	return result
}

// functionResponsePayload shapes a function response for the Gemini API,
// which expects a map payload.
func functionResponsePayload(fr core.FunctionResponse) map[string]any {
	if fr.Error != "" {
		return map[string]any{"error": fr.Error}
	}
	if m, ok := fr.Response.(map[string]any); ok {
		return m
	}
	return map[string]any{"output": fmt.Sprintf("%v", fr.Response)}
}

// buildConfig builds the generation config: system instruction, token limit
// and function declarations.
func (p *Provider) buildConfig(req model.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(p.opts.Temperature)),
	}

	if req.Instructions != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.Instructions}},
		}
	}

	maxTokens := p.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}

	if len(req.Tools) > 0 {
		config.Tools = buildTools(req.Tools)
	}

	return config
}

// buildTools converts normalized tool definitions into function declarations.
func buildTools(tools []model.ToolDefinition) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			Parameters:  toSchema(tool.Function.Parameters),
		})
	}
	if len(declarations) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// toSchema recursively converts a JSON Schema map to Gemini's Schema type.
func toSchema(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}

	schema := &genai.Schema{}

	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if enum, ok := schemaMap["enum"].([]string); ok {
		schema.Enum = append(schema.Enum, enum...)
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = toSchema(propMap)
			}
		}
	}
	switch required := schemaMap["required"].(type) {
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	case []string:
		schema.Required = append(schema.Required, required...)
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = toSchema(items)
	}

	return schema
}

// Info returns metadata describing this Gemini provider implementation.
func (p *Provider) Info() model.Info {
	return model.Info{
		Name:          p.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
