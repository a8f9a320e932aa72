package tool

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/internal/util"
)

// Validator is implemented by argument structs that support semantic
// validation beyond the JSON schema shape.
type Validator interface {
	Validate() error
}

// TypedTool adapts a function over a typed argument struct into a Tool.
// The parameter schema is derived from the struct via reflection and the raw
// argument map is decoded with mapstructure using json tags, eliminating the
// per-tool boilerplate of manual type assertions.
//
// Type Parameters:
//   - Args: the argument container (e.g. a WriteFileArgs struct)
type TypedTool[Args any] struct {
	name                 string
	description          string
	parameters           map[string]any
	requiresConfirmation bool
	fn                   func(toolCtx *core.ToolContext, args Args) (any, error)
}

// NewTypedTool constructs a TypedTool whose schema mirrors the Args struct.
//
// Example:
//
//	type GreetArgs struct {
//	  Name string `json:"name" description:"Who to greet"`
//	}
//
//	greet := NewTypedTool("greet", "Greet a person",
//	  func(tc *core.ToolContext, args GreetArgs) (any, error) {
//	    return "hello " + args.Name, nil
//	  })
func NewTypedTool[Args any](
	name, description string,
	fn func(toolCtx *core.ToolContext, args Args) (any, error),
	optFns ...func(o *FunctionToolOptions),
) *TypedTool[Args] {
	opts := FunctionToolOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}

	var zero Args

	return &TypedTool[Args]{
		name:                 name,
		description:          description,
		parameters:           util.CreateSchema(zero),
		requiresConfirmation: opts.RequiresConfirmation,
		fn:                   fn,
	}
}

// Name returns the unique tool name.
func (t *TypedTool[Args]) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *TypedTool[Args]) Description() string { return t.description }

// Parameters returns the reflection-derived JSON schema.
func (t *TypedTool[Args]) Parameters() map[string]any { return t.parameters }

// RequiresConfirmation reports the declared confirmation requirement.
func (t *TypedTool[Args]) RequiresConfirmation() bool { return t.requiresConfirmation }

// Call decodes the argument map into Args and invokes the wrapped function.
func (t *TypedTool[Args]) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	var decoded Args

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err != nil {
		return nil, NewToolError(t.name, fmt.Sprintf("build argument decoder: %v", err), CodeExecution)
	}

	if err := decoder.Decode(args); err != nil {
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("invalid arguments: %v", err),
			Code:    CodeValidation,
		}
	}

	if v, ok := any(decoded).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &ToolError{
				Tool:    t.name,
				Message: fmt.Sprintf("argument validation failed: %v", err),
				Code:    CodeValidation,
			}
		}
	}

	result, err := t.fn(toolCtx, decoded)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return nil, toolErr
		}
		return nil, NewToolError(t.name, err.Error(), CodeExecution)
	}

	return result, nil
}
