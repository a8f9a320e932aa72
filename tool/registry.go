package tool

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/howtimeschange/honolulu/core"
)

// Registry is the closed set of tools available to one agent. Registration
// happens at construction time; lookups afterwards are read-only, so a
// Registry can be shared by concurrent runs of the same agent.
//
// Parameter schemas are compiled once at registration. Execute validates
// arguments against the compiled schema before dispatching, so tools only
// ever see structurally valid input.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
	order   []string
}

// NewRegistry builds a registry from the given tools. Registration errors
// (duplicate names, uncompilable schemas) surface on first use instead of
// construction; use Register directly when explicit error handling matters.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{
		tools:   map[string]Tool{},
		schemas: map[string]*jsonschema.Schema{},
	}
	for _, t := range tools {
		_ = r.Register(t)
	}
	return r
}

// Register adds a tool to the registry, compiling its parameter schema.
// Duplicate names are rejected so a model can never face an ambiguous set.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	schema, err := compileParameters(name, t.Parameters())
	if err != nil {
		return fmt.Errorf("compile schema for tool %q: %w", name, err)
	}

	r.tools[name] = t
	r.schemas[name] = schema
	r.order = append(r.order, name)

	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// RequiresConfirmation reports the declared confirmation flag for name.
// Unknown tools report false; Execute will reject them anyway.
func (r *Registry) RequiresConfirmation(name string) bool {
	t, ok := r.Get(name)
	return ok && t.RequiresConfirmation()
}

// Execute validates args against the tool's compiled schema and invokes it.
// All failure paths return *ToolError so callers can fold them into a tool
// result uniformly:
//
//	unknown name       -> CodeNotFound
//	schema violation   -> CodeValidation
//	tool error / panic -> CodeExecution (custom codes pass through)
func (r *Registry) Execute(toolCtx *core.ToolContext, name string, args map[string]any) (result any, err error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	schema := r.schemas[name]
	r.mu.RUnlock()

	if !ok {
		return nil, NewToolError(name, fmt.Sprintf("tool %q not found", name), CodeNotFound)
	}

	if args == nil {
		args = map[string]any{}
	}

	if schema != nil {
		if verr := validateArguments(schema, args); verr != nil {
			return nil, &ToolError{
				Tool:    name,
				Message: fmt.Sprintf("parameter validation failed: %v", verr),
				Code:    CodeValidation,
				Details: verr.Error(),
			}
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = NewToolError(name, fmt.Sprintf("panic during execution: %v", rec), CodeExecution)
		}
	}()

	result, err = t.Call(toolCtx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return nil, toolErr
		}
		return nil, NewToolError(name, err.Error(), CodeExecution)
	}

	return result, nil
}

// compileParameters turns the declared schema map into a compiled validator.
// A nil/empty declaration compiles to the permissive object schema.
func compileParameters(name string, params map[string]any) (*jsonschema.Schema, error) {
	if params == nil {
		params = map[string]any{"type": "object"}
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	return jsonschema.CompileString(name+".schema.json", string(payload))
}

// validateArguments normalizes args through JSON so the validator sees the
// same shapes a decoded request body would produce.
func validateArguments(schema *jsonschema.Schema, args map[string]any) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}

	return schema.Validate(decoded)
}
