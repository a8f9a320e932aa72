package tool

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/internal/util"
	"github.com/howtimeschange/honolulu/logging"
)

// -------------------- Schema Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	// Properties present
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	// Required only includes non-pointer, non-omitempty exported fields
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"a"}, req)
}

// -------------------- Test Doubles --------------------

type memMemoryStore struct {
	mu    sync.RWMutex
	store map[string][]core.SearchResult
}

func newMemMemoryStore() *memMemoryStore {
	return &memMemoryStore{store: map[string][]core.SearchResult{}}
}

func (m *memMemoryStore) Search(cid, _ string, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.store[cid]
	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func (m *memMemoryStore) Store(cid, content string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mr := core.SearchResult{ID: content, Content: content, Score: 1.0, Metadata: metadata}
	m.store[cid] = append(m.store[cid], mr)
	return nil
}

func (m *memMemoryStore) Delete(_, _ string) error { return nil }

func dummyRunContext() *core.RunContext {
	emit := make(chan core.Event, 10)
	conv := core.NewConversation("conv-1")

	return core.NewRunContext(
		context.Background(),
		"conv-1", "run-1",
		core.AgentInfo{Name: "Agent", Type: "test"},
		core.NewUserContent("hi"),
		emit,
		conv,
		nil, nil, newMemMemoryStore(), nil,
		core.NewCallBudget(10),
		logging.NoOpLogger{},
	)
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return a + b, nil
	})

	tc := core.NewToolContext(dummyRunContext(), "inv1")
	result, err := sumTool.Call(tc, map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
	assert.False(t, sumTool.RequiresConfirmation())
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
	tc := core.NewToolContext(dummyRunContext(), "inv3")
	_, err := execTool.Call(tc, map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, CodeExecution, toolErr.Code)
}

func TestFunctionTool_ConfirmationOption(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	danger := NewFunctionTool("shell_exec", "Run a command", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return "ok", nil
	}, func(o *FunctionToolOptions) {
		o.RequiresConfirmation = true
	})
	assert.True(t, danger.RequiresConfirmation())
}

// -------------------- Registry Tests --------------------

func registryFixture(t *testing.T) *Registry {
	t.Helper()

	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		"required": []any{"x"},
	}

	r := NewRegistry()
	err := r.Register(NewFunctionTool("double", "Double a number", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["x"].(float64) * 2, nil
	}))
	assert.NoError(t, err)

	return r
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := registryFixture(t)
	err := r.Register(NewFunctionTool("double", "Again", map[string]any{"type": "object"}, nil))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_Lookup(t *testing.T) {
	r := registryFixture(t)

	tool, ok := r.Get("double")
	assert.True(t, ok)
	assert.Equal(t, "double", tool.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"double"}, r.Names())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ExecuteSuccess(t *testing.T) {
	r := registryFixture(t)
	tc := core.NewToolContext(dummyRunContext(), "inv-ok")

	result, err := r.Execute(tc, "double", map[string]any{"x": 21.0})
	assert.NoError(t, err)
	assert.Equal(t, 42.0, result)
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	r := registryFixture(t)
	tc := core.NewToolContext(dummyRunContext(), "inv-missing")

	_, err := r.Execute(tc, "nope", map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, CodeNotFound, toolErr.Code)
	assert.Contains(t, toolErr.Message, `tool "nope" not found`)
}

func TestRegistry_ExecuteValidationFailure(t *testing.T) {
	r := registryFixture(t)
	tc := core.NewToolContext(dummyRunContext(), "inv-bad")

	// missing required "x"
	_, err := r.Execute(tc, "double", map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, CodeValidation, toolErr.Code)

	// wrong type for "x"
	_, err = r.Execute(tc, "double", map[string]any{"x": "not-int"})
	assert.Error(t, err)
}

func TestRegistry_ExecutePanicRecovery(t *testing.T) {
	r := NewRegistry(NewFunctionTool("panics", "Panics", map[string]any{"type": "object"}, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		panic("kaboom")
	}))
	tc := core.NewToolContext(dummyRunContext(), "inv-panic")

	_, err := r.Execute(tc, "panics", nil)
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Contains(t, toolErr.Message, "panic")
}

func TestRegistry_RequiresConfirmation(t *testing.T) {
	r := NewRegistry(
		NewFunctionTool("safe", "Safe", map[string]any{"type": "object"}, nil),
		NewFunctionTool("danger", "Danger", map[string]any{"type": "object"}, nil, func(o *FunctionToolOptions) {
			o.RequiresConfirmation = true
		}),
	)

	assert.False(t, r.RequiresConfirmation("safe"))
	assert.True(t, r.RequiresConfirmation("danger"))
	assert.False(t, r.RequiresConfirmation("missing"))
}

// -------------------- TypedTool Tests --------------------

type greetArgs struct {
	Name  string `json:"name" description:"Who to greet"`
	Shout *bool  `json:"shout" description:"Uppercase the greeting"`
}

func TestTypedTool_DecodesArguments(t *testing.T) {
	greet := NewTypedTool("greet", "Greet a person", func(_ *core.ToolContext, args greetArgs) (any, error) {
		if args.Shout != nil && *args.Shout {
			return "HELLO " + args.Name, nil
		}
		return "hello " + args.Name, nil
	})

	tc := core.NewToolContext(dummyRunContext(), "inv-typed")
	result, err := greet.Call(tc, map[string]any{"name": "ada", "shout": true})
	assert.NoError(t, err)
	assert.Equal(t, "HELLO ada", result)

	schema := greet.Parameters()
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "shout")
}

type checkedArgs struct {
	Count int `json:"count"`
}

func (a checkedArgs) Validate() error {
	if a.Count < 0 {
		return errors.New("count must be non-negative")
	}
	return nil
}

func TestTypedTool_SemanticValidation(t *testing.T) {
	counter := NewTypedTool("count", "Count things", func(_ *core.ToolContext, args checkedArgs) (any, error) {
		return args.Count, nil
	})

	tc := core.NewToolContext(dummyRunContext(), "inv-checked")
	_, err := counter.Call(tc, map[string]any{"count": -1})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

// -------------------- MemoryTool Tests --------------------

func TestMemoryTool_StoreAndSearch(t *testing.T) {
	mem := NewMemoryTool()
	rc := dummyRunContext()

	tcStore := core.NewToolContext(rc, "inv-store")
	stored, err := mem.Call(tcStore, map[string]any{"operation": "store", "content": "user prefers tabs", "kind": MemoryKindUserPreference})
	assert.NoError(t, err)
	assert.True(t, stored.(map[string]any)["stored"].(bool))

	tcSearch := core.NewToolContext(rc, "inv-search")
	found, err := mem.Call(tcSearch, map[string]any{"operation": "search", "query": "tabs"})
	assert.NoError(t, err)
	m := found.(map[string]any)
	assert.Equal(t, 1, m["count"])
}

func TestMemoryTool_UnknownOperation(t *testing.T) {
	mem := NewMemoryTool()
	tc := core.NewToolContext(dummyRunContext(), "inv-bad-op")

	_, err := mem.Call(tc, map[string]any{"operation": "forget"})
	assert.Error(t, err)
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")
}
