package honolulu

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howtimeschange/honolulu/agent"
	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/model"
	"github.com/howtimeschange/honolulu/tool"
)

func TestRunSync(t *testing.T) {
	provider := model.NewMockProvider("mock", "mock")
	provider.AddResponse("hello", "hi from the mock")

	h := New(agent.New("assistant", agent.SingleProvider(provider)))

	runID, events, err := h.RunSync(context.Background(), "conv-1", core.NewUserContent("hello"))
	require.NoError(t, err)
	require.NotEmpty(t, runID)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, core.EventDone, last.Type)
	assert.Equal(t, "hi from the mock", last.Text)
}

func TestConfirmationRoundTrip(t *testing.T) {
	provider := model.NewMockProvider("mock", "mock")
	provider.Script(
		model.MockTurn{ToolCalls: []core.FunctionCall{{
			ID: "inv-1", Name: "write_file", Arguments: `{"path": "notes.txt"}`,
		}}},
		model.MockTurn{Text: "written"},
	)

	writeFile := tool.NewFunctionTool(
		"write_file",
		"Write a file",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
			"required":   []string{"path"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) { return "saved", nil },
		func(o *tool.FunctionToolOptions) { o.RequiresConfirmation = true },
	)

	root := agent.New("assistant", agent.SingleProvider(provider), func(o *agent.Options) {
		o.Registry = tool.NewRegistry(writeFile)
	})
	h := New(root, func(o *Options) { o.ConfirmationTimeout = 5 * time.Second })

	_, eventsCh, errorsCh, err := h.Run(context.Background(), "conv-1", core.NewUserContent("save my notes"))
	require.NoError(t, err)

	var events []core.Event
	for ev := range eventsCh {
		events = append(events, ev)
		if ev.Type == core.EventConfirmationRequested {
			decision := core.ConfirmDecision{
				InvocationID: ev.ToolCall.ID,
				Action:       core.ConfirmAllow,
			}
			// The request event can arrive a moment before the loop blocks
			// in Await, so retry until the broker knows the invocation.
			require.Eventually(t, func() bool { return h.Resolve(decision) == nil },
				2*time.Second, 5*time.Millisecond)
		}
	}
	require.NoError(t, <-errorsCh)

	var sawResult bool
	for _, ev := range events {
		if ev.Type == core.EventToolResult {
			sawResult = true
			assert.Equal(t, "saved", ev.ToolResult.Response)
			assert.False(t, ev.ToolResult.Denied)
		}
	}
	assert.True(t, sawResult)
	assert.Equal(t, core.EventDone, events[len(events)-1].Type)
}
