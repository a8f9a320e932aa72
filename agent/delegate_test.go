package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howtimeschange/honolulu/artifact"
	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/internal/testutil"
	"github.com/howtimeschange/honolulu/model"
)

func TestDelegationToolMetadata(t *testing.T) {
	sub := Coder(SingleProvider(model.NewMockProvider("mock", "mock")))
	d := NewDelegationTool(sub)

	assert.Equal(t, "delegate_to_coder", d.Name())
	assert.Equal(t, "Delegate a task to the Coder Agent. Specialized in writing, reading, debugging code, and executing shell commands", d.Description())
	assert.False(t, d.RequiresConfirmation())
	assert.Equal(t, 15, sub.MaxModelCalls())
	assert.Equal(t, 10, Researcher(SingleProvider(model.NewMockProvider("mock", "mock"))).MaxModelCalls())
}

func TestOrchestratorDelegation(t *testing.T) {
	subProvider := model.NewMockProvider("sub", "sub")
	subProvider.Script(model.MockTurn{Text: "package main written"})

	primaryProvider := model.NewMockProvider("primary", "primary")
	primaryProvider.Script(
		model.MockTurn{ToolCalls: []core.FunctionCall{{
			ID:        "d1",
			Name:      "delegate_to_coder",
			Arguments: `{"task": "write a hello world program"}`,
		}}},
		model.MockTurn{Text: "the coder finished the program"},
	)

	coder := Coder(SingleProvider(subProvider))
	orch, err := NewOrchestrator("orchestrator", SingleProvider(primaryProvider), []*SubAgent{coder})
	require.NoError(t, err)

	store := artifact.NewInMemoryStore()
	h := testutil.NewRunContext(func(o *testutil.RunContextOptions) {
		o.Agent = core.AgentInfo{Name: "orchestrator", Type: "orchestrator"}
		o.ArtifactStore = store
	})

	require.NoError(t, orch.Run(h.RunCtx))

	events := h.Drain()
	started := testutil.ByType(events, core.EventSubAgentStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "coder", started[0].SubAgent)
	assert.Equal(t, "write a hello world program", started[0].Text)

	progress := testutil.ByType(events, core.EventSubAgentProgress)
	require.NotEmpty(t, progress, "nested text output is forwarded as progress")

	finished := testutil.ByType(events, core.EventSubAgentFinished)
	require.Len(t, finished, 1)
	assert.Equal(t, "package main written", finished[0].Text)

	results := testutil.ByType(events, core.EventToolResult)
	require.Len(t, results, 1)
	assert.Equal(t, "package main written", results[0].ToolResult.Response)

	last := events[len(events)-1]
	assert.Equal(t, core.EventDone, last.Type)
	assert.Equal(t, "the coder finished the program", last.Text)

	ids, err := store.List("conv-test")
	require.NoError(t, err)
	require.Len(t, ids, 1, "delegation output is archived as an artifact")
	data, err := store.Get("conv-test", ids[0])
	require.NoError(t, err)
	assert.Equal(t, "package main written", string(data))
}

func TestDelegationFailureIsToolFailure(t *testing.T) {
	subProvider := model.NewMockProvider("sub", "sub")
	// The sub-agent keeps requesting a tool that is not registered for it in
	// numbers exceeding its budget, so the delegation ends in exhaustion.
	for i := 0; i < 3; i++ {
		subProvider.Script(model.MockTurn{ToolCalls: []core.FunctionCall{{
			ID: "x", Name: "missing", Arguments: "{}",
		}}})
	}

	primaryProvider := model.NewMockProvider("primary", "primary")
	primaryProvider.Script(
		model.MockTurn{ToolCalls: []core.FunctionCall{{
			ID:        "d1",
			Name:      "delegate_to_limited",
			Arguments: `{"task": "spin forever"}`,
		}}},
		model.MockTurn{Text: "the delegation did not work out"},
	)

	limited := NewSubAgent("limited", "Limited Agent", "A test specialist", SingleProvider(subProvider),
		func(o *Options) { o.MaxModelCalls = 2 })
	orch, err := NewOrchestrator("orchestrator", SingleProvider(primaryProvider), []*SubAgent{limited})
	require.NoError(t, err)

	h := testutil.NewRunContext(func(o *testutil.RunContextOptions) {
		o.Agent = core.AgentInfo{Name: "orchestrator", Type: "orchestrator"}
	})

	require.NoError(t, orch.Run(h.RunCtx))

	events := h.Drain()

	subErrors := testutil.ByType(events, core.EventError)
	var attributed int
	for _, ev := range subErrors {
		if ev.SubAgent == "limited" {
			attributed++
			assert.False(t, ev.IsTerminal())
		}
	}
	assert.Equal(t, 1, attributed, "nested failure surfaces as an attributed error event")

	var parentResults []core.Event
	for _, ev := range testutil.ByType(events, core.EventToolResult) {
		if ev.SubAgent == "" {
			parentResults = append(parentResults, ev)
		}
	}
	require.Len(t, parentResults, 1)
	assert.Contains(t, parentResults[0].ToolResult.Error, "maximum model calls")

	last := events[len(events)-1]
	assert.Equal(t, core.EventDone, last.Type, "the parent run continues past a failed delegation")
}
