package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howtimeschange/honolulu/agent"
	"github.com/howtimeschange/honolulu/confirm"
	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/model"
	"github.com/howtimeschange/honolulu/session"
	"github.com/howtimeschange/honolulu/tool"
)

var _ core.Runner = (*Runner)(nil)

func collect(t *testing.T, eventsCh <-chan core.Event, errorsCh <-chan error) ([]core.Event, error) {
	t.Helper()
	var events []core.Event
	for ev := range eventsCh {
		events = append(events, ev)
	}
	select {
	case err := <-errorsCh:
		return events, err
	case <-time.After(5 * time.Second):
		t.Fatal("error channel never closed")
		return nil, nil
	}
}

func TestRunStreamsEvents(t *testing.T) {
	provider := model.NewMockProvider("mock", "mock")
	provider.Script(model.MockTurn{Text: "hello there"})

	a := agent.New("assistant", agent.SingleProvider(provider))
	r := New(a, session.NewInMemoryStore())

	runID, eventsCh, errorsCh, err := r.Run(context.Background(), "c1", core.NewUserContent("hi"))
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	events, runErr := collect(t, eventsCh, errorsCh)
	require.NoError(t, runErr)
	require.NotEmpty(t, events)

	assert.Equal(t, core.EventThinking, events[0].Type)
	last := events[len(events)-1]
	assert.Equal(t, core.EventDone, last.Type)
	assert.Equal(t, "hello there", last.Text)
	for _, ev := range events {
		assert.Equal(t, runID, ev.RunID)
	}

	assert.Equal(t, 0, r.ActiveRuns())
}

func TestRunSharesConversationAcrossRuns(t *testing.T) {
	provider := model.NewMockProvider("mock", "mock")
	provider.Script(model.MockTurn{Text: "first"}, model.MockTurn{Text: "second"})

	store := session.NewInMemoryStore()
	a := agent.New("assistant", agent.SingleProvider(provider))
	r := New(a, store)

	_, eventsCh, errorsCh, err := r.Run(context.Background(), "c1", core.NewUserContent("one"))
	require.NoError(t, err)
	_, runErr := collect(t, eventsCh, errorsCh)
	require.NoError(t, runErr)

	_, eventsCh, errorsCh, err = r.Run(context.Background(), "c1", core.NewUserContent("two"))
	require.NoError(t, err)
	_, runErr = collect(t, eventsCh, errorsCh)
	require.NoError(t, runErr)

	conv, err := store.Get("c1")
	require.NoError(t, err)
	// user, assistant, user, assistant
	assert.Equal(t, 4, conv.Len())
}

func TestCancelStopsRun(t *testing.T) {
	provider := model.NewMockProvider("mock", "mock")
	// A confirmation-gated tool with no resolver blocks the run until cancel.
	provider.Script(model.MockTurn{ToolCalls: []core.FunctionCall{{
		ID: "c1", Name: "slow", Arguments: `{}`,
	}}})

	broker := confirm.NewBroker(func(o *confirm.Options) { o.Timeout = time.Minute })

	slow := tool.NewFunctionTool(
		"slow",
		"A gated no-op",
		map[string]any{"type": "object"},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) { return "ok", nil },
		func(o *tool.FunctionToolOptions) { o.RequiresConfirmation = true },
	)

	a := agent.New("assistant", agent.SingleProvider(provider), func(o *agent.Options) {
		o.Registry = tool.NewRegistry(slow)
	})
	r := New(a, session.NewInMemoryStore(), func(o *Options) { o.Confirmer = broker })

	runID, eventsCh, errorsCh, err := r.Run(context.Background(), "c1", core.NewUserContent("go"))
	require.NoError(t, err)

	// Drain until the confirmation request shows up, then cancel.
	go func() {
		for range eventsCh {
		}
	}()
	require.Eventually(t, func() bool { return broker.Pending() == 1 || r.ActiveRuns() == 0 },
		5*time.Second, 10*time.Millisecond)

	require.NoError(t, r.Cancel(runID))

	select {
	case runErr := <-errorsCh:
		assert.Error(t, runErr)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled run did not terminate")
	}

	assert.Error(t, r.Cancel(runID), "cancelling a finished run reports an error")
}

// chattyAgent emits more chunks than any channel buffer holds.
type chattyAgent struct{ chunks int }

func (a *chattyAgent) Name() string        { return "chatty" }
func (a *chattyAgent) Description() string { return "emits many text chunks" }

func (a *chattyAgent) Run(rc *core.RunContext) error {
	for i := 0; i < a.chunks; i++ {
		if err := rc.EmitEvent(core.NewTextChunkEvent(rc.RunID, rc.Agent.Name, "x")); err != nil {
			return err
		}
	}
	return rc.EmitEvent(core.NewDoneEvent(rc.RunID, rc.Agent.Name, "done"))
}

func TestCancelWithAbandonedConsumer(t *testing.T) {
	r := New(&chattyAgent{chunks: 50}, session.NewInMemoryStore(), func(o *Options) {
		o.EventBufferSize = 4
	})

	runID, eventsCh, errorsCh, err := r.Run(context.Background(), "c1", core.NewUserContent("go"))
	require.NoError(t, err)

	// Read a single event, then walk away without draining the rest. The
	// forwarder fills the buffer and stalls on the next send.
	<-eventsCh
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, r.Cancel(runID))

	select {
	case runErr := <-errorsCh:
		assert.Error(t, runErr)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not terminate with an abandoned event consumer")
	}

	require.Eventually(t, func() bool { return r.ActiveRuns() == 0 },
		5*time.Second, 10*time.Millisecond)
}

func TestResolveWithoutConfirmer(t *testing.T) {
	a := agent.New("assistant", agent.SingleProvider(model.NewMockProvider("mock", "mock")))
	r := New(a, session.NewInMemoryStore())
	assert.Error(t, r.Resolve(core.ConfirmDecision{InvocationID: "x", Action: core.ConfirmAllow}))
}

func TestRunRejectsEmptyConversationID(t *testing.T) {
	a := agent.New("assistant", agent.SingleProvider(model.NewMockProvider("mock", "mock")))
	r := New(a, session.NewInMemoryStore())
	_, _, _, err := r.Run(context.Background(), "", core.NewUserContent("hi"))
	assert.Error(t, err)
}
