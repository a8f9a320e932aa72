// Package runner implements the orchestration layer that turns one agent
// plus its stores into a core.Runner: per-run goroutines, buffered event
// forwarding, confirmation resolution and cooperative cancellation.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/logging"
	"github.com/howtimeschange/honolulu/metrics"
)

// DefaultEventBufferSize is the capacity of the per-run event channels. A
// full buffer applies backpressure to the producing loop instead of dropping
// events.
const DefaultEventBufferSize = 100

// Options configures a Runner.
type Options struct {
	ConversationStore core.ConversationStore
	ArtifactStore     core.ArtifactStore
	MemoryStore       core.MemoryStore
	Confirmer         core.Confirmer
	EventBufferSize   int
	Logger            logging.Logger
	Metrics           *metrics.Metrics
}

// Runner executes a single root agent across many conversations. Each Run is
// its own goroutine with its own event stream; runs on different
// conversations proceed concurrently and independently.
type Runner struct {
	agent     core.Agent
	store     core.ConversationStore
	artifacts core.ArtifactStore
	memory    core.MemoryStore
	confirmer core.Confirmer
	bufSize   int
	logger    logging.Logger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// New constructs a Runner around the root agent. A ConversationStore is
// required; the remaining collaborators are optional.
func New(agent core.Agent, store core.ConversationStore, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: DefaultEventBufferSize,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.EventBufferSize <= 0 {
		opts.EventBufferSize = DefaultEventBufferSize
	}
	if opts.ConversationStore != nil {
		store = opts.ConversationStore
	}
	return &Runner{
		agent:     agent,
		store:     store,
		artifacts: opts.ArtifactStore,
		memory:    opts.MemoryStore,
		confirmer: opts.Confirmer,
		bufSize:   opts.EventBufferSize,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Run implements core.Runner.
func (r *Runner) Run(ctx context.Context, conversationID string, userContent core.Content) (string, <-chan core.Event, <-chan error, error) {
	if conversationID == "" {
		return "", nil, nil, fmt.Errorf("conversation id must not be empty")
	}

	conv, err := r.store.GetOrCreate(conversationID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("load conversation %q: %w", conversationID, err)
	}

	runID := core.NewID()
	runCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.active == nil {
		r.active = make(map[string]context.CancelFunc)
	}
	r.active[runID] = cancel
	r.mu.Unlock()

	agentEmit := make(chan core.Event, r.bufSize)
	eventsCh := make(chan core.Event, r.bufSize)
	errorsCh := make(chan error, 1)

	rc := core.NewRunContext(
		runCtx,
		conversationID,
		runID,
		core.AgentInfo{Name: r.agent.Name(), Type: "root"},
		userContent,
		agentEmit,
		conv,
		r.store,
		r.artifacts,
		r.memory,
		r.confirmer,
		core.NewCallBudget(r.maxModelCalls()),
		r.logger,
	)

	r.metrics.RunStarted()
	r.logger.Info("run.started", "run_id", runID, "conversation_id", conversationID, "agent", r.agent.Name())

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- r.agent.Run(rc)
		close(agentEmit)
	}()

	go func() {
		defer close(eventsCh)
		defer close(errorsCh)
		defer r.finish(runID)

		for ev := range agentEmit {
			select {
			case eventsCh <- ev:
			case <-runCtx.Done():
				// The consumer may have walked away after a cancel. Keep
				// draining agentEmit so the loop goroutine can exit, but
				// stop forwarding.
			}
		}

		if err := <-runErrCh; err != nil {
			r.logger.Warn("run.aborted", "run_id", runID, "error", err.Error())
			errorsCh <- err
			return
		}
		r.logger.Info("run.finished", "run_id", runID)
	}()

	return runID, eventsCh, errorsCh, nil
}

// Resolve implements core.Runner by forwarding the decision to the
// configured confirmer.
func (r *Runner) Resolve(decision core.ConfirmDecision) error {
	if r.confirmer == nil {
		return fmt.Errorf("no confirmer configured")
	}
	return r.confirmer.Resolve(decision)
}

// Cancel implements core.Runner.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, ok := r.active[runID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown or finished run %q", runID)
	}
	cancel()
	return nil
}

// ActiveRuns returns the number of runs currently executing.
func (r *Runner) ActiveRuns() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

func (r *Runner) finish(runID string) {
	r.mu.Lock()
	if cancel, ok := r.active[runID]; ok {
		cancel()
		delete(r.active, runID)
	}
	r.mu.Unlock()
	r.metrics.RunFinished()
}

// maxModelCalls picks up the agent's ceiling when it exposes one;
// otherwise runs are unbounded and rely on the agent's own limits.
func (r *Runner) maxModelCalls() int {
	if a, ok := r.agent.(interface{ MaxModelCalls() int }); ok {
		return a.MaxModelCalls()
	}
	return 0
}
