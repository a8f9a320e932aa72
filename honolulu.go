// Package honolulu provides a high-level façade over the conversation loop,
// router and stores for building tool-using model agents. Most applications
// interact with this package by:
//  1. Building an agent (agent.New or agent.NewOrchestrator)
//  2. Creating a Honolulu via New() (optionally overriding default
//     in-memory stores, confirmer, logger or metrics)
//  3. Running turns asynchronously (Run) or synchronously (RunSync) and
//     feeding confirmation decisions back through Resolve
//
// The façade delegates orchestration to runner.Runner while keeping setup
// ergonomics concise. All defaults are safe for local development and tests;
// production deployments typically supply durable stores and a structured
// logger.
package honolulu

import (
	"context"
	"time"

	"github.com/howtimeschange/honolulu/artifact"
	"github.com/howtimeschange/honolulu/confirm"
	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/logging"
	"github.com/howtimeschange/honolulu/memory"
	"github.com/howtimeschange/honolulu/metrics"
	"github.com/howtimeschange/honolulu/runner"
	"github.com/howtimeschange/honolulu/session"
)

// Options configures a Honolulu instance.
type Options struct {
	// Stores default to in-memory implementations when unset.
	ConversationStore core.ConversationStore
	ArtifactStore     core.ArtifactStore
	MemoryStore       core.MemoryStore

	// Confirmer handles gated tool invocations. Unset, an in-process broker
	// with ConfirmationTimeout is created.
	Confirmer           core.Confirmer
	ConfirmationTimeout time.Duration

	// EventBufferSize sets the per-run event channel capacity.
	EventBufferSize int

	// Logger defaults to the no-op logger; Metrics defaults to disabled.
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Honolulu aggregates the runner and its collaborators behind a small API.
type Honolulu struct {
	runner    *runner.Runner
	confirmer core.Confirmer
}

// New wires the given root agent into a ready-to-use runtime.
func New(rootAgent core.Agent, optFns ...func(o *Options)) *Honolulu {
	opts := Options{
		ConfirmationTimeout: confirm.DefaultTimeout,
		EventBufferSize:     runner.DefaultEventBufferSize,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ConversationStore == nil {
		opts.ConversationStore = session.NewInMemoryStore()
	}
	if opts.ArtifactStore == nil {
		opts.ArtifactStore = artifact.NewInMemoryStore()
	}
	if opts.MemoryStore == nil {
		opts.MemoryStore = memory.NewInMemoryStore()
	}
	if opts.Confirmer == nil {
		opts.Confirmer = confirm.NewBroker(func(o *confirm.Options) {
			o.Timeout = opts.ConfirmationTimeout
			o.Logger = opts.Logger
			o.Metrics = opts.Metrics
		})
	}

	r := runner.New(rootAgent, opts.ConversationStore, func(o *runner.Options) {
		o.ArtifactStore = opts.ArtifactStore
		o.MemoryStore = opts.MemoryStore
		o.Confirmer = opts.Confirmer
		o.EventBufferSize = opts.EventBufferSize
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})

	return &Honolulu{runner: r, confirmer: opts.Confirmer}
}

// Run starts an asynchronous turn, returning the run id plus event and
// terminal-error channels.
func (h *Honolulu) Run(ctx context.Context, conversationID string, userContent core.Content) (string, <-chan core.Event, <-chan error, error) {
	return h.runner.Run(ctx, conversationID, userContent)
}

// Resolve feeds a user decision for a pending confirmation into the blocked run.
func (h *Honolulu) Resolve(decision core.ConfirmDecision) error {
	return h.runner.Resolve(decision)
}

// Cancel requests cooperative termination of an in-flight run.
func (h *Honolulu) Cancel(runID string) error { return h.runner.Cancel(runID) }

// Runner exposes the underlying core.Runner for advanced wiring.
func (h *Honolulu) Runner() core.Runner { return h.runner }

// RunSync drains the asynchronous channels, accumulates events and returns
// them with the run id. It is a convenience for request/response callers
// that do not render streaming output.
func (h *Honolulu) RunSync(ctx context.Context, conversationID string, userContent core.Content) (string, []core.Event, error) {
	runID, eventsCh, errorsCh, err := h.runner.Run(ctx, conversationID, userContent)
	if err != nil {
		return "", nil, err
	}

	var events []core.Event
	for {
		select {
		case <-ctx.Done():
			return runID, events, ctx.Err()

		case ev, ok := <-eventsCh:
			if !ok {
				select {
				case err := <-errorsCh:
					return runID, events, err
				default:
					return runID, events, nil
				}
			}
			events = append(events, ev)

		case err := <-errorsCh:
			if err != nil {
				return runID, events, err
			}
		}
	}
}
