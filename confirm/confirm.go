// Package confirm provides the in-process confirmation broker that bridges
// conversation loops waiting on gated tool invocations and the transport
// layer delivering user decisions.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/logging"
	"github.com/howtimeschange/honolulu/metrics"
)

// DefaultTimeout bounds how long a pending confirmation waits before it is
// treated as a denial.
const DefaultTimeout = 300 * time.Second

var (
	// ErrUnknownConfirmation reports a Resolve for an invocation id with no
	// pending Await.
	ErrUnknownConfirmation = errors.New("unknown confirmation id")
	// ErrAlreadyResolved reports a second Resolve for the same invocation id.
	ErrAlreadyResolved = errors.New("confirmation already resolved")
)

// Options configures a Broker.
type Options struct {
	Timeout time.Duration
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Broker implements core.Confirmer. Each Await registers a pending entry
// keyed by invocation id; Resolve hands the decision to the waiter through a
// buffered channel so resolution never blocks the transport goroutine.
//
// Resolved ids are remembered for one decision window so a duplicate Resolve
// is distinguishable from an unknown one, then pruned. A Resolve arriving
// after the waiter has already timed out finds no pending entry and reports
// ErrUnknownConfirmation.
type Broker struct {
	mu       sync.Mutex
	pending  map[string]chan core.ConfirmAction
	resolved map[string]time.Time
	timeout  time.Duration
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// NewBroker constructs a Broker with the default decision timeout.
func NewBroker(optFns ...func(o *Options)) *Broker {
	opts := Options{
		Timeout: DefaultTimeout,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Broker{
		pending:  make(map[string]chan core.ConfirmAction),
		resolved: make(map[string]time.Time),
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Await blocks until the invocation is resolved, the decision window
// expires, or ctx is done. Timeouts and cancellations both come back as
// denials; only cancellation carries an error.
func (b *Broker) Await(ctx context.Context, invocationID string) (core.ConfirmAction, error) {
	ch := make(chan core.ConfirmAction, 1)

	b.mu.Lock()
	if _, exists := b.pending[invocationID]; exists {
		b.mu.Unlock()
		return core.ConfirmDeny, fmt.Errorf("confirmation %q already pending", invocationID)
	}
	b.pending[invocationID] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, invocationID)
		b.mu.Unlock()
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case action := <-ch:
		b.metrics.RecordConfirmation(string(action))
		return action, nil
	case <-timer.C:
		b.logger.Warn("confirm.timeout", "invocation_id", invocationID)
		b.metrics.RecordConfirmation("timeout")
		return core.ConfirmDeny, nil
	case <-ctx.Done():
		return core.ConfirmDeny, ctx.Err()
	}
}

// Resolve delivers a user decision to the waiting loop. Exactly one Resolve
// per invocation id succeeds; a decision for an invocation whose window has
// already timed out reports ErrUnknownConfirmation.
func (b *Broker) Resolve(decision core.ConfirmDecision) error {
	switch decision.Action {
	case core.ConfirmAllow, core.ConfirmAllowAll, core.ConfirmDeny:
	default:
		return fmt.Errorf("invalid confirmation action %q", decision.Action)
	}

	now := time.Now()

	b.mu.Lock()
	b.pruneResolvedLocked(now)
	ch, ok := b.pending[decision.InvocationID]
	if ok {
		delete(b.pending, decision.InvocationID)
		b.resolved[decision.InvocationID] = now
	}
	_, seen := b.resolved[decision.InvocationID]
	b.mu.Unlock()

	if !ok {
		if seen {
			return fmt.Errorf("%w: %q", ErrAlreadyResolved, decision.InvocationID)
		}
		return fmt.Errorf("%w: %q", ErrUnknownConfirmation, decision.InvocationID)
	}

	ch <- decision.Action
	b.logger.Debug("confirm.resolved", "invocation_id", decision.InvocationID, "action", string(decision.Action))
	return nil
}

// pruneResolvedLocked drops resolution records older than one decision
// window. The caller must hold b.mu.
func (b *Broker) pruneResolvedLocked(now time.Time) {
	for id, at := range b.resolved {
		if now.Sub(at) > b.timeout {
			delete(b.resolved, id)
		}
	}
}

// Pending returns the number of confirmations currently awaiting a decision.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
