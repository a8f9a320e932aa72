// Package router selects among registered model providers per request and
// retries failed calls against the remaining providers in registration order.
// Selection follows a configurable strategy, optionally overridden by routing
// rules evaluated highest-priority-first.
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/howtimeschange/honolulu/logging"
	"github.com/howtimeschange/honolulu/metrics"
	"github.com/howtimeschange/honolulu/model"
)

// Well-known capability tags carried by provider records.
const (
	TagVision          = "vision"
	TagCode            = "code"
	TagReasoning       = "reasoning"
	TagFunctionCalling = "function-calling"
)

// Strategy names the provider selection algorithms.
type Strategy string

const (
	// StrategyCostOptimized picks the lowest summed input+output unit cost
	// among capability-matching providers.
	StrategyCostOptimized Strategy = "cost-optimized"
	// StrategyQualityFirst picks the highest-priority provider.
	StrategyQualityFirst Strategy = "quality-first"
	// StrategyCapabilityMatch picks the provider whose capability tags best
	// intersect the task's required tags; function-calling breaks ties.
	StrategyCapabilityMatch Strategy = "capability-match"
	// StrategyLoadBalance picks the provider with the lowest usage counter.
	StrategyLoadBalance Strategy = "load-balance"
	// StrategySmart combines the other strategies by task shape.
	StrategySmart Strategy = "smart"
)

// ParseStrategy converts a configuration string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case StrategyCostOptimized:
		return StrategyCostOptimized, nil
	case StrategyQualityFirst, Strategy(""):
		return StrategyQualityFirst, nil
	case StrategyCapabilityMatch:
		return StrategyCapabilityMatch, nil
	case StrategyLoadBalance:
		return StrategyLoadBalance, nil
	case StrategySmart:
		return StrategySmart, nil
	default:
		return "", fmt.Errorf("unknown routing strategy %q", s)
	}
}

// Record is one registered provider with its routing metadata. Everything but
// the usage counter is immutable after registration; the counter is safe for
// concurrent increments.
type Record struct {
	Name            string
	Provider        model.Provider
	Priority        int // higher wins ties
	CostPer1KInput  float64
	CostPer1KOutput float64
	Capabilities    []string

	usage atomic.Int64
}

// Usage returns how many call attempts have been routed to this provider.
func (r *Record) Usage() int64 { return r.usage.Load() }

func (r *Record) unitCost() float64 { return r.CostPer1KInput + r.CostPer1KOutput }

func (r *Record) hasTag(tag string) bool {
	for _, c := range r.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}

func (r *Record) hasAllTags(tags []string) bool {
	for _, t := range tags {
		if !r.hasTag(t) {
			return false
		}
	}
	return true
}

// Rule overrides the strategy for matching task features. Empty condition
// fields are wildcards; all populated conditions must hold.
type Rule struct {
	Name           string
	Priority       int // higher evaluated first
	Target         string
	Kinds          []TaskKind
	Complexities   []Complexity
	VisionRequired *bool
	MinContextSize int
}

// Matches reports whether the rule's conditions all hold for the features.
func (r Rule) Matches(f Features) bool {
	if len(r.Kinds) > 0 && !containsKind(r.Kinds, f.Kind) {
		return false
	}
	if len(r.Complexities) > 0 && !containsComplexity(r.Complexities, f.Complexity) {
		return false
	}
	if r.VisionRequired != nil && *r.VisionRequired != f.VisionRequired {
		return false
	}
	if r.MinContextSize > 0 && f.ContextSize < r.MinContextSize {
		return false
	}
	return true
}

func containsKind(kinds []TaskKind, k TaskKind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func containsComplexity(cs []Complexity, c Complexity) bool {
	for _, cc := range cs {
		if cc == c {
			return true
		}
	}
	return false
}

// ErrNoProviders is returned when selection runs against an empty router.
var ErrNoProviders = fmt.Errorf("no providers registered")

// ExhaustedError reports that every registered provider failed for one call.
type ExhaustedError struct {
	Tried []string
	Last  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all providers failed (tried: %s): %v", strings.Join(e.Tried, ", "), e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Options configures a Router.
type Options struct {
	Strategy Strategy
	Rules    []Rule
	Logger   logging.Logger
	Metrics  *metrics.Metrics
}

// Router routes generation requests to registered providers. Register all
// providers before the first call; afterwards the record set is read-only and
// the Router is safe for concurrent use.
type Router struct {
	records  []*Record
	byName   map[string]*Record
	strategy Strategy
	rules    []Rule // sorted by descending priority
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// New constructs an empty Router with the given options.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{
		Strategy: StrategyQualityFirst,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	rules := make([]Rule, len(opts.Rules))
	copy(rules, opts.Rules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })

	return &Router{
		byName:   map[string]*Record{},
		strategy: opts.Strategy,
		rules:    rules,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Register adds a provider record. Registration order defines the fallback
// order; duplicate names are rejected.
func (r *Router) Register(rec *Record) error {
	if rec.Name == "" {
		return fmt.Errorf("provider record has empty name")
	}
	if rec.Provider == nil {
		return fmt.Errorf("provider record %q has nil provider", rec.Name)
	}
	if _, exists := r.byName[rec.Name]; exists {
		return fmt.Errorf("provider %q already registered", rec.Name)
	}
	r.records = append(r.records, rec)
	r.byName[rec.Name] = rec
	return nil
}

// Providers returns the registered provider names in registration order.
func (r *Router) Providers() []string {
	names := make([]string, len(r.records))
	for i, rec := range r.records {
		names[i] = rec.Name
	}
	return names
}

// Get returns the record registered under name.
func (r *Router) Get(name string) (*Record, bool) {
	rec, ok := r.byName[name]
	return rec, ok
}

// Select picks the provider for one call. Routing rules override the strategy
// outright: they are evaluated by descending priority and the first match
// whose target is registered wins.
func (r *Router) Select(f Features) (*Record, error) {
	if len(r.records) == 0 {
		return nil, ErrNoProviders
	}

	for _, rule := range r.rules {
		if !rule.Matches(f) {
			continue
		}
		if rec, ok := r.byName[rule.Target]; ok {
			r.logger.Debug("router.rule.matched", "rule", rule.Name, "provider", rec.Name)
			return rec, nil
		}
	}

	return r.selectByStrategy(r.strategy, f), nil
}

func (r *Router) selectByStrategy(strategy Strategy, f Features) *Record {
	switch strategy {
	case StrategyCostOptimized:
		return pickBest(r.matching(f), func(a, b *Record) bool {
			if a.unitCost() != b.unitCost() {
				return a.unitCost() < b.unitCost()
			}
			return a.Priority > b.Priority
		})
	case StrategyCapabilityMatch:
		required := f.RequiredTags()
		return pickBest(r.records, func(a, b *Record) bool {
			ia, ib := tagOverlap(a, required), tagOverlap(b, required)
			if ia != ib {
				return ia > ib
			}
			fa, fb := a.hasTag(TagFunctionCalling), b.hasTag(TagFunctionCalling)
			if fa != fb {
				return fa
			}
			return a.Priority > b.Priority
		})
	case StrategyLoadBalance:
		return pickBest(r.records, func(a, b *Record) bool {
			if a.Usage() != b.Usage() {
				return a.Usage() < b.Usage()
			}
			return a.Priority > b.Priority
		})
	case StrategySmart:
		switch {
		case f.VisionRequired:
			return r.selectByStrategy(StrategyCapabilityMatch, f)
		case f.Kind == KindCode || f.Kind == KindReasoning || f.Complexity == ComplexityHigh:
			return r.selectByStrategy(StrategyQualityFirst, f)
		case f.Complexity == ComplexityLow:
			return r.selectByStrategy(StrategyCostOptimized, f)
		default:
			return r.selectByStrategy(StrategyQualityFirst, f)
		}
	default: // StrategyQualityFirst
		return pickBest(r.records, func(a, b *Record) bool {
			return a.Priority > b.Priority
		})
	}
}

// matching returns the providers carrying every required tag, or all
// providers when none qualify.
func (r *Router) matching(f Features) []*Record {
	required := f.RequiredTags()
	if len(required) == 0 {
		return r.records
	}
	var out []*Record
	for _, rec := range r.records {
		if rec.hasAllTags(required) {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return r.records
	}
	return out
}

func tagOverlap(rec *Record, tags []string) int {
	n := 0
	for _, t := range tags {
		if rec.hasTag(t) {
			n++
		}
	}
	return n
}

// pickBest returns the first record under the less ordering, preserving
// registration order for full ties.
func pickBest(records []*Record, less func(a, b *Record) bool) *Record {
	if len(records) == 0 {
		return nil
	}
	best := records[0]
	for _, rec := range records[1:] {
		if less(rec, best) {
			best = rec
		}
	}
	return best
}

// Call routes one generation request with sequential fallback. The selected
// provider is tried first, then every remaining provider in registration
// order, each at most once. Fallback stops as soon as any response chunk has
// been delivered downstream: a later failure then surfaces as an error rather
// than a retry, so tool calls from a discarded response can never run twice.
// When every provider fails the error channel carries an *ExhaustedError.
func (r *Router) Call(ctx context.Context, req model.Request, f Features) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		primary, err := r.Select(f)
		if err != nil {
			errCh <- err
			return
		}

		candidates := make([]*Record, 0, len(r.records))
		candidates = append(candidates, primary)
		for _, rec := range r.records {
			if rec != primary {
				candidates = append(candidates, rec)
			}
		}

		var tried []string
		var last error
		for i, rec := range candidates {
			if ctx.Err() != nil {
				errCh <- ctx.Err()
				return
			}

			rec.usage.Add(1)
			start := time.Now()
			delivered, callErr := r.pump(ctx, rec, req, out)

			info := rec.Provider.Info()
			status := "success"
			if callErr != nil {
				status = "error"
			}
			r.metrics.RecordModelCall(info.Provider, info.Name, status, time.Since(start))

			if callErr == nil {
				return
			}

			tried = append(tried, rec.Name)
			last = callErr

			if delivered {
				// Output already streamed downstream; retrying would
				// duplicate side effects.
				errCh <- fmt.Errorf("provider %q failed mid-stream: %w", rec.Name, callErr)
				return
			}

			r.metrics.RecordFallback(rec.Name)
			if i < len(candidates)-1 {
				r.logger.Warn("router.fallback", "provider", rec.Name, "error", callErr.Error())
			}
		}

		errCh <- &ExhaustedError{Tried: tried, Last: last}
	}()

	return out, errCh
}

// pump forwards one provider's responses downstream, reporting whether any
// chunk was delivered and the terminal error if the provider failed.
func (r *Router) pump(ctx context.Context, rec *Record, req model.Request, out chan<- model.Response) (bool, error) {
	respCh, errCh := rec.Provider.Generate(ctx, req)

	delivered := false
	for resp := range respCh {
		if !resp.Partial && resp.Usage != nil {
			info := rec.Provider.Info()
			r.metrics.RecordTokens(info.Provider, info.Name, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		}
		select {
		case <-ctx.Done():
			return delivered, ctx.Err()
		case out <- resp:
			delivered = true
		}
	}

	if err, ok := <-errCh; ok && err != nil {
		return delivered, err
	}
	return delivered, nil
}

// Strategy returns the configured selection strategy.
func (r *Router) Strategy() Strategy { return r.strategy }
