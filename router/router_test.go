package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howtimeschange/honolulu/core"
	"github.com/howtimeschange/honolulu/model"
)

func newTestRouter(t *testing.T, strategy Strategy, recs ...*Record) *Router {
	t.Helper()
	r := New(func(o *Options) { o.Strategy = strategy })
	for _, rec := range recs {
		require.NoError(t, r.Register(rec))
	}
	return r
}

func record(name string, priority int, cost float64, caps ...string) *Record {
	return &Record{
		Name:            name,
		Provider:        model.NewMockProvider(name, name),
		Priority:        priority,
		CostPer1KInput:  cost,
		CostPer1KOutput: cost,
		Capabilities:    caps,
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Cost-Optimized")
	require.NoError(t, err)
	assert.Equal(t, StrategyCostOptimized, s)

	s, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyQualityFirst, s)

	_, err = ParseStrategy("bogus")
	assert.Error(t, err)
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(record("a", 1, 1)))
	assert.Error(t, r.Register(record("a", 2, 1)))
}

func TestSelectEmpty(t *testing.T) {
	r := New()
	_, err := r.Select(Features{})
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestSelectQualityFirst(t *testing.T) {
	r := newTestRouter(t, StrategyQualityFirst,
		record("cheap", 1, 0.1),
		record("premium", 10, 2.0),
	)

	rec, err := r.Select(Features{Kind: KindGeneral})
	require.NoError(t, err)
	assert.Equal(t, "premium", rec.Name)
}

func TestSelectCostOptimized(t *testing.T) {
	r := newTestRouter(t, StrategyCostOptimized,
		record("premium", 10, 2.0),
		record("cheap", 1, 0.1),
	)

	rec, err := r.Select(Features{Kind: KindGeneral})
	require.NoError(t, err)
	assert.Equal(t, "cheap", rec.Name)
}

func TestSelectCostOptimizedFiltersCapabilities(t *testing.T) {
	r := newTestRouter(t, StrategyCostOptimized,
		record("cheap-text", 1, 0.1),
		record("vision", 5, 1.0, TagVision),
	)

	rec, err := r.Select(Features{Kind: KindGeneral, VisionRequired: true})
	require.NoError(t, err)
	assert.Equal(t, "vision", rec.Name)
}

func TestSelectCapabilityMatch(t *testing.T) {
	r := newTestRouter(t, StrategyCapabilityMatch,
		record("generalist", 10, 1.0, TagFunctionCalling),
		record("coder", 1, 1.0, TagCode, TagFunctionCalling),
	)

	rec, err := r.Select(Features{Kind: KindCode})
	require.NoError(t, err)
	assert.Equal(t, "coder", rec.Name)
}

func TestSelectLoadBalance(t *testing.T) {
	a := record("a", 1, 1)
	b := record("b", 1, 1)
	r := newTestRouter(t, StrategyLoadBalance, a, b)

	ctx := context.Background()
	req := model.Request{Contents: []core.Content{core.NewUserContent("hi")}}

	for i := 0; i < 4; i++ {
		respCh, errCh := r.Call(ctx, req, Features{})
		for range respCh {
		}
		require.NoError(t, <-errCh)
	}

	assert.Equal(t, int64(2), a.Usage())
	assert.Equal(t, int64(2), b.Usage())
}

func TestSelectSmart(t *testing.T) {
	r := newTestRouter(t, StrategySmart,
		record("cheap", 1, 0.1),
		record("premium", 10, 2.0),
		record("vision", 5, 1.0, TagVision),
	)

	rec, err := r.Select(Extract("what is DNS"))
	require.NoError(t, err)
	assert.Equal(t, "cheap", rec.Name, "low complexity routes to cheapest")

	rec, err = r.Select(Extract("please refactor this package to use dependency injection and explain the change"))
	require.NoError(t, err)
	assert.Equal(t, "premium", rec.Name, "code tasks route to quality")

	rec, err = r.Select(Extract("describe what is shown in this screenshot"))
	require.NoError(t, err)
	assert.Equal(t, "vision", rec.Name, "vision tasks route by capability")
}

func TestRulesOverrideStrategy(t *testing.T) {
	r := New(func(o *Options) {
		o.Strategy = StrategyQualityFirst
		o.Rules = []Rule{
			{Name: "code-to-coder", Priority: 5, Target: "coder", Kinds: []TaskKind{KindCode}},
			{Name: "everything", Priority: 1, Target: "generalist"},
		}
	})
	require.NoError(t, r.Register(record("premium", 10, 2.0)))
	require.NoError(t, r.Register(record("coder", 1, 1.0)))
	require.NoError(t, r.Register(record("generalist", 1, 1.0)))

	rec, err := r.Select(Features{Kind: KindCode})
	require.NoError(t, err)
	assert.Equal(t, "coder", rec.Name, "highest-priority matching rule wins")

	rec, err = r.Select(Features{Kind: KindGeneral})
	require.NoError(t, err)
	assert.Equal(t, "generalist", rec.Name)
}

func TestRuleUnknownTargetFallsThrough(t *testing.T) {
	r := New(func(o *Options) {
		o.Rules = []Rule{{Name: "ghost", Priority: 5, Target: "missing"}}
	})
	require.NoError(t, r.Register(record("premium", 10, 2.0)))

	rec, err := r.Select(Features{})
	require.NoError(t, err)
	assert.Equal(t, "premium", rec.Name)
}

func TestCallFallsBackInRegistrationOrder(t *testing.T) {
	first := model.NewMockProvider("first", "first")
	first.Script(model.MockTurn{Err: errors.New("rate limited")})
	second := model.NewMockProvider("second", "second")
	second.AddResponse("hello", "hi there")

	r := newTestRouter(t, StrategyQualityFirst,
		&Record{Name: "first", Provider: first, Priority: 10},
		&Record{Name: "second", Provider: second, Priority: 1},
	)

	respCh, errCh := r.Call(context.Background(), model.Request{
		Contents: []core.Content{core.NewUserContent("hello")},
	}, Features{})

	var final model.Response
	for resp := range respCh {
		if !resp.Partial {
			final = resp
		}
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, "hi there", final.Content.Text())
	assert.Equal(t, 1, first.Calls())
	assert.Equal(t, 1, second.Calls())
}

func TestCallExhaustedError(t *testing.T) {
	a := model.NewMockProvider("a", "a")
	a.Script(model.MockTurn{Err: errors.New("down")})
	b := model.NewMockProvider("b", "b")
	b.Script(model.MockTurn{Err: errors.New("overloaded")})

	r := newTestRouter(t, StrategyQualityFirst,
		&Record{Name: "a", Provider: a, Priority: 2},
		&Record{Name: "b", Provider: b, Priority: 1},
	)

	respCh, errCh := r.Call(context.Background(), model.Request{
		Contents: []core.Content{core.NewUserContent("hello")},
	}, Features{})
	for range respCh {
	}

	err := <-errCh
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, []string{"a", "b"}, exhausted.Tried)
	assert.Contains(t, err.Error(), "a, b")
	assert.Contains(t, err.Error(), "overloaded")
}

func TestCallNoRetryAfterDelivery(t *testing.T) {
	flaky := &midStreamProvider{}
	backup := model.NewMockProvider("backup", "backup")

	r := newTestRouter(t, StrategyQualityFirst,
		&Record{Name: "flaky", Provider: flaky, Priority: 10},
		&Record{Name: "backup", Provider: backup, Priority: 1},
	)

	respCh, errCh := r.Call(context.Background(), model.Request{
		Contents: []core.Content{core.NewUserContent("hello")},
		Stream:   true,
	}, Features{})

	var chunks int
	for range respCh {
		chunks++
	}

	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mid-stream")
	assert.Equal(t, 1, chunks, "partial output must be forwarded before the failure")
	assert.Equal(t, 0, backup.Calls(), "no fallback after chunks were delivered")
}

// midStreamProvider emits one text chunk and then fails.
type midStreamProvider struct{}

func (p *midStreamProvider) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		respCh <- model.Response{Partial: true, Delta: &model.Delta{Type: model.DeltaText, Text: "par"}}
		errCh <- fmt.Errorf("connection reset")
	}()
	return respCh, errCh
}

func (p *midStreamProvider) Info() model.Info {
	return model.Info{Name: "flaky", Provider: "flaky", SupportsTools: true}
}

func TestExtractFeatures(t *testing.T) {
	f := Extract("what is a goroutine")
	assert.Equal(t, KindQuick, f.Kind)
	assert.Equal(t, ComplexityLow, f.Complexity)

	f = Extract("please implement a worker pool in the scheduler package and then refactor the queue to use it")
	assert.Equal(t, KindCode, f.Kind)
	assert.True(t, f.Complexity == ComplexityHigh || f.Complexity == ComplexityMedium)
	assert.Contains(t, f.RequiredTags(), TagCode)

	f = Extract("compare the tradeoff between optimistic and pessimistic locking")
	assert.Equal(t, KindReasoning, f.Kind)

	f = Extract("look at this screenshot and describe it")
	assert.True(t, f.VisionRequired)
	assert.Contains(t, f.RequiredTags(), TagVision)
}
