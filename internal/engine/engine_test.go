package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudesk-ai/support-engine/internal/kb"
	"github.com/edudesk-ai/support-engine/internal/llm"
	"github.com/edudesk-ai/support-engine/internal/model"
	"github.com/edudesk-ai/support-engine/internal/tenant"
	"github.com/edudesk-ai/support-engine/pkg/logger"
	"github.com/edudesk-ai/support-engine/pkg/metrics"
)

// newResolveEngine builds an engine over real tenant resources in a temp
// directory. The vector backend points at a closed port, so knowledge
// retrieval always comes back empty.
func newResolveEngine(t *testing.T, client llm.Client) (*Engine, *tenant.Resolver) {
	t.Helper()
	wv, err := kb.NewWeaviateClient("http://127.0.0.1:1")
	require.NoError(t, err)
	resolver := tenant.NewResolver(t.TempDir(), wv, logger.NewNop())
	t.Cleanup(resolver.Close)

	registry := llm.NewRegistry(func(llm.Provider, string) (llm.Client, error) {
		return client, nil
	}, "gpt-4o-mini")
	return New(registry, resolver, metrics.NewWindows(), 2, logger.NewNop()), resolver
}

func TestResolveHandoff(t *testing.T) {
	e, _ := newResolveEngine(t, &fakeLLM{err: errors.New("unused")})

	state, err := e.Resolve(context.Background(), "default", "t1", "请转人工客服", nil)
	require.NoError(t, err)
	assert.Equal(t, model.IntentHuman, state.Route)
	require.NotNil(t, state.Handoff)
	assert.Equal(t, "human", state.Handoff.Channel)
	assert.Equal(t, model.HandoffAnswer, state.Answer())
}

func TestResolveHandoffRecordsUnanswered(t *testing.T) {
	e, resolver := newResolveEngine(t, &fakeLLM{err: errors.New("unused")})
	ctx := context.Background()

	_, err := e.Resolve(ctx, "default", "t1", "请转人工客服", nil)
	require.NoError(t, err)

	// The question goes to the curation log just like a knowledge miss.
	res, err := resolver.Resolve("default")
	require.NoError(t, err)
	n, err := res.Support.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResolveOrderFallbackNotFound(t *testing.T) {
	e, _ := newResolveEngine(t, &fakeLLM{err: errors.New("model down")})

	state, err := e.Resolve(context.Background(), "default", "t1", "订单 999888 到哪了", nil)
	require.NoError(t, err)
	assert.Equal(t, model.IntentOrder, state.Route)
	assert.Contains(t, state.OrderSummary, "未查到")
}

func TestResolveOrderFound(t *testing.T) {
	e, resolver := newResolveEngine(t, &fakeLLM{err: errors.New("model down")})
	ctx := context.Background()

	res, err := resolver.Resolve("default")
	require.NoError(t, err)
	require.NoError(t, res.Orders.Insert(ctx, model.OrderRecord{
		OrderID: "20251114001",
		Status:  "已支付",
	}))

	state, err := e.Resolve(ctx, "default", "t1", "订单 20251114001 的进度", nil)
	require.NoError(t, err)
	assert.Equal(t, model.IntentOrder, state.Route)
	assert.Contains(t, state.OrderSummary, "20251114001")
	assert.Contains(t, state.OrderSummary, "已支付")
}

func TestResolveOrderTimeGuard(t *testing.T) {
	e, resolver := newResolveEngine(t, &fakeLLM{err: errors.New("model down")})
	ctx := context.Background()

	res, err := resolver.Resolve("default")
	require.NoError(t, err)
	require.NoError(t, res.Orders.Insert(ctx, model.OrderRecord{
		OrderID: "20251114001",
		Status:  "已支付",
	}))

	// A start-time question against a record without one is a miss.
	state, err := e.Resolve(ctx, "default", "t1", "订单 20251114001 什么时候开课", nil)
	require.NoError(t, err)
	assert.Contains(t, state.OrderSummary, "未查到")
}

func TestResolveKBMissFallsBackToHandoff(t *testing.T) {
	e, resolver := newResolveEngine(t, &fakeLLM{reply: "direct"})
	ctx := context.Background()

	state, err := e.Resolve(ctx, "default", "t1", "课程内容包括什么", nil)
	require.NoError(t, err)
	// The classified label survives even though the branch handed off.
	assert.Equal(t, model.IntentCourse, state.Route)
	require.NotNil(t, state.Handoff)
	assert.Equal(t, model.HandoffAnswer, state.Answer())

	// The miss was recorded for curation.
	res, err := resolver.Resolve("default")
	require.NoError(t, err)
	n, err := res.Support.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResolveDirect(t *testing.T) {
	e, _ := newResolveEngine(t, &fakeLLM{reply: "direct"})

	state, err := e.Resolve(context.Background(), "default", "t1", "今天天气怎么样", nil)
	require.NoError(t, err)
	assert.Equal(t, model.IntentDirect, state.Route)
	assert.NotEmpty(t, state.Answer())
}

func TestResolveWritesCheckpoint(t *testing.T) {
	e, resolver := newResolveEngine(t, &fakeLLM{err: errors.New("unused")})
	ctx := context.Background()

	_, err := e.Resolve(ctx, "default", "thread-9", "转人工", nil)
	require.NoError(t, err)

	res, err := resolver.Resolve("default")
	require.NoError(t, err)
	turn, err := res.Checkpoints.Load(ctx, "thread-9")
	require.NoError(t, err)
	require.NotNil(t, turn)
	assert.Equal(t, "human", turn.Route)
	assert.Equal(t, model.HandoffAnswer, turn.Answer)
}

func TestResolveObservesLatency(t *testing.T) {
	e, _ := newResolveEngine(t, &fakeLLM{err: errors.New("unused")})

	_, err := e.Resolve(context.Background(), "default", "t1", "转人工", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, e.Windows().Snapshot("handoff").Count)
	assert.Equal(t, 1, e.Windows().Snapshot("overall").Count)
}
