package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edudesk-ai/support-engine/internal/llm"
	"github.com/edudesk-ai/support-engine/internal/model"
	"github.com/edudesk-ai/support-engine/pkg/logger"
	"github.com/edudesk-ai/support-engine/pkg/metrics"
)

type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Complete(_ context.Context, _ *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}
func (f *fakeLLM) Name() string     { return "fake" }
func (f *fakeLLM) Models() []string { return nil }

func newTestEngine(t *testing.T, client llm.Client) (*Engine, *fakeLLM) {
	t.Helper()
	fake, _ := client.(*fakeLLM)
	registry := llm.NewRegistry(func(llm.Provider, string) (llm.Client, error) {
		return client, nil
	}, "gpt-4o-mini")
	return New(registry, nil, metrics.NewWindows(), 2, logger.NewNop()), fake
}

func TestClean(t *testing.T) {
	assert.Equal(t, "查 订单", Clean("  查​   订单  \n"))
	assert.Equal(t, "", Clean("   "))
}

func TestClassifyKeywordTiers(t *testing.T) {
	e, fake := newTestEngine(t, &fakeLLM{reply: "direct"})

	// Human outranks order even when both keyword sets match.
	assert.Equal(t, model.IntentHuman, e.Classify(context.Background(), "订单有问题，转人工"))
	assert.Equal(t, model.IntentHuman, e.Classify(context.Background(), "请转人工客服"))
	assert.Equal(t, model.IntentOrder, e.Classify(context.Background(), "订单 20251114001 的进度"))
	assert.Equal(t, model.IntentOrder, e.Classify(context.Background(), "查一下 ORDER 123"))
	assert.Equal(t, model.IntentCourse, e.Classify(context.Background(), "新手应该学什么"))

	// None of the above touched the model.
	assert.Equal(t, 0, fake.calls)
}

func TestClassifyRelativeTimeDefersToModel(t *testing.T) {
	e, fake := newTestEngine(t, &fakeLLM{reply: "order"})

	got := e.Classify(context.Background(), "昨天下的订单到哪了")
	assert.Equal(t, model.IntentOrder, got)
	assert.Equal(t, 1, fake.calls)
}

func TestClassifyModelLabelValidation(t *testing.T) {
	cases := []struct {
		reply string
		want  model.Intent
	}{
		{"presale", model.IntentPresale},
		{"  Postsale \n", model.IntentPostsale},
		{"我觉得是 course", model.IntentDirect},
		{"unknown_label", model.IntentDirect},
		{"", model.IntentDirect},
	}
	for _, tc := range cases {
		e, _ := newTestEngine(t, &fakeLLM{reply: tc.reply})
		assert.Equal(t, tc.want, e.Classify(context.Background(), "帮我看看这个"), "reply=%q", tc.reply)
	}
}

func TestClassifyModelErrorFallsBackToDirect(t *testing.T) {
	e, _ := newTestEngine(t, &fakeLLM{err: errors.New("unavailable")})
	assert.Equal(t, model.IntentDirect, e.Classify(context.Background(), "随便聊聊"))
}
