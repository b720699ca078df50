package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudesk-ai/support-engine/internal/engine"
	"github.com/edudesk-ai/support-engine/internal/kb"
	"github.com/edudesk-ai/support-engine/internal/llm"
	"github.com/edudesk-ai/support-engine/internal/middleware"
	"github.com/edudesk-ai/support-engine/internal/model"
	"github.com/edudesk-ai/support-engine/internal/session"
	"github.com/edudesk-ai/support-engine/internal/suggest"
	"github.com/edudesk-ai/support-engine/internal/tenant"
	"github.com/edudesk-ai/support-engine/pkg/logger"
	"github.com/edudesk-ai/support-engine/pkg/metrics"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Complete(_ context.Context, _ *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}
func (f *fakeLLM) Name() string     { return "fake" }
func (f *fakeLLM) Models() []string { return nil }

func newTestHandler(t *testing.T, client llm.Client) (*Handler, *tenant.Resolver) {
	t.Helper()
	log := logger.NewNop()
	wv, err := kb.NewWeaviateClient("http://127.0.0.1:1")
	require.NoError(t, err)
	resolver := tenant.NewResolver(t.TempDir(), wv, log)
	t.Cleanup(resolver.Close)

	registry := llm.NewRegistry(func(llm.Provider, string) (llm.Client, error) {
		return client, nil
	}, "gpt-4o-mini")
	pipeline := suggest.NewPipeline(registry, 1, time.Second, log)
	t.Cleanup(pipeline.Close)

	return &Handler{
		Engine:      engine.New(registry, resolver, metrics.NewWindows(), 2, log),
		Registry:    registry,
		Resolver:    resolver,
		Sessions:    session.NewMemoryStore(session.Options{}),
		Suggestions: pipeline,
		Log:         log,
		StreamLimit: 2 * time.Second,
	}, resolver
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Tenant(""))
	r.Post("/chat", h.Chat)
	r.Get("/models/list", h.ListModels)
	r.Post("/models/switch", h.SwitchModel)
	r.Get("/suggest/{threadId}", h.SuggestStream)
	r.Get("/api/v1/orders/{orderId}", h.GetOrder)
	return r
}

func postChat(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChatHandoff(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLLM{err: errors.New("unused")})
	router := newTestRouter(h)

	rec := postChat(t, router, `{"query":"请转人工客服","thread_id":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "human", resp.Route)
	assert.Equal(t, model.HandoffAnswer, resp.Answer)
	require.NotNil(t, resp.Handoff)
	assert.Equal(t, "human", resp.Handoff.Channel)
}

func TestChatOrderNotFound(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLLM{err: errors.New("model down")})
	router := newTestRouter(h)

	rec := postChat(t, router, `{"query":"订单 20251114001 的进度","thread_id":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "order", resp.Route)
	assert.Contains(t, resp.Answer, "未查到")
}

func TestChatGeneratesThreadID(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLLM{err: errors.New("unused")})
	router := newTestRouter(h)

	rec := postChat(t, router, `{"query":"转人工"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatRejectsInvalidBody(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLLM{err: errors.New("unused")})
	router := newTestRouter(h)

	rec := postChat(t, router, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatSessionRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLLM{err: errors.New("unused")})
	router := newTestRouter(h)

	rec := postChat(t, router, `{"query":"转人工","thread_id":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postChat(t, router, `{"query":"/history","thread_id":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Code any `json:"code"`
		Data struct {
			Messages []model.SessionMessage `json:"messages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data.Messages, 2)
	assert.Equal(t, "user", env.Data.Messages[0].Role)
	assert.Equal(t, "转人工", env.Data.Messages[0].Content)
	assert.Equal(t, "assistant", env.Data.Messages[1].Role)
}

func TestChatCommands(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLLM{err: errors.New("unused")})
	router := newTestRouter(h)

	rec := postChat(t, router, `{"query":"/help","thread_id":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/reset")

	rec = postChat(t, router, `{"query":"/reset","thread_id":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postChat(t, router, `{"query":"/unknown","thread_id":"t1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListModels(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLLM{reply: "ok"})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/models/list", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gpt-4o-mini")
}

func TestSwitchModel(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLLM{reply: "ok"})
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/models/switch",
		strings.NewReader(`{"name":"claude-3-5-haiku-20241022"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "切换成功")

	req = httptest.NewRequest(http.MethodPost, "/models/switch",
		strings.NewReader(`{"name":"no-such-model"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder(t *testing.T) {
	h, resolver := newTestHandler(t, &fakeLLM{err: errors.New("unused")})
	router := newTestRouter(h)

	res, err := resolver.Resolve("default")
	require.NoError(t, err)
	require.NoError(t, res.Orders.Insert(context.Background(), model.OrderRecord{
		OrderID: "20251114001",
		Status:  "已支付",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/20251114001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "已支付")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/999", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-digits", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
