// Package engine implements the per-turn resolution flow: classify the
// query, run the matching branch and record the outcome.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/internal/llm"
	"github.com/edudesk-ai/support-engine/internal/model"
	"github.com/edudesk-ai/support-engine/internal/tenant"
	"github.com/edudesk-ai/support-engine/pkg/logger"
	"github.com/edudesk-ai/support-engine/pkg/metrics"
)

const directFallback = "抱歉，我暂时无法回答，请稍后再试。"

// Engine resolves one conversation turn at a time.
type Engine struct {
	registry   *llm.Registry
	resolver   *tenant.Resolver
	windows    *metrics.Windows
	retrievalK int
	log        *logger.Logger
}

func New(registry *llm.Registry, resolver *tenant.Resolver, windows *metrics.Windows, retrievalK int, log *logger.Logger) *Engine {
	if retrievalK <= 0 {
		retrievalK = 2
	}
	return &Engine{
		registry:   registry,
		resolver:   resolver,
		windows:    windows,
		retrievalK: retrievalK,
		log:        log,
	}
}

// Windows exposes the rolling latency windows for the health surface.
func (e *Engine) Windows() *metrics.Windows { return e.windows }

// Resolve runs a full turn: clean, classify, branch, checkpoint, observe.
// The returned state always carries a route and a non-empty answer.
func (e *Engine) Resolve(ctx context.Context, tenantID, threadID, query string, history []model.SessionMessage) (*model.ConversationState, error) {
	start := time.Now()

	state := &model.ConversationState{
		Query:    Clean(query),
		History:  renderHistory(history),
		TenantID: tenantID,
		ThreadID: threadID,
	}

	res, err := e.resolver.Resolve(tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant %s: %w", tenantID, err)
	}

	state.Intent = e.Classify(ctx, state.Query)
	state.Route = state.Intent

	category := state.Intent.Category()
	switch category {
	case "kb":
		e.kbBranch(ctx, res, state)
	case "order":
		e.orderBranch(ctx, res, state)
	case "handoff":
		res.Support.Record(ctx, threadID, state.Query)
		state.Handoff = &model.Handoff{Channel: "human", Payload: map[string]any{
			"tenant_id": tenantID,
			"thread_id": threadID,
			"query":     state.Query,
		}}
	default:
		e.directBranch(ctx, state)
	}

	if err := res.Checkpoints.Save(ctx, threadID, string(state.Route), state.Answer()); err != nil {
		e.log.Warn("checkpoint save failed",
			zap.String("thread_id", threadID),
			zap.Error(err))
	}

	elapsed := float64(time.Since(start).Milliseconds())
	e.windows.Observe(category, elapsed)
	e.windows.Observe("overall", elapsed)
	metrics.ChatTurnsTotal.WithLabelValues(tenantID, string(state.Route)).Inc()

	return state, nil
}

// kbBranch answers from the knowledge base. An empty retrieval result
// records the question for curation and hands off to a human; the route
// keeps the classified label either way.
func (e *Engine) kbBranch(ctx context.Context, res *tenant.Resources, state *model.ConversationState) {
	docs, err := res.KB.Search(ctx, state.Query, e.retrievalK)
	if err != nil {
		e.log.Warn("kb search failed", zap.Error(err))
	}
	if len(docs) == 0 {
		res.Support.Record(ctx, state.ThreadID, state.Query)
		state.Handoff = &model.Handoff{Channel: "human", Payload: map[string]any{
			"reason": "kb_miss",
			"query":  state.Query,
		}}
		return
	}

	state.Sources = make([]map[string]any, 0, len(docs))
	var contextParts []string
	for _, d := range docs {
		contextParts = append(contextParts, d.Content)
		src := map[string]any{"id": d.ID, "content": d.Content}
		for k, v := range d.Metadata {
			src[k] = v
		}
		state.Sources = append(state.Sources, src)
	}

	prompt := fmt.Sprintf(ragPrompt, strings.Join(contextParts, "\n---\n"), state.Query)
	answer, err := e.complete(ctx, contextWithHistory(state.History, prompt))
	if err != nil {
		res.Support.Record(ctx, state.ThreadID, state.Query)
		state.Handoff = &model.Handoff{Channel: "human", Payload: map[string]any{
			"reason": "kb_error",
			"query":  state.Query,
		}}
		return
	}
	state.KBAnswer = answer
}

func (e *Engine) directBranch(ctx context.Context, state *model.ConversationState) {
	prompt := fmt.Sprintf(directPrompt, state.Query)
	answer, err := e.complete(ctx, contextWithHistory(state.History, prompt))
	if err != nil {
		state.KBAnswer = directFallback
		return
	}
	state.KBAnswer = answer
}

// complete sends a single-message completion to the active model and
// records call metrics.
func (e *Engine) complete(ctx context.Context, prompt string) (string, error) {
	client, modelName := e.registry.Current()
	if client == nil {
		return "", fmt.Errorf("no active model")
	}
	start := time.Now()
	resp, err := client.Complete(ctx, &llm.CompletionRequest{
		Model:    modelName,
		Messages: []llm.ChatMessage{{Role: "user", Content: prompt}},
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordLLMCall(modelName, status, time.Since(start).Seconds())
	if err != nil {
		e.log.Warn("completion failed", zap.String("model", modelName), zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

func contextWithHistory(history, prompt string) string {
	if history == "" {
		return prompt
	}
	return historyPrefix + history + "\n\n" + prompt
}

func renderHistory(msgs []model.SessionMessage) string {
	if len(msgs) == 0 {
		return ""
	}
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.Role + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}
