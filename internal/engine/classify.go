package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edudesk-ai/support-engine/internal/llm"
	"github.com/edudesk-ai/support-engine/internal/model"
	"github.com/edudesk-ai/support-engine/pkg/metrics"
)

// Keyword tiers checked before any model call, highest priority first.
var (
	humanKeywords  = []string{"人工", "客服", "转人工"}
	orderKeywords  = []string{"订单", "支付", "退款", "order", "status"}
	courseKeywords = []string{"课程", "售前", "售后", "新手"}

	// Relative time references make an order question ambiguous for the
	// keyword shortcut; those go through the model instead.
	relativeTimeKeywords = []string{"昨天", "前天", "上周", "上个月", "yesterday", "last week"}
)

// Clean normalizes a user query: trims whitespace, strips zero-width
// spaces and collapses internal runs of whitespace.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "​", "")
	return strings.Join(strings.Fields(text), " ")
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Classify determines the intent of a cleaned query. Keyword tiers are
// tried first; otherwise the model is asked and its output accepted only
// when it is exactly one of the known labels. Anything else falls back to
// direct.
func (e *Engine) Classify(ctx context.Context, query string) model.Intent {
	lower := strings.ToLower(query)
	switch {
	case containsAny(query, humanKeywords):
		return model.IntentHuman
	case containsAny(lower, orderKeywords) && !containsAny(lower, relativeTimeKeywords):
		return model.IntentOrder
	case containsAny(query, courseKeywords):
		return model.IntentCourse
	}

	client, modelName := e.registry.Current()
	if client == nil {
		return model.IntentDirect
	}
	start := time.Now()
	resp, err := client.Complete(ctx, &llm.CompletionRequest{
		Model:    modelName,
		Messages: []llm.ChatMessage{{Role: "user", Content: fmt.Sprintf(intentPrompt, query)}},
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordLLMCall(modelName, status, time.Since(start).Seconds())
	if err != nil {
		return model.IntentDirect
	}

	label := strings.ToLower(strings.TrimSpace(resp.Content))
	if model.ValidIntent(label) {
		return model.Intent(label)
	}
	return model.IntentDirect
}
