package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/internal/model"
	"github.com/edudesk-ai/support-engine/internal/orders"
	"github.com/edudesk-ai/support-engine/internal/tenant"
)

type sqlProposal struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// orderBranch resolves an order question. The model may propose a query;
// anything that fails strict validation, parsing or execution falls back
// to the canned safe query. The branch always produces a summary, never
// an error.
func (e *Engine) orderBranch(ctx context.Context, res *tenant.Resources, state *model.ConversationState) {
	rec := e.lookupOrder(ctx, res, state.Query)
	if rec == nil {
		state.OrderSummary = orders.NotFoundMessage
		return
	}

	// A start-time question against a record with no start time is
	// unanswerable; treat it like a miss.
	if orders.TimeSensitive(state.Query) && rec.StartTime == "" {
		state.OrderSummary = orders.NotFoundMessage
		return
	}
	summary := orders.FormatSummary(rec)

	// Optional model rewrite of the deterministic summary. Failures keep
	// the deterministic text.
	if rewritten, err := e.complete(ctx, fmt.Sprintf(orderNLGPrompt, summary)); err == nil && rewritten != "" {
		summary = rewritten
	}
	state.OrderSummary = summary
}

// lookupOrder tries the model-proposed query first, then the safe
// fallback. Returns nil when no row matches either way.
func (e *Engine) lookupOrder(ctx context.Context, res *tenant.Resources, question string) *model.OrderRecord {
	if prop, ok := e.proposeQuery(ctx, question); ok {
		rec, err := res.Orders.Lookup(ctx, prop.SQL, prop.Params)
		if err == nil && rec != nil {
			return rec
		}
		if err != nil {
			e.log.Warn("proposed order query failed", zap.Error(err))
		}
	}

	sqlText, params := orders.DefaultQuery(question)
	rec, err := res.Orders.Lookup(ctx, sqlText, params)
	if err != nil {
		e.log.Warn("fallback order query failed", zap.Error(err))
		return nil
	}
	return rec
}

// proposeQuery asks the model for a parameterized query and validates it
// strictly. Any deviation from the expected JSON or query shape rejects
// the proposal.
func (e *Engine) proposeQuery(ctx context.Context, question string) (orders.Proposal, bool) {
	raw, err := e.complete(ctx, fmt.Sprintf(orderSQLPrompt, question))
	if err != nil {
		return orders.Proposal{}, false
	}
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(raw, "```json"), "```"))

	var prop sqlProposal
	if err := json.Unmarshal([]byte(raw), &prop); err != nil {
		e.log.Debug("order proposal not valid JSON", zap.String("raw", raw))
		return orders.Proposal{}, false
	}
	validated, err := orders.ValidateProposal(prop.SQL, prop.Params)
	if err != nil {
		e.log.Debug("order proposal rejected", zap.Error(err))
		return orders.Proposal{}, false
	}
	return validated, true
}
