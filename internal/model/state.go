// Package model defines data structures for the support routing engine.
package model

// Intent classifies how a query should be resolved.
type Intent string

const (
	IntentCourse   Intent = "course"
	IntentPresale  Intent = "presale"
	IntentPostsale Intent = "postsale"
	IntentOrder    Intent = "order"
	IntentHuman    Intent = "human"
	IntentDirect   Intent = "direct"
)

// ValidIntent reports whether s is one of the fixed intent labels. Model
// output is never trusted as control flow without passing this check.
func ValidIntent(s string) bool {
	switch Intent(s) {
	case IntentCourse, IntentPresale, IntentPostsale, IntentOrder, IntentHuman, IntentDirect:
		return true
	}
	return false
}

// Category maps an intent label to its metric category.
func (i Intent) Category() string {
	switch i {
	case IntentCourse, IntentPresale, IntentPostsale:
		return "kb"
	case IntentOrder:
		return "order"
	case IntentHuman:
		return "handoff"
	default:
		return "direct"
	}
}

// Handoff describes the human-support channel returned when a turn cannot
// be resolved automatically.
type Handoff struct {
	Channel string         `json:"channel"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ConversationState is the mutable per-turn record threaded through the
// resolution state machine. It is created at request entry and discarded
// after the turn; only session history survives across turns.
//
// Invariant: at most one of KBAnswer, OrderSummary, Handoff is populated.
type ConversationState struct {
	Query    string
	History  string
	TenantID string
	ThreadID string

	Intent       Intent
	KBAnswer     string
	OrderSummary string
	Handoff      *Handoff
	Sources      []map[string]any
	Route        Intent
}

// Answer selects the single populated answer candidate, preferring order
// summary, then handoff, then knowledge answer.
func (s *ConversationState) Answer() string {
	switch {
	case s.OrderSummary != "":
		return s.OrderSummary
	case s.Handoff != nil:
		return HandoffAnswer
	case s.KBAnswer != "":
		return s.KBAnswer
	}
	return ""
}

// HandoffAnswer is the fixed reply used when a turn resolves to the human
// support channel.
const HandoffAnswer = "已为您转接人工客服，请稍候。"
