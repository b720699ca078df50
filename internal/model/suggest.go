package model

// SuggestionEvent is pushed onto a per-thread queue and consumed at most
// once by the suggestion stream.
type SuggestionEvent struct {
	Route       string           `json:"route"`
	Suggestions []string         `json:"suggestions"`
	Event       string           `json:"event"`
	Final       bool             `json:"final,omitempty"`
	Error       *SuggestionError `json:"error,omitempty"`
}

// SuggestionError describes a failed or timed-out suggestion generation.
type SuggestionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Suggestion event kinds.
const (
	SuggestEventStart = "react_start"
	SuggestEventReact = "react"
	SuggestEventError = "error"
)
