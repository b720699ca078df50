package model

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query    string `json:"query"`
	UserID   string `json:"user_id,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
}

// ChatResponse is the answer envelope for a resolved turn.
type ChatResponse struct {
	Route   string           `json:"route"`
	Answer  string           `json:"answer"`
	Sources []map[string]any `json:"sources,omitempty"`
	Handoff *Handoff         `json:"handoff,omitempty"`
}

// Command is one entry of the /help listing.
type Command struct {
	Cmd  string `json:"cmd"`
	Desc string `json:"desc"`
}

// SessionMessage is one {role, content} pair of the bounded session history.
type SessionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Envelope is the success/failure wrapper used by the models and vectors
// APIs. Code is 0 on success, a short string code on failure.
type Envelope struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// OK wraps data in a success envelope.
func OK(data any) Envelope {
	return Envelope{Code: 0, Message: "OK", Data: data}
}

// Err wraps a failure code and message in an envelope.
func Err(code, message string) Envelope {
	return Envelope{Code: code, Message: message, Data: map[string]any{}}
}

// SwitchRequest is the body of POST /models/switch.
type SwitchRequest struct {
	Name string `json:"name"`
}

// VectorItem is one document in a vector index mutation.
type VectorItem struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	ID       string         `json:"id,omitempty"`
}

// VectorsAddRequest is the body of POST /api/v1/vectors/items.
type VectorsAddRequest struct {
	Items []VectorItem `json:"items"`
}

// VectorsDeleteRequest is the body of DELETE /api/v1/vectors/items.
type VectorsDeleteRequest struct {
	IDs []string `json:"ids"`
}
