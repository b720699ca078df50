package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edudesk-ai/support-engine/internal/middleware"
	"github.com/edudesk-ai/support-engine/internal/model"
	"github.com/edudesk-ai/support-engine/pkg/metrics"
)

const timeoutMessage = "建议生成超时"

// SuggestStream handles GET /suggest/{threadId}, delivering
// suggestion events for a thread over SSE. The stream closes after the
// final event, the deadline, or client disconnect, whichever comes first.
func (h *Handler) SuggestStream(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadId")
	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_thread_id", err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	limit := h.StreamLimit
	if limit <= 0 {
		limit = 15 * time.Second
	}
	deadline := time.NewTimer(limit)
	defer deadline.Stop()

	events := h.Suggestions.Stream(threadID)
	seq := 0
	for {
		select {
		case <-r.Context().Done():
			return
		case <-deadline.C:
			seq++
			writeSSE(w, flusher, seq, model.SuggestionEvent{
				Event: model.SuggestEventError,
				Final: true,
				Error: &model.SuggestionError{Code: "timeout", Message: timeoutMessage},
			})
			return
		case ev := <-events:
			seq++
			writeSSE(w, flusher, seq, ev)
			if ev.Final {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, id int, ev model.SuggestionEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, ev.Event, data)
	flusher.Flush()
}
