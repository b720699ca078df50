package handler

import (
	"net/http"

	"github.com/edudesk-ai/support-engine/internal/middleware"
	"github.com/edudesk-ai/support-engine/internal/model"
)

// Health handles GET /health: active model, dependency reachability and
// the rolling latency windows.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, current := h.Registry.Current()

	kbReady, ordersReady := false, false
	if res, err := h.Resolver.Resolve(middleware.GetTenantID(ctx)); err == nil {
		kbReady = res.KB.Ready(ctx)
		ordersReady = res.Orders.Ping(ctx) == nil
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"model":   current,
		"kb":      kbReady,
		"orders":  ordersReady,
		"nats":    h.NATS.IsConnected(),
		"latency": h.Engine.Windows().SnapshotAll(),
	})
}

// Ready handles GET /ready for readiness probes.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.NATS.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "nats": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// Greet handles GET /greet: the static welcome payload shown when a
// conversation opens.
func (h *Handler) Greet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.OK(map[string]any{
		"greeting": "您好，请问有什么可以帮您？",
		"options": []string{
			"课程咨询",
			"订单查询",
			"人工客服",
		},
	}))
}
