package handler

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/edudesk-ai/support-engine/internal/middleware"
	"github.com/edudesk-ai/support-engine/internal/model"
	"github.com/edudesk-ai/support-engine/internal/orders"
)

var orderIDParam = regexp.MustCompile(`^\d{3,20}$`)

// GetOrder handles GET /api/v1/orders/{orderId}: a direct lookup through
// the safe query path, bypassing the conversation flow.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if !orderIDParam.MatchString(orderID) {
		writeJSON(w, http.StatusBadRequest, model.Err("bad_request", "订单号格式不正确"))
		return
	}

	ctx := r.Context()
	res, err := h.Resolver.Resolve(middleware.GetTenantID(ctx))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, model.Err("internal", "租户资源不可用"))
		return
	}

	sqlText, params := orders.DefaultQuery(orderID)
	rec, err := res.Orders.Lookup(ctx, sqlText, params)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, model.Err("internal", "订单查询失败"))
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, model.Err("not_found", orders.NotFoundMessage))
		return
	}
	writeJSON(w, http.StatusOK, model.OK(rec))
}
