package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/internal/kb"
	"github.com/edudesk-ai/support-engine/internal/middleware"
	"github.com/edudesk-ai/support-engine/internal/model"
)

// AddVectors handles POST /api/v1/vectors/items.
func (h *Handler) AddVectors(w http.ResponseWriter, r *http.Request) {
	var req model.VectorsAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, model.Err("bad_request", "items 不能为空"))
		return
	}

	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	res, err := h.Resolver.Resolve(tenantID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, model.Err("internal", "租户资源不可用"))
		return
	}

	items := make([]kb.AddItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Text == "" {
			continue
		}
		id := it.ID
		if id == "" {
			id = kb.StableID(it.Text)
		}
		items = append(items, kb.AddItem{ID: id, Text: it.Text, Metadata: it.Metadata})
	}
	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, model.Err("bad_request", "items 不能为空"))
		return
	}

	start := time.Now()
	added, skipped, err := res.KB.Add(ctx, items)
	h.Engine.Windows().Observe("vectors_add", float64(time.Since(start).Milliseconds()))
	if err != nil {
		h.Log.Error("vector add failed", zap.String("tenant_id", tenantID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, model.Err("internal", "写入向量库失败"))
		return
	}

	h.Log.Info("vectors added",
		zap.String("tenant_id", tenantID),
		zap.Int("added", len(added)),
		zap.Int("skipped", len(skipped)))
	writeJSON(w, http.StatusOK, model.OK(map[string]any{
		"added":   added,
		"skipped": skipped,
	}))
}

// DeleteVectors handles DELETE /api/v1/vectors/items.
func (h *Handler) DeleteVectors(w http.ResponseWriter, r *http.Request) {
	var req model.VectorsDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, model.Err("bad_request", "ids 不能为空"))
		return
	}

	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	res, err := h.Resolver.Resolve(tenantID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, model.Err("internal", "租户资源不可用"))
		return
	}

	start := time.Now()
	deleted, err := res.KB.Delete(ctx, req.IDs)
	h.Engine.Windows().Observe("vectors_delete", float64(time.Since(start).Milliseconds()))
	if err != nil {
		h.Log.Error("vector delete failed", zap.String("tenant_id", tenantID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, model.Err("internal", "删除向量失败"))
		return
	}

	h.Log.Info("vectors deleted",
		zap.String("tenant_id", tenantID),
		zap.Int("deleted", deleted))
	writeJSON(w, http.StatusOK, model.OK(map[string]any{"deleted": deleted}))
}
