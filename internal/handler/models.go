package handler

import (
	"encoding/json"
	"net/http"

	"github.com/edudesk-ai/support-engine/internal/model"
)

// ListModels handles GET /models/list.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	_, current := h.Registry.Current()
	writeJSON(w, http.StatusOK, model.OK(map[string]any{
		"current": current,
		"models":  h.Registry.Models(),
	}))
}

// SwitchModel handles POST /models/switch.
func (h *Handler) SwitchModel(w http.ResponseWriter, r *http.Request) {
	var req model.SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, model.Err("bad_request", "缺少模型名称"))
		return
	}

	res := h.Registry.Switch(req.Name)
	if !res.OK {
		status := http.StatusBadRequest
		if res.Code == "init_error" {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, model.Err(res.Code, res.Message))
		return
	}
	writeJSON(w, http.StatusOK, model.OK(map[string]any{
		"code":    res.Code,
		"message": res.Message,
		"old":     res.Old,
		"new":     res.New,
	}))
}
