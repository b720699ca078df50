package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/internal/middleware"
	"github.com/edudesk-ai/support-engine/internal/model"
)

var helpCommands = []model.Command{
	{Cmd: "/help", Desc: "查看可用指令"},
	{Cmd: "/history", Desc: "查看最近会话记录"},
	{Cmd: "/reset", Desc: "清空当前会话"},
}

// Chat handles POST /chat: command interception, turn resolution, session
// bookkeeping and suggestion scheduling.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "请求体不是有效的 JSON")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "query 不能为空")
		return
	}
	if err := middleware.ValidateQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}
	if err := middleware.ValidateThreadID(req.ThreadID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_thread_id", err.Error())
		return
	}

	ctx := r.Context()
	if cmd := strings.TrimSpace(req.Query); strings.HasPrefix(cmd, "/") {
		h.command(ctx, w, cmd, req.ThreadID)
		return
	}

	tenantID := middleware.GetTenantID(ctx)
	history, err := h.Sessions.Messages(ctx, req.ThreadID)
	if err != nil {
		h.Log.Warn("session read failed",
			zap.String("thread_id", req.ThreadID),
			zap.Error(err))
	}

	state, err := h.Engine.Resolve(ctx, tenantID, req.ThreadID, req.Query, history)
	if err != nil {
		h.Log.Error("turn resolution failed",
			zap.String("tenant_id", tenantID),
			zap.String("thread_id", req.ThreadID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "服务暂时不可用，请稍后再试")
		return
	}

	answer := state.Answer()
	h.appendSession(ctx, req.ThreadID, "user", state.Query)
	h.appendSession(ctx, req.ThreadID, "assistant", answer)
	h.Suggestions.Schedule(req.ThreadID, string(state.Route), state.Query, answer)

	writeJSON(w, http.StatusOK, model.ChatResponse{
		Route:   string(state.Route),
		Answer:  answer,
		Sources: state.Sources,
		Handoff: state.Handoff,
	})
}

func (h *Handler) appendSession(ctx context.Context, threadID, role, content string) {
	if err := h.Sessions.Append(ctx, threadID, role, content); err != nil {
		h.Log.Warn("session append failed",
			zap.String("thread_id", threadID),
			zap.Error(err))
	}
}

func (h *Handler) command(ctx context.Context, w http.ResponseWriter, cmd, threadID string) {
	switch cmd {
	case "/help":
		writeJSON(w, http.StatusOK, model.OK(map[string]any{"commands": helpCommands}))
	case "/history":
		msgs, err := h.Sessions.Messages(ctx, threadID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "会话读取失败")
			return
		}
		if msgs == nil {
			msgs = []model.SessionMessage{}
		}
		writeJSON(w, http.StatusOK, model.OK(map[string]any{"messages": msgs}))
	case "/reset":
		if err := h.Sessions.Reset(ctx, threadID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "会话清空失败")
			return
		}
		writeJSON(w, http.StatusOK, model.OK(map[string]any{"reset": true}))
	default:
		writeError(w, http.StatusBadRequest, "unknown_command", "未知指令，输入 /help 查看可用指令")
	}
}
