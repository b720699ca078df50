// Package handler implements the HTTP surface of the support engine.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/edudesk-ai/support-engine/internal/engine"
	"github.com/edudesk-ai/support-engine/internal/llm"
	natsclient "github.com/edudesk-ai/support-engine/internal/nats"
	"github.com/edudesk-ai/support-engine/internal/session"
	"github.com/edudesk-ai/support-engine/internal/suggest"
	"github.com/edudesk-ai/support-engine/internal/tenant"
	"github.com/edudesk-ai/support-engine/pkg/logger"
)

// Handler carries the dependencies shared by all routes.
type Handler struct {
	Engine      *engine.Engine
	Registry    *llm.Registry
	Resolver    *tenant.Resolver
	Sessions    session.Store
	Suggestions *suggest.Pipeline
	NATS        *natsclient.Client
	Log         *logger.Logger

	// StreamLimit bounds how long a suggestion stream stays open.
	StreamLimit time.Duration
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error":   code,
		"message": message,
	})
}
