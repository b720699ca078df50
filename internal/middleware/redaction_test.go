package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudesk-ai/support-engine/internal/redact"
	"github.com/edudesk-ai/support-engine/pkg/logger"
)

func redactionHandler(t *testing.T, inner http.HandlerFunc) http.Handler {
	t.Helper()
	mw := Redaction(redact.NewScrubber(nil), 1<<20, logger.NewNop())
	return mw(inner)
}

func TestRedactionScrubsRequestBody(t *testing.T) {
	var seen map[string]any
	h := redactionHandler(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		w.WriteHeader(http.StatusNoContent)
	})

	body := `{"query":"登录不上","password":"hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, redact.Marker, seen["password"])
	assert.Equal(t, "登录不上", seen["query"])
}

func TestRedactionPassesOversizedRequestBodyIntact(t *testing.T) {
	var seen []byte
	mw := Redaction(redact.NewScrubber(nil), 32, logger.NewNop())
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		seen, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))

	// Well past the scrub bound; must reach the handler byte for byte.
	body := `{"query":"` + strings.Repeat("订单查询 ", 20) + `","password":"hunter2"}`
	require.Greater(t, len(body), 32)
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, body, string(seen))
}

func TestRedactionScrubsResponseBody(t *testing.T) {
	h := redactionHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"answer": "您的身份证号 510123199912120011 已登记",
		})
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	out, _ := io.ReadAll(rec.Body)
	assert.NotContains(t, string(out), "510123199912120011")
	assert.Contains(t, string(out), redact.Marker)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedactionPassesThroughEventStream(t *testing.T) {
	h := redactionHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "data: hello\n\n")
		w.(http.Flusher).Flush()
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "data: hello\n\n", rec.Body.String())
}

func TestRedactionLeavesCleanBodiesAlone(t *testing.T) {
	h := redactionHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"answer":"课程下周一开课"}`)
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"answer":"课程下周一开课"}`, rec.Body.String())
}
