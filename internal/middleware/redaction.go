package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/internal/redact"
	"github.com/edudesk-ai/support-engine/pkg/logger"
	"github.com/edudesk-ai/support-engine/pkg/metrics"
)

// Redaction scrubs sensitive content from JSON request bodies before they
// reach business logic and from JSON response bodies before they leave the
// process. Bodies above maxBody bytes are passed through unscrubbed to
// bound latency; scrub failures fail open.
func Redaction(s *redact.Scrubber, maxBody int, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isJSON(r.Header.Get("Content-Type")) && r.Body != nil {
				body, err := io.ReadAll(io.LimitReader(r.Body, int64(maxBody)+1))
				if err == nil && len(body) > maxBody {
					// Too large to scrub: splice the prefix back so the
					// handler still sees the full body.
					r.Body = splicedBody{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
				} else {
					r.Body.Close()
					if err == nil && len(body) > 0 {
						if scrubbed, n := scrubJSON(s, body); n > 0 {
							log.Info("redacted request fields", zap.Int("count", n))
							metrics.RedactionsTotal.WithLabelValues("request").Add(float64(n))
							body = scrubbed
						}
					}
					r.Body = io.NopCloser(bytes.NewReader(body))
					r.ContentLength = int64(len(body))
				}
			}

			rw := &redactingWriter{ResponseWriter: w, scrubber: s, maxBody: maxBody, log: log}
			next.ServeHTTP(rw, r)
			rw.finish()
		})
	}
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

// splicedBody rejoins an already-read prefix with the rest of the original
// body while keeping the original closer.
type splicedBody struct {
	io.Reader
	io.Closer
}

// scrubJSON decodes, scrubs and re-encodes a JSON body. Any failure
// returns the original bytes untouched.
func scrubJSON(s *redact.Scrubber, body []byte) ([]byte, int) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return body, 0
	}
	scrubbed, n := s.ScrubValue(v)
	if n == 0 {
		return body, 0
	}
	out, err := json.Marshal(scrubbed)
	if err != nil {
		return body, 0
	}
	return out, n
}

// redactingWriter buffers JSON responses for scrubbing and passes every
// other content type (including event streams) straight through.
type redactingWriter struct {
	http.ResponseWriter
	scrubber *redact.Scrubber
	maxBody  int
	log      *logger.Logger

	buf         bytes.Buffer
	statusCode  int
	decided     bool
	passthrough bool
	headerSent  bool
}

func (rw *redactingWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.decide()
	if rw.passthrough {
		rw.ResponseWriter.WriteHeader(code)
		rw.headerSent = true
	}
}

func (rw *redactingWriter) Write(b []byte) (int, error) {
	rw.decide()
	if rw.passthrough {
		if !rw.headerSent && rw.statusCode != 0 {
			rw.ResponseWriter.WriteHeader(rw.statusCode)
			rw.headerSent = true
		}
		return rw.ResponseWriter.Write(b)
	}
	if rw.buf.Len()+len(b) > rw.maxBody {
		// Too large to scrub: flush what we have and fall back to
		// passthrough.
		rw.passthrough = true
		rw.flushBuffered()
		return rw.ResponseWriter.Write(b)
	}
	return rw.buf.Write(b)
}

func (rw *redactingWriter) Flush() {
	if rw.passthrough {
		if f, ok := rw.ResponseWriter.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func (rw *redactingWriter) decide() {
	if rw.decided {
		return
	}
	rw.decided = true
	rw.passthrough = !isJSON(rw.Header().Get("Content-Type"))
}

func (rw *redactingWriter) flushBuffered() {
	if !rw.headerSent {
		if rw.statusCode != 0 {
			rw.ResponseWriter.WriteHeader(rw.statusCode)
		}
		rw.headerSent = true
	}
	if rw.buf.Len() > 0 {
		rw.ResponseWriter.Write(rw.buf.Bytes())
		rw.buf.Reset()
	}
}

// finish scrubs and emits the buffered JSON body, if any.
func (rw *redactingWriter) finish() {
	if rw.passthrough || rw.buf.Len() == 0 {
		if !rw.passthrough && !rw.headerSent && rw.statusCode != 0 {
			rw.ResponseWriter.WriteHeader(rw.statusCode)
		}
		return
	}
	body := rw.buf.Bytes()
	scrubbed, n := scrubJSON(rw.scrubber, body)
	if n > 0 {
		rw.log.Info("redacted response fields", zap.Int("count", n))
		metrics.RedactionsTotal.WithLabelValues("response").Add(float64(n))
		body = scrubbed
	}
	rw.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if rw.statusCode != 0 {
		rw.ResponseWriter.WriteHeader(rw.statusCode)
	}
	rw.ResponseWriter.Write(body)
}
