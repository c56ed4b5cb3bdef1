package obs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestFrom_IncludesCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutputForTests(&buf)
	defer restore()

	ctx := WithCorrelation(t.Context(), Correlation{RequestID: "req-1"})
	ctx = WithUserID(ctx, "user-1")
	From(ctx).Info("hello")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "req-1", recs[0]["request_id"])
	assert.Equal(t, "user-1", recs[0]["user_id"])
	assert.Equal(t, "hello", recs[0]["msg"])
}

func TestRequestContextMiddleware_AssignsRequestID(t *testing.T) {
	var seen Correlation
	h := RequestContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, strings.HasPrefix(seen.RequestID, "req-"))
	assert.Equal(t, seen.RequestID, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", seen.TraceID)
	assert.Equal(t, seen.TraceID, seen.RequestID)
}

func TestAccessLogMiddleware_RedactsCookies(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutputForTests(&buf)
	defer restore()

	h := AccessLogMiddleware("test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/folders", nil)
	req.Header.Set("Cookie", "session_id=secret-value")
	h.ServeHTTP(httptest.NewRecorder(), req)

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "http_access", recs[0]["msg"])
	assert.EqualValues(t, http.StatusTeapot, recs[0]["status"])
	assert.EqualValues(t, 2, recs[0]["resp_bytes"])
	assert.NotContains(t, buf.String(), "secret-value")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, slog.LevelInfo, ParseLevel("INFO"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelDebug, ParseLevel(""))
}
