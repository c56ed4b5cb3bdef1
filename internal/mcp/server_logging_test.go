package mcp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServeHTTP_RequestBodyTooLargeReturns413(t *testing.T) {
	t.Parallel()
	server := &Server{
		httpHandler: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("delegate should not be called when request is oversized")
		}),
	}

	oversized := strings.Repeat("a", maxMCPBodyBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(oversized))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp := httptest.NewRecorder()

	server.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized request, got %d", resp.Code)
	}
}

func TestServeHTTP_GETReturns405WithAllowHeader(t *testing.T) {
	t.Parallel()
	server := &Server{
		httpHandler: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("delegate should not be called for GET")
		}),
	}

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	resp := httptest.NewRecorder()

	server.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d body=%q", resp.Code, resp.Body.String())
	}
	allow := resp.Header().Get("Allow")
	if !strings.Contains(allow, "POST") || !strings.Contains(allow, "DELETE") {
		t.Fatalf("unexpected Allow header: %q", allow)
	}
}
