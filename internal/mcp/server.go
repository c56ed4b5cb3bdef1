// Package mcp exposes the folder and note engine as MCP tools over the
// Streamable HTTP transport.
package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jinwoo-notes/jinwoo/internal/auth"
	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/logutil"
	"github.com/jinwoo-notes/jinwoo/internal/notes"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

const (
	serverName    = "jinwoo-notes"
	serverVersion = "1.0.0"

	// maxMCPBodyBytes leaves room for a maximum-size note plus JSON-RPC framing.
	maxMCPBodyBytes = notes.MaxContentBytes + 64*1024

	maxLoggedBodyBytes = 2048
)

// Server serves /mcp. It must be mounted behind auth.Middleware.RequireAuth.
type Server struct {
	store       *db.Store
	httpHandler http.Handler
}

// NewServer creates the MCP endpoint. A fresh MCP server is built for every
// request, bound to the authenticated user's notes service.
func NewServer(store *db.Store) *Server {
	s := &Server{store: store}
	s.httpHandler = mcp.NewStreamableHTTPHandler(
		s.serverForRequest,
		&mcp.StreamableHTTPOptions{
			// Plain application/json responses; no SSE stream is needed.
			JSONResponse: true,
			// Each request is authenticated on its own, so no MCP session state.
			Stateless: true,
		},
	)
	return s
}

func (s *Server) serverForRequest(r *http.Request) *mcp.Server {
	userID := auth.GetUserID(r.Context())
	return NewMCPServer(notes.NewService(s.store, userID))
}

// NewMCPServer registers every tool and prompt on a new MCP server whose
// tools act through notesSvc.
func NewMCPServer(notesSvc *notes.Service) *mcp.Server {
	handler := NewHandler(notesSvc)
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		nil,
	)
	for _, tool := range ToolDefinitions() {
		mcp.AddTool(mcpServer, tool, handler.createToolHandler(tool.Name))
	}
	registerPrompts(mcpServer)
	return mcpServer
}

// ServeHTTP implements http.Handler for the Streamable HTTP transport.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Mcp-Session-Id, Mcp-Protocol-Version")
	w.Header().Set("Access-Control-Allow-Methods", "POST, DELETE, OPTIONS")

	logger := obs.From(r.Context()).With("pkg", "mcp")

	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost, http.MethodDelete:
	default:
		// Stateless JSON mode has no server-initiated stream to GET.
		w.Header().Set("Allow", "POST, DELETE, OPTIONS")
		writeJSONRPCError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var loggedBody []byte
	if r.Body != nil && r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxMCPBodyBytes+1))
		if err != nil {
			logger.Warn("mcp_body_read_failed", "error", err)
			writeJSONRPCError(w, http.StatusBadRequest, "Failed to read request body")
			return
		}
		if len(body) > maxMCPBodyBytes {
			writeJSONRPCError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		loggedBody = body
	}

	logger.Debug("mcp_request",
		"method", r.Method,
		"content_type", r.Header.Get("Content-Type"),
		"headers", logutil.FormatHeadersForLog(r.Header),
		"body", logutil.FormatBodyForLog(r.Header.Get("Content-Type"), loggedBody, maxLoggedBodyBytes, false),
	)

	rw, rec := obs.NewResponseRecorder(w)
	defer func() {
		if p := recover(); p != nil {
			logger.Error("mcp_handler_panic", "panic", fmt.Sprint(p))
			if !rec.WroteHeader() {
				writeJSONRPCError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}
		if !rec.WroteHeader() {
			logger.Error("mcp_handler_no_response")
			writeJSONRPCError(w, http.StatusInternalServerError, "MCP handler returned without writing response")
			return
		}
		if rec.StatusCode() >= http.StatusBadRequest {
			logger.Warn("mcp_request_failed", "status", rec.StatusCode())
		}
	}()
	s.httpHandler.ServeHTTP(rw, r)
}

func writeJSONRPCError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      nil,
		"error": map[string]any{
			"code":    -32603,
			"message": message,
		},
	})
}
