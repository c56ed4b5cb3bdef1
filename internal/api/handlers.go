// Package api serves the folder and note JSON API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jinwoo-notes/jinwoo/internal/auth"
	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/errs"
	"github.com/jinwoo-notes/jinwoo/internal/export"
	"github.com/jinwoo-notes/jinwoo/internal/notes"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

// Handler serves /api routes for the authenticated user.
type Handler struct {
	store      *db.Store
	middleware *auth.Middleware
	exporter   *export.Exporter
	sinks      map[string]export.Sink
}

// NewHandler creates a new API handler. Every route requires a session.
func NewHandler(store *db.Store, middleware *auth.Middleware) *Handler {
	return &Handler{
		store:      store,
		middleware: middleware,
		sinks:      map[string]export.Sink{},
	}
}

// EnableExport turns on POST /api/export with the given named sinks.
func (h *Handler) EnableExport(exporter *export.Exporter, sinks map[string]export.Sink) {
	h.exporter = exporter
	h.sinks = sinks
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	routes := map[string]http.HandlerFunc{
		"GET /api/folders":            h.ListFolders,
		"POST /api/folders":           h.CreateFolder,
		"PATCH /api/folders/{id}":     h.UpdateFolder,
		"POST /api/folders/{id}/move": h.MoveFolder,
		"DELETE /api/folders/{id}":    h.DeleteFolder,
		"GET /api/folders/{id}/notes": h.ListNotesByFolder,
		"POST /api/notes":             h.CreateNote,
		"GET /api/notes/{id}":         h.GetNote,
		"GET /api/notes/{id}/html":    h.GetNoteHTML,
		"PATCH /api/notes/{id}":       h.UpdateNote,
		"DELETE /api/notes/{id}":      h.DeleteNote,
		"POST /api/export":            h.Export,
	}
	for pattern, fn := range routes {
		mux.Handle(pattern, h.middleware.RequireAuth(fn))
	}
}

// service returns a notes service acting as the session's user.
func (h *Handler) service(r *http.Request) *notes.Service {
	return notes.NewService(h.store, auth.GetUserID(r.Context()))
}

// ListFolders handles GET /api/folders.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.service(r).ListFolders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: folders})
}

// CreateFolder handles POST /api/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	folder, err := h.service(r).CreateFolder(r.Context(), notes.CreateFolderParams{
		Name:     req.Name,
		ParentID: optionalID(req.ParentID),
		Depth:    req.Depth,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// UpdateFolder handles PATCH /api/folders/{id}.
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req UpdateFolderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	folder, err := h.service(r).UpdateFolder(r.Context(), r.PathValue("id"), notes.UpdateFolderParams{Name: req.Name})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

// MoveFolder handles POST /api/folders/{id}/move.
func (h *Handler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	var req MoveFolderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	folder, err := h.service(r).MoveFolder(r.Context(), r.PathValue("id"), optionalID(req.ParentID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

// DeleteFolder handles DELETE /api/folders/{id}. The response lists every
// folder and note removed with it.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	result, err := h.service(r).DeleteFolder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListNotesByFolder handles GET /api/folders/{id}/notes.
func (h *Handler) ListNotesByFolder(w http.ResponseWriter, r *http.Request) {
	list, err := h.service(r).ListNotesByFolder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: list})
}

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	note, err := h.service(r).CreateNote(r.Context(), req.FolderID, req.Title, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// GetNote handles GET /api/notes/{id}. A missing note is a 200 with null.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.service(r).GetNoteByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// GetNoteHTML handles GET /api/notes/{id}/html.
func (h *Handler) GetNoteHTML(w http.ResponseWriter, r *http.Request) {
	note, err := h.service(r).GetNoteByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if note == nil {
		writeError(w, r, errs.New(errs.NotFound, "note not found"))
		return
	}
	doc, err := notes.RenderNoteHTML(*note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src https: data:")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// UpdateNote handles PATCH /api/notes/{id}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	note, err := h.service(r).UpdateNote(r.Context(), r.PathValue("id"), notes.UpdateNoteParams{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}?folderId=.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	err := h.service(r).DeleteNote(r.Context(), r.PathValue("id"), r.URL.Query().Get("folderId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles POST /api/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sink, ok := h.sinks[req.Sink]
	if h.exporter == nil || !ok {
		writeError(w, r, errs.Newf(errs.FailedPrecondition, "export sink %q is not configured", req.Sink))
		return
	}
	manifest, err := h.exporter.Export(r.Context(), auth.GetUserID(r.Context()), sink)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

// FolderListResponse is the body of GET /api/folders.
type FolderListResponse struct {
	Folders []notes.Folder `json:"folders"`
}

// NoteListResponse is the body of GET /api/folders/{id}/notes.
type NoteListResponse struct {
	Notes []notes.Note `json:"notes"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps coded errors to their status. Anything uncoded is logged
// and reported as a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var coded *errs.Error
	if !errors.As(err, &coded) {
		obs.From(r.Context()).Error("request_failed", "pkg", "api", "error", err)
	}
	writeJSON(w, errs.HTTPStatus(errs.CodeOf(err)), ErrorResponse{Error: errs.MessageOf(err)})
}
