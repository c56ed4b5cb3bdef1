package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jinwoo-notes/jinwoo/internal/errs"
	"github.com/jinwoo-notes/jinwoo/internal/notes"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

// Handler implements MCP tool call handling for one user.
type Handler struct {
	notesSvc *notes.Service
}

// NewHandler creates a handler whose tools act through notesSvc. A nil
// service makes every tool fail with a precondition error.
func NewHandler(notesSvc *notes.Service) *Handler {
	return &Handler{notesSvc: notesSvc}
}

type toolErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// createToolHandler returns a tool handler function for the given tool name.
// Failures are reported as tool results, never as transport errors.
func (h *Handler) createToolHandler(name string) func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		result, err := h.HandleToolCall(ctx, name, args)
		if err != nil {
			var coded *errs.Error
			if !errors.As(err, &coded) || coded.Code == errs.Internal {
				obs.From(ctx).Error("mcp_tool_failed", "pkg", "mcp", "tool", name, "error", err)
			}
			return newToolResultError(err), nil, nil
		}
		return result, nil, nil
	}
}

// HandleToolCall routes tool calls to appropriate handlers.
func (h *Handler) HandleToolCall(ctx context.Context, name string, arguments map[string]any) (*mcp.CallToolResult, error) {
	switch name {
	case "list_folders":
		return h.handleListFolders(ctx, arguments)
	case "create_folder":
		return h.handleCreateFolder(ctx, arguments)
	case "rename_folder":
		return h.handleRenameFolder(ctx, arguments)
	case "move_folder":
		return h.handleMoveFolder(ctx, arguments)
	case "delete_folder":
		return h.handleDeleteFolder(ctx, arguments)
	case "list_notes":
		return h.handleListNotes(ctx, arguments)
	case "read_note":
		return h.handleReadNote(ctx, arguments)
	case "create_note":
		return h.handleCreateNote(ctx, arguments)
	case "update_note":
		return h.handleUpdateNote(ctx, arguments)
	case "delete_note":
		return h.handleDeleteNote(ctx, arguments)
	default:
		return nil, errs.Newf(errs.NotFound, "unknown tool: %s", name)
	}
}

func (h *Handler) requireNotes() (*notes.Service, error) {
	if h.notesSvc == nil {
		return nil, errs.New(errs.FailedPrecondition, "notes tools are unavailable on this MCP endpoint")
	}
	return h.notesSvc, nil
}

// decodeToolArgs strictly decodes tool arguments into dst.
func decodeToolArgs(args map[string]any, dst any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return errs.Wrap(errs.InvalidArgument, "arguments must be a JSON object", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.Newf(errs.InvalidArgument, "invalid arguments: %v", err)
	}
	return nil
}

// classifyNotesError keeps coded errors and hides everything else behind an
// internal error naming the failed operation.
func classifyNotesError(err error, op string) error {
	var coded *errs.Error
	if errors.As(err, &coded) {
		return err
	}
	return errs.Wrap(errs.Internal, "failed to "+op, err)
}

func newToolResultJSON(value any) *mcp.CallToolResult {
	data := marshalAny(value)
	if data == nil {
		return newToolResultError(errs.New(errs.Internal, "failed to marshal response"))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}
}

// newToolResultError renders err as a {code, message} tool error.
func newToolResultError(err error) *mcp.CallToolResult {
	payload := toolErrorPayload{
		Code:    string(errs.CodeOf(err)),
		Message: errs.MessageOf(err),
	}
	text := string(marshalAny(payload))
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

func marshalAny(value any) []byte {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil
	}
	return data
}

// noteSummary is a note without its content.
type noteSummary struct {
	ID        string    `json:"id"`
	FolderID  string    `json:"folderId"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func summarize(n notes.Note) noteSummary {
	return noteSummary{
		ID:        n.ID,
		FolderID:  n.FolderID,
		Title:     n.Title,
		Preview:   n.Preview,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (h *Handler) handleListFolders(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	svc, err := h.requireNotes()
	if err != nil {
		return nil, err
	}
	var in struct{}
	if err := decodeToolArgs(args, &in); err != nil {
		return nil, err
	}
	folders, err := svc.ListFolders(ctx)
	if err != nil {
		return nil, classifyNotesError(err, "list folders")
	}
	return newToolResultJSON(map[string]any{"folders": folders}), nil
}

func (h *Handler) handleCreateFolder(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	svc, err := h.requireNotes()
	if err != nil {
		return nil, err
	}
	var in struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parent_id"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return nil, err
	}
	folder, err := svc.CreateFolder(ctx, notes.CreateFolderParams{Name: in.Name, ParentID: optionalID(in.ParentID)})
	if err != nil {
		return nil, classifyNotesError(err, "create folder")
	}
	return newToolResultJSON(folder), nil
}

func (h *Handler) handleRenameFolder(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	svc, err := h.requireNotes()
	if err != nil {
		return nil, err
	}
	var in struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return nil, err
	}
	folder, err := svc.UpdateFolder(ctx, in.ID, notes.UpdateFolderParams{Name: &in.Name})
	if err != nil {
		return nil, classifyNotesError(err, "rename folder")
	}
	return newToolResultJSON(folder), nil
}

func (h *Handler) handleMoveFolder(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	svc, err := h.requireNotes()
	if err != nil {
		return nil, err
	}
	var in struct {
		ID       string  `json:"id"`
		ParentID *string `json:"parent_id"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return nil, err
	}
	folder, err := svc.MoveFolder(ctx, in.ID, optionalID(in.ParentID))
	if err != nil {
		return nil, classifyNotesError(err, "move folder")
	}
	return newToolResultJSON(folder), nil
}

func (h *Handler) handleDeleteFolder(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	svc, err := h.requireNotes()
	if err != nil {
		return nil, err
	}
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return nil, err
	}
	result, err := svc.DeleteFolder(ctx, in.ID)
	if err != nil {
		return nil, classifyNotesError(err, "delete folder")
	}
	return newToolResultJSON(result), nil
}

func (h *Handler) handleListNotes(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	svc, err := h.requireNotes()
	if err != nil {
		return nil, err
	}
	var in struct {
		FolderID string `json:"folder_id"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return nil, err
	}
	list, err := svc.ListNotesByFolder(ctx, in.FolderID)
	if err != nil {
		return nil, classifyNotesError(err, "list notes")
	}
	out := make([]noteSummary, 0, len(list))
	for _, n := range list {
		out = append(out, summarize(n))
	}
	return newToolResultJSON(map[string]any{"notes": out, "total": len(out)}), nil
}

func (h *Handler) handleReadNote(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	svc, err := h.requireNotes()
	if err != nil {
		return nil, err
	}
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return nil, err
	}
	note, err := svc.GetNoteByID(ctx, in.ID)
	if err != nil {
		return nil, classifyNotesError(err, "read note")
	}
	if note == nil {
		return nil, errs.New(errs.NotFound, "note not found")
	}
	return newToolResultJSON(note), nil
}

func (h *Handler) handleCreateNote(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	svc, err := h.requireNotes()
	if err != nil {
		return nil, err
	}
	var in struct {
		FolderID string `json:"folder_id"`
		Title    string `json:"title"`
		Content  string `json:"content"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return nil, err
	}
	note, err := svc.CreateNote(ctx, in.FolderID, in.Title, in.Content)
	if err != nil {
		return nil, classifyNotesError(err, "create note")
	}
	return newToolResultJSON(summarize(*note)), nil
}

func (h *Handler) handleUpdateNote(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	svc, err := h.requireNotes()
	if err != nil {
		return nil, err
	}
	var in struct {
		ID      string  `json:"id"`
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return nil, err
	}
	note, err := svc.UpdateNote(ctx, in.ID, notes.UpdateNoteParams{Title: in.Title, Content: in.Content})
	if err != nil {
		return nil, classifyNotesError(err, "update note")
	}
	return newToolResultJSON(summarize(*note)), nil
}

func (h *Handler) handleDeleteNote(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	svc, err := h.requireNotes()
	if err != nil {
		return nil, err
	}
	var in struct {
		ID       string `json:"id"`
		FolderID string `json:"folder_id"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return nil, err
	}
	if err := svc.DeleteNote(ctx, in.ID, in.FolderID); err != nil {
		return nil, classifyNotesError(err, "delete note")
	}
	return newToolResultJSON(map[string]any{"deleted": true, "id": in.ID}), nil
}

func optionalID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}
