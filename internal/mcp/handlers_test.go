package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/errs"
	"github.com/jinwoo-notes/jinwoo/internal/notes"
	"github.com/jinwoo-notes/jinwoo/internal/testdb"
)

func toolResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("missing tool result content: %#v", result)
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type: %T", result.Content[0])
	}
	return text.Text
}

func parseToolErrorPayload(t *testing.T, result *mcp.CallToolResult) toolErrorPayload {
	t.Helper()
	raw := toolResultText(t, result)
	var payload toolErrorPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("invalid tool error payload JSON: %v body=%q", err, raw)
	}
	return payload
}

// newUserHandler returns a handler acting as a freshly bootstrapped user
// and that user's initial folder id.
func newUserHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	ctx := t.Context()
	store := testdb.New(t)
	userID := uuid.New().String()

	var initial db.Folder
	err := store.WithTx(ctx, func(q *db.Queries) error {
		if _, err := q.CreateUser(ctx, db.CreateUserParams{
			ID: userID, Email: userID + "@example.com", PasswordHash: "x", CreatedAt: time.Now().UnixMilli(),
		}); err != nil {
			return err
		}
		var err error
		initial, _, err = notes.Bootstrap(ctx, q, userID, time.Now())
		return err
	})
	require.NoError(t, err)
	return NewHandler(notes.NewService(store, userID)), initial.ID
}

// call invokes a tool through the same path the MCP server uses.
func call(t *testing.T, h *Handler, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, _, err := h.createToolHandler(name)(t.Context(), &mcp.CallToolRequest{}, args)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func callJSON(t *testing.T, h *Handler, name string, args map[string]any, dst any) {
	t.Helper()
	result := call(t, h, name, args)
	require.False(t, result.IsError, "tool %s failed: %s", name, toolResultText(t, result))
	require.NoError(t, json.Unmarshal([]byte(toolResultText(t, result)), dst))
}

func testDecodeToolArgs_UnknownFieldsRejected(t *rapid.T) {
	field := rapid.StringMatching(`[a-z_]{3,12}`).Filter(func(s string) bool { return s != "id" }).Draw(t, "field")
	var decoded struct {
		ID string `json:"id"`
	}
	err := decodeToolArgs(map[string]any{
		"id":  "note-1",
		field: "unexpected",
	}, &decoded)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if got := errs.CodeOf(err); got != errs.InvalidArgument {
		t.Fatalf("unexpected error code: got=%q want=%q", got, errs.InvalidArgument)
	}
}

func TestDecodeToolArgs_UnknownFieldsRejected(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testDecodeToolArgs_UnknownFieldsRejected)
}

func TestDecodeToolArgs_NilMapBehavesAsEmptyObject(t *testing.T) {
	t.Parallel()
	var decoded struct {
		Optional string `json:"optional,omitempty"`
	}
	if err := decodeToolArgs(nil, &decoded); err != nil {
		t.Fatalf("decodeToolArgs(nil) failed: %v", err)
	}
}

func TestDecodeToolArgs_WrongTypeIsInvalidArgument(t *testing.T) {
	t.Parallel()
	var decoded struct {
		ID string `json:"id"`
	}
	err := decodeToolArgs(map[string]any{"id": 42}, &decoded)
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

func testClassifyNotesError_UntypedIsInternal(t *rapid.T) {
	msg := rapid.StringMatching(`[a-z ]{1,30}`).Draw(t, "msg")
	err := classifyNotesError(errors.New(msg), "update note")
	if got := errs.CodeOf(err); got != errs.Internal {
		t.Fatalf("untyped error %q should map to internal, got=%q", msg, got)
	}
	if got := errs.MessageOf(err); got != "failed to update note" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestClassifyNotesError_UntypedIsInternal(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testClassifyNotesError_UntypedIsInternal)
}

func TestClassifyNotesError_PassthroughCodedError(t *testing.T) {
	t.Parallel()
	input := errs.New(errs.NotFound, "missing note")
	got := classifyNotesError(input, "read note")
	if errs.CodeOf(got) != errs.NotFound {
		t.Fatalf("expected passthrough code=%q, got=%q", errs.NotFound, errs.CodeOf(got))
	}
}

func TestCreateToolHandler_UnknownTool_ShapedNotFoundError(t *testing.T) {
	t.Parallel()
	call := NewHandler(nil).createToolHandler("tool_that_does_not_exist")

	result, _, err := call(context.Background(), &mcp.CallToolRequest{}, map[string]any{})
	if err != nil {
		t.Fatalf("createToolHandler returned transport error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatalf("expected IsError result, got %#v", result)
	}

	payload := parseToolErrorPayload(t, result)
	if payload.Code != string(errs.NotFound) {
		t.Fatalf("unexpected error code: got=%q want=%q", payload.Code, errs.NotFound)
	}
	if !strings.Contains(strings.ToLower(payload.Message), "unknown tool") {
		t.Fatalf("unexpected error message: %q", payload.Message)
	}
}

func TestCreateToolHandler_NotesUnavailable_ShapedFailedPrecondition(t *testing.T) {
	t.Parallel()
	call := NewHandler(nil).createToolHandler("list_folders")

	result, _, err := call(context.Background(), &mcp.CallToolRequest{}, map[string]any{})
	if err != nil {
		t.Fatalf("createToolHandler returned transport error: %v", err)
	}
	payload := parseToolErrorPayload(t, result)
	if payload.Code != string(errs.FailedPrecondition) {
		t.Fatalf("unexpected error code: got=%q want=%q", payload.Code, errs.FailedPrecondition)
	}
	if !strings.Contains(payload.Message, "notes tools are unavailable") {
		t.Fatalf("unexpected error message: %q", payload.Message)
	}
}

func TestMarshalAny_InvalidValue_DoesNotPanic(t *testing.T) {
	t.Parallel()
	ch := make(chan int)
	if got := marshalAny(map[string]any{"bad": ch}); got != nil {
		t.Fatalf("expected nil for unmarshalable value, got=%q", string(got))
	}
}

func TestNewToolResultError_UsesStableJSONShape(t *testing.T) {
	t.Parallel()
	result := newToolResultError(errs.New(errs.InvalidArgument, "bad input"))
	if result == nil || !result.IsError {
		t.Fatalf("expected IsError tool result, got %#v", result)
	}
	payload := parseToolErrorPayload(t, result)
	if payload.Code != string(errs.InvalidArgument) || payload.Message != "bad input" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestToolDefinitions_EveryToolIsRouted(t *testing.T) {
	t.Parallel()
	h := NewHandler(nil)
	for _, tool := range ToolDefinitions() {
		_, err := h.HandleToolCall(context.Background(), tool.Name, nil)
		require.Error(t, err, tool.Name)
		assert.Equal(t, errs.FailedPrecondition, errs.CodeOf(err), tool.Name)
	}
}

func TestTools_FolderAndNoteWorkflow(t *testing.T) {
	t.Parallel()
	h, initialID := newUserHandler(t)

	var projects notes.Folder
	callJSON(t, h, "create_folder", map[string]any{"name": "Projects"}, &projects)
	var child notes.Folder
	callJSON(t, h, "create_folder", map[string]any{"name": "Jinwoo", "parent_id": projects.ID}, &child)
	assert.Equal(t, 1, child.Depth)

	var created noteSummary
	callJSON(t, h, "create_note", map[string]any{
		"folder_id": child.ID,
		"title":     "Roadmap",
		"content":   "- folders\n- notes",
	}, &created)
	assert.Equal(t, child.ID, created.FolderID)
	assert.Equal(t, "- folders\n- notes", created.Preview)

	var read notes.Note
	callJSON(t, h, "read_note", map[string]any{"id": created.ID}, &read)
	assert.Equal(t, "Roadmap", read.Title)

	var updated noteSummary
	callJSON(t, h, "update_note", map[string]any{"id": created.ID, "content": "rewritten"}, &updated)
	assert.Equal(t, "Roadmap", updated.Title)
	assert.Equal(t, "rewritten", updated.Preview)

	var listing struct {
		Notes []noteSummary `json:"notes"`
		Total int           `json:"total"`
	}
	callJSON(t, h, "list_notes", map[string]any{"folder_id": initialID}, &listing)
	assert.Equal(t, 2, listing.Total)

	var renamed notes.Folder
	callJSON(t, h, "rename_folder", map[string]any{"id": projects.ID, "name": "Work"}, &renamed)
	assert.Equal(t, "Work", renamed.Name)

	var moved notes.Folder
	callJSON(t, h, "move_folder", map[string]any{"id": child.ID}, &moved)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, 0, moved.Depth)

	var folders struct {
		Folders []notes.Folder `json:"folders"`
	}
	callJSON(t, h, "list_folders", nil, &folders)
	require.Len(t, folders.Folders, 3)
	for _, f := range folders.Folders {
		if f.IsInitial {
			assert.Equal(t, 2, f.NoteCount)
		}
	}

	var deleted notes.DeleteFolderResult
	callJSON(t, h, "delete_folder", map[string]any{"id": child.ID}, &deleted)
	assert.Equal(t, []string{child.ID}, deleted.FolderIDs)
	assert.Equal(t, []string{created.ID}, deleted.NoteIDs)

	result := call(t, h, "read_note", map[string]any{"id": created.ID})
	require.True(t, result.IsError)
	assert.Equal(t, string(errs.NotFound), parseToolErrorPayload(t, result).Code)
}

func TestTools_DeleteNoteFolderRules(t *testing.T) {
	t.Parallel()
	h, initialID := newUserHandler(t)

	var a, b notes.Folder
	callJSON(t, h, "create_folder", map[string]any{"name": "A"}, &a)
	callJSON(t, h, "create_folder", map[string]any{"name": "B"}, &b)
	var n noteSummary
	callJSON(t, h, "create_note", map[string]any{"folder_id": a.ID, "title": "t"}, &n)

	result := call(t, h, "delete_note", map[string]any{"id": n.ID, "folder_id": b.ID})
	require.True(t, result.IsError)
	assert.Equal(t, string(errs.NotFound), parseToolErrorPayload(t, result).Code)

	var ok map[string]any
	callJSON(t, h, "delete_note", map[string]any{"id": n.ID, "folder_id": initialID}, &ok)
	assert.Equal(t, true, ok["deleted"])
}

func TestTools_ErrorsAreCoded(t *testing.T) {
	t.Parallel()
	h, initialID := newUserHandler(t)

	cases := []struct {
		tool string
		args map[string]any
		code errs.Code
	}{
		{"create_folder", map[string]any{"name": "  "}, errs.InvalidArgument},
		{"create_folder", map[string]any{"name": "x", "bogus": true}, errs.InvalidArgument},
		{"create_note", map[string]any{"folder_id": "missing", "title": "t"}, errs.NotFound},
		{"delete_folder", map[string]any{"id": initialID}, errs.FailedPrecondition},
		{"move_folder", map[string]any{"id": initialID}, errs.FailedPrecondition},
		{"read_note", map[string]any{"id": "missing"}, errs.NotFound},
	}
	for _, tc := range cases {
		result := call(t, h, tc.tool, tc.args)
		require.True(t, result.IsError, tc.tool)
		assert.Equal(t, string(tc.code), parseToolErrorPayload(t, result).Code, "%s %v", tc.tool, tc.args)
	}
}
