package mcp

import "github.com/modelcontextprotocol/go-sdk/mcp"

func idProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

// ToolDefinitions returns the folder and note tool definitions.
func ToolDefinitions() []*mcp.Tool {
	return []*mcp.Tool{
		{
			Name:        "list_folders",
			Description: "List every folder of the user as a flat array. Each folder has id, parentId (null for top-level folders), name, depth, isInitial and noteCount. The folder with isInitial=true is \"All Notes\": it contains every note the user owns, so its noteCount is the total number of notes.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "create_folder",
			Description: "Create a folder. Omit parent_id to create a top-level folder. Depth is computed from the parent.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":      map[string]any{"type": "string", "description": "Folder name (required)"},
					"parent_id": idProperty("Optional id of the parent folder"),
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "rename_folder",
			Description: "Rename a folder.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":   idProperty("Id of the folder to rename"),
					"name": map[string]any{"type": "string", "description": "New folder name"},
				},
				"required": []string{"id", "name"},
			},
		},
		{
			Name:        "move_folder",
			Description: "Move a folder and its subtree under a new parent. Omit parent_id to move it to the top level. A folder cannot be moved into its own subtree, and All Notes cannot be moved.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":        idProperty("Id of the folder to move"),
					"parent_id": idProperty("Optional id of the new parent folder"),
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "delete_folder",
			Description: "Delete a folder together with all of its subfolders and every note stored in them. Returns the ids of everything deleted. All Notes cannot be deleted.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": idProperty("Id of the folder to delete"),
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "list_notes",
			Description: "List the notes of a folder, newest first, with previews instead of full content. Listing All Notes returns every note. Use read_note for full content.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"folder_id": idProperty("Id of the folder to list"),
				},
				"required": []string{"folder_id"},
			},
		},
		{
			Name:        "read_note",
			Description: "Read a note's full title and content.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": idProperty("Id of the note to read"),
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "create_note",
			Description: "Create a note in a folder. Returns the new note's id and preview (not the content, since you already know it).",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"folder_id": idProperty("Id of the folder to store the note in"),
					"title":     map[string]any{"type": "string", "description": "Note title"},
					"content":   map[string]any{"type": "string", "description": "Markdown body (optional)"},
				},
				"required": []string{"folder_id", "title"},
			},
		},
		{
			Name:        "update_note",
			Description: "Replace a note's title and/or content. Omitted fields are left unchanged.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":      idProperty("Id of the note to update"),
					"title":   map[string]any{"type": "string", "description": "New title (optional)"},
					"content": map[string]any{"type": "string", "description": "New content (optional)"},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "delete_note",
			Description: "Delete a note permanently. Pass folder_id when deleting from a folder listing; it must be the note's folder or All Notes.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":        idProperty("Id of the note to delete"),
					"folder_id": idProperty("Optional id of the folder the note is being deleted from"),
				},
				"required": []string{"id"},
			},
		},
	}
}
