package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const organizeNotesPromptName = "organize_notes"

func registerPrompts(mcpServer *mcp.Server) {
	for _, prompt := range PromptDefinitions() {
		mcpServer.AddPrompt(prompt, promptHandler())
	}
}

// PromptDefinitions returns MCP prompt definitions.
func PromptDefinitions() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        organizeNotesPromptName,
			Title:       "Organize notes into folders",
			Description: "How the notebook is laid out and how to tidy it with the folder tools.",
		},
	}
}

const organizeNotesText = `The notebook is a tree of folders. Every note lives in exactly one folder. ` +
	`"All Notes" is a special folder: listing it returns every note, it cannot be moved or deleted, ` +
	`and its noteCount is the total number of notes. ` +
	`Start with list_folders, then list_notes on the folders you need. ` +
	`Create folders with create_folder and restructure with move_folder. ` +
	`Deleting a folder deletes its subfolders and all of their notes, so confirm with the user first.`

func promptHandler() mcp.PromptHandler {
	return func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: PromptDefinitions()[0].Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    mcp.Role("user"),
					Content: &mcp.TextContent{Text: organizeNotesText},
				},
			},
		}, nil
	}
}
