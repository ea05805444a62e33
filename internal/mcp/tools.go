// ABOUTME: MCP tool definitions and registration for the dataset browser
// ABOUTME: Defines JSON schemas for the five read-only dataset tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, source DatasetSource) *Handlers {
	handlers := NewHandlers(source)

	// 1. get_document - Fetch one extracted document with its chunks
	server.AddTool(mcp.Tool{
		Name:        "get_document",
		Description: "Get an extracted document and its chunks by document id (e.g. dc1).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Document id",
				},
			},
			Required: []string{"id"},
		},
	}, handlers.GetDocument)

	// 2. get_dialogue - Fetch one tutoring dialogue
	server.AddTool(mcp.Tool{
		Name:        "get_dialogue",
		Description: "Get a tutoring dialogue by dialogue id (e.g. dc1_ch[0_1]).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Dialogue id",
				},
			},
			Required: []string{"id"},
		},
	}, handlers.GetDialogue)

	// 3. list_dpo_leaves - List the deepest preference-tree nodes
	server.AddTool(mcp.Tool{
		Name:        "list_dpo_leaves",
		Description: "List preference-tree nodes that no other stored node extends, shortest first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dialogue_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional dialogue id to restrict the listing to one tree",
				},
			},
		},
	}, handlers.ListDPOLeaves)

	// 4. get_dpo_path - Reconstruct a root-to-node path
	server.AddTool(mcp.Tool{
		Name:        "get_dpo_path",
		Description: "Get every preference turn from the tree root down to a node (e.g. dc1_ch[0_1]_dpo[1_2]).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Preference node id",
				},
			},
			Required: []string{"id"},
		},
	}, handlers.GetDPOPath)

	// 5. dataset_stats - Summary counts
	server.AddTool(mcp.Tool{
		Name:        "dataset_stats",
		Description: "Get document, dialogue and preference-node counts plus word totals.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.DatasetStats)

	return handlers
}
