// ABOUTME: MCP tool handler implementations for the dataset browser
// ABOUTME: Every handler reads the current snapshot and answers with JSON text
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/pedagogy/internal/core"
	"github.com/harper/pedagogy/internal/ids"
	"github.com/harper/pedagogy/internal/storage"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	source DatasetSource
}

// NewHandlers creates handlers reading from source
func NewHandlers(source DatasetSource) *Handlers {
	return &Handlers{source: source}
}

// GetDocument handles the get_document tool
func (h *Handlers) GetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a string"), nil
	}

	doc, err := h.source.Dataset().Documents.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get document: %v", err)), nil
	}

	response := map[string]interface{}{
		"document":   doc,
		"word_count": doc.WordCount(),
	}
	return jsonResult(response)
}

// GetDialogue handles the get_dialogue tool
func (h *Handlers) GetDialogue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a string"), nil
	}

	ds := h.source.Dataset()
	dialogue, err := ds.Dialogues.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get dialogue: %v", err)), nil
	}

	response := map[string]interface{}{
		"dialogue":    dialogue,
		"document_id": dialogue.DocumentID(),
		"dpo_leaves":  nonNil(ds.DPO.DeepestFor(dialogue.ID)),
	}
	return jsonResult(response)
}

// ListDPOLeaves handles the list_dpo_leaves tool
func (h *Handlers) ListDPOLeaves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dialogueID := request.GetString("dialogue_id", "")
	dpo := h.source.Dataset().DPO

	var leaves []string
	if dialogueID == "" {
		leaves = dpo.UniqueDeepestIDs()
	} else {
		if _, _, err := ids.ParseDialogueID(dialogueID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid dialogue_id: %v", err)), nil
		}
		leaves = dpo.DeepestFor(dialogueID)
	}

	response := map[string]interface{}{
		"leaves": nonNil(leaves),
		"count":  len(leaves),
	}
	return jsonResult(response)
}

// GetDPOPath handles the get_dpo_path tool
func (h *Handlers) GetDPOPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a string"), nil
	}

	rules, err := ids.ParseDPORulePath(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid id: %v", err)), nil
	}

	turns, err := h.source.Dataset().DPO.TurnsAlongPath(id)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("incomplete path: %v", err)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build path: %v", err)), nil
	}

	dialogueID, _ := ids.DPODialogueID(id)
	response := map[string]interface{}{
		"id":          id,
		"dialogue_id": dialogueID,
		"rules":       rules,
		"turns":       turns,
	}
	return jsonResult(response)
}

// DatasetStats handles the dataset_stats tool
func (h *Handlers) DatasetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := core.ComputeStats(h.source.Dataset())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute stats: %v", err)), nil
	}
	return jsonResult(stats)
}

func jsonResult(response any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
