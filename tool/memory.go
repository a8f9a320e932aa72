package tool

import (
	"fmt"

	"github.com/howtimeschange/honolulu/core"
)

// Memory kinds stored alongside snippets so recall can filter by purpose.
const (
	MemoryKindConversation   = "conversation"
	MemoryKindTask           = "task"
	MemoryKindKnowledge      = "knowledge"
	MemoryKindToolResult     = "tool_result"
	MemoryKindUserPreference = "user_preference"
)

// MemoryTool lets the model read and extend long-term memory through the
// ToolContext. Recall quality is whatever the configured MemoryStore
// provides; this tool only shapes the operations.
type MemoryTool struct {
	name        string
	description string
}

// NewMemoryTool creates the memory tool.
//
// Supported operations:
//   - search: retrieve snippets relevant to a query
//   - store: persist a snippet with a kind for later recall
func NewMemoryTool() *MemoryTool {
	return &MemoryTool{
		name: "memory",
		description: "Searches and stores long-term memory for this conversation. " +
			"Supports operations: search (query, limit), store (content, kind).",
	}
}

// Name returns the tool identifier.
func (t *MemoryTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *MemoryTool) Description() string {
	return t.description
}

// RequiresConfirmation reports that memory access never needs approval.
func (t *MemoryTool) RequiresConfirmation() bool { return false }

// Parameters returns the JSON schema for tool parameters.
func (t *MemoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"search", "store"},
				"description": "The memory operation to perform",
			},
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query for the search operation",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Content to persist for the store operation",
			},
			"kind": map[string]interface{}{
				"type": "string",
				"enum": []string{
					MemoryKindConversation, MemoryKindTask, MemoryKindKnowledge,
					MemoryKindToolResult, MemoryKindUserPreference,
				},
				"description": "Kind of memory being stored (default: knowledge)",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum results for search (default: 5)",
			},
		},
		"required": []string{"operation"},
	}
}

// Call implements the Tool interface with structured arguments.
func (t *MemoryTool) Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error) {
	operation, ok := args["operation"].(string)
	if !ok {
		return nil, fmt.Errorf("operation parameter is required")
	}

	switch operation {
	case "search":
		return t.handleSearch(args, toolCtx)
	case "store":
		return t.handleStore(args, toolCtx)
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

func (t *MemoryTool) handleSearch(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("query parameter is required for search")
	}

	limit := 5
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	results, err := toolCtx.SearchMemory(query, limit)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		items = append(items, map[string]interface{}{
			"id":      r.ID,
			"content": r.Content,
			"score":   r.Score,
		})
	}

	return map[string]interface{}{"results": items, "count": len(items)}, nil
}

func (t *MemoryTool) handleStore(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, fmt.Errorf("content parameter is required for store")
	}

	kind := MemoryKindKnowledge
	if k, ok := args["kind"].(string); ok && k != "" {
		kind = k
	}

	if err := toolCtx.StoreMemory(content, map[string]any{"kind": kind}); err != nil {
		return nil, err
	}

	return map[string]interface{}{"stored": true, "kind": kind}, nil
}
