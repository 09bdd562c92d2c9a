package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"docscout/internal/models"
	"docscout/internal/providers"
	"docscout/internal/util"
)

const searchToolName = "search_documents"

const (
	defaultMaxResults = 5
	minMaxResults     = 1
	maxMaxResults     = 20
)

// searchToolSchema describes the one tool the agent may call, in OpenAI
// function-calling form.
func searchToolSchema() providers.Tool {
	return providers.Tool{
		Name:        searchToolName,
		Description: "Search through the document collection using semantic search. Use this to find relevant information for the current search plan.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query to find relevant documents. Be specific about what information you're looking for.",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return (default: 5, max: 20)",
					"minimum":     minMaxResults,
					"maximum":     maxMaxResults,
					"default":     defaultMaxResults,
				},
			},
			"required": []string{"query"},
		},
	}
}

type searchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// executeSearchTool runs one search_documents call. Failures never abort the
// run: they come back as an [ERROR] result the model can read and react to.
func (a *SearchAgent) executeSearchTool(ctx context.Context, call providers.ToolCall) string {
	if call.Name != searchToolName {
		return fmt.Sprintf("[ERROR] unknown tool: %s", call.Name)
	}
	var args searchArgs
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return fmt.Sprintf("[ERROR] invalid tool arguments: %v", err)
	}
	if args.Query == "" {
		return "[ERROR] query parameter is required"
	}
	if args.MaxResults == 0 {
		args.MaxResults = defaultMaxResults
	}
	if args.MaxResults < minMaxResults {
		args.MaxResults = minMaxResults
	}
	if args.MaxResults > maxMaxResults {
		args.MaxResults = maxMaxResults
	}

	toolCtx := ctx
	if a.cfg.ToolTimeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, a.cfg.ToolTimeout)
		defer cancel()
	}
	hits, err := a.search.SearchChunks(toolCtx, args.Query, args.MaxResults)
	if err != nil {
		return fmt.Sprintf("[ERROR] search failed: %v", err)
	}
	return formatSearchResults(args.Query, hits)
}

// formatSearchResults renders ranked hits as JSON the model consumes. The
// citation_key field is what the report must cite.
func formatSearchResults(query string, hits []models.ChunkHit) string {
	if len(hits) == 0 {
		payload, _ := json.Marshal(map[string]any{
			"success": false,
			"message": "No relevant documents found for the query.",
			"query":   query,
			"results": []any{},
		})
		return string(payload)
	}
	results := make([]map[string]any, 0, len(hits))
	for i, h := range hits {
		results = append(results, map[string]any{
			"rank":             i + 1,
			"filename":         h.Filename,
			"citation_key":     h.CitationKey,
			"similarity_score": fmt.Sprintf("%.4f", h.Score),
			"evidence":         util.DisplayEvidenceSnippet(h.Text, query, 420),
			"content":          h.Text,
		})
	}
	payload, _ := json.MarshalIndent(map[string]any{
		"success":       true,
		"query":         query,
		"total_results": len(results),
		"results":       results,
	}, "", "  ")
	return string(payload)
}
