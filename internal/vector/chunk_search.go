package vector

import (
	"context"
	"fmt"

	"docscout/internal/models"
	"docscout/internal/providers"
)

// ChunkSearch binds an embedding provider to the searcher for one corpus, so
// the agent can hand over a plain-text query and get ranked hits back.
type ChunkSearch struct {
	embed        providers.EmbeddingProvider
	searcher     *Searcher
	corpusID     string
	embedVersion string
	embedDim     int
}

func NewChunkSearch(embed providers.EmbeddingProvider, searcher *Searcher, corpusID, embedVersion string, embedDim int) *ChunkSearch {
	return &ChunkSearch{
		embed:        embed,
		searcher:     searcher,
		corpusID:     corpusID,
		embedVersion: embedVersion,
		embedDim:     embedDim,
	}
}

func (c *ChunkSearch) SearchChunks(ctx context.Context, query string, topK int) ([]models.ChunkHit, error) {
	vectors, _, err := c.embed.Embed(ctx, providers.EmbedRequest{
		Operation: "search_query",
		Inputs:    []string{query},
		Dimension: c.embedDim,
	})
	if err != nil {
		return nil, fmt.Errorf("embed search query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vector")
	}
	hits, err := c.searcher.SearchChunks(ctx, c.corpusID, vectors[0], topK, SearchFilters{EmbeddingVersion: c.embedVersion})
	if err != nil {
		return nil, err
	}
	return hits, nil
}
