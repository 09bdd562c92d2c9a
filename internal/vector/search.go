// Package vector runs pgvector similarity search over the chunks table and
// shapes the hits for the search agent, citation key included.
package vector

import (
	"context"
	"fmt"
	"strings"

	"docscout/internal/citation"
	"docscout/internal/models"

	"github.com/jackc/pgx/v5"
)

type SearchFilters struct {
	Fingerprints     []string
	EmbeddingVersion string
}

type Searcher struct {
	q Queryer
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

func (s *Searcher) SearchChunks(ctx context.Context, corpusID string, queryVec []float32, topK int, filters SearchFilters) ([]models.ChunkHit, error) {
	if topK <= 0 {
		topK = 5
	}
	vecLiteral := ToLiteral(queryVec)
	args := []any{corpusID, vecLiteral, topK}

	filterSQL := ""
	if len(filters.Fingerprints) > 0 {
		filterSQL = fmt.Sprintf(" AND c.fingerprint = ANY($%d)", len(args)+1)
		args = append(args, filters.Fingerprints)
	}
	if strings.TrimSpace(filters.EmbeddingVersion) != "" {
		filterSQL += fmt.Sprintf(" AND c.embedding_version = $%d", len(args)+1)
		args = append(args, filters.EmbeddingVersion)
	}

	query := `
SELECT c.fingerprint,
       c.chunk_index,
       d.filename,
       LEFT(c.text, 420) AS snippet,
       1 - (c.embedding <=> $2::vector) AS score,
       c.text
FROM chunks c
JOIN documents d ON d.fingerprint = c.fingerprint AND d.corpus_id = c.corpus_id
WHERE c.corpus_id = $1
  AND c.embedding IS NOT NULL` + filterSQL + `
ORDER BY c.embedding <=> $2::vector
LIMIT $3`

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	hits := make([]models.ChunkHit, 0, topK)
	for rows.Next() {
		var h models.ChunkHit
		if err := rows.Scan(&h.Fingerprint, &h.ChunkIndex, &h.Filename, &h.Snippet, &h.Score, &h.Text); err != nil {
			return nil, fmt.Errorf("scan chunk hit: %w", err)
		}
		h.CitationKey = citation.FormatKey(h.Fingerprint, h.ChunkIndex)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return hits, nil
}

func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
