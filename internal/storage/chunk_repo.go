package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"docscout/internal/citation"
	"docscout/internal/models"
)

// ChunkRecord carries a chunk plus its optional pgvector literal for upsert.
type ChunkRecord struct {
	Fingerprint      string
	ChunkIndex       int
	CorpusID         string
	Filename         string
	Text             string
	EmbeddingVersion string
	EmbeddingVector  *string
}

type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) UpsertChunks(ctx context.Context, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx upsert chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, c := range chunks {
		_, err := tx.Exec(ctx, `
INSERT INTO chunks (fingerprint, chunk_index, corpus_id, filename, text, embedding_version, embedding)
VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $7::text IS NULL THEN NULL ELSE $7::vector END)
ON CONFLICT (fingerprint, chunk_index)
DO UPDATE SET
  corpus_id = EXCLUDED.corpus_id,
  filename = EXCLUDED.filename,
  text = EXCLUDED.text,
  embedding_version = EXCLUDED.embedding_version,
  embedding = COALESCE(EXCLUDED.embedding, chunks.embedding)`,
			c.Fingerprint, c.ChunkIndex, c.CorpusID, c.Filename, c.Text, c.EmbeddingVersion, c.EmbeddingVector,
		)
		if err != nil {
			return fmt.Errorf("upsert chunk %s: %w", citation.FormatKey(c.Fingerprint, c.ChunkIndex), err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

// GetChunk resolves one chunk by its citation identity. A missing row maps to
// citation.ErrNotFound so callers can distinguish stale keys from outages.
func (r *ChunkRepo) GetChunk(ctx context.Context, fingerprint string, chunkIndex int) (models.Chunk, error) {
	var c models.Chunk
	err := r.db.Pool.QueryRow(ctx, `
SELECT fingerprint, chunk_index, corpus_id::text, filename, text, embedding_version, created_at
FROM chunks
WHERE fingerprint=$1 AND chunk_index=$2`, fingerprint, chunkIndex).
		Scan(&c.Fingerprint, &c.ChunkIndex, &c.CorpusID, &c.Filename, &c.Text, &c.EmbeddingVersion, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Chunk{}, fmt.Errorf("chunk %s: %w", citation.FormatKey(fingerprint, chunkIndex), citation.ErrNotFound)
		}
		return models.Chunk{}, fmt.Errorf("get chunk: %w", err)
	}
	return c, nil
}

func (r *ChunkRepo) ListChunksByDocument(ctx context.Context, corpusID, fingerprint string) ([]models.Chunk, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT fingerprint, chunk_index, corpus_id::text, filename, text, embedding_version, created_at
FROM chunks
WHERE corpus_id=$1::uuid AND fingerprint=$2
ORDER BY chunk_index ASC`, corpusID, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("list chunks by document: %w", err)
	}
	defer rows.Close()
	out := make([]models.Chunk, 0, 64)
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.Fingerprint, &c.ChunkIndex, &c.CorpusID, &c.Filename, &c.Text, &c.EmbeddingVersion, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk by document: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks by document: %w", err)
	}
	return out, nil
}
