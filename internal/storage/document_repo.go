package storage

import (
	"context"
	"fmt"

	"docscout/internal/models"
)

// DocumentRepo persists per-file ingest state. Documents are keyed by content
// fingerprint, so re-uploading the same bytes under any name is idempotent.
type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) UpsertDocument(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (fingerprint, corpus_id, filename, status, fail_reason)
VALUES ($1, $2, $3, $4, NULLIF($5,''))
ON CONFLICT (fingerprint, corpus_id)
DO UPDATE SET
  filename = EXCLUDED.filename,
  status = EXCLUDED.status,
  fail_reason = EXCLUDED.fail_reason,
  updated_at = NOW()`,
		d.Fingerprint, d.CorpusID, d.Filename, d.Status, d.FailReason,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) UpdateDocumentStatus(ctx context.Context, corpusID, fingerprint, status, failReason string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE documents SET status=$3, fail_reason=NULLIF($4,''), updated_at=NOW() WHERE corpus_id=$1 AND fingerprint=$2`,
		corpusID, fingerprint, status, failReason)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

func (r *DocumentRepo) ListDocumentsByCorpus(ctx context.Context, corpusID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT fingerprint, corpus_id::text, filename, status, COALESCE(fail_reason,''), created_at, updated_at
FROM documents
WHERE corpus_id=$1
ORDER BY created_at DESC`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.Fingerprint, &d.CorpusID, &d.Filename, &d.Status, &d.FailReason, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) ListFailedDocuments(ctx context.Context, corpusID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT fingerprint, corpus_id::text, filename, status, COALESCE(fail_reason,''), created_at, updated_at
FROM documents
WHERE corpus_id=$1 AND status='failed'
ORDER BY updated_at DESC`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("list failed documents: %w", err)
	}
	defer rows.Close()
	out := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.Fingerprint, &d.CorpusID, &d.Filename, &d.Status, &d.FailReason, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan failed document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DocumentRepo) GetDocumentByFingerprint(ctx context.Context, corpusID, fingerprint string) (models.Document, error) {
	var d models.Document
	err := r.db.Pool.QueryRow(ctx, `
SELECT fingerprint, corpus_id::text, filename, status, COALESCE(fail_reason,''), created_at, updated_at
FROM documents
WHERE corpus_id=$1 AND fingerprint=$2`, corpusID, fingerprint).
		Scan(&d.Fingerprint, &d.CorpusID, &d.Filename, &d.Status, &d.FailReason, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return models.Document{}, fmt.Errorf("get document by fingerprint: %w", err)
	}
	return d, nil
}
