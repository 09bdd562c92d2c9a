package storage

import (
	"context"
	"fmt"

	"docscout/internal/models"
)

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) CreateRun(ctx context.Context, run models.ResearchRun) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO research_runs (run_id, corpus_id, question, status)
VALUES ($1, $2, $3, $4)`,
		run.RunID, run.CorpusID, run.Question, run.Status)
	if err != nil {
		return fmt.Errorf("insert research run: %w", err)
	}
	return nil
}

func (r *RunRepo) UpdateRunStatus(ctx context.Context, runID, status, outPath string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE research_runs SET status=$2, out_path=NULLIF($3,'') WHERE run_id=$1`,
		runID, status, outPath)
	if err != nil {
		return fmt.Errorf("update research run: %w", err)
	}
	return nil
}

func (r *RunRepo) GetRun(ctx context.Context, runID string) (models.ResearchRun, error) {
	var run models.ResearchRun
	err := r.db.Pool.QueryRow(ctx, `
SELECT run_id, corpus_id::text, question, status, COALESCE(out_path,''), created_at
FROM research_runs
WHERE run_id=$1`, runID).
		Scan(&run.RunID, &run.CorpusID, &run.Question, &run.Status, &run.OutPath, &run.CreatedAt)
	if err != nil {
		return models.ResearchRun{}, fmt.Errorf("get research run: %w", err)
	}
	return run, nil
}

func (r *RunRepo) ListRunsByCorpus(ctx context.Context, corpusID string) ([]models.ResearchRun, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT run_id, corpus_id::text, question, status, COALESCE(out_path,''), created_at
FROM research_runs
WHERE corpus_id=$1
ORDER BY created_at DESC`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("list research runs: %w", err)
	}
	defer rows.Close()
	out := make([]models.ResearchRun, 0)
	for rows.Next() {
		var run models.ResearchRun
		if err := rows.Scan(&run.RunID, &run.CorpusID, &run.Question, &run.Status, &run.OutPath, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan research run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
