package storage

import (
	"context"
	"fmt"

	"docscout/internal/models"
)

type EvaluationRepo struct {
	db *DB
}

func NewEvaluationRepo(db *DB) *EvaluationRepo {
	return &EvaluationRepo{db: db}
}

func (r *EvaluationRepo) InsertEvaluation(ctx context.Context, e models.Evaluation) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO evaluations (run_id, plan_id, report_filename, is_relevant, is_thorough, reason, status)
VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7)`,
		e.RunID, e.PlanID, e.ReportFilename, e.IsRelevant, e.IsThorough, e.Reason, e.Status)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (r *EvaluationRepo) ListEvaluationsByRun(ctx context.Context, runID string) ([]models.Evaluation, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT run_id, plan_id, report_filename, is_relevant, is_thorough, COALESCE(reason,''), status
FROM evaluations
WHERE run_id=$1
ORDER BY plan_id ASC, created_at ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()
	out := make([]models.Evaluation, 0)
	for rows.Next() {
		var e models.Evaluation
		if err := rows.Scan(&e.RunID, &e.PlanID, &e.ReportFilename, &e.IsRelevant, &e.IsThorough, &e.Reason, &e.Status); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
