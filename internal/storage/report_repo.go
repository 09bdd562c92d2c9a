package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"docscout/internal/models"
)

// ReportRepo stores agent reports alongside their serialized debug logs so
// every tool call that produced a report stays auditable.
type ReportRepo struct {
	db *DB
}

func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{db: db}
}

func (r *ReportRepo) UpsertReport(ctx context.Context, rep models.Report) error {
	debugJSON, err := json.Marshal(rep.DebugLog)
	if err != nil {
		return fmt.Errorf("marshal debug log: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
INSERT INTO reports (run_id, plan_id, filename, main_content, debug_log, status)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id, plan_id)
DO UPDATE SET
  filename = EXCLUDED.filename,
  main_content = EXCLUDED.main_content,
  debug_log = EXCLUDED.debug_log,
  status = EXCLUDED.status`,
		rep.RunID, rep.PlanID, rep.Filename, rep.MainContent, debugJSON, rep.Status)
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

func (r *ReportRepo) UpdateReportStatus(ctx context.Context, runID, planID, status string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reports SET status=$3 WHERE run_id=$1 AND plan_id=$2`,
		runID, planID, status)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	return nil
}

func (r *ReportRepo) ListReportsByRun(ctx context.Context, runID string) ([]models.Report, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT run_id, plan_id, filename, main_content, debug_log, status, created_at
FROM reports
WHERE run_id=$1
ORDER BY plan_id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	out := make([]models.Report, 0)
	for rows.Next() {
		var rep models.Report
		var debugJSON []byte
		if err := rows.Scan(&rep.RunID, &rep.PlanID, &rep.Filename, &rep.MainContent, &debugJSON, &rep.Status, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if len(debugJSON) > 0 {
			if err := json.Unmarshal(debugJSON, &rep.DebugLog); err != nil {
				return nil, fmt.Errorf("decode debug log for %s: %w", rep.PlanID, err)
			}
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
