// Package evaluate judges agent reports against their plans before synthesis:
// is the report relevant to the objective, and is it thorough enough to use.
package evaluate

import (
	"context"
	"fmt"

	"docscout/internal/models"
	"docscout/internal/providers"
)

const evaluateSystemPrompt = `You evaluate a research report against the
search plan it was written for. Answer two questions:

1. RELEVANCE: does the report actually address the plan's objective?
2. THOROUGHNESS: does it cover the sub-objectives with substantive,
   evidence-backed detail rather than filler?

Respond with exactly two lines:
RELEVANCE: YES or NO - one sentence of justification
THOROUGHNESS: YES or NO - one sentence of justification`

type Evaluator struct {
	llm     providers.ChatProvider
	retries int
}

func NewEvaluator(llm providers.ChatProvider, retries int) *Evaluator {
	if retries <= 0 {
		retries = 1
	}
	return &Evaluator{llm: llm, retries: retries}
}

// Evaluate runs one judgment. The error return covers the model call only;
// unparseable model output is not an error, it is a failing verdict.
func (e *Evaluator) Evaluate(ctx context.Context, plan models.SearchPlan, report models.Report) (models.Evaluation, error) {
	userInput := fmt.Sprintf("<SEARCH PLAN>\n%s\n</SEARCH PLAN>\n\n<REPORT>\n%s\n</REPORT>\n", plan.Raw, report.MainContent)

	resp, _, err := providers.ChatWithRetry(ctx, e.llm, providers.ChatRequest{
		Operation: "evaluate_report",
		Messages: []providers.Message{
			{Role: "system", Content: evaluateSystemPrompt},
			{Role: "user", Content: userInput},
		},
	}, e.retries)
	if err != nil {
		return models.Evaluation{}, fmt.Errorf("evaluate report for %s: %w", plan.ID, err)
	}

	v := ParseVerdict(resp.Text)
	return models.Evaluation{
		ReportFilename: report.Filename,
		PlanID:         plan.ID,
		RunID:          report.RunID,
		IsRelevant:     v.IsRelevant,
		IsThorough:     v.IsThorough,
		Reason:         v.Reason,
	}, nil
}
