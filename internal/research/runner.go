// Package research coordinates plan execution with evaluation: run the agent,
// judge the report, and retry with evaluator feedback until the report passes
// or the retry budget forces a fallback.
package research

import (
	"context"

	"docscout/internal/models"
	"docscout/internal/plan"
)

// AgentRunner executes one search plan and returns its report.
type AgentRunner interface {
	Run(ctx context.Context, p models.SearchPlan) (models.Report, error)
}

// ReportEvaluator judges a report against its plan.
type ReportEvaluator interface {
	Evaluate(ctx context.Context, p models.SearchPlan, r models.Report) (models.Evaluation, error)
}

// PlanOutcome is the terminal result of one plan: the report that will feed
// synthesis (or nothing, on hard failure), every evaluation made along the
// way, and the error when execution itself broke.
type PlanOutcome struct {
	PlanID      string
	Report      models.Report
	Evaluations []models.Evaluation
	Err         error
}

type Runner struct {
	agent      AgentRunner
	eval       ReportEvaluator
	maxRetries int
}

// NewRunner builds a runner that regenerates a failing report at most
// maxRetries times after the initial attempt.
func NewRunner(agent AgentRunner, eval ReportEvaluator, maxRetries int) *Runner {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Runner{agent: agent, eval: eval, maxRetries: maxRetries}
}

// RunPlan drives one plan to a terminal status:
//   - used: a report passed both evaluation checks
//   - used_fallback: retries exhausted, the last report is kept anyway, or a
//     regeneration attempt failed and the previous report stands in
//   - error: evaluation itself could not run; the report is kept unjudged
//
// A failing evaluation feeds its reason back into the next attempt's plan
// text, so the agent sees the accumulated criticism.
func (r *Runner) RunPlan(ctx context.Context, p models.SearchPlan) PlanOutcome {
	outcome := PlanOutcome{PlanID: p.ID}
	feedback := make([]string, 0, r.maxRetries)

	var lastReport models.Report
	haveReport := false

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		current := p
		current.Raw = plan.WithFeedback(p.Raw, feedback)

		report, err := r.agent.Run(ctx, current)
		if err != nil {
			if haveReport {
				// Regeneration broke; the previous report is better than none.
				lastReport.Status = models.StatusUsedFallback
				outcome.Report = lastReport
				markFinal(outcome.Evaluations, models.StatusUsedFallback)
				return outcome
			}
			outcome.Err = err
			return outcome
		}

		eval, err := r.eval.Evaluate(ctx, current, report)
		if err != nil {
			report.Status = models.StatusError
			outcome.Report = report
			outcome.Err = err
			return outcome
		}

		if eval.IsRelevant && eval.IsThorough {
			report.Status = models.StatusUsed
			eval.Status = models.StatusUsed
			outcome.Report = report
			outcome.Evaluations = append(outcome.Evaluations, eval)
			return outcome
		}

		eval.Status = models.StatusDiscarded
		outcome.Evaluations = append(outcome.Evaluations, eval)
		feedback = append(feedback, eval.Reason)
		lastReport = report
		haveReport = true
	}

	// Retry budget spent without a passing report. Keep the last one rather
	// than losing the plan's findings entirely.
	lastReport.Status = models.StatusUsedFallback
	outcome.Report = lastReport
	markFinal(outcome.Evaluations, models.StatusUsedFallback)
	return outcome
}

// markFinal flags the last evaluation as the one whose report went forward.
func markFinal(evals []models.Evaluation, status string) {
	if len(evals) > 0 {
		evals[len(evals)-1].Status = status
	}
}

// RunBatch executes plans independently: one plan's failure never blocks the
// others. Outcomes come back in plan order.
func (r *Runner) RunBatch(ctx context.Context, plans []models.SearchPlan) []PlanOutcome {
	out := make([]PlanOutcome, 0, len(plans))
	for _, p := range plans {
		out = append(out, r.RunPlan(ctx, p))
	}
	return out
}
