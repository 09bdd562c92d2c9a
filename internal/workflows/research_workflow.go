package workflows

import (
	"fmt"
	"time"

	"docscout/internal/activities"
	"docscout/internal/models"
	"docscout/internal/providers"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ResearchWorkflow drives one research run: sample the corpus, compress it
// into a planner digest, generate search plans, execute each plan in
// isolation, synthesize the surviving reports, and write the final answer.
func ResearchWorkflow(ctx workflow.Context, input ResearchInput) (string, error) {
	progress := ResearchProgress{
		RunID:      input.RunID,
		CorpusID:   input.CorpusID,
		Stage:      "starting",
		PlanStatus: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetResearchProgress, func() (ResearchProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	_ = workflow.ExecuteActivity(ctx, "UpdateResearchRunActivity", activities.UpdateResearchRunInput{
		RunID: input.RunID, Status: "running",
	}).Get(ctx, nil)

	llmProviders := defaultCount(input.LLMProviders)
	cooldown := durationOrDefault(input.CooldownSeconds, 900)
	llmState := newProviderState()

	fail := func(stage string, err error) (string, error) {
		progress.Stage = "failed"
		_ = workflow.ExecuteActivity(ctx, "UpdateResearchRunActivity", activities.UpdateResearchRunInput{
			RunID: input.RunID, Status: "failed",
		}).Get(ctx, nil)
		return "", fmt.Errorf("%s: %w", stage, err)
	}

	progress.Stage = "sampling"
	var samples activities.SampleCorpusOutput
	if err := workflow.ExecuteActivity(ctx, "SampleCorpusActivity", activities.SampleCorpusInput{
		CorpusID:     input.CorpusID,
		TokensPerDoc: input.SampleTokensPerDoc,
		TokenBudget:  input.SampleTokenBudget,
	}).Get(ctx, &samples); err != nil {
		return fail("sample corpus", err)
	}

	progress.Stage = "compressing"
	var digest activities.CompressCorpusOutput
	err := callLLMWithFailover(ctx, &llmState, llmProviders, cooldown, "compress_corpus", input, "", func(idx int) error {
		return workflow.ExecuteActivity(ctx, "CompressCorpusActivity", activities.CompressCorpusInput{
			RunID:         input.RunID,
			CorpusID:      input.CorpusID,
			ProviderIndex: idx,
			Samples:       samples.Samples,
		}).Get(ctx, &digest)
	})
	if err != nil {
		return fail("compress corpus", err)
	}

	progress.Stage = "planning"
	var planned activities.GeneratePlansOutput
	err = callLLMWithFailover(ctx, &llmState, llmProviders, cooldown, "generate_search_plans", input, "", func(idx int) error {
		return workflow.ExecuteActivity(ctx, "GeneratePlansActivity", activities.GeneratePlansInput{
			RunID:         input.RunID,
			CorpusID:      input.CorpusID,
			Question:      input.Question,
			CorpusReport:  digest.Report,
			ProviderIndex: idx,
		}).Get(ctx, &planned)
	})
	if err != nil {
		return fail("generate search plans", err)
	}
	progress.TotalPlans = len(planned.Plans)

	// Each plan runs to its own terminal status; one plan's failure never
	// blocks the others or the synthesis of what did succeed.
	progress.Stage = "executing"
	accepted := make([]string, 0, len(planned.Plans))
	for _, p := range planned.Plans {
		progress.PlanStatus[p.ID] = "running"
		var out activities.ExecuteSearchPlanOutput
		planErr := callLLMWithFailover(ctx, &llmState, llmProviders, cooldown, "execute_search_plan", input, p.ID, func(idx int) error {
			return workflow.ExecuteActivity(ctx, "ExecuteSearchPlanActivity", activities.ExecuteSearchPlanInput{
				RunID:               input.RunID,
				CorpusID:            input.CorpusID,
				Plan:                p,
				ProviderIndex:       idx,
				EmbedProviderIndex:  0,
				EmbeddingVersion:    defaultEmbedVersion(input.EmbedVersion),
				TopK:                input.TopK,
				MaxIterations:       input.MaxIterations,
				MaxToolCallsPerTurn: input.MaxCallsPerTurn,
				EvalMaxRetries:      input.EvalMaxRetries,
			}).Get(ctx, &out)
		})
		progress.DonePlans++
		if planErr != nil {
			progress.PlanStatus[p.ID] = "failed"
			continue
		}
		progress.PlanStatus[p.ID] = out.Status
		if out.Status == models.StatusUsed || out.Status == models.StatusUsedFallback {
			accepted = append(accepted, out.MainContent)
		}
	}

	if len(accepted) == 0 {
		return fail("execute search plans", fmt.Errorf("no plan produced a usable report"))
	}

	progress.Stage = "synthesizing"
	var synthesized activities.SynthesizeOutput
	err = callLLMWithFailover(ctx, &llmState, llmProviders, cooldown, "synthesize_final_report", input, "", func(idx int) error {
		return workflow.ExecuteActivity(ctx, "SynthesizeActivity", activities.SynthesizeInput{
			RunID:         input.RunID,
			Question:      input.Question,
			ProviderIndex: idx,
			Reports:       accepted,
		}).Get(ctx, &synthesized)
	})
	if err != nil {
		return fail("synthesize", err)
	}

	var reportOut activities.WriteFinalReportOutput
	if err := workflow.ExecuteActivity(ctx, "WriteFinalReportActivity", activities.WriteFinalReportInput{
		CorpusID: input.CorpusID,
		RunID:    input.RunID,
		Report:   synthesized.FinalReport,
	}).Get(ctx, &reportOut); err != nil {
		return fail("write final report", err)
	}

	_ = workflow.ExecuteActivity(ctx, "WriteRunManifestActivity", activities.WriteRunManifestInput{
		CorpusID: input.CorpusID,
		RunID:    input.RunID,
		Manifest: map[string]any{
			"run_id":       input.RunID,
			"corpus_id":    input.CorpusID,
			"question":     input.Question,
			"total_plans":  progress.TotalPlans,
			"plan_status":  progress.PlanStatus,
			"report_path":  reportOut.OutPath,
			"generated_at": workflow.Now(ctx),
		},
	}).Get(ctx, nil)

	progress.Stage = "completed"
	progress.OutPath = reportOut.OutPath
	_ = workflow.ExecuteActivity(ctx, "UpdateResearchRunActivity", activities.UpdateResearchRunInput{
		RunID: input.RunID, Status: "completed", OutPath: reportOut.OutPath,
	}).Get(ctx, nil)
	return reportOut.OutPath, nil
}

// callLLMWithFailover rotates an LLM-backed activity across the configured
// chat providers, cooling off providers that hit quota or repeated rate
// limits. The closure runs the activity against one provider index.
func callLLMWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, operation string, input ResearchInput, planID string, call func(idx int) error) error {
	var lastErr error
	for attempt := 0; attempt < providerCount*4; attempt++ {
		idx := attempt % providerCount
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		err := call(idx)
		if err == nil {
			_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{
				Operation: operation,
				CorpusID:  input.CorpusID,
				RunID:     input.RunID,
				PlanID:    planID,
				RequestID: fmt.Sprintf("%s-%d", operation, attempt),
				Status:    "ok",
			}).Get(ctx, nil)
			return nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{
			Operation:    operation,
			CorpusID:     input.CorpusID,
			RunID:        input.RunID,
			PlanID:       planID,
			ProviderName: fmt.Sprintf("provider-%d", idx),
			RequestID:    fmt.Sprintf("%s-%d", operation, attempt),
			Status:       "failed",
			ErrorType:    string(errType),
		}).Get(ctx, nil)
		key := fmt.Sprintf("llm-%s-%d", operation, idx)
		state.retries[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate:
			if state.retries[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(state.retries[key]*2)*time.Second)
				attempt--
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if state.retries[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(state.retries[key])*time.Second)
				attempt--
			}
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all llm providers exhausted for %s", operation)
	}
	return lastErr
}
