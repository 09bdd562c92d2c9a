package workflows

import (
	"context"
	"errors"
	"testing"

	"docscout/internal/activities"
	"docscout/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

func researchEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ResearchWorkflow)
	registerActivityName(env, "UpdateResearchRunActivity", func(context.Context, activities.UpdateResearchRunInput) error { return nil })
	registerActivityName(env, "SampleCorpusActivity", func(context.Context, activities.SampleCorpusInput) (activities.SampleCorpusOutput, error) {
		return activities.SampleCorpusOutput{}, nil
	})
	registerActivityName(env, "CompressCorpusActivity", func(context.Context, activities.CompressCorpusInput) (activities.CompressCorpusOutput, error) {
		return activities.CompressCorpusOutput{}, nil
	})
	registerActivityName(env, "GeneratePlansActivity", func(context.Context, activities.GeneratePlansInput) (activities.GeneratePlansOutput, error) {
		return activities.GeneratePlansOutput{}, nil
	})
	registerActivityName(env, "ExecuteSearchPlanActivity", func(context.Context, activities.ExecuteSearchPlanInput) (activities.ExecuteSearchPlanOutput, error) {
		return activities.ExecuteSearchPlanOutput{}, nil
	})
	registerActivityName(env, "SynthesizeActivity", func(context.Context, activities.SynthesizeInput) (activities.SynthesizeOutput, error) {
		return activities.SynthesizeOutput{}, nil
	})
	registerActivityName(env, "WriteFinalReportActivity", func(context.Context, activities.WriteFinalReportInput) (activities.WriteFinalReportOutput, error) {
		return activities.WriteFinalReportOutput{}, nil
	})
	registerActivityName(env, "WriteRunManifestActivity", func(context.Context, activities.WriteRunManifestInput) (activities.WriteRunManifestOutput, error) {
		return activities.WriteRunManifestOutput{}, nil
	})
	registerActivityName(env, "LogLLMCallActivity", func(context.Context, activities.LogLLMCallInput) error { return nil })
	return env
}

func threePlans() activities.GeneratePlansOutput {
	return activities.GeneratePlansOutput{Plans: []models.SearchPlan{
		{ID: "search_plan_1", Raw: "OBJECTIVE: one"},
		{ID: "search_plan_2", Raw: "OBJECTIVE: two"},
		{ID: "search_plan_3", Raw: "OBJECTIVE: three"},
	}}
}

func TestResearchWorkflowHappyPath(t *testing.T) {
	env := researchEnv(t)

	env.OnActivity("UpdateResearchRunActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("SampleCorpusActivity", mock.Anything, mock.Anything).
		Return(activities.SampleCorpusOutput{Samples: []activities.DocumentSample{{Filename: "a.pdf", Excerpt: "about energy"}}}, nil)
	env.OnActivity("CompressCorpusActivity", mock.Anything, mock.Anything).
		Return(activities.CompressCorpusOutput{Report: "corpus digest"}, nil)
	env.OnActivity("GeneratePlansActivity", mock.Anything, mock.Anything).Return(threePlans(), nil)
	env.OnActivity("ExecuteSearchPlanActivity", mock.Anything, mock.MatchedBy(func(in activities.ExecuteSearchPlanInput) bool { return in.Plan.ID == "search_plan_1" })).
		Return(activities.ExecuteSearchPlanOutput{PlanID: "search_plan_1", Status: models.StatusUsed, MainContent: "report one [aaaaaa:0]"}, nil)
	env.OnActivity("ExecuteSearchPlanActivity", mock.Anything, mock.MatchedBy(func(in activities.ExecuteSearchPlanInput) bool { return in.Plan.ID == "search_plan_2" })).
		Return(activities.ExecuteSearchPlanOutput{PlanID: "search_plan_2", Status: models.StatusUsedFallback, MainContent: "report two [bbbbbb:1]"}, nil)
	env.OnActivity("ExecuteSearchPlanActivity", mock.Anything, mock.MatchedBy(func(in activities.ExecuteSearchPlanInput) bool { return in.Plan.ID == "search_plan_3" })).
		Return(activities.ExecuteSearchPlanOutput{PlanID: "search_plan_3", Status: models.StatusError, MainContent: "unjudged"}, nil)
	env.OnActivity("SynthesizeActivity", mock.Anything, mock.MatchedBy(func(in activities.SynthesizeInput) bool {
		// Only used and used_fallback reports reach synthesis.
		return len(in.Reports) == 2
	})).Return(activities.SynthesizeOutput{FinalReport: "## Executive Summary\nmerged"}, nil)
	env.OnActivity("WriteFinalReportActivity", mock.Anything, mock.Anything).
		Return(activities.WriteFinalReportOutput{OutPath: "/out/c/runs/r/final_report.md"}, nil)
	env.OnActivity("WriteRunManifestActivity", mock.Anything, mock.Anything).
		Return(activities.WriteRunManifestOutput{Path: "/out/c/runs/r/manifest.json"}, nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(ResearchWorkflow, ResearchInput{RunID: "r", CorpusID: "c", Question: "what do we know?", LLMProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "/out/c/runs/r/final_report.md", out)
}

func TestResearchWorkflowPlanFailureIsIsolated(t *testing.T) {
	env := researchEnv(t)

	env.OnActivity("UpdateResearchRunActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("SampleCorpusActivity", mock.Anything, mock.Anything).
		Return(activities.SampleCorpusOutput{Samples: []activities.DocumentSample{{Filename: "a.pdf", Excerpt: "x"}}}, nil)
	env.OnActivity("CompressCorpusActivity", mock.Anything, mock.Anything).
		Return(activities.CompressCorpusOutput{Report: "digest"}, nil)
	env.OnActivity("GeneratePlansActivity", mock.Anything, mock.Anything).Return(threePlans(), nil)
	env.OnActivity("ExecuteSearchPlanActivity", mock.Anything, mock.MatchedBy(func(in activities.ExecuteSearchPlanInput) bool { return in.Plan.ID == "search_plan_1" })).
		Return(activities.ExecuteSearchPlanOutput{PlanID: "search_plan_1", Status: models.StatusUsed, MainContent: "report one"}, nil)
	env.OnActivity("ExecuteSearchPlanActivity", mock.Anything, mock.MatchedBy(func(in activities.ExecuteSearchPlanInput) bool { return in.Plan.ID == "search_plan_2" })).
		Return(activities.ExecuteSearchPlanOutput{}, errors.New("invalid request: plan 2 exploded"))
	env.OnActivity("ExecuteSearchPlanActivity", mock.Anything, mock.MatchedBy(func(in activities.ExecuteSearchPlanInput) bool { return in.Plan.ID == "search_plan_3" })).
		Return(activities.ExecuteSearchPlanOutput{PlanID: "search_plan_3", Status: models.StatusUsed, MainContent: "report three"}, nil)
	env.OnActivity("SynthesizeActivity", mock.Anything, mock.MatchedBy(func(in activities.SynthesizeInput) bool {
		return len(in.Reports) == 2
	})).Return(activities.SynthesizeOutput{FinalReport: "merged"}, nil)
	env.OnActivity("WriteFinalReportActivity", mock.Anything, mock.Anything).
		Return(activities.WriteFinalReportOutput{OutPath: "/out/final.md"}, nil)
	env.OnActivity("WriteRunManifestActivity", mock.Anything, mock.Anything).
		Return(activities.WriteRunManifestOutput{}, nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(ResearchWorkflow, ResearchInput{RunID: "r", CorpusID: "c", Question: "q", LLMProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
}

func TestResearchWorkflowFailsWhenNoUsableReports(t *testing.T) {
	env := researchEnv(t)

	env.OnActivity("UpdateResearchRunActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("SampleCorpusActivity", mock.Anything, mock.Anything).
		Return(activities.SampleCorpusOutput{Samples: []activities.DocumentSample{{Filename: "a.pdf", Excerpt: "x"}}}, nil)
	env.OnActivity("CompressCorpusActivity", mock.Anything, mock.Anything).
		Return(activities.CompressCorpusOutput{Report: "digest"}, nil)
	env.OnActivity("GeneratePlansActivity", mock.Anything, mock.Anything).
		Return(activities.GeneratePlansOutput{Plans: []models.SearchPlan{{ID: "search_plan_1", Raw: "OBJECTIVE: one"}}}, nil)
	env.OnActivity("ExecuteSearchPlanActivity", mock.Anything, mock.Anything).
		Return(activities.ExecuteSearchPlanOutput{}, errors.New("invalid request: no provider"))
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(ResearchWorkflow, ResearchInput{RunID: "r", CorpusID: "c", Question: "q", LLMProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}
