package evaluate

import (
	"context"
	"errors"
	"testing"

	"docscout/internal/models"
	"docscout/internal/providers"
)

type fixedLLM struct {
	text string
	err  error
}

func (f *fixedLLM) Chat(_ context.Context, _ providers.ChatRequest) (providers.ChatResponse, providers.ProviderInfo, error) {
	if f.err != nil {
		return providers.ChatResponse{}, providers.ProviderInfo{Name: "fixed"}, f.err
	}
	return providers.ChatResponse{Text: f.text}, providers.ProviderInfo{Name: "fixed"}, nil
}

func TestEvaluatePopulatesEvaluation(t *testing.T) {
	e := NewEvaluator(&fixedLLM{text: "RELEVANCE: YES - on point\nTHOROUGHNESS: NO - shallow"}, 1)
	plan := models.SearchPlan{ID: "search_plan_2", Raw: "OBJECTIVE: x"}
	report := models.Report{PlanID: "search_plan_2", RunID: "run-1", Filename: "report_search_plan_2.txt", MainContent: "body"}

	got, err := e.Evaluate(context.Background(), plan, report)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.PlanID != "search_plan_2" || got.RunID != "run-1" || got.ReportFilename != "report_search_plan_2.txt" {
		t.Fatalf("identity fields: %+v", got)
	}
	if !got.IsRelevant || got.IsThorough {
		t.Fatalf("verdict: %+v", got)
	}
}

func TestEvaluateSurfacesModelError(t *testing.T) {
	e := NewEvaluator(&fixedLLM{err: errors.New("invalid request: bad auth")}, 1)
	_, err := e.Evaluate(context.Background(), models.SearchPlan{ID: "search_plan_1"}, models.Report{})
	if err == nil {
		t.Fatal("model failure must surface as an error")
	}
}
