package synthesize

import (
	"context"
	"strings"
	"testing"

	"docscout/internal/models"
	"docscout/internal/providers"
)

func TestCombinePreservesCitations(t *testing.T) {
	mock := providers.NewMockProvider(8)
	c := NewCombiner(mock, 1)

	reports := []models.Report{
		{PlanID: "search_plan_1", MainContent: "Finding one [aaaaaa:1] holds.", Status: models.StatusUsed},
		{PlanID: "search_plan_2", MainContent: "Finding two [bbbbbb:2] as well.", Status: models.StatusUsedFallback},
	}
	out, err := c.Combine(context.Background(), "what do we know?", reports)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	for _, key := range []string{"[aaaaaa:1]", "[bbbbbb:2]"} {
		if !strings.Contains(out, key) {
			t.Errorf("final report lost citation %s", key)
		}
	}
	if !strings.Contains(out, "## Executive Summary") {
		t.Fatalf("missing executive summary: %q", out)
	}
}

func TestCombineRequiresReports(t *testing.T) {
	c := NewCombiner(providers.NewMockProvider(8), 1)
	if _, err := c.Combine(context.Background(), "question", nil); err == nil {
		t.Fatal("empty report set must error")
	}
}

type debugLeakLLM struct {
	sawPrompt string
}

func (d *debugLeakLLM) Chat(_ context.Context, req providers.ChatRequest) (providers.ChatResponse, providers.ProviderInfo, error) {
	for _, m := range req.Messages {
		if m.Role == "user" {
			d.sawPrompt = m.Content
		}
	}
	return providers.ChatResponse{Text: "## Executive Summary\nok\n\n## Takeaways\n- ok"}, providers.ProviderInfo{Name: "capture"}, nil
}

func TestCombineUsesMainContentOnly(t *testing.T) {
	llm := &debugLeakLLM{}
	c := NewCombiner(llm, 1)
	reports := []models.Report{{
		PlanID:      "search_plan_1",
		MainContent: "clean content [cccccc:0]",
		DebugLog:    []models.ToolCallRecord{{Index: 1, Function: "search_documents", Arguments: `{"query":"secret"}`, Result: "raw tool output"}},
	}}
	if _, err := c.Combine(context.Background(), "q", reports); err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if strings.Contains(llm.sawPrompt, "raw tool output") {
		t.Fatal("debug log leaked into the synthesis prompt")
	}
	if !strings.Contains(llm.sawPrompt, "<RESULT>clean content [cccccc:0]</RESULT>") {
		t.Fatalf("prompt shape: %q", llm.sawPrompt)
	}
}
