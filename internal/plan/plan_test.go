package plan

import (
	"strings"
	"testing"
)

const samplePlan = `OBJECTIVE: Map the factors that drive LLM inference energy usage.
SPECIFIC SUB-OBJECTIVES:
1. Identify hardware-level drivers of energy consumption.
2. Identify workload-level drivers such as batch size and sequence length.
SUGGESTED QUERIES: "GPU power draw inference", "batch size energy", "sequence length cost"

OUTPUT STRUCTURE:
- Objective: [Original search objective]
- Executive summary: [3-5 sentence summary of findings]
- Details: [Sections describing key details, each with their own header]
`

func TestParsePlanFields(t *testing.T) {
	p := Parse("search_plan_1", samplePlan)
	if p.ID != "search_plan_1" {
		t.Fatalf("id: %q", p.ID)
	}
	if p.Objective != "Map the factors that drive LLM inference energy usage." {
		t.Fatalf("objective: %q", p.Objective)
	}
	if len(p.SubObjectives) != 2 || !strings.HasPrefix(p.SubObjectives[0], "1.") {
		t.Fatalf("sub-objectives: %v", p.SubObjectives)
	}
	want := []string{"GPU power draw inference", "batch size energy", "sequence length cost"}
	if len(p.SuggestedQueries) != len(want) {
		t.Fatalf("queries: %v", p.SuggestedQueries)
	}
	for i, q := range want {
		if p.SuggestedQueries[i] != q {
			t.Errorf("query %d: got %q want %q", i, p.SuggestedQueries[i], q)
		}
	}
	if p.Raw != samplePlan {
		t.Fatal("raw text must be preserved verbatim")
	}
}

func TestParsePlanMissingSections(t *testing.T) {
	p := Parse("search_plan_2", "just some free text\nwithout markers")
	if p.Objective != "" || p.SubObjectives != nil || p.SuggestedQueries != nil {
		t.Fatalf("expected empty fields, got %+v", p)
	}
	if p.Raw == "" {
		t.Fatal("raw must still carry the text")
	}
}

func TestWithFeedbackAccumulates(t *testing.T) {
	out := WithFeedback(samplePlan, []string{"too shallow on hardware", "still missing batch size data"})
	if n := strings.Count(out, "EVALUATOR FEEDBACK FROM PREVIOUS ATTEMPT:"); n != 2 {
		t.Fatalf("want 2 feedback blocks, got %d", n)
	}
	if !strings.HasPrefix(out, "OBJECTIVE:") {
		t.Fatal("plan text must come first")
	}
	first := strings.Index(out, "too shallow on hardware")
	second := strings.Index(out, "still missing batch size data")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("feedback order wrong: %d %d", first, second)
	}
}

func TestWithFeedbackNoop(t *testing.T) {
	if out := WithFeedback(samplePlan, nil); out != samplePlan {
		t.Fatal("no feedback must return the plan unchanged")
	}
}

func TestParsePlansJSON(t *testing.T) {
	payload := "```json\n{\"search_plans\": [\"OBJECTIVE: First angle.\", \"OBJECTIVE: Second angle.\"]}\n```"
	plans, err := ParsePlansJSON(payload)
	if err != nil {
		t.Fatalf("ParsePlansJSON: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("want 2 plans, got %d", len(plans))
	}
	if plans[0].ID != "search_plan_1" || plans[1].ID != "search_plan_2" {
		t.Fatalf("ids: %s %s", plans[0].ID, plans[1].ID)
	}
	for _, p := range plans {
		if !strings.Contains(p.Raw, "OUTPUT STRUCTURE:") {
			t.Errorf("plan %s missing output structure", p.ID)
		}
	}
	if plans[1].Objective != "Second angle." {
		t.Fatalf("objective: %q", plans[1].Objective)
	}
}

func TestParsePlansJSONRejectsEmpty(t *testing.T) {
	if _, err := ParsePlansJSON(`{"search_plans": []}`); err == nil {
		t.Fatal("empty plan list must error")
	}
	if _, err := ParsePlansJSON("not json"); err == nil {
		t.Fatal("malformed payload must error")
	}
}
