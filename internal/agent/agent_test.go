package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"docscout/internal/models"
	"docscout/internal/providers"
)

// scriptedLLM replays a fixed sequence of chat responses.
type scriptedLLM struct {
	responses []providers.ChatResponse
	errs      []error
	calls     int
	requests  []providers.ChatRequest
}

func (s *scriptedLLM) Chat(_ context.Context, req providers.ChatRequest) (providers.ChatResponse, providers.ProviderInfo, error) {
	s.requests = append(s.requests, req)
	i := s.calls
	s.calls++
	info := providers.ProviderInfo{Name: "scripted", Model: "test"}
	if i < len(s.errs) && s.errs[i] != nil {
		return providers.ChatResponse{}, info, s.errs[i]
	}
	if i >= len(s.responses) {
		return providers.ChatResponse{Text: "fallthrough final report"}, info, nil
	}
	return s.responses[i], info, nil
}

type stubSearcher struct {
	hits map[string][]models.ChunkHit
	err  error
}

func (s *stubSearcher) SearchChunks(_ context.Context, query string, _ int) ([]models.ChunkHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.hits[query], nil
}

func searchCall(id, query string) providers.ToolCall {
	args, _ := json.Marshal(map[string]any{"query": query, "max_results": 3})
	return providers.ToolCall{ID: id, Name: "search_documents", Arguments: string(args)}
}

func testPlan() models.SearchPlan {
	return models.SearchPlan{ID: "search_plan_1", Objective: "test objective", Raw: "OBJECTIVE: test objective\n"}
}

func TestRunRecordsAllToolCallsInOrder(t *testing.T) {
	llm := &scriptedLLM{responses: []providers.ChatResponse{
		{ToolCalls: []providers.ToolCall{searchCall("c1", "first query")}},
		{ToolCalls: []providers.ToolCall{searchCall("c2", "second query"), searchCall("c3", "third query")}},
		{Text: "final report [a1b2c3:0]"},
	}}
	search := &stubSearcher{hits: map[string][]models.ChunkHit{
		"first query": {{CitationKey: "a1b2c3:0", Fingerprint: "a1b2c3", Filename: "doc.pdf", Text: "evidence"}},
	}}
	a := NewSearchAgent(llm, search, Config{MaxIterations: 10})

	rep, err := a.Run(context.Background(), testPlan())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.MainContent != "final report [a1b2c3:0]" {
		t.Fatalf("content: %q", rep.MainContent)
	}
	if len(rep.DebugLog) != 3 {
		t.Fatalf("want 3 records, got %d", len(rep.DebugLog))
	}
	wantQueries := []string{"first query", "second query", "third query"}
	for i, rec := range rep.DebugLog {
		if rec.Index != i+1 {
			t.Errorf("record %d index: %d", i, rec.Index)
		}
		if rec.Function != "search_documents" {
			t.Errorf("record %d function: %q", i, rec.Function)
		}
		if !strings.Contains(rec.Arguments, wantQueries[i]) {
			t.Errorf("record %d arguments %q missing query %q", i, rec.Arguments, wantQueries[i])
		}
	}
	if !strings.Contains(rep.DebugLog[0].Result, "a1b2c3:0") {
		t.Errorf("first result missing citation key: %q", rep.DebugLog[0].Result)
	}
}

func TestToolErrorContinuesLoop(t *testing.T) {
	llm := &scriptedLLM{responses: []providers.ChatResponse{
		{ToolCalls: []providers.ToolCall{searchCall("c1", "broken query")}},
		{Text: "report despite tool failure"},
	}}
	search := &stubSearcher{err: errors.New("index unavailable")}
	a := NewSearchAgent(llm, search, Config{MaxIterations: 10})

	rep, err := a.Run(context.Background(), testPlan())
	if err != nil {
		t.Fatalf("tool failure must not abort the run: %v", err)
	}
	if len(rep.DebugLog) != 1 {
		t.Fatalf("want 1 record, got %d", len(rep.DebugLog))
	}
	if !strings.HasPrefix(rep.DebugLog[0].Result, "[ERROR]") {
		t.Fatalf("result should carry error marker: %q", rep.DebugLog[0].Result)
	}
	if rep.MainContent != "report despite tool failure" {
		t.Fatalf("content: %q", rep.MainContent)
	}
}

func TestUnknownToolReportedAsError(t *testing.T) {
	llm := &scriptedLLM{responses: []providers.ChatResponse{
		{ToolCalls: []providers.ToolCall{{ID: "c1", Name: "delete_everything", Arguments: "{}"}}},
		{Text: "done"},
	}}
	a := NewSearchAgent(llm, &stubSearcher{}, Config{MaxIterations: 10})

	rep, err := a.Run(context.Background(), testPlan())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(rep.DebugLog[0].Result, "unknown tool") {
		t.Fatalf("result: %q", rep.DebugLog[0].Result)
	}
}

func TestBudgetExhaustionForcesFinalReport(t *testing.T) {
	// The model never stops calling the tool.
	responses := make([]providers.ChatResponse, 0, 4)
	for i := 0; i < 3; i++ {
		responses = append(responses, providers.ChatResponse{ToolCalls: []providers.ToolCall{searchCall(fmt.Sprintf("c%d", i), "same query")}})
	}
	responses = append(responses, providers.ChatResponse{Text: "forced final report"})
	llm := &scriptedLLM{responses: responses}
	a := NewSearchAgent(llm, &stubSearcher{}, Config{MaxIterations: 3})

	rep, err := a.Run(context.Background(), testPlan())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.MainContent != "forced final report" {
		t.Fatalf("content: %q", rep.MainContent)
	}
	if len(rep.DebugLog) != 3 {
		t.Fatalf("want 3 records from the budgeted turns, got %d", len(rep.DebugLog))
	}
	last := llm.requests[len(llm.requests)-1]
	if len(last.Tools) != 0 {
		t.Fatal("forced final request must withhold tools")
	}
	lastMsg := last.Messages[len(last.Messages)-1]
	if lastMsg.Role != "user" || !strings.Contains(lastMsg.Content, "final report now") {
		t.Fatalf("forced final prompt missing: %+v", lastMsg)
	}
}

func TestModelFailureReturnsSearchExecutionError(t *testing.T) {
	llm := &scriptedLLM{errs: []error{errors.New("invalid request: bad model")}}
	a := NewSearchAgent(llm, &stubSearcher{}, Config{MaxIterations: 5})

	_, err := a.Run(context.Background(), testPlan())
	var execErr *SearchExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("want SearchExecutionError, got %v", err)
	}
	if execErr.PlanID != "search_plan_1" {
		t.Fatalf("plan id: %q", execErr.PlanID)
	}
}

func TestCancelledContextStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm := &scriptedLLM{responses: []providers.ChatResponse{{Text: "never reached"}}}
	a := NewSearchAgent(llm, &stubSearcher{}, Config{MaxIterations: 5})

	_, err := a.Run(ctx, testPlan())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestToolCallsPerTurnTruncated(t *testing.T) {
	calls := []providers.ToolCall{
		searchCall("c1", "q1"), searchCall("c2", "q2"),
		searchCall("c3", "q3"), searchCall("c4", "q4"),
	}
	llm := &scriptedLLM{responses: []providers.ChatResponse{
		{ToolCalls: calls},
		{Text: "done"},
	}}
	a := NewSearchAgent(llm, &stubSearcher{}, Config{MaxIterations: 5, MaxToolCallsPerTurn: 2})

	rep, err := a.Run(context.Background(), testPlan())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.DebugLog) != 2 {
		t.Fatalf("want 2 executed calls, got %d", len(rep.DebugLog))
	}
}
