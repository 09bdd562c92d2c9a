// Package agent executes search plans as an autonomous tool-calling loop: the
// model searches the corpus until it has enough evidence, then writes a cited
// report.
package agent

import (
	"context"
	"fmt"
	"time"

	"docscout/internal/models"
	"docscout/internal/providers"
)

// Searcher answers one semantic query with ranked, citable chunks.
type Searcher interface {
	SearchChunks(ctx context.Context, query string, topK int) ([]models.ChunkHit, error)
}

type Config struct {
	MaxIterations       int
	MaxToolCallsPerTurn int
	CompletionTimeout   time.Duration
	ToolTimeout         time.Duration
	CompletionRetries   int
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 15
	}
	if c.MaxToolCallsPerTurn <= 0 {
		c.MaxToolCallsPerTurn = 4
	}
	if c.CompletionRetries <= 0 {
		c.CompletionRetries = 1
	}
	return c
}

type SearchAgent struct {
	llm    providers.ChatProvider
	search Searcher
	cfg    Config
}

func NewSearchAgent(llm providers.ChatProvider, search Searcher, cfg Config) *SearchAgent {
	return &SearchAgent{llm: llm, search: search, cfg: cfg.withDefaults()}
}

// Run executes one plan to completion. The returned report always carries the
// full tool-call debug log, even on the forced-final path; a nil error means
// a report was produced, not that its content satisfied the plan.
func (a *SearchAgent) Run(ctx context.Context, plan models.SearchPlan) (models.Report, error) {
	messages := []providers.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: plan.Raw},
	}
	tools := []providers.Tool{searchToolSchema()}
	records := make([]models.ToolCallRecord, 0, 8)

	// Each iteration is one model turn followed by the tool calls it asked
	// for; a turn with no tool calls is the final report.
	for iteration := 0; iteration < a.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return models.Report{}, &SearchExecutionError{PlanID: plan.ID, Err: err}
		}

		resp, err := a.chat(ctx, providers.ChatRequest{
			Operation: "execute_search_plan",
			Messages:  messages,
			Tools:     tools,
		})
		if err != nil {
			return models.Report{}, &SearchExecutionError{PlanID: plan.ID, Err: err}
		}

		if resp.IsFinal() {
			return a.report(plan, resp.Text, records), nil
		}

		calls := resp.ToolCalls
		if len(calls) > a.cfg.MaxToolCallsPerTurn {
			calls = calls[:a.cfg.MaxToolCallsPerTurn]
		}
		messages = append(messages, providers.Message{
			Role:      "assistant",
			Content:   resp.Text,
			ToolCalls: calls,
		})
		for _, call := range calls {
			result := a.executeSearchTool(ctx, call)
			records = append(records, models.ToolCallRecord{
				Index:     len(records) + 1,
				Function:  call.Name,
				Arguments: call.Arguments,
				Result:    result,
			})
			messages = append(messages, providers.Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	// Budget exhausted mid-research: demand the report with tools withheld so
	// the model cannot keep searching.
	final, err := a.chat(ctx, providers.ChatRequest{
		Operation: "execute_search_plan_final",
		Messages: append(messages, providers.Message{
			Role:    "user",
			Content: forcedFinalPrompt,
		}),
	})
	if err != nil {
		return models.Report{}, &SearchExecutionError{PlanID: plan.ID, Err: fmt.Errorf("forced final report: %w", err)}
	}
	content := final.Text
	if content == "" {
		content = "No final response generated"
	}
	return a.report(plan, content, records), nil
}

func (a *SearchAgent) chat(ctx context.Context, req providers.ChatRequest) (providers.ChatResponse, error) {
	callCtx := ctx
	if a.cfg.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.cfg.CompletionTimeout)
		defer cancel()
	}
	resp, _, err := providers.ChatWithRetry(callCtx, a.llm, req, a.cfg.CompletionRetries)
	return resp, err
}

func (a *SearchAgent) report(plan models.SearchPlan, content string, records []models.ToolCallRecord) models.Report {
	return models.Report{
		PlanID:      plan.ID,
		Filename:    "report_" + plan.ID + ".txt",
		MainContent: content,
		DebugLog:    records,
		CreatedAt:   time.Now().UTC(),
	}
}
