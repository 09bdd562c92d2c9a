// Package synthesize merges accepted plan reports into the final answer to
// the user's question.
package synthesize

import (
	"context"
	"fmt"
	"strings"

	"docscout/internal/models"
	"docscout/internal/providers"
)

const synthesizeSystemPrompt = `You combine several research reports into one
final report answering the user's request. The reports were produced
independently over the same document collection; merge overlapping findings
and resolve their structure into a single coherent document.

Format the final report in markdown:
- start with a "## Executive Summary" section
- follow with "### " sections for each major theme
- end with a "## Takeaways" section

Citation keys like [a1b2c3:4] appear throughout the reports. Carry every
citation you rely on into the final report, copied character for character.
Never invent, merge, or renumber citation keys. Do not add information that
is not in the reports.`

type Combiner struct {
	llm     providers.ChatProvider
	retries int
}

func NewCombiner(llm providers.ChatProvider, retries int) *Combiner {
	if retries <= 0 {
		retries = 1
	}
	return &Combiner{llm: llm, retries: retries}
}

// Combine synthesizes the final report from the reports that survived
// evaluation. Reports are passed main-content only; debug logs never reach
// the prompt. At least one report is required.
func (c *Combiner) Combine(ctx context.Context, question string, reports []models.Report) (string, error) {
	if len(reports) == 0 {
		return "", fmt.Errorf("synthesize: no reports to combine")
	}

	b := strings.Builder{}
	b.WriteString("<USER REQUEST>\n")
	b.WriteString(question)
	b.WriteString("\n</USER REQUEST>\n\n<SEARCH RESULTS>\n")
	for _, r := range reports {
		b.WriteString("<RESULT>")
		b.WriteString(r.MainContent)
		b.WriteString("</RESULT>")
	}
	b.WriteString("\n</SEARCH RESULTS>\n")

	resp, _, err := providers.ChatWithRetry(ctx, c.llm, providers.ChatRequest{
		Operation: "synthesize_final_report",
		Messages: []providers.Message{
			{Role: "system", Content: synthesizeSystemPrompt},
			{Role: "user", Content: b.String()},
		},
	}, c.retries)
	if err != nil {
		return "", fmt.Errorf("synthesize final report: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("synthesize: model returned empty report")
	}
	return resp.Text, nil
}
