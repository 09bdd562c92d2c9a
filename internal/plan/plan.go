// Package plan parses, serializes, and annotates search plans. A plan is the
// structured-text unit of research work: an objective, numbered
// sub-objectives, and quoted suggested queries, followed by the output
// structure the executing agent must produce.
package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"docscout/internal/models"
)

// OutputStructure is appended verbatim to every generated plan so the
// executing agent knows the report shape it must emit.
const OutputStructure = `OUTPUT STRUCTURE:
- Objective: [Original search objective]
- Executive summary: [3-5 sentence summary of findings]
- Details: [Sections describing key details, each with their own header]
`

const feedbackHeader = "EVALUATOR FEEDBACK FROM PREVIOUS ATTEMPT:"

var quotedQueryPattern = regexp.MustCompile(`"([^"]*)"`)

// IDFor names the nth plan of a run, 1-based.
func IDFor(n int) string {
	return fmt.Sprintf("search_plan_%d", n)
}

// Parse extracts the structured fields from a plan's text. The raw text is
// preserved so the agent receives the plan exactly as the planner wrote it.
func Parse(id, raw string) models.SearchPlan {
	p := models.SearchPlan{ID: id, Raw: raw}
	lines := strings.Split(raw, "\n")

	for _, line := range lines {
		if strings.HasPrefix(line, "OBJECTIVE:") {
			p.Objective = strings.TrimSpace(strings.TrimPrefix(line, "OBJECTIVE:"))
			break
		}
	}

	inSub := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "SPECIFIC SUB-OBJECTIVES"):
			inSub = true
		case strings.HasPrefix(line, "SUGGESTED QUERIES"):
			inSub = false
		case inSub && strings.TrimSpace(line) != "" && line[0] >= '0' && line[0] <= '9':
			p.SubObjectives = append(p.SubObjectives, strings.TrimSpace(line))
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "SUGGESTED QUERIES:") {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "SUGGESTED QUERIES:"))
			for _, m := range quotedQueryPattern.FindAllStringSubmatch(rest, -1) {
				p.SuggestedQueries = append(p.SuggestedQueries, m[1])
			}
			break
		}
	}
	return p
}

// WithFeedback returns the plan text with an evaluator-feedback block
// appended, one block per failed attempt. The agent sees the accumulated
// history on each retry.
func WithFeedback(raw string, feedback []string) string {
	if len(feedback) == 0 {
		return raw
	}
	b := strings.Builder{}
	b.WriteString(strings.TrimRight(raw, "\n"))
	for _, fb := range feedback {
		b.WriteString("\n\n")
		b.WriteString(feedbackHeader)
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(fb))
	}
	b.WriteString("\n")
	return b.String()
}

// ParsePlansJSON decodes the planner model's {"search_plans": [...]} payload,
// tolerating a markdown code fence around the JSON, and appends the output
// structure to each plan text.
func ParsePlansJSON(payload string) ([]models.SearchPlan, error) {
	cleaned := stripCodeFence(payload)
	var parsed struct {
		SearchPlans []string `json:"search_plans"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("decode search plans: %w", err)
	}
	if len(parsed.SearchPlans) == 0 {
		return nil, fmt.Errorf("planner returned no search plans")
	}
	plans := make([]models.SearchPlan, 0, len(parsed.SearchPlans))
	for i, text := range parsed.SearchPlans {
		raw := strings.TrimRight(text, "\n") + "\n\n" + OutputStructure
		plans = append(plans, Parse(IDFor(i+1), raw))
	}
	return plans, nil
}

func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
