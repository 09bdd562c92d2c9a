package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// MockProvider produces deterministic chat and embedding output so pipelines
// run end to end without a live backend.
type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 1536
	}
	return &MockProvider{dim: dim}
}

var mockCitationPattern = regexp.MustCompile(`\[[a-f0-9]{6}:\d+\]`)

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	op := strings.ToLower(req.Operation)

	switch {
	case strings.Contains(op, "evaluate"):
		return ChatResponse{Text: "RELEVANCE: YES - the report addresses the objective.\nTHOROUGHNESS: YES - enough substantive detail for a mock run."}, info, nil
	case strings.Contains(op, "synthesize"):
		keys := collectCitations(req.Messages)
		b := strings.Builder{}
		b.WriteString("## Executive Summary\nDeterministic synthesis of the provided search results")
		for _, k := range keys {
			b.WriteString(" " + k)
		}
		b.WriteString(".\n\n### Findings\nMerged mock findings.\n\n## Takeaways\n- Mock takeaway.\n")
		return ChatResponse{Text: b.String()}, info, nil
	case len(req.Tools) > 0 && !hasToolTurn(req.Messages):
		// First agent turn: request one search over the user's text.
		query := lastUserContent(req.Messages)
		if len(query) > 80 {
			query = query[:80]
		}
		args, _ := json.Marshal(map[string]any{"query": query, "max_results": 3})
		return ChatResponse{ToolCalls: []ToolCall{{ID: "mock_call_1", Name: req.Tools[0].Name, Arguments: string(args)}}}, info, nil
	case len(req.Tools) > 0:
		keys := collectCitations(req.Messages)
		b := strings.Builder{}
		b.WriteString("- Objective: mock research run\n- Executive summary: deterministic findings")
		for _, k := range keys {
			b.WriteString(" " + k)
		}
		b.WriteString("\n- Details: evidence gathered via mock search.\n")
		return ChatResponse{Text: b.String()}, info, nil
	default:
		return ChatResponse{Text: "Mock response."}, info, nil
	}
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim), Key: "mock"}, nil
}

func hasToolTurn(msgs []Message) bool {
	for _, m := range msgs {
		if m.Role == "tool" {
			return true
		}
	}
	return false
}

func lastUserContent(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" && strings.TrimSpace(msgs[i].Content) != "" {
			return strings.TrimSpace(msgs[i].Content)
		}
	}
	return "mock query"
}

func collectCitations(msgs []Message) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 4)
	for _, m := range msgs {
		for _, k := range mockCitationPattern.FindAllString(m.Content, -1) {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	if len(seed) == 0 {
		seed = []byte("empty")
	}
	for i := 0; i < dim; i++ {
		h := sha256.Sum256(append(seed, byte(i%251)))
		u := binary.BigEndian.Uint32(h[:4])
		v := float32(u%2000)/1000.0 - 1.0
		vec[i] = v
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / (float64(sum) + 1e-9))
	for i := range v {
		v[i] *= inv
	}
	return v
}
