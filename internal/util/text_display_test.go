package util

import (
	"strings"
	"testing"
)

func TestDisplaySnippet(t *testing.T) {
	in := "Hello\x00   world \n\t C\\u0001"
	out := DisplaySnippet(in, 100)
	if out == "" {
		t.Fatalf("expected non-empty snippet")
	}
}

func TestDisplaySnippetTruncates(t *testing.T) {
	out := DisplaySnippet(strings.Repeat("x", 500), 100)
	if !strings.HasSuffix(out, "...") {
		t.Fatalf("expected ellipsis on truncated snippet, got: %q", out)
	}
}

func TestDisplayEvidenceSnippet(t *testing.T) {
	chunk := "This report covers grid maintenance schedules. It documents transformer outage windows for the northern region. Unrelated appendix text."
	q := "When are transformer outage windows scheduled?"
	out := DisplayEvidenceSnippet(chunk, q, 200)
	if !strings.Contains(strings.ToLower(out), "outage") {
		t.Fatalf("expected relevance to outage in snippet, got: %q", out)
	}
}
