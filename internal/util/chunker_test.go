package util

import "testing"

func TestChunkText(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := ChunkText(text, 10, 2)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != "abcdefghij" {
		t.Fatalf("unexpected first chunk: %s", chunks[0])
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog, again and again and again"
	a := ChunkText(text, 16, 4)
	b := ChunkText(text, 16, 4)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestChunkTextSkipsWhitespaceOnlyWindows(t *testing.T) {
	chunks := ChunkText("abc       ", 3, 0)
	for _, c := range chunks {
		if c == "" {
			t.Fatal("empty chunk emitted")
		}
	}
}
