package citation

import (
	"context"
	"errors"
	"testing"

	"docscout/internal/models"
)

type fakeChunkStore struct {
	chunks map[string]models.Chunk
}

func (f *fakeChunkStore) GetChunk(_ context.Context, fingerprint string, chunkIndex int) (models.Chunk, error) {
	c, ok := f.chunks[FormatKey(fingerprint, chunkIndex)]
	if !ok {
		return models.Chunk{}, ErrNotFound
	}
	return c, nil
}

func storeWith(chunks ...models.Chunk) *fakeChunkStore {
	s := &fakeChunkStore{chunks: map[string]models.Chunk{}}
	for _, c := range chunks {
		s.chunks[FormatKey(c.Fingerprint, c.ChunkIndex)] = c
	}
	return s
}

func TestResolveWithNeighbors(t *testing.T) {
	reg := NewRegistry(storeWith(
		models.Chunk{Fingerprint: "a1b2c3", ChunkIndex: 0, Filename: "report.pdf", Text: "intro"},
		models.Chunk{Fingerprint: "a1b2c3", ChunkIndex: 1, Filename: "report.pdf", Text: "middle"},
		models.Chunk{Fingerprint: "a1b2c3", ChunkIndex: 2, Filename: "report.pdf", Text: "end"},
	))

	got, err := reg.Resolve(context.Background(), Key{Fingerprint: "a1b2c3", ChunkIndex: 1})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Filename != "report.pdf" || got.Content != "middle" {
		t.Fatalf("unexpected context: %+v", got)
	}
	if got.PrevChunk != "intro" || got.NextChunk != "end" {
		t.Fatalf("neighbors: prev=%q next=%q", got.PrevChunk, got.NextChunk)
	}
}

func TestResolveEdgesOmitMissingNeighbors(t *testing.T) {
	reg := NewRegistry(storeWith(
		models.Chunk{Fingerprint: "a1b2c3", ChunkIndex: 0, Filename: "solo.pdf", Text: "only"},
	))
	got, err := reg.Resolve(context.Background(), Key{Fingerprint: "a1b2c3", ChunkIndex: 0})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.PrevChunk != "" || got.NextChunk != "" {
		t.Fatalf("expected no neighbors, got %+v", got)
	}
}

func TestResolveUnknownKey(t *testing.T) {
	reg := NewRegistry(storeWith())
	_, err := reg.Resolve(context.Background(), Key{Fingerprint: "ffffff", ChunkIndex: 3})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
