package citation

import (
	"context"
	"errors"
	"fmt"

	"docscout/internal/models"
)

// ErrNotFound means a citation key no longer maps to a stored chunk, e.g.
// after the corpus was rebuilt from changed documents. Callers must treat it
// as a reportable condition, not a crash.
var ErrNotFound = errors.New("citation key not found in corpus")

// ChunkStore is the read-side lookup the registry resolves keys against.
type ChunkStore interface {
	GetChunk(ctx context.Context, fingerprint string, chunkIndex int) (models.Chunk, error)
}

// ChunkContext is a resolved citation with its immediate neighbours for
// preview rendering.
type ChunkContext struct {
	Key       Key    `json:"key"`
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	PrevChunk string `json:"prev_chunk,omitempty"`
	NextChunk string `json:"next_chunk,omitempty"`
}

type Registry struct {
	store ChunkStore
}

func NewRegistry(store ChunkStore) *Registry {
	return &Registry{store: store}
}

// Resolve looks up a key's chunk plus the previous and next chunk of the same
// document when they exist. A missing key resolves to ErrNotFound; missing
// neighbours are not errors.
func (r *Registry) Resolve(ctx context.Context, key Key) (ChunkContext, error) {
	chunk, err := r.store.GetChunk(ctx, key.Fingerprint, key.ChunkIndex)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ChunkContext{}, fmt.Errorf("resolve %s: %w", key, ErrNotFound)
		}
		return ChunkContext{}, fmt.Errorf("resolve %s: %w", key, err)
	}
	out := ChunkContext{Key: key, Filename: chunk.Filename, Content: chunk.Text}
	if key.ChunkIndex > 0 {
		if prev, err := r.store.GetChunk(ctx, key.Fingerprint, key.ChunkIndex-1); err == nil {
			out.PrevChunk = prev.Text
		}
	}
	if next, err := r.store.GetChunk(ctx, key.Fingerprint, key.ChunkIndex+1); err == nil {
		out.NextChunk = next.Text
	}
	return out, nil
}
