package ai

import "context"

// Embedder turns text into fixed-dimension vectors. Implementations are
// safe for concurrent use; failures are reported as errors wrapping
// ErrEmbeddingUnavailable so callers can degrade instead of aborting.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch, preserving input order in the output.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
