package core

import "context"

// Embedder converts free text into a fixed-dimensionality vector.
// The same Embedder instance must be used for corpus construction and
// query embedding; mixing embedding spaces produces meaningless scores.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a natural-language answer for a composed prompt.
// Implementations perform no retries; retry policy belongs to the caller.
type Generator interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}
