package core

import (
	"context"
	"fmt"
)

// stubEmbedder returns canned vectors keyed by exact text. Texts
// without an entry get the fallback vector, so unrelated queries land
// far from every corpus entry.
type stubEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	failWith error
}

func (s *stubEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	if s.fallback != nil {
		return s.fallback, nil
	}
	return nil, fmt.Errorf("no stub vector for %q", text)
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// stubGenerator returns a fixed answer, or fails, or blocks until the
// context is done.
type stubGenerator struct {
	answer      string
	failWith    error
	blockOnCtx  bool
	promptsSeen []string
}

func (s *stubGenerator) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	s.promptsSeen = append(s.promptsSeen, prompt)
	if s.blockOnCtx {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.failWith != nil {
		return "", s.failWith
	}
	return s.answer, nil
}
