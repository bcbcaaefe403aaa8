package core

import (
	"context"
	"fmt"
)

// Record is one historical KCC question/answer pair. Records are
// identified by their position in the loaded batch.
type Record struct {
	QueryText  string `json:"query_text"`
	AnswerText string `json:"answer_text"`
}

// Combined serializes the record for embedding. Question and answer are
// concatenated so retrieval can match on either phrasing.
func (r Record) Combined() string {
	return fmt.Sprintf("Q: %s\nA: %s", r.QueryText, r.AnswerText)
}

// EmbeddedCorpus pairs each record 1:1 with its embedding vector.
// Built once at startup and immutable afterwards.
type EmbeddedCorpus struct {
	records []Record
	texts   []string
	vectors [][]float32
}

// BuildEmbeddedCorpus embeds every record as a single batch. A failure
// of the embedding backend fails the whole build; there is no partial
// corpus.
func BuildEmbeddedCorpus(ctx context.Context, embedder Embedder, records []Record) (*EmbeddedCorpus, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to embed")
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Combined()
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus: %w", err)
	}

	return NewEmbeddedCorpus(records, vectors)
}

// NewEmbeddedCorpus assembles a corpus from already-computed vectors,
// e.g. when loading the embedding cache. The vectors must have been
// produced by the same embedding model the retriever will use.
func NewEmbeddedCorpus(records []Record, vectors [][]float32) (*EmbeddedCorpus, error) {
	if len(records) != len(vectors) {
		return nil, fmt.Errorf("records/vectors length mismatch: %d != %d", len(records), len(vectors))
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("corpus is empty")
	}

	dim := len(vectors[0])
	texts := make([]string, len(records))
	for i, rec := range records {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(vectors[i]), dim)
		}
		texts[i] = rec.Combined()
	}

	return &EmbeddedCorpus{records: records, texts: texts, vectors: vectors}, nil
}

func (c *EmbeddedCorpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Ready reports whether the corpus can serve retrieval.
func (c *EmbeddedCorpus) Ready() bool { return c.Len() > 0 }

// Columns exposes the paired records and vectors for persistence in
// the embedding cache. Callers must not mutate the returned slices.
func (c *EmbeddedCorpus) Columns() ([]Record, [][]float32) {
	return c.records, c.vectors
}
