package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/kisaansetu/advisor/internal/utils"
)

const (
	DefaultTopN      = 5   // Number of matches to retrieve for context
	DefaultThreshold = 0.5 // Minimum similarity score to consider a match relevant
)

// Match is one retrieved corpus entry with its similarity score.
type Match struct {
	Text       string
	Similarity float32
}

// RetrievalResult holds the surviving matches ordered by descending
// similarity. UsedContext is true iff at least one match cleared the
// relevance threshold.
type RetrievalResult struct {
	Matches     []Match
	UsedContext bool
}

// Retriever ranks corpus entries against a query by cosine similarity.
// It performs a full linear scan per query, which is fine at corpus
// sizes in the low thousands; an indexed nearest-neighbor structure can
// be substituted behind the same contract if the corpus outgrows that.
type Retriever struct {
	embedder  Embedder
	topN      int
	threshold float32
}

func NewRetriever(embedder Embedder, topN int, threshold float64) *Retriever {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Retriever{
		embedder:  embedder,
		topN:      topN,
		threshold: float32(threshold),
	}
}

// Retrieve embeds the query and returns the top-ranked matches at or
// above the threshold. Entries below threshold are dropped, not
// replaced by the next-ranked entry, so fewer than topN (including
// zero) matches may be returned.
func (r *Retriever) Retrieve(ctx context.Context, query string, corpus *EmbeddedCorpus) (RetrievalResult, error) {
	if !corpus.Ready() {
		return RetrievalResult{}, ErrDataNotReady
	}

	queryVec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return RetrievalResult{}, &ExternalServiceError{Op: "embed", Err: err}
	}

	type scored struct {
		idx int
		sim float32
	}
	ranked := make([]scored, 0, corpus.Len())
	for i, vec := range corpus.vectors {
		sim, err := utils.CosineSimilarity(queryVec, vec)
		if err != nil {
			return RetrievalResult{}, fmt.Errorf("similarity against corpus entry %d: %w", i, err)
		}
		ranked = append(ranked, scored{idx: i, sim: sim})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sim > ranked[j].sim
	})

	result := RetrievalResult{}
	for i := 0; i < len(ranked) && i < r.topN; i++ {
		if ranked[i].sim < r.threshold {
			continue
		}
		result.Matches = append(result.Matches, Match{
			Text:       corpus.texts[ranked[i].idx],
			Similarity: ranked[i].sim,
		})
	}
	result.UsedContext = len(result.Matches) > 0

	return result, nil
}
