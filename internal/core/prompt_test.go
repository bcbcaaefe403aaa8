package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kisaansetu/advisor/internal/session"
)

func TestComposePromptContainsProfileAndQuery(t *testing.T) {
	prompt := ComposePrompt(PromptData{
		Query:   "when should I apply urea to wheat",
		Profile: map[string]string{"name": "Ravi", "crops": "wheat"},
	}, RetrievalResult{})

	assert.Contains(t, prompt, "Ravi")
	assert.Contains(t, prompt, "Main Crops: wheat")
	assert.Contains(t, prompt, "## Current Question\nwhen should I apply urea to wheat")
}

func TestComposePromptOmitsEmptyProfileBlock(t *testing.T) {
	prompt := ComposePrompt(PromptData{Query: "q"}, RetrievalResult{})
	assert.NotContains(t, prompt, "## Farmer Information")
}

func TestComposePromptOmitsUnsetFieldsIndividually(t *testing.T) {
	prompt := ComposePrompt(PromptData{
		Query:   "q",
		Profile: map[string]string{"location": "Punjab"},
	}, RetrievalResult{})

	assert.Contains(t, prompt, "Location: Punjab")
	assert.NotContains(t, prompt, "Name:")
	assert.NotContains(t, prompt, "Farm Size:")
}

func TestComposePromptHistoryBlock(t *testing.T) {
	long := strings.Repeat("x", 400)
	recent := []session.Exchange{
		{Query: "old question", Answer: "old answer", Timestamp: time.Now()},
		{Query: "newer question", Answer: long, Timestamp: time.Now()},
	}

	prompt := ComposePrompt(PromptData{
		Query:  "q",
		Recent: recent,
		Topics: "fertilizer advice",
	}, RetrievalResult{})

	assert.Contains(t, prompt, "## Recent Questions in This Session:")
	assert.Contains(t, prompt, "1. Previous Question: old question")
	assert.Contains(t, prompt, "2. Previous Question: newer question")
	assert.Contains(t, prompt, "Topics we've discussed today: fertilizer advice")

	// Prior answers are truncated to 150 characters plus a marker.
	assert.Contains(t, prompt, strings.Repeat("x", 150)+"...")
	assert.NotContains(t, prompt, strings.Repeat("x", 151))
}

func TestComposePromptWindowsHistoryToTwoExchanges(t *testing.T) {
	recent := []session.Exchange{
		{Query: "first", Answer: "a1"},
		{Query: "second", Answer: "a2"},
		{Query: "third", Answer: "a3"},
	}

	prompt := ComposePrompt(PromptData{Query: "q", Recent: recent}, RetrievalResult{})

	assert.NotContains(t, prompt, "Previous Question: first")
	assert.Contains(t, prompt, "1. Previous Question: second")
	assert.Contains(t, prompt, "2. Previous Question: third")
}

func TestComposePromptNoHistoryBlockForFreshSession(t *testing.T) {
	prompt := ComposePrompt(PromptData{Query: "q"}, RetrievalResult{})
	assert.NotContains(t, prompt, "## Recent Questions in This Session")
}

func TestComposePromptContextSentinel(t *testing.T) {
	prompt := ComposePrompt(PromptData{Query: "q"}, RetrievalResult{})
	assert.Contains(t, prompt, NoContextSentinel)
}

func TestComposePromptJoinsRetrievedContext(t *testing.T) {
	retrieval := RetrievalResult{
		Matches: []Match{
			{Text: "Q: a\nA: b", Similarity: 0.9},
			{Text: "Q: c\nA: d", Similarity: 0.7},
		},
		UsedContext: true,
	}
	prompt := ComposePrompt(PromptData{Query: "q"}, retrieval)

	assert.Contains(t, prompt, "Q: a\nA: b\nQ: c\nA: d")
	assert.NotContains(t, prompt, NoContextSentinel)
}

func TestComposePromptDeterministic(t *testing.T) {
	data := PromptData{
		Query:   "when should I apply urea to wheat",
		Profile: map[string]string{"name": "Ravi", "crops": "wheat", "location": "Punjab"},
		Recent:  []session.Exchange{{Query: "prior", Answer: "advice"}},
		Topics:  "fertilizer advice",
	}
	retrieval := RetrievalResult{Matches: []Match{{Text: "Q: x\nA: y", Similarity: 0.8}}, UsedContext: true}

	first := ComposePrompt(data, retrieval)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, ComposePrompt(data, retrieval))
	}
}

func TestComposePromptSectionOrder(t *testing.T) {
	data := PromptData{
		Query:   "the live query",
		Profile: map[string]string{"name": "Ravi"},
		Recent:  []session.Exchange{{Query: "prior", Answer: "advice"}},
		Topics:  "general farming",
	}
	prompt := ComposePrompt(data, RetrievalResult{})

	profileIdx := strings.Index(prompt, "## Farmer Information")
	historyIdx := strings.Index(prompt, "## Recent Questions in This Session")
	contextIdx := strings.Index(prompt, "## Context from KCC Records")
	queryIdx := strings.Index(prompt, "## Current Question")

	require.True(t, profileIdx >= 0 && historyIdx >= 0 && contextIdx >= 0 && queryIdx >= 0)
	assert.Less(t, profileIdx, historyIdx)
	assert.Less(t, historyIdx, contextIdx)
	assert.Less(t, contextIdx, queryIdx)
}
