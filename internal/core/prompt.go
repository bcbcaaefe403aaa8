package core

import (
	"fmt"
	"strings"

	"github.com/kisaansetu/advisor/internal/session"
)

const (
	// NoContextSentinel stands in for the retrieved-context block when
	// no corpus entry cleared the relevance threshold.
	NoContextSentinel = "No relevant KCC records found."

	historyExchanges = 2   // most recent exchanges quoted in the prompt
	answerQuoteLimit = 150 // characters of a prior answer to quote
)

const systemInstruction = `# KisaanSetu AI Assistant with Session Memory

You are KisaanSetu AI Assistant, an expert agricultural advisor for Indian farmers. You remember our conversation within this session and can reference previous questions and advice.

## Core Functionality
- Use relevant current/forecasted weather if applicable.
- Deliver clear, actionable advice that can be implemented immediately.
- Use affordable and practical techniques when possible.
- Provide product recommendations only if necessary, with clear instructions.
- Reference previous conversations when relevant and build upon earlier advice.

## Response Guidelines
- Respond in English using simple, conversational language.
- Keep answers concise: 3-5 key points max.
- Use numbered steps for instructions.
- Avoid jargon unless explained.
- Be specific: quantities, costs, timing, Indian measurements (bigha, hectare) and rupees.
- For crop health issues: identify likely causes, suggest low-cost or organic solutions, preventive measures.
- For market advice: provide local MSP, mandis, realistic price ranges, and timing recommendations.
- For input recommendations: specify quantities, local measurements, and any available government schemes.
- For water management: suggest irrigation schedules and water conservation techniques.
- If this question relates to previous advice from our conversation, acknowledge that connection and build upon it.
- If you don't know something specific, clearly state "I don't know" and provide alternative ways to find the information.

## CRITICAL FORMATTING RULE:
DO NOT use asterisks (*), markdown formatting, or special symbols in your response. Use plain text only with clear, simple formatting like colons and numbered lists.

`

// profilePromptFields are the profile attributes quoted in prompts, in
// emission order. Other stored attributes round-trip through the API
// but are not surfaced to the model.
var profilePromptFields = []struct {
	key   string
	label string
}{
	{"name", "Name"},
	{"location", "Location"},
	{"crops", "Main Crops"},
	{"farm_size", "Farm Size"},
}

// PromptData is the session snapshot the composer works from. It is
// captured before the generation call so no session lock is held while
// the model round-trip is in flight.
type PromptData struct {
	Query   string
	Profile map[string]string
	Recent  []session.Exchange
	Topics  string
}

// ComposePrompt merges retrieved context, session memory and the live
// query into one instruction document. It is a pure function of its
// inputs: identical inputs always yield an identical prompt, and it
// never calls the model itself.
func ComposePrompt(data PromptData, retrieval RetrievalResult) string {
	var b strings.Builder
	b.WriteString(systemInstruction)

	writeProfileBlock(&b, data.Profile)
	writeHistoryBlock(&b, data.Recent, data.Topics)

	b.WriteString("## Context from KCC Records\n")
	b.WriteString(contextText(retrieval))
	b.WriteString("\n\n## Current Question\n")
	b.WriteString(data.Query)
	b.WriteString("\n")

	return b.String()
}

// contextText joins the surviving matches, or falls back to the
// fixed sentinel when nothing cleared the threshold.
func contextText(retrieval RetrievalResult) string {
	if len(retrieval.Matches) == 0 {
		return NoContextSentinel
	}
	texts := make([]string, len(retrieval.Matches))
	for i, m := range retrieval.Matches {
		texts[i] = m.Text
	}
	return strings.Join(texts, "\n")
}

// writeProfileBlock emits the farmer information section. The block is
// skipped entirely when none of the quoted fields are set; unset
// fields are omitted individually.
func writeProfileBlock(b *strings.Builder, profile map[string]string) {
	any := false
	for _, f := range profilePromptFields {
		if profile[f.key] != "" {
			any = true
			break
		}
	}
	if !any {
		return
	}

	b.WriteString("## Farmer Information:\n")
	for _, f := range profilePromptFields {
		if v := profile[f.key]; v != "" {
			fmt.Fprintf(b, "%s: %s\n", f.label, v)
		}
	}
	b.WriteString("\n")
}

// writeHistoryBlock emits the most recent exchanges plus the topic
// summary. Skipped when the session has no prior exchanges.
func writeHistoryBlock(b *strings.Builder, recent []session.Exchange, topics string) {
	if len(recent) == 0 {
		return
	}
	if len(recent) > historyExchanges {
		recent = recent[len(recent)-historyExchanges:]
	}

	b.WriteString("## Recent Questions in This Session:\n")
	for i, exch := range recent {
		fmt.Fprintf(b, "%d. Previous Question: %s\n", i+1, exch.Query)
		fmt.Fprintf(b, "   My Previous Advice: %s...\n\n", truncate(exch.Answer, answerQuoteLimit))
	}
	fmt.Fprintf(b, "Topics we've discussed today: %s\n\n", topics)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
