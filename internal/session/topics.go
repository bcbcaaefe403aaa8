package session

import "strings"

// NoTopicsSentinel is returned when a session has no conversation log.
const NoTopicsSentinel = "No previous conversations"

const topicWindow = 3 // classify over the last 3 queries

// topicRules is an ordered list of (keywords, label) rules. The first
// rule with any keyword present in the query wins; the order is fixed
// so tie-breaks stay reproducible.
var topicRules = []struct {
	keywords []string
	label    string
}{
	{[]string{"disease", "pest", "insect", "fungus"}, "disease/pest issues"},
	{[]string{"fertilizer", "urea", "nutrient"}, "fertilizer advice"},
	{[]string{"price", "market", "sell"}, "market/pricing"},
	{[]string{"water", "irrigation", "rain"}, "water management"},
	{[]string{"crop", "variety", "seed"}, "crop selection"},
}

const fallbackTopic = "general farming"

func classifyTopic(query string) string {
	q := strings.ToLower(query)
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.label
			}
		}
	}
	return fallbackTopic
}

// summarizeTopics returns a deduplicated, comma-joined set of topic
// labels for the most recent queries. Caller holds the session lock.
func summarizeTopics(log []Exchange) string {
	if len(log) == 0 {
		return NoTopicsSentinel
	}

	start := len(log) - topicWindow
	if start < 0 {
		start = 0
	}

	seen := make(map[string]bool)
	var topics []string
	for _, exch := range log[start:] {
		label := classifyTopic(exch.Query)
		if !seen[label] {
			seen[label] = true
			topics = append(topics, label)
		}
	}
	return strings.Join(topics, ", ")
}
