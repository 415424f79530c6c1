package decision

import (
	"encoding/json"
	"strings"
)

// completionPhrases are plain-text responses that clearly mean "stop"
// rather than being a follow-up question.
var completionPhrases = []string{
	"done",
	"complete",
	"no more questions",
	"no further questions",
	"no follow-up",
	"no followup",
	"interview complete",
	"nothing further",
}

// parseDecision interprets a model response defensively. A language model
// is not guaranteed to honor the requested schema, so the cascade is:
// well-formed completion flag, well-formed next-question field, plain-text
// fallback, and finally stop.
func parseDecision(raw string) Decision {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Decision{Continue: false, Reasoning: "empty response"}
	}

	var shaped struct {
		Done         *bool  `json:"done"`
		Complete     *bool  `json:"complete"`
		NextQuestion string `json:"next_question"`
		Question     string `json:"question"`
		Reasoning    string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &shaped); err == nil {
		if (shaped.Done != nil && *shaped.Done) || (shaped.Complete != nil && *shaped.Complete) {
			return Decision{Continue: false, Reasoning: shaped.Reasoning}
		}
		question := strings.TrimSpace(shaped.NextQuestion)
		if question == "" {
			question = strings.TrimSpace(shaped.Question)
		}
		if question != "" {
			return Decision{Continue: true, NextQuestion: question, Reasoning: shaped.Reasoning}
		}
	}

	if isCompletionPhrase(text) {
		return Decision{Continue: false, Reasoning: "completion phrasing"}
	}

	// Non-empty free text that is not a completion phrase: treat it as the
	// next question.
	return Decision{Continue: true, NextQuestion: text, Reasoning: "plain-text fallback"}
}

// extractJSONObject pulls the first {...} block out of text that may wrap
// the JSON in prose or code fences.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func isCompletionPhrase(text string) bool {
	lc := strings.ToLower(strings.Trim(text, " .!\"'"))
	for _, phrase := range completionPhrases {
		if lc == phrase || strings.HasPrefix(lc, phrase) {
			return true
		}
	}
	return false
}
