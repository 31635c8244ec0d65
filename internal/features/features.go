package features

import (
	"regexp"
	"strings"
)

// TextFeatures holds the deterministic signals extracted from a piece of text.
// All fields are derived locally, with no external calls.
type TextFeatures struct {
	Keywords           []string `json:"keywords"`
	SentimentScore     float64  `json:"sentiment_score"`
	PriorityIndicators []string `json:"priority_indicators"`
	DatesMentioned     []string `json:"dates_mentioned"`
	UrgencyLevel       int      `json:"urgency_level"`
}

const maxKeywords = 10

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "being": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"may": {}, "might": {}, "can": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {},
	"they": {},
}

var priorityKeywords = []string{
	"urgent", "asap", "immediately", "deadline", "due", "important",
	"critical", "priority", "rush", "emergency", "today", "tomorrow",
}

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "wonderful", "fantastic",
	"love", "like", "enjoy", "happy", "excited", "pleased", "satisfied",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "hate", "dislike", "angry", "frustrated",
	"upset", "annoyed", "disappointed", "worried", "stressed", "urgent",
}

var nonWordRE = regexp.MustCompile(`[^\w\s]`)

// Ordered: later patterns may re-match substrings already captured by
// earlier ones. Matches are concatenated, not deduplicated.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
	regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{4}`),
	regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`),
	regexp.MustCompile(`today|tomorrow|yesterday`),
	regexp.MustCompile(`monday|tuesday|wednesday|thursday|friday|saturday|sunday`),
	regexp.MustCompile(`next week|this week|next month`),
	regexp.MustCompile(`\d{1,2}:\d{2}\s*(?:am|pm)?`),
}

// Extract runs every extractor over the text and bundles the results.
func Extract(text string) TextFeatures {
	return TextFeatures{
		Keywords:           ExtractKeywords(text),
		SentimentScore:     AnalyzeSentiment(text),
		PriorityIndicators: DetectPriorityIndicators(text),
		DatesMentioned:     ExtractDatesAndTimes(text),
		UrgencyLevel:       CalculateUrgency(text),
	}
}

// ExtractKeywords returns up to 10 unique lower-cased keywords, with
// punctuation stripped, stop words removed and tokens of length <= 2
// dropped. When more than 10 candidates exist, the first occurrences win.
func ExtractKeywords(text string) []string {
	clean := nonWordRE.ReplaceAllString(strings.ToLower(text), " ")

	seen := make(map[string]struct{})
	keywords := make([]string, 0, maxKeywords)
	for _, word := range strings.Fields(clean) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// AnalyzeSentiment scores text between 0 and 1, where 1 is most positive.
// Returns 0.5 when no sentiment words are present.
func AnalyzeSentiment(text string) float64 {
	lower := strings.ToLower(text)

	var positive, negative int
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			positive++
		}
	}
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			negative++
		}
	}

	total := positive + negative
	if total == 0 {
		return 0.5
	}
	return float64(positive) / float64(total)
}

// DetectPriorityIndicators returns the priority keywords present in the
// text, in keyword-list order.
func DetectPriorityIndicators(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, keyword := range priorityKeywords {
		if strings.Contains(lower, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}

// ExtractDatesAndTimes returns every date or time mention matched by the
// pattern list, concatenated across patterns.
func ExtractDatesAndTimes(text string) []string {
	lower := strings.ToLower(text)

	var dates []string
	for _, pattern := range datePatterns {
		dates = append(dates, pattern.FindAllString(lower, -1)...)
	}
	return dates
}

// CalculateUrgency scores text from 1 to 10. Keyword tiers are additive
// except today/tonight vs tomorrow/this-week, which is an either-or.
func CalculateUrgency(text string) int {
	score := 1
	lower := strings.ToLower(text)

	if containsAny(lower, "urgent", "asap", "immediately", "emergency") {
		score += 4
	}
	if containsAny(lower, "important", "priority", "deadline") {
		score += 2
	}
	if containsAny(lower, "today", "now", "tonight") {
		score += 3
	} else if containsAny(lower, "tomorrow", "this week") {
		score += 2
	}

	exclamations := strings.Count(text, "!")
	if exclamations > 2 {
		exclamations = 2
	}
	score += exclamations

	if score > 10 {
		score = 10
	}
	return score
}

// HasDeadlineMention reports whether the text refers to a deadline.
func HasDeadlineMention(text string) bool {
	return containsAny(strings.ToLower(text), "deadline", "due", "by")
}

func containsAny(lower string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
