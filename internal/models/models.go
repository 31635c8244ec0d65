package models

import (
	"time"

	"github.com/xaenox/taskmind/internal/features"
)

// Annotation is the structured insight requested from the AI service for a
// context entry.
type Annotation struct {
	Topic     string   `json:"topic"`
	Deadlines []string `json:"deadlines"`
	Priority  float64  `json:"priority"`
	Category  string   `json:"category"`
	Actions   []string `json:"actions"`
}

// AIAnalysis is a tagged union over the possible outcomes of the AI
// enrichment step: a parsed annotation, the raw unparsable response, or an
// error marker when no AI provider was reachable. Exactly one field is set.
type AIAnalysis struct {
	Annotation  *Annotation `json:"annotation,omitempty"`
	RawResponse string      `json:"raw_response,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// ContextInsight is the immutable analysis record produced for a context
// entry at ingestion. Re-processing an entry creates a new insight.
type ContextInsight struct {
	features.TextFeatures

	WordCount          int        `json:"word_count"`
	HasDeadlineMention bool       `json:"has_deadline_mention"`
	AIAnalysis         AIAnalysis `json:"ai_analysis"`
}

// ContextEntry is an inbound message (chat, email, note) analyzed for
// insight extraction.
type ContextEntry struct {
	ID             string          `json:"id"`
	Content        string          `json:"content"`
	SourceType     string          `json:"source_type"`
	Sender         string          `json:"sender,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	Keywords       []string        `json:"keywords"`
	SentimentScore float64         `json:"sentiment_score"`
	UrgencyLevel   int             `json:"urgency_level"`
	Insight        *ContextInsight `json:"insight,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// RelevanceMatch links a task to a context entry with a normalized
// keyword-overlap score in (0,1].
type RelevanceMatch struct {
	Context          *ContextEntry `json:"context"`
	RelevanceScore   float64       `json:"relevance_score"`
	MatchingKeywords []string      `json:"matching_keywords"`
}

// TaskAnalysisResult is the aggregate returned per task-analysis request.
// It is constructed fresh on every call and never mutated afterwards.
type TaskAnalysisResult struct {
	PriorityScore       float64          `json:"priority_score"`
	SuggestedDeadline   time.Time        `json:"suggested_deadline"`
	SuggestedCategory   string           `json:"suggested_category"`
	SuggestedTags       []string         `json:"suggested_tags"`
	EnhancedDescription string           `json:"enhanced_description"`
	RelevantContexts    []RelevanceMatch `json:"relevant_contexts"`
	AnalysisTimestamp   time.Time        `json:"analysis_timestamp"`
}
