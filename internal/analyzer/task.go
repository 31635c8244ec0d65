package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/taskmind/internal/ai"
	"github.com/xaenox/taskmind/internal/models"
)

const (
	maxSuggestedTags        = 5
	maxFallbackTags         = 3
	maxDeadlineDays         = 30
	defaultDeadlineDays     = 3
	maxContextSnippetLen    = 100
	maxEnhanceSnippetLen    = 150
	highUrgencyContextLevel = 5
	maxPriorityContexts     = 3
	maxEnhancementContexts  = 2
	defaultPriorityScore    = 0.5
)

var (
	priorityScoreRE = regexp.MustCompile(`0\.\d+|1\.0`)
	integerRE       = regexp.MustCompile(`\d+`)
)

// AnalysisRequest carries the inputs for a comprehensive task analysis.
type AnalysisRequest struct {
	Title              string
	Description        string
	Contexts           []*models.ContextEntry
	ExistingCategories []string
	Workload           int
}

// TaskAnalyzer orchestrates priority scoring, deadline suggestion,
// category and tag suggestion, and description enhancement. Every
// operation has a deterministic fallback, so it never fails.
type TaskAnalyzer struct {
	gateway *ai.Gateway
	logger  *zap.Logger
}

func NewTaskAnalyzer(gateway *ai.Gateway, logger *zap.Logger) *TaskAnalyzer {
	return &TaskAnalyzer{gateway: gateway, logger: logger}
}

// ComprehensiveAnalysis runs every suggestion operation and assembles the
// result. Relevance matches are computed first so description enhancement
// can use them.
func (a *TaskAnalyzer) ComprehensiveAnalysis(ctx context.Context, req AnalysisRequest) *models.TaskAnalysisResult {
	if req.Workload == 0 {
		req.Workload = 5
	}

	var relevant []models.RelevanceMatch
	if len(req.Contexts) > 0 {
		relevant = FindRelevantContexts(req.Title+" "+req.Description, req.Contexts)
	}

	return &models.TaskAnalysisResult{
		PriorityScore:       a.AnalyzePriority(ctx, req.Title, req.Description, req.Contexts),
		SuggestedDeadline:   a.SuggestDeadline(ctx, req.Title, req.Description, req.Workload),
		SuggestedCategory:   a.SuggestCategory(ctx, req.Title, req.Description, req.ExistingCategories),
		SuggestedTags:       a.SuggestTags(ctx, req.Title, req.Description),
		EnhancedDescription: a.EnhanceDescription(ctx, req.Title, req.Description, relevant),
		RelevantContexts:    relevant,
		AnalysisTimestamp:   time.Now(),
	}
}

// AnalyzePriority scores task priority between 0 and 1, grounding the
// prompt in recent high-urgency contexts when available.
func (a *TaskAnalyzer) AnalyzePriority(ctx context.Context, title, description string, contexts []*models.ContextEntry) float64 {
	var contextInfo strings.Builder
	var urgent int
	for _, entry := range contexts {
		if entry.UrgencyLevel <= highUrgencyContextLevel {
			continue
		}
		if urgent == 0 {
			contextInfo.WriteString("\nRecent important context:\n")
		}
		fmt.Fprintf(&contextInfo, "- %s...\n", snippet(entry.Content, maxContextSnippetLen))
		urgent++
		if urgent == maxPriorityContexts {
			break
		}
	}

	prompt := fmt.Sprintf(`Analyze the priority of this task on a scale of 0.0 to 1.0 (where 1.0 is highest priority):

Task: %s
Description: %s
%s
Consider:
1. Urgency and deadlines
2. Impact and importance
3. Dependencies and context
4. Keywords indicating priority

Respond with only a decimal number between 0.0 and 1.0`, title, description, contextInfo.String())

	result := a.gateway.Do(ctx, prompt, 100)
	if result.Source == ai.SourceFallback {
		return a.fallbackPriority(title, description)
	}

	match := priorityScoreRE.FindString(result.Text)
	if match == "" {
		a.logger.Debug("priority response not numeric, using fallback",
			zap.String("response", result.Text))
		return a.fallbackPriority(title, description)
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return a.fallbackPriority(title, description)
	}
	return score
}

// SuggestDeadline suggests an absolute deadline as a day offset from now,
// clamped to 30 days out.
func (a *TaskAnalyzer) SuggestDeadline(ctx context.Context, title, description string, workload int) time.Time {
	prompt := fmt.Sprintf(`Suggest a realistic deadline for this task. Consider the complexity and current workload.

Task: %s
Description: %s
Current workload (1-10): %d

Based on the task complexity, suggest how many days from now this should be completed.
Respond with only a number (days from now).`, title, description, workload)

	result := a.gateway.Do(ctx, prompt, 100)
	if result.Source == ai.SourceFallback {
		return a.fallbackDeadline(description)
	}

	match := integerRE.FindString(result.Text)
	if match == "" {
		return a.fallbackDeadline(description)
	}
	days, err := strconv.Atoi(match)
	if err != nil {
		return a.fallbackDeadline(description)
	}
	if days > maxDeadlineDays {
		days = maxDeadlineDays
	}
	return time.Now().AddDate(0, 0, days)
}

// SuggestCategory proposes a category name, preferring existing ones when
// the caller supplies them.
func (a *TaskAnalyzer) SuggestCategory(ctx context.Context, title, description string, existing []string) string {
	var categoriesInfo string
	if len(existing) > 0 {
		categoriesInfo = "\nExisting categories: " + strings.Join(existing, ", ")
	}

	prompt := fmt.Sprintf(`Suggest the most appropriate category for this task:

Task: %s
Description: %s
%s
Choose from existing categories if possible, or suggest a new one.
Respond with only the category name.`, title, description, categoriesInfo)

	result := a.gateway.Do(ctx, prompt, 50)
	if result.Source == ai.SourceFallback {
		return a.fallbackCategory(title, description)
	}

	name := titleCase(strings.TrimSpace(result.Text))
	if name == "" {
		return a.fallbackCategory(title, description)
	}
	return name
}

// SuggestTags proposes up to 5 lower-cased tags.
func (a *TaskAnalyzer) SuggestTags(ctx context.Context, title, description string) []string {
	prompt := fmt.Sprintf(`Suggest 3-5 relevant tags for this task:

Task: %s
Description: %s

Respond with comma-separated tags (no spaces after commas).`, title, description)

	result := a.gateway.Do(ctx, prompt, 100)
	if result.Source == ai.SourceFallback {
		return a.fallbackTags(title, description)
	}

	var tags []string
	for _, tag := range strings.Split(result.Text, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxSuggestedTags {
			break
		}
	}
	if len(tags) == 0 {
		return a.fallbackTags(title, description)
	}
	return tags
}

// EnhanceDescription rewrites the task description using up to two top
// relevance matches as grounding.
func (a *TaskAnalyzer) EnhanceDescription(ctx context.Context, title, description string, relevant []models.RelevanceMatch) string {
	var contextInfo strings.Builder
	if len(relevant) > 0 {
		contextInfo.WriteString("\nRelevant context:\n")
		for i, match := range relevant {
			if i == maxEnhancementContexts {
				break
			}
			fmt.Fprintf(&contextInfo, "- %s...\n", snippet(match.Context.Content, maxEnhanceSnippetLen))
		}
	}

	prompt := fmt.Sprintf(`Enhance this task description with relevant details and context:

Original Task: %s
Current Description: %s
%s
Provide an enhanced description that includes:
1. Clear objectives
2. Relevant context
3. Potential steps or considerations

Keep it concise but informative (max 200 words).`, title, description, contextInfo.String())

	result := a.gateway.Do(ctx, prompt, 300)
	if result.Source == ai.SourceFallback {
		return a.fallbackDescription(title, description)
	}

	enhanced := strings.TrimSpace(result.Text)
	if enhanced == "" {
		return a.fallbackDescription(title, description)
	}
	return enhanced
}

func (a *TaskAnalyzer) fallbackPriority(title, description string) float64 {
	text := strings.ToLower(title + " " + description)

	switch {
	case containsAny(text, "urgent", "critical", "asap", "emergency"):
		return 0.9
	case containsAny(text, "important", "priority", "deadline"):
		return 0.7
	case containsAny(text, "meeting", "call", "presentation"):
		return 0.6
	default:
		return defaultPriorityScore
	}
}

func (a *TaskAnalyzer) fallbackDeadline(description string) time.Time {
	text := strings.ToLower(description)

	days := defaultDeadlineDays
	switch {
	case containsAny(text, "urgent", "asap", "today"):
		days = 1
	case containsAny(text, "tomorrow", "soon"):
		days = 2
	case containsAny(text, "week", "weekly"):
		days = 7
	}
	return time.Now().AddDate(0, 0, days)
}

func (a *TaskAnalyzer) fallbackCategory(title, description string) string {
	text := strings.ToLower(title + " " + description)

	switch {
	case containsAny(text, "meeting", "call", "discuss"):
		return "Meetings"
	case containsAny(text, "code", "develop", "program", "bug", "feature"):
		return "Development"
	case containsAny(text, "email", "message", "contact", "reply"):
		return "Communication"
	case containsAny(text, "buy", "purchase", "shop", "order"):
		return "Shopping"
	case containsAny(text, "health", "doctor", "exercise", "medical"):
		return "Health"
	case containsAny(text, "clean", "organize", "home", "house"):
		return "Personal"
	default:
		return "General"
	}
}

// fallbackTags caps at 3 tags; the AI path allows 5.
func (a *TaskAnalyzer) fallbackTags(title, description string) []string {
	text := strings.ToLower(title + " " + description)

	var tags []string
	if containsAny(text, "urgent", "asap", "critical") {
		tags = append(tags, "urgent")
	}
	if containsAny(text, "meeting", "call") {
		tags = append(tags, "meeting")
	}
	if containsAny(text, "work", "office", "project") {
		tags = append(tags, "work")
	}
	if containsAny(text, "personal", "home", "family") {
		tags = append(tags, "personal")
	}
	if containsAny(text, "follow-up", "followup", "follow") {
		tags = append(tags, "follow-up")
	}

	if len(tags) == 0 {
		tags = append(tags, "task")
	}
	if len(tags) > maxFallbackTags {
		tags = tags[:maxFallbackTags]
	}
	return tags
}

func (a *TaskAnalyzer) fallbackDescription(title, description string) string {
	if description != "" {
		return description
	}
	return "Complete the task: " + title
}

func containsAny(lower string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
