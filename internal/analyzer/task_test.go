package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/taskmind/internal/models"
)

func unavailableAnalyzer() *TaskAnalyzer {
	return NewTaskAnalyzer(gatewayFor("http://127.0.0.1:1"), zap.NewNop())
}

func stubbedAnalyzer(t *testing.T, responseText string) *TaskAnalyzer {
	t.Helper()
	srv := completionStub(responseText)
	t.Cleanup(srv.Close)
	return NewTaskAnalyzer(gatewayFor(srv.URL), zap.NewNop())
}

func sameCalendarDay(t *testing.T, want, got time.Time) {
	t.Helper()
	wy, wm, wd := want.Date()
	gy, gm, gd := got.Date()
	assert.Equal(t, wy, gy)
	assert.Equal(t, wm, gm)
	assert.Equal(t, wd, gd)
}

func TestAnalyzePriorityFallbackTiers(t *testing.T) {
	a := unavailableAnalyzer()

	tests := []struct {
		name  string
		title string
		desc  string
		want  float64
	}{
		{name: "urgent tier", title: "URGENT: fix this today", desc: "", want: 0.9},
		{name: "critical tier", title: "handle critical outage", desc: "", want: 0.9},
		{name: "important tier", title: "important quarterly report", desc: "", want: 0.7},
		{name: "deadline tier via description", title: "write summary", desc: "deadline is near", want: 0.7},
		{name: "meeting tier", title: "team meeting prep", desc: "", want: 0.6},
		{name: "default tier", title: "water the plants", desc: "", want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.AnalyzePriority(context.Background(), tt.title, tt.desc, nil)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestAnalyzePriorityParsesAIScore(t *testing.T) {
	a := stubbedAnalyzer(t, "I would rate this 0.85 overall")

	got := a.AnalyzePriority(context.Background(), "water the plants", "", nil)
	assert.InDelta(t, 0.85, got, 0.001)
}

func TestAnalyzePriorityNonNumericAIResponse(t *testing.T) {
	a := stubbedAnalyzer(t, "quite high priority I think")

	// Unparsable AI output falls back to keyword tiers
	got := a.AnalyzePriority(context.Background(), "urgent fix", "", nil)
	assert.InDelta(t, 0.9, got, 0.001)
}

func TestSuggestDeadlineFallbackTiers(t *testing.T) {
	a := unavailableAnalyzer()

	tests := []struct {
		name string
		desc string
		days int
	}{
		{name: "asap", desc: "please do this asap", days: 1},
		{name: "tomorrow", desc: "needed tomorrow", days: 2},
		{name: "weekly", desc: "part of the weekly cycle", days: 7},
		{name: "default", desc: "no hurry at all", days: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.SuggestDeadline(context.Background(), "task", tt.desc, 5)
			sameCalendarDay(t, time.Now().AddDate(0, 0, tt.days), got)
		})
	}
}

func TestSuggestDeadlineParsesAndClampsAIOffset(t *testing.T) {
	a := stubbedAnalyzer(t, "I suggest 90 days")

	got := a.SuggestDeadline(context.Background(), "long project", "big effort", 5)
	sameCalendarDay(t, time.Now().AddDate(0, 0, 30), got)
}

func TestSuggestCategoryFallbackMapping(t *testing.T) {
	a := unavailableAnalyzer()

	tests := []struct {
		text string
		want string
	}{
		{text: "discuss the roadmap call", want: "Meetings"},
		{text: "fix the login bug", want: "Development"},
		{text: "reply to the client email", want: "Communication"},
		{text: "order new chairs", want: "Shopping"},
		{text: "book a doctor appointment", want: "Health"},
		{text: "organize the garage", want: "Personal"},
		{text: "misc paperwork", want: "General"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := a.SuggestCategory(context.Background(), tt.text, "", nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestCategoryNormalizesAIResponse(t *testing.T) {
	a := stubbedAnalyzer(t, "  home improvement  ")

	got := a.SuggestCategory(context.Background(), "paint the fence", "", []string{"Personal"})
	assert.Equal(t, "Home Improvement", got)
}

func TestSuggestTagsFallbackCappedAtThree(t *testing.T) {
	a := unavailableAnalyzer()

	// Matches urgent, meeting, work and personal rules, capped to 3
	got := a.SuggestTags(context.Background(), "urgent meeting at the office project", "family stuff at home")
	assert.Equal(t, []string{"urgent", "meeting", "work"}, got)
}

func TestSuggestTagsFallbackDefault(t *testing.T) {
	a := unavailableAnalyzer()

	got := a.SuggestTags(context.Background(), "misc chore", "")
	assert.Equal(t, []string{"task"}, got)
}

func TestSuggestTagsAIPathCappedAtFive(t *testing.T) {
	a := stubbedAnalyzer(t, "alpha, beta, gamma, delta, epsilon, zeta, eta")

	got := a.SuggestTags(context.Background(), "some task", "")
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta", "epsilon"}, got)
}

func TestEnhanceDescriptionFallback(t *testing.T) {
	a := unavailableAnalyzer()

	got := a.EnhanceDescription(context.Background(), "Buy milk", "get two liters", nil)
	assert.Equal(t, "get two liters", got)

	got = a.EnhanceDescription(context.Background(), "Buy milk", "", nil)
	assert.Equal(t, "Complete the task: Buy milk", got)
}

func TestComprehensiveAnalysis(t *testing.T) {
	a := unavailableAnalyzer()

	contexts := []*models.ContextEntry{
		{
			ID:           "c1",
			Content:      "the quarterly budget review is coming up",
			Keywords:     []string{"quarterly", "budget", "review"},
			UrgencyLevel: 8,
		},
		{
			ID:           "c2",
			Content:      "lunch plans at the cafe",
			Keywords:     []string{"lunch", "plans", "cafe"},
			UrgencyLevel: 2,
		},
	}

	before := time.Now()
	result := a.ComprehensiveAnalysis(context.Background(), AnalysisRequest{
		Title:       "Prepare urgent budget review",
		Description: "deadline is friday",
		Contexts:    contexts,
		Workload:    5,
	})

	require.NotNil(t, result)
	assert.InDelta(t, 0.9, result.PriorityScore, 0.001)
	assert.Equal(t, "General", result.SuggestedCategory)
	assert.NotEmpty(t, result.SuggestedTags)
	assert.LessOrEqual(t, len(result.SuggestedTags), 3)
	assert.Equal(t, "deadline is friday", result.EnhancedDescription)
	assert.False(t, result.AnalysisTimestamp.Before(before))

	require.Len(t, result.RelevantContexts, 1)
	assert.Equal(t, "c1", result.RelevantContexts[0].Context.ID)
	assert.ElementsMatch(t, []string{"budget", "review"}, result.RelevantContexts[0].MatchingKeywords)
}

func TestComprehensiveAnalysisWithoutContexts(t *testing.T) {
	a := unavailableAnalyzer()

	result := a.ComprehensiveAnalysis(context.Background(), AnalysisRequest{
		Title:       "water the plants",
		Description: "",
	})

	assert.Empty(t, result.RelevantContexts)
	assert.InDelta(t, 0.5, result.PriorityScore, 0.001)
	sameCalendarDay(t, time.Now().AddDate(0, 0, 3), result.SuggestedDeadline)
}
