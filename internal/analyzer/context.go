package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/taskmind/internal/ai"
	"github.com/xaenox/taskmind/internal/features"
	"github.com/xaenox/taskmind/internal/models"
)

// ContextAnalyzer turns raw context messages into structured insights:
// deterministic text features plus an optional AI annotation.
type ContextAnalyzer struct {
	gateway *ai.Gateway
	logger  *zap.Logger
}

func NewContextAnalyzer(gateway *ai.Gateway, logger *zap.Logger) *ContextAnalyzer {
	return &ContextAnalyzer{gateway: gateway, logger: logger}
}

const contextPromptTemplate = `Analyze this %s message and extract key insights:

Content: "%s"

Please identify:
1. Main topic or subject
2. Any mentioned deadlines or time constraints
3. Priority level (1-10)
4. Relevant project or category
5. Action items mentioned

Respond in JSON format with keys: topic, deadlines, priority, category, actions`

// ProcessEntry analyzes a single context entry. It always returns a
// well-formed insight: when the AI response is unusable the annotation is
// degraded, never dropped.
func (a *ContextAnalyzer) ProcessEntry(ctx context.Context, content, sourceType string) *models.ContextInsight {
	insight := &models.ContextInsight{
		TextFeatures:       features.Extract(content),
		WordCount:          len(strings.Fields(content)),
		HasDeadlineMention: features.HasDeadlineMention(content),
	}

	prompt := fmt.Sprintf(contextPromptTemplate, strings.ToLower(sourceType), content)
	result := a.gateway.Do(ctx, prompt, 500)

	insight.AIAnalysis = parseAIAnalysis(result)
	if insight.AIAnalysis.Annotation == nil {
		a.logger.Debug("context AI analysis degraded",
			zap.String("source_type", sourceType),
			zap.String("gateway_source", result.Source.String()))
	}

	return insight
}

// parseAIAnalysis maps a gateway result onto the AIAnalysis union: parsed
// annotation, raw unparsable text, or an unavailability marker.
func parseAIAnalysis(result ai.Result) models.AIAnalysis {
	if result.Source == ai.SourceFallback {
		return models.AIAnalysis{Error: "ai service unavailable"}
	}

	var annotation models.Annotation
	if err := json.Unmarshal([]byte(result.Text), &annotation); err != nil {
		return models.AIAnalysis{RawResponse: result.Text}
	}
	return models.AIAnalysis{Annotation: &annotation}
}
