package analyzer

import (
	"sort"

	"github.com/xaenox/taskmind/internal/features"
	"github.com/xaenox/taskmind/internal/models"
)

const (
	relevanceThreshold = 0.1
	maxRelevantMatches = 5
)

// FindRelevantContexts ranks context entries by keyword overlap with the
// task text and returns at most 5 matches above the relevance threshold,
// descending by score. Ties keep the original entry order.
func FindRelevantContexts(taskText string, entries []*models.ContextEntry) []models.RelevanceMatch {
	taskKeywords := features.ExtractKeywords(taskText)
	taskSet := make(map[string]struct{}, len(taskKeywords))
	for _, keyword := range taskKeywords {
		taskSet[keyword] = struct{}{}
	}

	denominator := len(taskKeywords)
	if denominator < 1 {
		denominator = 1
	}

	var matches []models.RelevanceMatch
	for _, entry := range entries {
		// Entry keywords come from external collaborators and may repeat;
		// intersect as sets so the score stays within (0,1]
		var overlap []string
		seen := make(map[string]struct{}, len(entry.Keywords))
		for _, keyword := range entry.Keywords {
			if _, ok := taskSet[keyword]; !ok {
				continue
			}
			if _, dup := seen[keyword]; dup {
				continue
			}
			seen[keyword] = struct{}{}
			overlap = append(overlap, keyword)
		}

		score := float64(len(overlap)) / float64(denominator)
		if score > relevanceThreshold {
			matches = append(matches, models.RelevanceMatch{
				Context:          entry,
				RelevanceScore:   score,
				MatchingKeywords: overlap,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].RelevanceScore > matches[j].RelevanceScore
	})

	if len(matches) > maxRelevantMatches {
		matches = matches[:maxRelevantMatches]
	}
	return matches
}
