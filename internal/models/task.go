package models

import "time"

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusCancelled  TaskStatus = "CANCELLED"
)

type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "LOW"
	PriorityMedium PriorityLevel = "MEDIUM"
	PriorityHigh   PriorityLevel = "HIGH"
	PriorityUrgent PriorityLevel = "URGENT"
)

// PriorityLevelFromScore maps an AI priority score (0-1) onto the coarse
// priority levels used for filtering and display.
func PriorityLevelFromScore(score float64) PriorityLevel {
	switch {
	case score >= 0.8:
		return PriorityUrgent
	case score >= 0.6:
		return PriorityHigh
	case score >= 0.4:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

type Task struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	OriginalDescription string        `json:"original_description,omitempty"`
	Category            string        `json:"category,omitempty"`
	Priority            PriorityLevel `json:"priority"`
	AIPriorityScore     float64       `json:"ai_priority_score"`
	Status              TaskStatus    `json:"status"`
	Deadline            *time.Time    `json:"deadline,omitempty"`
	AISuggestedDeadline *time.Time    `json:"ai_suggested_deadline,omitempty"`
	Tags                []string      `json:"tags"`
	AISuggestedTags     []string      `json:"ai_suggested_tags"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
	CompletedAt         *time.Time    `json:"completed_at,omitempty"`
}

type Category struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}
