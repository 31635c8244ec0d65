package storage

import (
	"context"
	"time"

	"github.com/xaenox/taskmind/internal/models"
)

// TaskFilter narrows task listings. Zero values mean "no filter".
type TaskFilter struct {
	Status   models.TaskStatus
	Category string
	Priority models.PriorityLevel
	Search   string
}

type Storage interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error)
	UpdateTaskAnalysis(ctx context.Context, id string, analysis *models.TaskAnalysisResult) error

	CreateContextEntry(ctx context.Context, entry *models.ContextEntry) error
	ListContextEntries(ctx context.Context, since time.Time) ([]*models.ContextEntry, error)

	EnsureCategory(ctx context.Context, name string) error
	ListCategories(ctx context.Context) ([]*models.Category, error)

	Close() error
}
