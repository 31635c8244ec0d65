package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xaenox/taskmind/internal/models"
)

type MemoryStorage struct {
	mu         sync.RWMutex
	tasks      map[string]*models.Task
	contexts   map[string]*models.ContextEntry
	categories map[string]*models.Category
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks:      make(map[string]*models.Task),
		contexts:   make(map[string]*models.ContextEntry),
		categories: make(map[string]*models.Category),
	}
}

func (s *MemoryStorage) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *MemoryStorage) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	copied := *task
	return &copied, nil
}

func (s *MemoryStorage) ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*models.Task
	for _, task := range s.tasks {
		if !matchesFilter(task, filter) {
			continue
		}
		copied := *task
		tasks = append(tasks, &copied)
	}

	// Highest AI priority first, newest first within equal scores
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].AIPriorityScore != tasks[j].AIPriorityScore {
			return tasks[i].AIPriorityScore > tasks[j].AIPriorityScore
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func matchesFilter(task *models.Task, filter TaskFilter) bool {
	if filter.Status != "" && task.Status != filter.Status {
		return false
	}
	if filter.Category != "" && task.Category != filter.Category {
		return false
	}
	if filter.Priority != "" && task.Priority != filter.Priority {
		return false
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(task.Title), search) &&
			!strings.Contains(strings.ToLower(task.Description), search) {
			return false
		}
	}
	return true
}

func (s *MemoryStorage) UpdateTaskAnalysis(ctx context.Context, id string, analysis *models.TaskAnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("task not found: %s", id)
	}

	deadline := analysis.SuggestedDeadline
	task.AIPriorityScore = analysis.PriorityScore
	task.Priority = models.PriorityLevelFromScore(analysis.PriorityScore)
	task.AISuggestedDeadline = &deadline
	task.Category = analysis.SuggestedCategory
	task.AISuggestedTags = analysis.SuggestedTags
	task.Description = analysis.EnhancedDescription
	task.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) CreateContextEntry(ctx context.Context, entry *models.ContextEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = entry.CreatedAt
	}

	copied := *entry
	s.contexts[entry.ID] = &copied
	return nil
}

func (s *MemoryStorage) ListContextEntries(ctx context.Context, since time.Time) ([]*models.ContextEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*models.ContextEntry
	for _, entry := range s.contexts {
		if entry.CreatedAt.Before(since) {
			continue
		}
		copied := *entry
		entries = append(entries, &copied)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (s *MemoryStorage) EnsureCategory(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category, exists := s.categories[name]; exists {
		category.UsageCount++
		return nil
	}

	s.categories[name] = &models.Category{
		ID:         uuid.New().String(),
		Name:       name,
		Color:      "#3B82F6",
		UsageCount: 1,
		CreatedAt:  time.Now(),
	}
	return nil
}

func (s *MemoryStorage) ListCategories(ctx context.Context) ([]*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categories []*models.Category
	for _, category := range s.categories {
		copied := *category
		categories = append(categories, &copied)
	}

	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].UsageCount != categories[j].UsageCount {
			return categories[i].UsageCount > categories[j].UsageCount
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
