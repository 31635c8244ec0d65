package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/xaenox/taskmind/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	storage := &PostgresStorage{db: db}

	// Initialize database schema
	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %v", err)
	}

	_, err = s.db.Exec(string(migrationSQL))
	if err != nil {
		return fmt.Errorf("error executing migrations: %v", err)
	}

	return nil
}

func (s *PostgresStorage) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	query := `
		INSERT INTO tasks (id, title, description, original_description, category,
			priority, ai_priority_score, status, deadline, ai_suggested_deadline,
			tags, ai_suggested_tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.OriginalDescription,
		task.Category,
		task.Priority,
		task.AIPriorityScore,
		task.Status,
		task.Deadline,
		task.AISuggestedDeadline,
		pq.Array(task.Tags),
		pq.Array(task.AISuggestedTags),
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error creating task: %v", err)
	}

	return nil
}

func (s *PostgresStorage) GetTask(ctx context.Context, id string) (*models.Task, error) {
	query := `
		SELECT id, title, description, original_description, category, priority,
			ai_priority_score, status, deadline, ai_suggested_deadline, tags,
			ai_suggested_tags, created_at, updated_at, completed_at
		FROM tasks
		WHERE id = $1`

	task := &models.Task{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.OriginalDescription,
		&task.Category,
		&task.Priority,
		&task.AIPriorityScore,
		&task.Status,
		&task.Deadline,
		&task.AISuggestedDeadline,
		pq.Array(&task.Tags),
		pq.Array(&task.AISuggestedTags),
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error getting task: %v", err)
	}

	return task, nil
}

func (s *PostgresStorage) ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error) {
	query := `
		SELECT id, title, description, original_description, category, priority,
			ai_priority_score, status, deadline, ai_suggested_deadline, tags,
			ai_suggested_tags, created_at, updated_at, completed_at
		FROM tasks
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR category = $2)
		  AND ($3 = '' OR priority = $3)
		  AND ($4 = '' OR title ILIKE '%' || $4 || '%' OR description ILIKE '%' || $4 || '%')
		ORDER BY ai_priority_score DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query,
		string(filter.Status), filter.Category, string(filter.Priority), filter.Search)
	if err != nil {
		return nil, fmt.Errorf("error querying tasks: %v", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.OriginalDescription,
			&task.Category,
			&task.Priority,
			&task.AIPriorityScore,
			&task.Status,
			&task.Deadline,
			&task.AISuggestedDeadline,
			pq.Array(&task.Tags),
			pq.Array(&task.AISuggestedTags),
			&task.CreatedAt,
			&task.UpdatedAt,
			&task.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning task: %v", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

func (s *PostgresStorage) UpdateTaskAnalysis(ctx context.Context, id string, analysis *models.TaskAnalysisResult) error {
	query := `
		UPDATE tasks
		SET ai_priority_score = $1,
			priority = $2,
			ai_suggested_deadline = $3,
			category = $4,
			ai_suggested_tags = $5,
			description = $6,
			updated_at = $7
		WHERE id = $8`

	result, err := s.db.ExecContext(ctx, query,
		analysis.PriorityScore,
		models.PriorityLevelFromScore(analysis.PriorityScore),
		analysis.SuggestedDeadline,
		analysis.SuggestedCategory,
		pq.Array(analysis.SuggestedTags),
		analysis.EnhancedDescription,
		time.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("error updating task analysis: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found")
	}

	return nil
}

func (s *PostgresStorage) CreateContextEntry(ctx context.Context, entry *models.ContextEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	insightJSON, err := json.Marshal(entry.Insight)
	if err != nil {
		return fmt.Errorf("error encoding insight: %v", err)
	}

	query := `
		INSERT INTO context_entries (id, content, source_type, sender, ts,
			keywords, sentiment_score, urgency_level, insight)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err = s.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.Content,
		entry.SourceType,
		entry.Sender,
		entry.Timestamp,
		pq.Array(entry.Keywords),
		entry.SentimentScore,
		entry.UrgencyLevel,
		insightJSON,
	).Scan(&entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("error creating context entry: %v", err)
	}

	return nil
}

func (s *PostgresStorage) ListContextEntries(ctx context.Context, since time.Time) ([]*models.ContextEntry, error) {
	query := `
		SELECT id, content, source_type, sender, ts, keywords, sentiment_score,
			urgency_level, insight, created_at
		FROM context_entries
		WHERE created_at >= $1
		ORDER BY ts DESC`

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error querying context entries: %v", err)
	}
	defer rows.Close()

	var entries []*models.ContextEntry
	for rows.Next() {
		entry := &models.ContextEntry{}
		var insightJSON []byte
		err := rows.Scan(
			&entry.ID,
			&entry.Content,
			&entry.SourceType,
			&entry.Sender,
			&entry.Timestamp,
			pq.Array(&entry.Keywords),
			&entry.SentimentScore,
			&entry.UrgencyLevel,
			&insightJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning context entry: %v", err)
		}

		if len(insightJSON) > 0 {
			insight := &models.ContextInsight{}
			if err := json.Unmarshal(insightJSON, insight); err == nil {
				entry.Insight = insight
			}
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *PostgresStorage) EnsureCategory(ctx context.Context, name string) error {
	query := `
		INSERT INTO categories (id, name, usage_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (name) DO UPDATE SET usage_count = categories.usage_count + 1`

	if _, err := s.db.ExecContext(ctx, query, uuid.New().String(), name); err != nil {
		return fmt.Errorf("error ensuring category: %v", err)
	}
	return nil
}

func (s *PostgresStorage) ListCategories(ctx context.Context) ([]*models.Category, error) {
	query := `
		SELECT id, name, color, usage_count, created_at
		FROM categories
		ORDER BY usage_count DESC, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying categories: %v", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category := &models.Category{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Color,
			&category.UsageCount,
			&category.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning category: %v", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
