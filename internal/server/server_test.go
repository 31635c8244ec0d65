package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/taskmind/internal/ai"
	"github.com/xaenox/taskmind/internal/analyzer"
	"github.com/xaenox/taskmind/internal/models"
	"github.com/xaenox/taskmind/internal/storage"
	"github.com/xaenox/taskmind/pkg/config"
)

// newTestServer wires the full stack against in-memory storage and an
// unreachable AI endpoint, so every suggestion takes its deterministic path.
func newTestServer() *Server {
	logger := zap.NewNop()
	gateway := ai.NewGateway(ai.Config{
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	}, logger)

	return New(
		storage.NewMemoryStorage(),
		analyzer.NewContextAnalyzer(gateway, logger),
		analyzer.NewTaskAnalyzer(gateway, logger),
		config.AnalyzerConfig{DefaultWorkload: 5, ContextWindow: 7},
		logger,
	)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestTaskAnalysisEndpoint(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/tasks/ai-analysis", map[string]interface{}{
		"task_title":       "URGENT: fix the login bug",
		"task_description": "users cannot sign in, do this asap",
		"current_workload": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp taskAnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.InDelta(t, 0.9, resp.PriorityScore, 0.001)
	assert.Equal(t, models.PriorityUrgent, resp.PriorityLevel)
	assert.Equal(t, "Development", resp.SuggestedCategory)
	assert.NotEmpty(t, resp.SuggestedTags)
	assert.LessOrEqual(t, len(resp.SuggestedTags), 3)
	assert.Equal(t, "users cannot sign in, do this asap", resp.EnhancedDescription)
	assert.Equal(t, 0, resp.RelevantContextsCount)
}

func TestTaskAnalysisRequiresTitle(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/tasks/ai-analysis", map[string]interface{}{
		"task_description": "missing title",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContextIngestionAndLinking(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/contexts", map[string]interface{}{
		"content":     "the budget review meeting is urgent, deadline friday",
		"source_type": "email",
		"sender":      "boss@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var entry models.ContextEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entry))
	assert.NotEmpty(t, entry.ID)
	assert.Contains(t, entry.Keywords, "budget")
	assert.GreaterOrEqual(t, entry.UrgencyLevel, 5)
	require.NotNil(t, entry.Insight)
	assert.True(t, entry.Insight.HasDeadlineMention)
	assert.Equal(t, "ai service unavailable", entry.Insight.AIAnalysis.Error)

	// A related task now links to the stored context
	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/tasks/ai-analysis", map[string]interface{}{
		"task_title":       "prepare budget review slides",
		"task_description": "",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp taskAnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.RelevantContextsCount)
}

func TestBulkContextIngestion(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/contexts/bulk", []map[string]interface{}{
		{"content": "note one about the project", "source_type": "note"},
		{"content": "note two about the deadline", "source_type": "note"},
		{"content": ""},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Created int `json:"created"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Created)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/contexts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.ContextEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	assert.Len(t, entries, 2)
}

func TestCreateTaskWithAnalysisAndReanalyze(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":       "urgent production fix",
		"description": "the bug breaks checkout",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var task models.Task
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&task))
	assert.NotEmpty(t, task.ID)
	assert.InDelta(t, 0.9, task.AIPriorityScore, 0.001)
	assert.Equal(t, models.PriorityUrgent, task.Priority)
	assert.Equal(t, "Development", task.Category)
	assert.NotNil(t, task.AISuggestedDeadline)
	assert.Equal(t, "the bug breaks checkout", task.OriginalDescription)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/tasks/"+task.ID+"/reanalyze", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reanalyzed models.Task
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reanalyzed))
	assert.Equal(t, task.ID, reanalyzed.ID)
	assert.InDelta(t, 0.9, reanalyzed.AIPriorityScore, 0.001)

	// Suggested category was recorded with a usage count
	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var categories []models.Category
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&categories))
	require.NotEmpty(t, categories)
	assert.Equal(t, "Development", categories[0].Name)
}

func TestReanalyzeMissingTask(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/tasks/nope/reanalyze", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardStats(t *testing.T) {
	srv := newTestServer()
	ctx := context.Background()

	doJSON(t, srv.Handler(), http.MethodPost, "/api/tasks", map[string]interface{}{
		"title": "urgent incident review", "skip_ai_analysis": false,
	})
	doJSON(t, srv.Handler(), http.MethodPost, "/api/contexts", map[string]interface{}{
		"content": "remember the standup", "source_type": "note",
	})

	require.NoError(t, srv.storage.CreateTask(ctx, &models.Task{
		Title:    "shipped feature",
		Status:   models.StatusCompleted,
		Category: "Development",
	}))
	missed := time.Now().AddDate(0, 0, -2)
	require.NoError(t, srv.storage.CreateTask(ctx, &models.Task{
		Title:    "late report",
		Status:   models.StatusTodo,
		Deadline: &missed,
	}))

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		TotalTasks           int            `json:"total_tasks"`
		CompletedTasks       int            `json:"completed_tasks"`
		PendingTasks         int            `json:"pending_tasks"`
		HighPriorityTasks    int            `json:"high_priority_tasks"`
		OverdueTasks         int            `json:"overdue_tasks"`
		CompletionRate       float64        `json:"completion_rate"`
		CategoryDistribution map[string]int `json:"category_distribution"`
		RecentContexts       int            `json:"recent_contexts"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 3, stats.TotalTasks)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 2, stats.PendingTasks)
	assert.Equal(t, 1, stats.HighPriorityTasks)
	assert.Equal(t, 1, stats.OverdueTasks)
	assert.InDelta(t, 100.0/3.0, stats.CompletionRate, 0.01)
	assert.Equal(t, 1, stats.CategoryDistribution["Development"])
	assert.Equal(t, 1, stats.RecentContexts)
}

func TestContextInsightsSummary(t *testing.T) {
	srv := newTestServer()

	doJSON(t, srv.Handler(), http.MethodPost, "/api/contexts", map[string]interface{}{
		"content": "URGENT!!! finish the budget report today", "source_type": "email",
	})
	doJSON(t, srv.Handler(), http.MethodPost, "/api/contexts", map[string]interface{}{
		"content": "budget numbers look great, happy with progress", "source_type": "chat",
	})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/contexts/insights-summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		TotalEntries        int            `json:"total_entries"`
		AverageSentiment    float64        `json:"average_sentiment"`
		SourceDistribution  map[string]int `json:"source_distribution"`
		CommonKeywords      []keywordCount `json:"common_keywords"`
		HighPriorityEntries int            `json:"high_priority_entries"`
		AnalysisPeriod      string         `json:"analysis_period"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 2, summary.TotalEntries)
	assert.Greater(t, summary.AverageSentiment, 0.0)
	assert.Equal(t, 1, summary.SourceDistribution["email"])
	assert.Equal(t, 1, summary.SourceDistribution["chat"])
	assert.Equal(t, 1, summary.HighPriorityEntries)
	assert.Equal(t, "30 days", summary.AnalysisPeriod)

	require.NotEmpty(t, summary.CommonKeywords)
	assert.Equal(t, "budget", summary.CommonKeywords[0].Keyword)
	assert.Equal(t, 2, summary.CommonKeywords[0].Count)
}

func TestContextInsightsSummaryEmpty(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/contexts/insights-summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "No recent context entries found", resp["message"])
}
