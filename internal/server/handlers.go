package server

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xaenox/taskmind/internal/analyzer"
	"github.com/xaenox/taskmind/internal/models"
	"github.com/xaenox/taskmind/internal/storage"
)

type createTaskRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	SkipAIAnalysis  bool   `json:"skip_ai_analysis"`
	CurrentWorkload int    `json:"current_workload"`
}

type taskAnalysisRequest struct {
	TaskTitle       string `json:"task_title"`
	TaskDescription string `json:"task_description"`
	CurrentWorkload int    `json:"current_workload"`
}

type taskAnalysisResponse struct {
	PriorityScore         float64              `json:"priority_score"`
	PriorityLevel         models.PriorityLevel `json:"priority_level"`
	SuggestedDeadline     time.Time            `json:"suggested_deadline"`
	SuggestedCategory     string               `json:"suggested_category"`
	SuggestedTags         []string             `json:"suggested_tags"`
	EnhancedDescription   string               `json:"enhanced_description"`
	RelevantContextsCount int                  `json:"relevant_contexts_count"`
	AnalysisTimestamp     time.Time            `json:"analysis_timestamp"`
}

func (s *Server) analysisRequest(r *http.Request, title, description string, workload int) analyzer.AnalysisRequest {
	since := time.Now().AddDate(0, 0, -s.cfg.ContextWindow)
	contexts, err := s.storage.ListContextEntries(r.Context(), since)
	if err != nil {
		s.logger.Error("Failed to load recent contexts", zap.Error(err))
	}

	var categoryNames []string
	categories, err := s.storage.ListCategories(r.Context())
	if err != nil {
		s.logger.Error("Failed to load categories", zap.Error(err))
	}
	for _, category := range categories {
		categoryNames = append(categoryNames, category.Name)
	}

	if workload < 1 || workload > 10 {
		workload = s.cfg.DefaultWorkload
	}

	return analyzer.AnalysisRequest{
		Title:              title,
		Description:        description,
		Contexts:           contexts,
		ExistingCategories: categoryNames,
		Workload:           workload,
	}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	task := &models.Task{
		Title:               req.Title,
		Description:         req.Description,
		OriginalDescription: req.Description,
		Status:              models.StatusTodo,
		Priority:            models.PriorityMedium,
		AIPriorityScore:     0.5,
	}

	if !req.SkipAIAnalysis {
		analysis := s.taskAnalyzer.ComprehensiveAnalysis(r.Context(),
			s.analysisRequest(r, req.Title, req.Description, req.CurrentWorkload))

		deadline := analysis.SuggestedDeadline
		task.AIPriorityScore = analysis.PriorityScore
		task.Priority = models.PriorityLevelFromScore(analysis.PriorityScore)
		task.AISuggestedDeadline = &deadline
		task.Category = analysis.SuggestedCategory
		task.AISuggestedTags = analysis.SuggestedTags
		task.Description = analysis.EnhancedDescription

		if err := s.storage.EnsureCategory(r.Context(), analysis.SuggestedCategory); err != nil {
			s.logger.Error("Failed to update category usage", zap.Error(err))
		}
	}

	if err := s.storage.CreateTask(r.Context(), task); err != nil {
		s.logger.Error("Failed to create task", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	s.respondJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := storage.TaskFilter{
		Status:   models.TaskStatus(query.Get("status")),
		Category: query.Get("category"),
		Priority: models.PriorityLevel(query.Get("priority")),
		Search:   query.Get("search"),
	}

	tasks, err := s.storage.ListTasks(r.Context(), filter)
	if err != nil {
		s.logger.Error("Failed to list tasks", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	s.respondJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleTaskAnalysis(w http.ResponseWriter, r *http.Request) {
	var req taskAnalysisRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.TaskTitle == "" {
		s.respondError(w, http.StatusBadRequest, "task_title is required")
		return
	}

	analysis := s.taskAnalyzer.ComprehensiveAnalysis(r.Context(),
		s.analysisRequest(r, req.TaskTitle, req.TaskDescription, req.CurrentWorkload))

	s.respondJSON(w, http.StatusOK, taskAnalysisResponse{
		PriorityScore:         analysis.PriorityScore,
		PriorityLevel:         models.PriorityLevelFromScore(analysis.PriorityScore),
		SuggestedDeadline:     analysis.SuggestedDeadline,
		SuggestedCategory:     analysis.SuggestedCategory,
		SuggestedTags:         analysis.SuggestedTags,
		EnhancedDescription:   analysis.EnhancedDescription,
		RelevantContextsCount: len(analysis.RelevantContexts),
		AnalysisTimestamp:     analysis.AnalysisTimestamp,
	})
}

func (s *Server) handleReanalyzeTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	task, err := s.storage.GetTask(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "task not found")
		return
	}

	description := task.OriginalDescription
	if description == "" {
		description = task.Description
	}

	analysis := s.taskAnalyzer.ComprehensiveAnalysis(r.Context(),
		s.analysisRequest(r, task.Title, description, 0))

	if err := s.storage.UpdateTaskAnalysis(r.Context(), id, analysis); err != nil {
		s.logger.Error("Failed to update task analysis",
			zap.Error(err),
			zap.String("task_id", id))
		s.respondError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	updated, err := s.storage.GetTask(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to reload task")
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

type createContextRequest struct {
	Content    string    `json:"content"`
	SourceType string    `json:"source_type"`
	Sender     string    `json:"sender"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *Server) handleCreateContext(w http.ResponseWriter, r *http.Request) {
	var req createContextRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Content == "" {
		s.respondError(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.SourceType == "" {
		req.SourceType = "note"
	}

	entry, err := s.ingestContext(r, req)
	if err != nil {
		s.logger.Error("Failed to save context entry", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to save context entry")
		return
	}

	s.respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleBulkContexts(w http.ResponseWriter, r *http.Request) {
	var reqs []createContextRequest
	if !s.decodeJSON(w, r, &reqs) {
		return
	}

	entries := make([]*models.ContextEntry, 0, len(reqs))
	for _, req := range reqs {
		if req.Content == "" {
			continue
		}
		if req.SourceType == "" {
			req.SourceType = "note"
		}
		entry, err := s.ingestContext(r, req)
		if err != nil {
			s.logger.Error("Failed to save context entry", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"created": len(entries),
		"entries": entries,
	})
}

func (s *Server) ingestContext(r *http.Request, req createContextRequest) (*models.ContextEntry, error) {
	insight := s.contextAnalyzer.ProcessEntry(r.Context(), req.Content, req.SourceType)

	entry := &models.ContextEntry{
		Content:        req.Content,
		SourceType:     req.SourceType,
		Sender:         req.Sender,
		Timestamp:      req.Timestamp,
		Keywords:       insight.Keywords,
		SentimentScore: insight.SentimentScore,
		UrgencyLevel:   insight.UrgencyLevel,
		Insight:        insight,
	}

	if err := s.storage.CreateContextEntry(r.Context(), entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Server) handleListContexts(w http.ResponseWriter, r *http.Request) {
	since := time.Now().AddDate(0, 0, -s.cfg.ContextWindow)
	entries, err := s.storage.ListContextEntries(r.Context(), since)
	if err != nil {
		s.logger.Error("Failed to list context entries", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to list context entries")
		return
	}
	if entries == nil {
		entries = []*models.ContextEntry{}
	}

	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.storage.ListCategories(r.Context())
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}

	s.respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.storage.ListTasks(r.Context(), storage.TaskFilter{})
	if err != nil {
		s.logger.Error("Failed to list tasks for stats", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	since := time.Now().AddDate(0, 0, -s.cfg.ContextWindow)
	entries, err := s.storage.ListContextEntries(r.Context(), since)
	if err != nil {
		s.logger.Error("Failed to list contexts for stats", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	now := time.Now()
	byStatus := make(map[models.TaskStatus]int)
	byCategory := make(map[string]int)
	var completed, pending, highPriority, overdue int
	for _, task := range tasks {
		byStatus[task.Status]++
		if task.Category != "" {
			byCategory[task.Category]++
		}
		switch task.Status {
		case models.StatusCompleted:
			completed++
		case models.StatusTodo, models.StatusInProgress:
			pending++
			if task.Deadline != nil && task.Deadline.Before(now) {
				overdue++
			}
		}
		if task.AIPriorityScore >= 0.7 {
			highPriority++
		}
	}

	var completionRate float64
	if len(tasks) > 0 {
		completionRate = float64(completed) / float64(len(tasks)) * 100
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total_tasks":           len(tasks),
		"completed_tasks":       completed,
		"pending_tasks":         pending,
		"tasks_by_status":       byStatus,
		"high_priority_tasks":   highPriority,
		"overdue_tasks":         overdue,
		"completion_rate":       completionRate,
		"category_distribution": byCategory,
		"recent_contexts":       len(entries),
	})
}

const insightsWindowDays = 30

func (s *Server) handleContextInsights(w http.ResponseWriter, r *http.Request) {
	since := time.Now().AddDate(0, 0, -insightsWindowDays)
	entries, err := s.storage.ListContextEntries(r.Context(), since)
	if err != nil {
		s.logger.Error("Failed to list contexts for insights", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to compute insights")
		return
	}

	if len(entries) == 0 {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"message": "No recent context entries found",
		})
		return
	}

	var sentimentSum float64
	var highPriority int
	bySource := make(map[string]int)
	keywordCounts := make(map[string]int)
	for _, entry := range entries {
		sentimentSum += entry.SentimentScore
		bySource[entry.SourceType]++
		if entry.UrgencyLevel > 6 {
			highPriority++
		}
		for _, keyword := range entry.Keywords {
			keywordCounts[keyword]++
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total_entries":         len(entries),
		"average_sentiment":     sentimentSum / float64(len(entries)),
		"source_distribution":   bySource,
		"common_keywords":       topKeywords(keywordCounts, 10),
		"high_priority_entries": highPriority,
		"analysis_period":       fmt.Sprintf("%d days", insightsWindowDays),
	})
}

type keywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

func topKeywords(counts map[string]int, limit int) []keywordCount {
	ranked := make([]keywordCount, 0, len(counts))
	for keyword, count := range counts {
		ranked = append(ranked, keywordCount{Keyword: keyword, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Keyword < ranked[j].Keyword
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
