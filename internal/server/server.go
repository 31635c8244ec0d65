package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/xaenox/taskmind/internal/analyzer"
	"github.com/xaenox/taskmind/internal/storage"
	"github.com/xaenox/taskmind/pkg/config"
)

// Server exposes the analysis engine over HTTP.
type Server struct {
	storage         storage.Storage
	contextAnalyzer *analyzer.ContextAnalyzer
	taskAnalyzer    *analyzer.TaskAnalyzer
	cfg             config.AnalyzerConfig
	logger          *zap.Logger
	handler         http.Handler
}

func New(store storage.Storage, contextAnalyzer *analyzer.ContextAnalyzer, taskAnalyzer *analyzer.TaskAnalyzer, cfg config.AnalyzerConfig, logger *zap.Logger) *Server {
	s := &Server{
		storage:         store,
		contextAnalyzer: contextAnalyzer,
		taskAnalyzer:    taskAnalyzer,
		cfg:             cfg,
		logger:          logger,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/ai-analysis", s.handleTaskAnalysis).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/reanalyze", s.handleReanalyzeTask).Methods(http.MethodPost)
	api.HandleFunc("/contexts", s.handleCreateContext).Methods(http.MethodPost)
	api.HandleFunc("/contexts/bulk", s.handleBulkContexts).Methods(http.MethodPost)
	api.HandleFunc("/contexts", s.handleListContexts).Methods(http.MethodGet)
	api.HandleFunc("/contexts/insights-summary", s.handleContextInsights).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/stats", s.handleDashboardStats).Methods(http.MethodGet)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)

	return s
}

// Handler returns the root HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}
