package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/pipeline"
	"github.com/redlinehq/redline/internal/storage"
	"github.com/redlinehq/redline/internal/vector"
)

type taskRequest struct {
	Paths   []string `json:"paths"`
	Process string   `json:"process,omitempty"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Paths) == 0 {
		s.respondError(w, http.StatusBadRequest, "paths is required")
		return
	}
	s.logger.Debug("task request", zap.Int("paths", len(req.Paths)), zap.String("process", req.Process))
	report, err := s.pipeline.Run(r.Context(), pipeline.Request{
		Paths:           req.Paths,
		ProcessOverride: req.Process,
	})
	if err != nil {
		if errors.Is(err, vector.ErrIndexNotReady) {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error("task failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, report)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.storage.GetReport(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		s.logger.Error("get report failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleRebuildReferences(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ingester.Ingest(r.Context(), s.config.References.Dir, s.config.References.SourcesManifest)
	if err != nil {
		s.logger.Error("re-ingest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sources":    stats.Sources,
		"passages":   stats.Passages,
		"elapsed_ms": stats.Elapsed.Milliseconds(),
	})
}

type queryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	results, err := s.retriever.Retrieve(r.Context(), req.Query, req.K)
	if err != nil {
		if errors.Is(err, vector.ErrIndexNotReady) {
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	passages, err := s.storage.CountPassages(ctx)
	if err != nil {
		s.logger.Error("status: count passages failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	reports, err := s.storage.CountReports(ctx)
	if err != nil {
		s.logger.Error("status: count reports failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	indexSize := 0
	if idx, err := s.vectorStore.Current(); err == nil {
		indexSize = idx.Size()
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"passages":          passages,
		"reports":           reports,
		"vector_index_size": indexSize,
		"index_ready":       s.vectorStore.Ready(),
		"config": map[string]interface{}{
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"chunk_max_tokens":     s.config.Chunking.MaxTokens,
			"chunk_overlap_tokens": s.config.Chunking.OverlapTokens,
			"references_dir":       s.config.References.Dir,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
