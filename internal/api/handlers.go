package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.health.CheckAll(r.Context())

	checks := make(map[string]string, len(results))
	ready := true
	for name, err := range results {
		if err != nil {
			checks[name] = err.Error()
			ready = false
		} else {
			checks[name] = "ok"
		}
	}

	if !ready {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}

// Query handlers

type queryRequest struct {
	Query string `json:"query"`
}

type checkRequest struct {
	LevelID int    `json:"level_id"`
	Query   string `json:"query"`
}

func (s *Server) handleValidateQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	valid, reason := s.game.Validate(req.Query)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":  valid,
		"reason": reason,
	})
}

func (s *Server) handleExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	playerID := PlayerFromContext(r.Context())
	result, err := s.game.Execute(r.Context(), playerID, req.Query)
	if err != nil {
		slog.Error("failed to execute query", "player", playerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to execute query")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCheckQuery(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.LevelID < 1 {
		respondError(w, http.StatusBadRequest, "validation_error", "level_id is required")
		return
	}

	playerID := PlayerFromContext(r.Context())
	verdict, progress, err := s.game.Check(r.Context(), playerID, req.LevelID, req.Query)
	if err != nil {
		s.respondGameError(w, playerID, err, "failed to check query")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"verdict":  verdict,
		"progress": progress,
	})
}

func (s *Server) handleBlockedKeywords(w http.ResponseWriter, r *http.Request) {
	keywords := s.game.BlockedKeywords()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"keywords": keywords,
		"total":    len(keywords),
	})
}
