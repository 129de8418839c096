package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/game"
)

// respondGameError maps game service errors onto HTTP statuses.
func (s *Server) respondGameError(w http.ResponseWriter, playerID string, err error, logMsg string) {
	switch {
	case errors.Is(err, game.ErrLevelNotFound):
		respondError(w, http.StatusNotFound, "level_not_found", "level not found")
	case errors.Is(err, game.ErrLevelLocked):
		respondError(w, http.StatusForbidden, "level_locked", "solve the earlier cases first")
	case errors.Is(err, game.ErrTableLocked):
		respondError(w, http.StatusForbidden, "table_locked", "this table is not part of the current case")
	default:
		slog.Error(logMsg, "player", playerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", logMsg)
	}
}

// Level handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels := s.game.Levels()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"levels": levels,
		"total":  len(levels),
	})
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	levelID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || levelID < 1 {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid level id")
		return
	}

	playerID := PlayerFromContext(r.Context())
	level, err := s.game.LevelDetail(r.Context(), playerID, levelID)
	if err != nil {
		s.respondGameError(w, playerID, err, "failed to get level")
		return
	}

	respondJSON(w, http.StatusOK, level)
}

// Progress handlers

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	playerID := PlayerFromContext(r.Context())
	progress, err := s.game.Progress(r.Context(), playerID)
	if err != nil {
		slog.Error("failed to get progress", "player", playerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get progress")
		return
	}

	respondJSON(w, http.StatusOK, progress)
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	playerID := PlayerFromContext(r.Context())
	progress, err := s.game.Reset(r.Context(), playerID)
	if err != nil {
		slog.Error("failed to reset progress", "player", playerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to reset progress")
		return
	}

	respondJSON(w, http.StatusOK, progress)
}

func (s *Server) handleUnlockLevel(w http.ResponseWriter, r *http.Request) {
	levelID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || levelID < 1 {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid level id")
		return
	}

	playerID := PlayerFromContext(r.Context())
	progress, err := s.game.Unlock(r.Context(), playerID, levelID)
	if err != nil {
		if levelID > s.game.LevelCount() {
			respondError(w, http.StatusNotFound, "level_not_found", "level not found")
			return
		}
		slog.Error("failed to unlock level", "player", playerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to unlock level")
		return
	}

	respondJSON(w, http.StatusOK, progress)
}

// Table handlers

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	playerID := PlayerFromContext(r.Context())
	overview, err := s.game.Tables(r.Context(), playerID)
	if err != nil {
		slog.Error("failed to list tables", "player", playerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list tables")
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleTableSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "table name is required")
		return
	}

	playerID := PlayerFromContext(r.Context())
	schema, err := s.game.TableSchema(r.Context(), playerID, name)
	if err != nil {
		s.respondGameError(w, playerID, err, "failed to get table schema")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"table":   name,
		"columns": schema,
	})
}

func (s *Server) handleTableSample(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "table name is required")
		return
	}

	limit := 5 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	playerID := PlayerFromContext(r.Context())
	sample, err := s.game.TableSample(r.Context(), playerID, name, limit)
	if err != nil {
		s.respondGameError(w, playerID, err, "failed to sample table")
		return
	}

	respondJSON(w, http.StatusOK, sample)
}
