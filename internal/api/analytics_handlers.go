package api

import (
	"context"
	"log/slog"
	"net/http"
)

// Analytics report handlers. Every report follows the same shape: bail out
// when analytics is disabled, otherwise run the aggregate and return it.

func (s *Server) handleFunnelReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "funnel", func(ctx context.Context) (interface{}, error) {
		return s.reporter.Funnel(ctx)
	})
}

func (s *Server) handleErrorReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "errors", func(ctx context.Context) (interface{}, error) {
		return s.reporter.Errors(ctx)
	})
}

func (s *Server) handleLearningCurveReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "learning-curve", func(ctx context.Context) (interface{}, error) {
		return s.reporter.LearningCurve(ctx)
	})
}

func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "sessions", func(ctx context.Context) (interface{}, error) {
		return s.reporter.Sessions(ctx)
	})
}

func (s *Server) handleQueryStatsReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "queries", func(ctx context.Context) (interface{}, error) {
		return s.reporter.QueryStats(ctx)
	})
}

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, name string, run func(ctx context.Context) (interface{}, error)) {
	if s.reporter == nil {
		respondError(w, http.StatusServiceUnavailable, "analytics_disabled", "analytics is not configured")
		return
	}

	report, err := run(r.Context())
	if err != nil {
		slog.Error("failed to build report", "report", name, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to build report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
