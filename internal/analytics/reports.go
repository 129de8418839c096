package analytics

import (
	"context"
	"fmt"
)

// FunnelLevel is per-level progression data.
type FunnelLevel struct {
	LevelID        int     `json:"level_id"`
	Started        int     `json:"started"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// Funnel shows drop-off across levels.
type Funnel struct {
	Levels         []FunnelLevel `json:"levels"`
	TotalSessions  int           `json:"total_sessions"`
	FullyCompleted int           `json:"fully_completed"`
}

// ErrorFrequency is one error category's share.
type ErrorFrequency struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Sessions   int     `json:"sessions"`
	Percentage float64 `json:"percentage"`
}

// ErrorReport breaks down gameplay errors.
type ErrorReport struct {
	TopErrors   []ErrorFrequency `json:"top_errors"`
	TotalErrors int              `json:"total_errors"`
}

// LearningCurveLevel is attempt/time statistics for one level.
type LearningCurveLevel struct {
	LevelID        int     `json:"level_id"`
	AvgAttempts    float64 `json:"avg_attempts"`
	MinAttempts    int     `json:"min_attempts"`
	MaxAttempts    int     `json:"max_attempts"`
	AvgTimeSeconds float64 `json:"avg_time_seconds"`
	Completions    int     `json:"completions"`
}

// SessionSummary aggregates all sessions.
type SessionSummary struct {
	TotalSessions        int     `json:"total_sessions"`
	TotalCompletions     int     `json:"total_completions"`
	TotalQueries         int     `json:"total_queries"`
	AvgLevelsPerSession  float64 `json:"avg_levels_per_session"`
	AvgQueriesPerSession float64 `json:"avg_queries_per_session"`
}

// QueryStats aggregates all query attempts.
type QueryStats struct {
	TotalQueries   int     `json:"total_queries"`
	ValidQueries   int     `json:"valid_queries"`
	CorrectQueries int     `json:"correct_queries"`
	InvalidRate    float64 `json:"invalid_rate"`
	SuccessRate    float64 `json:"success_rate"`
	AvgExecutionMS float64 `json:"avg_execution_time_ms"`
}

// Reporter serves the dashboard aggregates. Implemented by PostgresRecorder;
// all queries are read-only.
type Reporter interface {
	Funnel(ctx context.Context) (*Funnel, error)
	Errors(ctx context.Context) (*ErrorReport, error)
	LearningCurve(ctx context.Context) ([]LearningCurveLevel, error)
	Sessions(ctx context.Context) (*SessionSummary, error)
	QueryStats(ctx context.Context) (*QueryStats, error)
}

// Funnel analyzes player progression and drop-off per level.
func (r *PostgresRecorder) Funnel(ctx context.Context) (*Funnel, error) {
	query := `
		WITH level_starts AS (
			SELECT level_id, COUNT(DISTINCT session_id) AS sessions_started
			FROM query_attempts
			GROUP BY level_id
		),
		level_done AS (
			SELECT level_id, COUNT(DISTINCT session_id) AS sessions_completed
			FROM level_completions
			GROUP BY level_id
		)
		SELECT
			ls.level_id,
			ls.sessions_started,
			COALESCE(ld.sessions_completed, 0) AS sessions_completed,
			ROUND(COALESCE(ld.sessions_completed, 0) * 100.0 /
				NULLIF(ls.sessions_started, 0), 1) AS completion_rate
		FROM level_starts ls
		LEFT JOIN level_done ld ON ls.level_id = ld.level_id
		ORDER BY ls.level_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query funnel: %w", err)
	}
	defer rows.Close()

	funnel := &Funnel{}
	for rows.Next() {
		var level FunnelLevel
		var rate *float64
		if err := rows.Scan(&level.LevelID, &level.Started, &level.Completed, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan funnel row: %w", err)
		}
		if rate != nil {
			level.CompletionRate = *rate
		}
		funnel.Levels = append(funnel.Levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read funnel rows: %w", err)
	}

	if len(funnel.Levels) > 0 {
		funnel.TotalSessions = funnel.Levels[0].Started
		funnel.FullyCompleted = funnel.Levels[len(funnel.Levels)-1].Completed
	}
	return funnel, nil
}

// Errors breaks down logged gameplay errors by category.
func (r *PostgresRecorder) Errors(ctx context.Context) (*ErrorReport, error) {
	query := `
		SELECT error_type, COUNT(*) AS occurrence_count, COUNT(DISTINCT session_id) AS affected_sessions
		FROM error_logs
		GROUP BY error_type
		ORDER BY occurrence_count DESC
		LIMIT 10
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query error report: %w", err)
	}
	defer rows.Close()

	report := &ErrorReport{}
	for rows.Next() {
		var freq ErrorFrequency
		if err := rows.Scan(&freq.Type, &freq.Count, &freq.Sessions); err != nil {
			return nil, fmt.Errorf("failed to scan error row: %w", err)
		}
		report.TopErrors = append(report.TopErrors, freq)
		report.TotalErrors += freq.Count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read error rows: %w", err)
	}

	for i := range report.TopErrors {
		if report.TotalErrors > 0 {
			pct := float64(report.TopErrors[i].Count) * 100 / float64(report.TotalErrors)
			report.TopErrors[i].Percentage = float64(int(pct*10+0.5)) / 10
		}
	}
	return report, nil
}

// LearningCurve returns attempt and time statistics per level.
func (r *PostgresRecorder) LearningCurve(ctx context.Context) ([]LearningCurveLevel, error) {
	query := `
		SELECT
			level_id,
			ROUND(AVG(attempts_count), 1) AS avg_attempts,
			MIN(attempts_count) AS min_attempts,
			MAX(attempts_count) AS max_attempts,
			ROUND(AVG(time_spent_seconds), 0) AS avg_time_seconds,
			COUNT(*) AS completions
		FROM level_completions
		GROUP BY level_id
		ORDER BY level_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning curve: %w", err)
	}
	defer rows.Close()

	var levels []LearningCurveLevel
	for rows.Next() {
		var level LearningCurveLevel
		if err := rows.Scan(&level.LevelID, &level.AvgAttempts, &level.MinAttempts,
			&level.MaxAttempts, &level.AvgTimeSeconds, &level.Completions); err != nil {
			return nil, fmt.Errorf("failed to scan learning curve row: %w", err)
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

// Sessions summarizes all recorded sessions.
func (r *PostgresRecorder) Sessions(ctx context.Context) (*SessionSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(levels_completed), 0),
			COALESCE(SUM(total_queries), 0),
			COALESCE(ROUND(AVG(levels_completed), 1), 0),
			COALESCE(ROUND(AVG(total_queries), 1), 0)
		FROM session_logs
	`
	summary := &SessionSummary{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&summary.TotalSessions,
		&summary.TotalCompletions,
		&summary.TotalQueries,
		&summary.AvgLevelsPerSession,
		&summary.AvgQueriesPerSession,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session summary: %w", err)
	}
	return summary, nil
}

// QueryStats summarizes all query attempts.
func (r *PostgresRecorder) QueryStats(ctx context.Context) (*QueryStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_valid THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0),
			COALESCE(ROUND(AVG(execution_time_ms)::numeric, 2), 0)
		FROM query_attempts
	`
	stats := &QueryStats{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalQueries,
		&stats.ValidQueries,
		&stats.CorrectQueries,
		&stats.AvgExecutionMS,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempt stats: %w", err)
	}

	if stats.TotalQueries > 0 {
		stats.InvalidRate = float64(int(float64(stats.TotalQueries-stats.ValidQueries)*1000/float64(stats.TotalQueries)+0.5)) / 10
		stats.SuccessRate = float64(int(float64(stats.CorrectQueries)*1000/float64(stats.TotalQueries)+0.5)) / 10
	}
	return stats, nil
}
