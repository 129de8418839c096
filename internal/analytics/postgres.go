package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder implements Recorder and Reporter on PostgreSQL.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds analytics database connection configuration.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRecorder creates a pooled analytics store.
func NewPostgresRecorder(ctx context.Context, cfg PostgresConfig) (*PostgresRecorder, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping analytics database: %w", err)
	}

	return &PostgresRecorder{pool: pool}, nil
}

// Ping checks database connectivity.
func (r *PostgresRecorder) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool.
func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}

// StartSession records a new player session; replays of the same id are
// ignored so the call is safe on every request.
func (r *PostgresRecorder) StartSession(ctx context.Context, sessionID, userAgent string) error {
	query := `
		INSERT INTO session_logs (session_id, user_agent, started_at, last_active_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (session_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, sessionID, nullString(userAgent)); err != nil {
		return fmt.Errorf("failed to record session start: %w", err)
	}
	return nil
}

// RecordAttempt logs one query submission and bumps session activity.
func (r *PostgresRecorder) RecordAttempt(ctx context.Context, attempt QueryAttempt) error {
	query := `
		INSERT INTO query_attempts (session_id, level_id, query_text, is_valid, is_correct, execution_time_ms, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		attempt.SessionID,
		attempt.LevelID,
		attempt.QueryText,
		attempt.IsValid,
		attempt.IsCorrect,
		attempt.ExecutionMS,
		nullString(attempt.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("failed to record query attempt: %w", err)
	}

	touch := `
		UPDATE session_logs
		SET last_active_at = NOW(), total_queries = total_queries + 1
		WHERE session_id = $1
	`
	if _, err := r.pool.Exec(ctx, touch, attempt.SessionID); err != nil {
		return fmt.Errorf("failed to update session activity: %w", err)
	}
	return nil
}

// RecordError logs one categorized gameplay error.
func (r *PostgresRecorder) RecordError(ctx context.Context, event ErrorEvent) error {
	query := `
		INSERT INTO error_logs (session_id, level_id, error_type, error_detail, query_fragment, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		event.SessionID,
		event.LevelID,
		event.ErrorType,
		nullString(event.ErrorDetail),
		nullString(event.QueryFragment),
	)
	if err != nil {
		return fmt.Errorf("failed to record error event: %w", err)
	}
	return nil
}

// RecordCompletion logs a level completion and bumps the session's counter.
func (r *PostgresRecorder) RecordCompletion(ctx context.Context, completion Completion) error {
	query := `
		INSERT INTO level_completions (session_id, level_id, attempts_count, time_spent_seconds, completed_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		completion.SessionID,
		completion.LevelID,
		completion.Attempts,
		completion.TimeSpentSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to record level completion: %w", err)
	}

	bump := `
		UPDATE session_logs
		SET levels_completed = levels_completed + 1
		WHERE session_id = $1
	`
	if _, err := r.pool.Exec(ctx, bump, completion.SessionID); err != nil {
		return fmt.Errorf("failed to update session completions: %w", err)
	}
	return nil
}

// CloseStaleSessions marks sessions idle past the window as ended.
func (r *PostgresRecorder) CloseStaleSessions(ctx context.Context, idleFor time.Duration) (int, error) {
	query := `
		UPDATE session_logs
		SET ended_at = last_active_at
		WHERE ended_at IS NULL
		AND last_active_at < NOW() - $1::interval
	`
	tag, err := r.pool.Exec(ctx, query, fmt.Sprintf("%d seconds", int(idleFor.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to close stale sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
