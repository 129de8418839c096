// Package analytics records gameplay events and serves aggregate reports
// for the dashboard. Recording is best-effort: a failed write is logged and
// never surfaces to the player.
package analytics

import (
	"context"
	"time"
)

// QueryAttempt is one logged query submission.
type QueryAttempt struct {
	SessionID    string
	LevelID      int
	QueryText    string
	IsValid      bool
	IsCorrect    *bool
	ExecutionMS  *float64
	ErrorMessage string
}

// ErrorEvent is one categorized gameplay error.
type ErrorEvent struct {
	SessionID     string
	LevelID       int
	ErrorType     string
	ErrorDetail   string
	QueryFragment string
}

// Completion is one successful level completion.
type Completion struct {
	SessionID        string
	LevelID          int
	Attempts         int
	TimeSpentSeconds int
}

// Recorder ingests gameplay events.
type Recorder interface {
	StartSession(ctx context.Context, sessionID, userAgent string) error
	RecordAttempt(ctx context.Context, attempt QueryAttempt) error
	RecordError(ctx context.Context, event ErrorEvent) error
	RecordCompletion(ctx context.Context, completion Completion) error

	// CloseStaleSessions marks sessions with no activity for idleFor as
	// ended, returning how many were closed.
	CloseStaleSessions(ctx context.Context, idleFor time.Duration) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// NoopRecorder satisfies Recorder when analytics is not configured.
type NoopRecorder struct{}

func (NoopRecorder) StartSession(ctx context.Context, sessionID, userAgent string) error { return nil }
func (NoopRecorder) RecordAttempt(ctx context.Context, attempt QueryAttempt) error       { return nil }
func (NoopRecorder) RecordError(ctx context.Context, event ErrorEvent) error             { return nil }
func (NoopRecorder) RecordCompletion(ctx context.Context, completion Completion) error   { return nil }
func (NoopRecorder) CloseStaleSessions(ctx context.Context, idleFor time.Duration) (int, error) {
	return 0, nil
}
func (NoopRecorder) Ping(ctx context.Context) error { return nil }
func (NoopRecorder) Close() error                   { return nil }
