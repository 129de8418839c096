package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/analytics"
)

// Cleaner periodically closes analytics sessions that went quiet, so the
// session reports reflect real playtime instead of abandoned tabs.
type Cleaner struct {
	recorder   analytics.Recorder
	interval   time.Duration
	idleWindow time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(recorder analytics.Recorder, interval, idleWindow time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if idleWindow <= 0 {
		idleWindow = 30 * time.Minute
	}

	return &Cleaner{
		recorder:   recorder,
		interval:   interval,
		idleWindow: idleWindow,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval, "idle_window", c.idleWindow)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup closes sessions idle for longer than the window
func (c *Cleaner) cleanup(ctx context.Context) {
	slog.Debug("running cleanup cycle")

	closed, err := c.recorder.CloseStaleSessions(ctx, c.idleWindow)
	if err != nil {
		slog.Error("failed to close stale sessions", "error", err)
		return
	}

	if closed == 0 {
		slog.Debug("no stale sessions found")
		return
	}

	slog.Info("closed stale sessions", "count", closed)
}
