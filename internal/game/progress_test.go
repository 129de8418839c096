package game

import (
	"testing"
	"time"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/models"
)

func TestRecordAttempt(t *testing.T) {
	tracker := NewTracker(7)
	p := models.NewProgress("player-1")
	now := time.Now()

	if got := tracker.RecordAttempt(p, 1, now); got != 1 {
		t.Errorf("expected first attempt number 1, got %d", got)
	}
	if got := tracker.RecordAttempt(p, 1, now.Add(time.Minute)); got != 2 {
		t.Errorf("expected second attempt number 2, got %d", got)
	}
	if p.TotalQueries != 2 {
		t.Errorf("expected 2 total queries, got %d", p.TotalQueries)
	}

	// The start time is pinned to the first attempt
	if start := p.LevelStartTimes[1]; !start.Equal(now) {
		t.Errorf("expected start time %v, got %v", now, start)
	}
}

func TestRecordCompletionAdvancesCursor(t *testing.T) {
	tracker := NewTracker(7)
	p := models.NewProgress("player-1")
	start := time.Now()

	tracker.RecordAttempt(p, 1, start)
	tracker.RecordAttempt(p, 1, start.Add(30*time.Second))

	attempts, elapsed := tracker.RecordCompletion(p, 1, start.Add(90*time.Second))
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if elapsed != 90 {
		t.Errorf("expected 90 elapsed seconds, got %d", elapsed)
	}
	if p.CurrentLevel != 2 {
		t.Errorf("expected cursor at 2, got %d", p.CurrentLevel)
	}
	if !p.Completed(1) {
		t.Error("expected level 1 in the completed set")
	}
	if p.CorrectAnswers != 1 {
		t.Errorf("expected 1 correct answer, got %d", p.CorrectAnswers)
	}

	// Attempt state is cleared so a replay starts fresh
	if _, ok := p.Attempts[1]; ok {
		t.Error("expected attempt counter cleared after completion")
	}
	if _, ok := p.LevelStartTimes[1]; ok {
		t.Error("expected start time cleared after completion")
	}
}

func TestReplayDoesNotRegressCursor(t *testing.T) {
	tracker := NewTracker(7)
	p := models.NewProgress("player-1")
	now := time.Now()

	tracker.RecordAttempt(p, 1, now)
	tracker.RecordCompletion(p, 1, now)
	tracker.RecordAttempt(p, 2, now)
	tracker.RecordCompletion(p, 2, now)

	if p.CurrentLevel != 3 {
		t.Fatalf("expected cursor at 3, got %d", p.CurrentLevel)
	}

	// Replaying an earlier level must not move the cursor backward and
	// must not duplicate the completed entry
	tracker.RecordAttempt(p, 1, now)
	tracker.RecordCompletion(p, 1, now)

	if p.CurrentLevel != 3 {
		t.Errorf("expected cursor still at 3, got %d", p.CurrentLevel)
	}
	count := 0
	for _, id := range p.CompletedLevels {
		if id == 1 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected level 1 listed once, got %d times", count)
	}
	// A replayed correct answer still counts
	if p.CorrectAnswers != 3 {
		t.Errorf("expected 3 correct answers, got %d", p.CorrectAnswers)
	}
}

func TestCursorCappedAtFinalLevel(t *testing.T) {
	tracker := NewTracker(3)
	p := models.NewProgress("player-1")
	now := time.Now()

	for level := 1; level <= 3; level++ {
		tracker.RecordAttempt(p, level, now)
		tracker.RecordCompletion(p, level, now)
	}

	if p.CurrentLevel != 3 {
		t.Errorf("expected cursor capped at 3, got %d", p.CurrentLevel)
	}
	if len(p.CompletedLevels) != 3 {
		t.Errorf("expected 3 completed levels, got %d", len(p.CompletedLevels))
	}
}

func TestReset(t *testing.T) {
	tracker := NewTracker(7)
	p := models.NewProgress("player-1")
	now := time.Now()

	tracker.RecordAttempt(p, 1, now)
	tracker.RecordCompletion(p, 1, now)
	tracker.RecordAttempt(p, 2, now)

	tracker.Reset(p)

	if p.CurrentLevel != 1 {
		t.Errorf("expected cursor at 1 after reset, got %d", p.CurrentLevel)
	}
	if len(p.CompletedLevels) != 0 {
		t.Errorf("expected no completed levels after reset, got %v", p.CompletedLevels)
	}
	if len(p.Attempts) != 0 || len(p.LevelStartTimes) != 0 {
		t.Error("expected attempt state cleared after reset")
	}
	if p.TotalQueries != 0 || p.CorrectAnswers != 0 {
		t.Error("expected counters zeroed after reset")
	}
}

func TestUnlock(t *testing.T) {
	tracker := NewTracker(7)
	p := models.NewProgress("player-1")

	if err := tracker.Unlock(p, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentLevel != 5 {
		t.Errorf("expected cursor at 5, got %d", p.CurrentLevel)
	}

	if err := tracker.Unlock(p, 0); err == nil {
		t.Error("expected error for level 0")
	}
	if err := tracker.Unlock(p, 8); err == nil {
		t.Error("expected error for level beyond the final one")
	}
}
