package game

import (
	"fmt"
	"time"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/models"
)

// Tracker implements the progress state machine over explicit Progress
// values. It holds no player state itself; every transition takes the
// record in and mutates it, leaving persistence to the caller.
type Tracker struct {
	levelCount int
}

// NewTracker creates a tracker for a game with levelCount levels.
func NewTracker(levelCount int) *Tracker {
	return &Tracker{levelCount: levelCount}
}

// RecordAttempt registers one check attempt on a level: the attempt counter
// increments (starting at 1), the start timestamp is set on the first
// attempt, and total_queries increments. Returns the attempt number.
func (t *Tracker) RecordAttempt(p *models.Progress, levelID int, now time.Time) int {
	p.Attempts[levelID]++
	if _, ok := p.LevelStartTimes[levelID]; !ok {
		p.LevelStartTimes[levelID] = now
	}
	p.TotalQueries++
	return p.Attempts[levelID]
}

// RecordExecution registers a query run outside the check path; only the
// total counter moves.
func (t *Tracker) RecordExecution(p *models.Progress) {
	p.TotalQueries++
}

// RecordCompletion folds a correct verdict into the progress: the level
// joins the completed set, the cursor advances past it (never beyond N,
// never backward), the attempt counter and start timestamp are cleared so a
// replay starts fresh, and correct_answers increments. Returns the attempt
// count and elapsed seconds for the completed run.
func (t *Tracker) RecordCompletion(p *models.Progress, levelID int, now time.Time) (attempts int, elapsedSeconds int) {
	attempts = p.Attempts[levelID]

	if start, ok := p.LevelStartTimes[levelID]; ok {
		elapsedSeconds = int(now.Sub(start).Seconds())
	}

	if !p.Completed(levelID) {
		p.CompletedLevels = append(p.CompletedLevels, levelID)
	}

	if levelID >= p.CurrentLevel && levelID < t.levelCount {
		p.CurrentLevel = levelID + 1
	}

	delete(p.Attempts, levelID)
	delete(p.LevelStartTimes, levelID)
	p.CorrectAnswers++

	return attempts, elapsedSeconds
}

// Reset returns the player to level 1 and clears all counters. This is the
// only transition allowed to move the cursor backward.
func (t *Tracker) Reset(p *models.Progress) {
	p.CurrentLevel = 1
	p.CompletedLevels = []int{}
	p.Attempts = make(map[int]int)
	p.LevelStartTimes = make(map[int]time.Time)
	p.TotalQueries = 0
	p.CorrectAnswers = 0
}

// Unlock administratively moves the cursor to an arbitrary valid level,
// bypassing the normal progression. Intended for testing and demos.
func (t *Tracker) Unlock(p *models.Progress, levelID int) error {
	if levelID < 1 || levelID > t.levelCount {
		return fmt.Errorf("invalid level id %d: must be 1..%d", levelID, t.levelCount)
	}
	p.CurrentLevel = levelID
	return nil
}
