package models

import "time"

// Progress is the per-player game state. It belongs to exactly one logical
// player and is passed into and returned from every state-machine operation;
// persistence is the session store's concern.
type Progress struct {
	PlayerID string `json:"player_id"`

	// CurrentLevel is the cursor: the highest unlocked level id. Starts
	// at 1, monotonically non-decreasing (except Reset), capped at N.
	CurrentLevel int `json:"current_level"`

	// CompletedLevels grows monotonically; insertion order is irrelevant.
	CompletedLevels []int `json:"completed_levels"`

	// Attempts counts check attempts per level; an entry is removed when
	// that level is completed so a replay starts a fresh sequence.
	Attempts map[int]int `json:"attempts,omitempty"`

	// LevelStartTimes records when the first attempt on a level was made;
	// cleared on completion.
	LevelStartTimes map[int]time.Time `json:"level_start_times,omitempty"`

	TotalQueries   int `json:"total_queries"`
	CorrectAnswers int `json:"correct_answers"`
}

// NewProgress returns a fresh progress record for the given player.
func NewProgress(playerID string) *Progress {
	return &Progress{
		PlayerID:        playerID,
		CurrentLevel:    1,
		CompletedLevels: []int{},
		Attempts:        make(map[int]int),
		LevelStartTimes: make(map[int]time.Time),
	}
}

// Completed reports whether the given level is in the completed set.
func (p *Progress) Completed(levelID int) bool {
	for _, id := range p.CompletedLevels {
		if id == levelID {
			return true
		}
	}
	return false
}

// Unlocked reports whether the given level's content may be fetched.
func (p *Progress) Unlocked(levelID int) bool {
	return levelID <= p.CurrentLevel
}
