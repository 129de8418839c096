package models

// Level is one puzzle in the investigation. Levels are loaded from YAML at
// startup and are immutable afterwards; ids form a dense total order 1..N.
type Level struct {
	ID          int      `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Story       string   `json:"story" yaml:"story"`
	Objective   string   `json:"objective" yaml:"objective"`
	Hint        string   `json:"hint" yaml:"hint"`
	SQLConcepts []string `json:"sql_concepts" yaml:"sql_concepts"`

	// TablesUnlocked is the set of tables the player may see at this level.
	TablesUnlocked []string `json:"tables_unlocked" yaml:"tables_unlocked"`

	// ExpectedQuery is the reference answer. Never sent to the client.
	ExpectedQuery string `json:"-" yaml:"expected_query"`

	// ExpectedColumns, when non-empty, is the set of column names the
	// player's result must contain (case-insensitive subset check).
	ExpectedColumns []string `json:"-" yaml:"expected_columns"`

	// ExpectedRowCount, when non-nil, requires the player's row count to
	// match the live reference result's row count.
	ExpectedRowCount *int `json:"-" yaml:"expected_row_count"`

	// OrderMatters selects positional comparison instead of set comparison.
	OrderMatters bool `json:"-" yaml:"order_matters"`

	// SuccessMessage is shown when the level is solved.
	SuccessMessage string `json:"-" yaml:"success_message"`
}

// HasTable reports whether the named table is unlocked at this level.
func (l *Level) HasTable(name string) bool {
	for _, t := range l.TablesUnlocked {
		if t == name {
			return true
		}
	}
	return false
}

// LevelSummary is the client-visible view of a level (no solution fields).
type LevelSummary struct {
	ID             int      `json:"id"`
	Title          string   `json:"title"`
	Story          string   `json:"story"`
	Objective      string   `json:"objective"`
	Hint           string   `json:"hint"`
	SQLConcepts    []string `json:"sql_concepts"`
	TablesUnlocked []string `json:"tables_unlocked"`
}

// Summary returns the view of the level safe to send to the client.
func (l *Level) Summary() LevelSummary {
	return LevelSummary{
		ID:             l.ID,
		Title:          l.Title,
		Story:          l.Story,
		Objective:      l.Objective,
		Hint:           l.Hint,
		SQLConcepts:    l.SQLConcepts,
		TablesUnlocked: l.TablesUnlocked,
	}
}
