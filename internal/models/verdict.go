package models

// Issue identifies why a structurally valid answer was judged incorrect.
type Issue string

const (
	IssueNoResults      Issue = "no_results"
	IssueRowCount       Issue = "row_count"
	IssueMissingColumns Issue = "missing_columns"
	IssueDataMismatch   Issue = "data_mismatch"
	IssueQueryError     Issue = "query_error"
)

// Verdict is the structured correctness decision for one check attempt.
// It is produced once per check and folded into the player's progress;
// it is never persisted on its own.
type Verdict struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`

	// Issue is set on incorrect verdicts only.
	Issue Issue `json:"issue,omitempty"`

	Hints []string `json:"hints,omitempty"`

	// UserResult echoes the player's query result so the client can
	// render what the query actually returned.
	UserResult *QueryResult `json:"user_result,omitempty"`

	// NextLevel is the successor level id on a correct verdict, nil at
	// the final level.
	NextLevel *int `json:"next_level,omitempty"`
}
