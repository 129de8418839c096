package models

// ErrorCode classifies a failed query into a stable taxonomy. Validation
// failures are resolved before execution; the rest are classified from the
// driver's error text.
type ErrorCode string

const (
	ErrCodeValidation      ErrorCode = "validation_error"
	ErrCodeSyntax          ErrorCode = "syntax_error"
	ErrCodeTableNotFound   ErrorCode = "table_not_found"
	ErrCodeColumnNotFound  ErrorCode = "column_not_found"
	ErrCodeAmbiguousColumn ErrorCode = "ambiguous_column"
	ErrCodeAggregation     ErrorCode = "aggregation_error"
	ErrCodeTimeout         ErrorCode = "timeout"
	ErrCodeOther           ErrorCode = "other"
)

// QueryError carries a classified, player-friendly execution failure.
type QueryError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QueryResult is the outcome of one query execution. A result with a non-nil
// Error carries no columns or rows. Results are created fresh per execution
// and never mutated.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`

	RowCount int `json:"row_count"`

	// ExecutionMS is wall-clock time from dispatch to fetch completion,
	// in milliseconds rounded to two decimal places.
	ExecutionMS float64 `json:"execution_time"`

	// Truncated is true iff the row cap was reached: the true result may
	// be larger, and callers must treat the rows as possibly incomplete.
	Truncated bool `json:"truncated"`

	Error *QueryError `json:"error,omitempty"`
}

// Failed reports whether the execution produced an error.
func (r *QueryResult) Failed() bool {
	return r.Error != nil
}

// ColumnInfo describes one column of a table, as reported by the data source.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}
