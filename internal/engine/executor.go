package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/models"
)

const (
	// MaxResultRows caps the number of rows fetched per execution.
	MaxResultRows = 1000

	// MaxSampleRows caps table previews regardless of the requested limit.
	MaxSampleRows = 10

	// DefaultQueryTimeout bounds query execution wall-clock time.
	DefaultQueryTimeout = 5 * time.Second
)

// ErrTableNotFound is returned by TableSchema for unknown tables.
var ErrTableNotFound = errors.New("table not found")

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Executor runs admitted queries against the game database. The database is
// opened with mode=ro so the engine itself refuses writes; the denylist is
// only the first line of defense.
type Executor struct {
	db        *sql.DB
	validator *Validator
	timeout   time.Duration
}

// ExecutorConfig holds executor construction parameters.
type ExecutorConfig struct {
	// Path is the SQLite database file.
	Path string

	// Timeout bounds each query's execution; DefaultQueryTimeout if zero.
	Timeout time.Duration
}

// NewExecutor opens the game database read-only and verifies connectivity.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultQueryTimeout
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open game database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to game database: %w", err)
	}

	// SQLite handles one query per connection cheaply; keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	return &Executor{
		db:        db,
		validator: NewValidator(),
		timeout:   cfg.Timeout,
	}, nil
}

// Validator exposes the executor's safety gate for callers that want to
// pre-check a query without running it.
func (e *Executor) Validator() *Validator {
	return e.validator
}

// Ping checks data source connectivity.
func (e *Executor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

// Close releases the database handle.
func (e *Executor) Close() error {
	return e.db.Close()
}

// Execute runs a single read query and returns its result. All failure paths
// return a QueryResult with Error set; Execute never panics and never
// returns a Go error to the caller.
func (e *Executor) Execute(ctx context.Context, query string) *models.QueryResult {
	query = e.validator.Sanitize(query)

	// Defense in depth: never trust that the caller validated.
	if ok, reason := e.validator.Validate(query); !ok {
		return &models.QueryResult{
			Columns: []string{},
			Rows:    [][]any{},
			Error:   &models.QueryError{Code: models.ErrCodeValidation, Message: reason},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return failedResult(err, start)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return failedResult(err, start)
	}

	data := make([][]any, 0, 64)
	for len(data) < MaxResultRows && rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return failedResult(err, start)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return failedResult(err, start)
	}

	return &models.QueryResult{
		Columns:     columns,
		Rows:        data,
		RowCount:    len(data),
		ExecutionMS: elapsedMS(start),
		Truncated:   len(data) == MaxResultRows,
	}
}

// TableSchema returns column metadata for the named table, or ErrTableNotFound.
func (e *Executor) TableSchema(ctx context.Context, table string) ([]models.ColumnInfo, error) {
	if !identifierRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []models.ColumnInfo
	for rows.Next() {
		var (
			cid        int
			name       string
			typ        string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan schema row: %w", err)
		}
		columns = append(columns, models.ColumnInfo{
			Name:       name,
			Type:       typ,
			Nullable:   notNull == 0,
			PrimaryKey: pk != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema for %s: %w", table, err)
	}

	if len(columns) == 0 {
		return nil, ErrTableNotFound
	}
	return columns, nil
}

// Tables returns the names of all user tables in the data source.
func (e *Executor) Tables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// SampleRows returns a bounded preview of a table. The limit is capped at
// MaxSampleRows no matter what the caller asks for.
func (e *Executor) SampleRows(ctx context.Context, table string, limit int) *models.QueryResult {
	if !identifierRe.MatchString(table) {
		return &models.QueryResult{
			Columns: []string{},
			Rows:    [][]any{},
			Error:   &models.QueryError{Code: models.ErrCodeValidation, Message: "Invalid table name"},
		}
	}
	if limit <= 0 || limit > MaxSampleRows {
		limit = MaxSampleRows
	}
	return e.Execute(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit))
}

func failedResult(err error, start time.Time) *models.QueryResult {
	code, message := classifyError(err)
	return &models.QueryResult{
		Columns:     []string{},
		Rows:        [][]any{},
		ExecutionMS: elapsedMS(start),
		Error:       &models.QueryError{Code: code, Message: message},
	}
}

// classifyError maps a driver error to the executor's error taxonomy and
// rewrites the message to be player-friendly. Unclassifiable errors fall
// into "other" with the raw text preserved.
func classifyError(err error) (models.ErrorCode, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrCodeTimeout, "Query timed out. Try narrowing your search with a WHERE clause or LIMIT."
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "no such table"):
		table := "unknown"
		if i := strings.LastIndex(msg, ":"); i >= 0 {
			table = strings.TrimSpace(msg[i+1:])
		}
		return models.ErrCodeTableNotFound, fmt.Sprintf("Table not found: %s. Check your table name spelling.", table)
	case strings.Contains(lower, "no such column"):
		return models.ErrCodeColumnNotFound, fmt.Sprintf("Column not found. Check your column names. (%s)", msg)
	case strings.Contains(lower, "ambiguous column"):
		return models.ErrCodeAmbiguousColumn, fmt.Sprintf("Ambiguous column name. Qualify it with the table name or alias. (%s)", msg)
	case strings.Contains(lower, "syntax error"):
		return models.ErrCodeSyntax, fmt.Sprintf("SQL syntax error: %s. Check your query syntax.", msg)
	case strings.Contains(lower, "group by") || strings.Contains(lower, "aggregate"):
		return models.ErrCodeAggregation, fmt.Sprintf("Aggregation error: %s. Every non-aggregated column must appear in GROUP BY.", msg)
	case strings.Contains(lower, "interrupted") || strings.Contains(lower, "context deadline"):
		return models.ErrCodeTimeout, "Query timed out. Try narrowing your search with a WHERE clause or LIMIT."
	default:
		return models.ErrCodeOther, fmt.Sprintf("Database error: %s", msg)
	}
}

func elapsedMS(start time.Time) float64 {
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	return math.Round(ms*100) / 100
}
