package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/models"
)

// Runner executes queries; satisfied by *Executor. Split out so the checker
// can be tested against canned results.
type Runner interface {
	Execute(ctx context.Context, query string) *models.QueryResult
}

// Checker decides whether a player's query answers a level. It executes both
// the player's query and the level's reference query through the same runner
// and compares the results under the level's comparison policy.
type Checker struct {
	runner     Runner
	levelCount int
}

// NewChecker creates a checker on top of the given runner. levelCount is the
// highest level id; the final level's correct verdict carries no successor.
func NewChecker(runner Runner, levelCount int) *Checker {
	return &Checker{runner: runner, levelCount: levelCount}
}

// Check produces the verdict for one attempt at a level. It never returns an
// error: every failure mode is folded into an incorrect verdict.
func (c *Checker) Check(ctx context.Context, level *models.Level, userQuery string) *models.Verdict {
	userResult := c.runner.Execute(ctx, userQuery)
	if userResult.Failed() {
		return &models.Verdict{
			Correct:    false,
			Issue:      models.IssueQueryError,
			Message:    "Query Error: " + userResult.Error.Message,
			Hints:      errorHints(userResult.Error, level),
			UserResult: userResult,
		}
	}

	// The reference query is trusted content; it is assumed to execute.
	expected := c.runner.Execute(ctx, level.ExpectedQuery)
	if expected.Failed() {
		return &models.Verdict{
			Correct:    false,
			Issue:      models.IssueQueryError,
			Message:    "Level reference query failed. Please report this level.",
			UserResult: userResult,
		}
	}

	// An empty result is diagnostically distinct from a wrong-count result,
	// so it is checked first.
	if userResult.RowCount == 0 && expected.RowCount > 0 {
		return &models.Verdict{
			Correct:    false,
			Issue:      models.IssueNoResults,
			Message:    "Your query returned no results, but there should be matching records.",
			Hints:      incorrectHints(models.IssueNoResults, level),
			UserResult: userResult,
		}
	}

	// The live reference result is authoritative, not the level's literal.
	if level.ExpectedRowCount != nil && userResult.RowCount != expected.RowCount {
		return &models.Verdict{
			Correct:    false,
			Issue:      models.IssueRowCount,
			Message:    fmt.Sprintf("Row count mismatch: Got %d rows, expected %d rows.", userResult.RowCount, expected.RowCount),
			Hints:      incorrectHints(models.IssueRowCount, level),
			UserResult: userResult,
		}
	}

	if missing := missingColumns(level.ExpectedColumns, userResult.Columns); len(missing) > 0 {
		return &models.Verdict{
			Correct:    false,
			Issue:      models.IssueMissingColumns,
			Message:    "Missing required columns: " + strings.Join(missing, ", "),
			Hints:      incorrectHints(models.IssueMissingColumns, level),
			UserResult: userResult,
		}
	}

	userRows := normalizeRows(userResult.Rows)
	expectedRows := normalizeRows(expected.Rows)

	if level.OrderMatters {
		if !equalOrdered(userRows, expectedRows) {
			return &models.Verdict{
				Correct:    false,
				Issue:      models.IssueDataMismatch,
				Message:    "Data or ordering doesn't match expected result.",
				Hints:      incorrectHints(models.IssueDataMismatch, level),
				UserResult: userResult,
			}
		}
	} else {
		// Set comparison: duplicate identical rows collapse to one.
		// Multiset-sensitive levels are not supported.
		if msg, ok := compareSets(userRows, expectedRows); !ok {
			return &models.Verdict{
				Correct:    false,
				Issue:      models.IssueDataMismatch,
				Message:    msg,
				Hints:      incorrectHints(models.IssueDataMismatch, level),
				UserResult: userResult,
			}
		}
	}

	verdict := &models.Verdict{
		Correct:    true,
		Message:    successMessage(level),
		UserResult: userResult,
	}
	if level.ID < c.levelCount {
		next := level.ID + 1
		verdict.NextLevel = &next
	}
	return verdict
}

// missingColumns returns expected column names absent from the user's result,
// compared case-insensitively. Extra user columns are tolerated.
func missingColumns(expected, user []string) []string {
	if len(expected) == 0 {
		return nil
	}
	have := make(map[string]bool, len(user))
	for _, col := range user {
		have[strings.ToLower(col)] = true
	}
	var missing []string
	for _, col := range expected {
		if !have[strings.ToLower(col)] {
			missing = append(missing, strings.ToLower(col))
		}
	}
	return missing
}

// normalizeRows encodes each row as a comparable key: floats rounded to two
// decimal places (aggregates routinely differ in trailing digits), time
// values canonicalized to UTC, nulls kept distinct from empty strings.
func normalizeRows(rows [][]any) []string {
	keys := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		for j, v := range row {
			if j > 0 {
				b.WriteByte('\x1f')
			}
			writeValue(&b, v)
		}
		keys[i] = b.String()
	}
	return keys
}

func writeValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("~null~")
	case float64:
		b.WriteString("f:")
		b.WriteString(strconv.FormatFloat(roundTo2(val), 'f', 2, 64))
	case int64:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(val, 10))
	case bool:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(val))
	case time.Time:
		b.WriteString("t:")
		b.WriteString(val.UTC().Format("2006-01-02 15:04:05"))
	case string:
		b.WriteString("s:")
		b.WriteString(val)
	default:
		fmt.Fprintf(b, "v:%v", val)
	}
}

func roundTo2(f float64) float64 {
	return math.Round(f*100) / 100
}

func equalOrdered(user, expected []string) bool {
	if len(user) != len(expected) {
		return false
	}
	for i := range user {
		if user[i] != expected[i] {
			return false
		}
	}
	return true
}

// compareSets compares the rows as sets and, on mismatch, reports whether
// rows are missing, extra, or both.
func compareSets(user, expected []string) (string, bool) {
	userSet := toSet(user)
	expectedSet := toSet(expected)

	var missing, extra bool
	for k := range expectedSet {
		if !userSet[k] {
			missing = true
			break
		}
	}
	for k := range userSet {
		if !expectedSet[k] {
			extra = true
			break
		}
	}

	switch {
	case missing && extra:
		return "Some rows are incorrect or missing.", false
	case missing:
		return "Some expected rows are missing from your result.", false
	case extra:
		return "Your result contains extra rows not in the expected answer.", false
	default:
		return "", true
	}
}

func toSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// errorHints maps an execution failure to guidance, always ending with the
// level's own hint.
func errorHints(qerr *models.QueryError, level *models.Level) []string {
	var hints []string
	switch qerr.Code {
	case models.ErrCodeTableNotFound:
		hints = append(hints, "Available tables for this level: "+strings.Join(level.TablesUnlocked, ", "))
	case models.ErrCodeColumnNotFound, models.ErrCodeAmbiguousColumn:
		hints = append(hints, "Check your column names. Use SELECT * FROM table_name to see available columns.")
	case models.ErrCodeSyntax:
		hints = append(hints, "Check your SQL syntax. Common issues: missing commas, unmatched quotes, typos in keywords.")
	case models.ErrCodeValidation:
		hints = append(hints, "Only SELECT queries are allowed. You cannot modify the database.")
	case models.ErrCodeTimeout:
		hints = append(hints, "Your query took too long. Add filters to reduce the amount of data scanned.")
	}
	hints = append(hints, "Hint: "+level.Hint)
	return hints
}

// incorrectHints maps a comparison failure category to guidance, always
// ending with the level's own hint.
func incorrectHints(issue models.Issue, level *models.Level) []string {
	var hints []string
	switch issue {
	case models.IssueNoResults:
		hints = append(hints,
			"Your query syntax is correct but the filter conditions may be too restrictive.",
			"Double-check your WHERE clause values.")
	case models.IssueRowCount:
		hints = append(hints,
			"You're on the right track but getting a different number of rows.",
			"Review the filter conditions in the objective carefully.")
	case models.IssueMissingColumns:
		hints = append(hints, "Make sure you're selecting all the required columns.")
	case models.IssueDataMismatch:
		hints = append(hints, "The data doesn't match. Re-read the objective and check your conditions.")
	}
	hints = append(hints, "Level hint: "+level.Hint)
	return hints
}

func successMessage(level *models.Level) string {
	if level.SuccessMessage != "" {
		return level.SuccessMessage
	}
	return "Level complete!"
}
