package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/models"
)

// stubRunner serves canned results keyed by query text.
type stubRunner struct {
	results map[string]*models.QueryResult
}

func (s *stubRunner) Execute(ctx context.Context, query string) *models.QueryResult {
	if r, ok := s.results[query]; ok {
		return r
	}
	return &models.QueryResult{
		Error: &models.QueryError{Code: models.ErrCodeOther, Message: "no canned result"},
	}
}

func intPtr(i int) *int { return &i }

func testLevel() *models.Level {
	return &models.Level{
		ID:               1,
		Title:            "The Missing Witness",
		Hint:             "Filter on the occupation column.",
		ExpectedQuery:    "REF",
		ExpectedColumns:  []string{"name", "occupation"},
		ExpectedRowCount: intPtr(2),
		TablesUnlocked:   []string{"suspects"},
	}
}

func result(columns []string, rows [][]any) *models.QueryResult {
	return &models.QueryResult{
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
	}
}

func TestCheckCorrectUnordered(t *testing.T) {
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF": result([]string{"name", "occupation"}, [][]any{
			{"Alice", "nurse"},
			{"Bob", "plumber"},
		}),
		"USER": result([]string{"name", "occupation"}, [][]any{
			{"Bob", "plumber"},
			{"Alice", "nurse"},
		}),
	}}

	verdict := NewChecker(runner, 7).Check(context.Background(), testLevel(), "USER")
	if !verdict.Correct {
		t.Fatalf("expected correct verdict, got: %s", verdict.Message)
	}
	if verdict.NextLevel == nil || *verdict.NextLevel != 2 {
		t.Errorf("expected next level 2, got %v", verdict.NextLevel)
	}
}

func TestCheckFinalLevelHasNoSuccessor(t *testing.T) {
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF":  result([]string{"name", "occupation"}, [][]any{{"Alice", "nurse"}, {"Bob", "plumber"}}),
		"USER": result([]string{"name", "occupation"}, [][]any{{"Alice", "nurse"}, {"Bob", "plumber"}}),
	}}

	level := testLevel()
	level.ID = 7
	verdict := NewChecker(runner, 7).Check(context.Background(), level, "USER")
	if !verdict.Correct {
		t.Fatalf("expected correct verdict, got: %s", verdict.Message)
	}
	if verdict.NextLevel != nil {
		t.Errorf("expected no next level, got %d", *verdict.NextLevel)
	}
}

func TestCheckOrderMatters(t *testing.T) {
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF": result([]string{"name", "occupation"}, [][]any{
			{"Alice", "nurse"},
			{"Bob", "plumber"},
		}),
		"USER": result([]string{"name", "occupation"}, [][]any{
			{"Bob", "plumber"},
			{"Alice", "nurse"},
		}),
	}}

	level := testLevel()
	level.OrderMatters = true
	verdict := NewChecker(runner, 7).Check(context.Background(), level, "USER")
	if verdict.Correct {
		t.Fatal("expected incorrect verdict for wrong ordering")
	}
	if verdict.Issue != models.IssueDataMismatch {
		t.Errorf("expected data_mismatch issue, got %s", verdict.Issue)
	}
}

func TestCheckRowCountMismatch(t *testing.T) {
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF": result([]string{"name", "occupation"}, [][]any{
			{"Alice", "nurse"},
			{"Bob", "plumber"},
		}),
		"USER": result([]string{"name", "occupation"}, [][]any{
			{"Alice", "nurse"},
			{"Bob", "plumber"},
			{"Carol", "driver"},
		}),
	}}

	verdict := NewChecker(runner, 7).Check(context.Background(), testLevel(), "USER")
	if verdict.Correct {
		t.Fatal("expected incorrect verdict")
	}
	if verdict.Issue != models.IssueRowCount {
		t.Fatalf("expected row_count issue, got %s", verdict.Issue)
	}
	if !strings.Contains(verdict.Message, "Got 3 rows, expected 2 rows") {
		t.Errorf("unexpected message: %s", verdict.Message)
	}
}

func TestCheckNoResults(t *testing.T) {
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF":  result([]string{"name", "occupation"}, [][]any{{"Alice", "nurse"}}),
		"USER": result([]string{"name", "occupation"}, nil),
	}}

	verdict := NewChecker(runner, 7).Check(context.Background(), testLevel(), "USER")
	if verdict.Correct {
		t.Fatal("expected incorrect verdict")
	}
	if verdict.Issue != models.IssueNoResults {
		t.Errorf("expected no_results issue, got %s", verdict.Issue)
	}
	// The level's own hint always comes last
	if len(verdict.Hints) == 0 || !strings.Contains(verdict.Hints[len(verdict.Hints)-1], "occupation column") {
		t.Errorf("expected level hint last, got %v", verdict.Hints)
	}
}

func TestCheckMissingColumns(t *testing.T) {
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF": result([]string{"name", "occupation"}, [][]any{
			{"Alice", "nurse"},
			{"Bob", "plumber"},
		}),
		"USER": result([]string{"name"}, [][]any{
			{"Alice"},
			{"Bob"},
		}),
	}}

	verdict := NewChecker(runner, 7).Check(context.Background(), testLevel(), "USER")
	if verdict.Correct {
		t.Fatal("expected incorrect verdict")
	}
	if verdict.Issue != models.IssueMissingColumns {
		t.Fatalf("expected missing_columns issue, got %s", verdict.Issue)
	}
	if !strings.Contains(verdict.Message, "occupation") {
		t.Errorf("expected message to name the missing column, got: %s", verdict.Message)
	}
}

func TestCheckColumnCaseInsensitive(t *testing.T) {
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF": result([]string{"name", "occupation"}, [][]any{{"Alice", "nurse"}, {"Bob", "plumber"}}),
		"USER": result([]string{"NAME", "Occupation"}, [][]any{
			{"Alice", "nurse"},
			{"Bob", "plumber"},
		}),
	}}

	verdict := NewChecker(runner, 7).Check(context.Background(), testLevel(), "USER")
	if !verdict.Correct {
		t.Fatalf("expected correct verdict, got: %s", verdict.Message)
	}
}

func TestCheckQueryError(t *testing.T) {
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF": result([]string{"name", "occupation"}, [][]any{{"Alice", "nurse"}}),
		"USER": {Error: &models.QueryError{
			Code:    models.ErrCodeTableNotFound,
			Message: "Table 'suspect' doesn't exist.",
		}},
	}}

	verdict := NewChecker(runner, 7).Check(context.Background(), testLevel(), "USER")
	if verdict.Correct {
		t.Fatal("expected incorrect verdict")
	}
	if verdict.Issue != models.IssueQueryError {
		t.Errorf("expected query_error issue, got %s", verdict.Issue)
	}
	if len(verdict.Hints) == 0 || !strings.Contains(verdict.Hints[0], "suspects") {
		t.Errorf("expected hint listing available tables, got %v", verdict.Hints)
	}
}

func TestCheckFloatRounding(t *testing.T) {
	// Aggregates that differ past two decimal places compare equal
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF":  result([]string{"avg_age"}, [][]any{{float64(41.66666667)}}),
		"USER": result([]string{"avg_age"}, [][]any{{float64(41.67)}}),
	}}

	level := testLevel()
	level.ExpectedColumns = []string{"avg_age"}
	level.ExpectedRowCount = intPtr(1)
	verdict := NewChecker(runner, 7).Check(context.Background(), level, "USER")
	if !verdict.Correct {
		t.Fatalf("expected correct verdict, got: %s", verdict.Message)
	}
}

func TestCheckNullDistinctFromEmptyString(t *testing.T) {
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF":  result([]string{"name", "occupation"}, [][]any{{"Alice", nil}, {"Bob", "plumber"}}),
		"USER": result([]string{"name", "occupation"}, [][]any{{"Alice", ""}, {"Bob", "plumber"}}),
	}}

	verdict := NewChecker(runner, 7).Check(context.Background(), testLevel(), "USER")
	if verdict.Correct {
		t.Fatal("expected NULL and empty string to compare unequal")
	}
}

func TestCheckExtraRows(t *testing.T) {
	runner := &stubRunner{results: map[string]*models.QueryResult{
		"REF": result([]string{"name", "occupation"}, [][]any{{"Alice", "nurse"}, {"Bob", "plumber"}}),
		"USER": result([]string{"name", "occupation"}, [][]any{
			{"Alice", "nurse"},
			{"Carol", "driver"},
		}),
	}}

	level := testLevel()
	level.ExpectedRowCount = nil // skip the count gate to reach set comparison
	verdict := NewChecker(runner, 7).Check(context.Background(), level, "USER")
	if verdict.Correct {
		t.Fatal("expected incorrect verdict")
	}
	if verdict.Issue != models.IssueDataMismatch {
		t.Errorf("expected data_mismatch issue, got %s", verdict.Issue)
	}
}
