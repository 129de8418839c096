// Package game orchestrates the check pipeline: validation, execution,
// comparison, progress transitions, and analytics logging.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/analytics"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/engine"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/levels"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/models"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/session"
)

// Common errors
var (
	ErrLevelNotFound = levels.ErrLevelNotFound
	ErrLevelLocked   = errors.New("level not yet unlocked")
	ErrTableLocked   = errors.New("table not available at this level")
)

// QueryEngine is the executor surface the service needs; satisfied by
// *engine.Executor.
type QueryEngine interface {
	Execute(ctx context.Context, query string) *models.QueryResult
	TableSchema(ctx context.Context, table string) ([]models.ColumnInfo, error)
	SampleRows(ctx context.Context, table string, limit int) *models.QueryResult
	Ping(ctx context.Context) error
}

// Service is the game engine's entry point for the web layer.
type Service struct {
	catalog   *levels.Catalog
	eng       QueryEngine
	validator *engine.Validator
	checker   *engine.Checker
	store     session.Store
	recorder  analytics.Recorder
	tracker   *Tracker

	// Same-player requests are serialized so the attempt counter's
	// read-increment-write cannot race with a double submit.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

// NewService wires the game service.
func NewService(
	catalog *levels.Catalog,
	eng QueryEngine,
	store session.Store,
	recorder analytics.Recorder,
) *Service {
	return &Service{
		catalog:   catalog,
		eng:       eng,
		validator: engine.NewValidator(),
		checker:   engine.NewChecker(eng, catalog.Count()),
		store:     store,
		recorder:  recorder,
		tracker:   NewTracker(catalog.Count()),
		locks:     make(map[string]*sync.Mutex),
		now:       time.Now,
	}
}

func (s *Service) lockPlayer(playerID string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[playerID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[playerID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// Validate screens a query without executing it.
func (s *Service) Validate(query string) (bool, string) {
	return s.validator.Validate(query)
}

// BlockedKeywords returns the denylist for client display.
func (s *Service) BlockedKeywords() []string {
	return append([]string(nil), engine.BlockedKeywords...)
}

// Execute runs a free-form query for the console, counting it against the
// player's totals and logging the attempt.
func (s *Service) Execute(ctx context.Context, playerID string, query string) (*models.QueryResult, error) {
	unlock := s.lockPlayer(playerID)
	defer unlock()

	progress, err := s.store.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	result := s.eng.Execute(ctx, query)

	s.tracker.RecordExecution(progress)
	if err := s.store.Save(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	s.logAttempt(playerID, progress.CurrentLevel, query, result, nil)
	return result, nil
}

// Check judges a query against a level and folds the verdict into the
// player's progress. The returned progress reflects the post-check state.
func (s *Service) Check(ctx context.Context, playerID string, levelID int, query string) (*models.Verdict, *models.Progress, error) {
	level, err := s.catalog.Get(levelID)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.lockPlayer(playerID)
	defer unlock()

	progress, err := s.store.Get(ctx, playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load progress: %w", err)
	}

	now := s.now()
	attempts := s.tracker.RecordAttempt(progress, levelID, now)

	verdict := s.checker.Check(ctx, level, query)

	if verdict.Correct {
		attemptCount, elapsed := s.tracker.RecordCompletion(progress, levelID, s.now())
		if attemptCount == 0 {
			attemptCount = attempts
		}
		s.logCompletion(playerID, levelID, attemptCount, elapsed)
	}

	if err := s.store.Save(ctx, progress); err != nil {
		return nil, nil, fmt.Errorf("failed to save progress: %w", err)
	}

	s.logAttempt(playerID, levelID, query, verdict.UserResult, &verdict.Correct)
	return verdict, progress, nil
}

// Progress returns the player's current state.
func (s *Service) Progress(ctx context.Context, playerID string) (*models.Progress, error) {
	return s.store.Get(ctx, playerID)
}

// Reset restarts the whole progression for the player.
func (s *Service) Reset(ctx context.Context, playerID string) (*models.Progress, error) {
	unlock := s.lockPlayer(playerID)
	defer unlock()

	progress, err := s.store.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	s.tracker.Reset(progress)
	if err := s.store.Save(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}
	return progress, nil
}

// Unlock administratively moves the player's cursor.
func (s *Service) Unlock(ctx context.Context, playerID string, levelID int) (*models.Progress, error) {
	unlock := s.lockPlayer(playerID)
	defer unlock()

	progress, err := s.store.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if err := s.tracker.Unlock(progress, levelID); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}
	return progress, nil
}

// Levels returns client-safe summaries of every level.
func (s *Service) Levels() []models.LevelSummary {
	all := s.catalog.List()
	out := make([]models.LevelSummary, len(all))
	for i, level := range all {
		out[i] = level.Summary()
	}
	return out
}

// LevelCount returns N.
func (s *Service) LevelCount() int {
	return s.catalog.Count()
}

// LevelDetail returns one level's content, gated by the player's cursor.
func (s *Service) LevelDetail(ctx context.Context, playerID string, levelID int) (*models.LevelSummary, error) {
	level, err := s.catalog.Get(levelID)
	if err != nil {
		return nil, err
	}

	progress, err := s.store.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if !progress.Unlocked(levelID) {
		return nil, ErrLevelLocked
	}

	summary := level.Summary()
	return &summary, nil
}

// TableOverview is the unlocked table set at the player's current level,
// with schemas.
type TableOverview struct {
	Level   int                            `json:"level"`
	Tables  []string                       `json:"tables"`
	Schemas map[string][]models.ColumnInfo `json:"schemas"`
}

// Tables lists the tables unlocked at the player's current level.
func (s *Service) Tables(ctx context.Context, playerID string) (*TableOverview, error) {
	progress, err := s.store.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	names := s.catalog.TablesForLevel(progress.CurrentLevel)
	overview := &TableOverview{
		Level:   progress.CurrentLevel,
		Tables:  names,
		Schemas: make(map[string][]models.ColumnInfo, len(names)),
	}
	for _, name := range names {
		schema, err := s.eng.TableSchema(ctx, name)
		if err != nil {
			slog.Warn("failed to read table schema", "table", name, "error", err)
			continue
		}
		overview.Schemas[name] = schema
	}
	return overview, nil
}

// TableSchema returns one table's column metadata, gated by the unlocked set.
func (s *Service) TableSchema(ctx context.Context, playerID, table string) ([]models.ColumnInfo, error) {
	if err := s.requireTable(ctx, playerID, table); err != nil {
		return nil, err
	}
	return s.eng.TableSchema(ctx, table)
}

// TableSample returns a bounded preview of one table, gated by the unlocked set.
func (s *Service) TableSample(ctx context.Context, playerID, table string, limit int) (*models.QueryResult, error) {
	if err := s.requireTable(ctx, playerID, table); err != nil {
		return nil, err
	}
	return s.eng.SampleRows(ctx, table, limit), nil
}

func (s *Service) requireTable(ctx context.Context, playerID, table string) error {
	progress, err := s.store.Get(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	for _, name := range s.catalog.TablesForLevel(progress.CurrentLevel) {
		if name == table {
			return nil
		}
	}
	return ErrTableLocked
}

// logAttempt records the attempt best-effort; failures are logged, never
// surfaced to the player.
func (s *Service) logAttempt(playerID string, levelID int, query string, result *models.QueryResult, correct *bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	attempt := analytics.QueryAttempt{
		SessionID: playerID,
		LevelID:   levelID,
		QueryText: query,
		IsValid:   true,
		IsCorrect: correct,
	}
	if result != nil {
		attempt.ExecutionMS = &result.ExecutionMS
		if result.Failed() {
			attempt.IsValid = result.Error.Code != models.ErrCodeValidation
			attempt.ErrorMessage = result.Error.Message
		}
	}
	if err := s.recorder.RecordAttempt(ctx, attempt); err != nil {
		slog.Error("failed to record query attempt", "player", playerID, "error", err)
	}

	if result != nil && result.Failed() {
		event := analytics.ErrorEvent{
			SessionID:     playerID,
			LevelID:       levelID,
			ErrorType:     errorType(result.Error.Code),
			ErrorDetail:   result.Error.Message,
			QueryFragment: fragment(query),
		}
		if err := s.recorder.RecordError(ctx, event); err != nil {
			slog.Error("failed to record error event", "player", playerID, "error", err)
		}
	}
}

func (s *Service) logCompletion(playerID string, levelID, attempts, elapsedSeconds int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	completion := analytics.Completion{
		SessionID:        playerID,
		LevelID:          levelID,
		Attempts:         attempts,
		TimeSpentSeconds: elapsedSeconds,
	}
	if err := s.recorder.RecordCompletion(ctx, completion); err != nil {
		slog.Error("failed to record level completion", "player", playerID, "error", err)
	}
}

func errorType(code models.ErrorCode) string {
	switch code {
	case models.ErrCodeValidation:
		return "VALIDATION_ERROR"
	case models.ErrCodeSyntax:
		return "SYNTAX_ERROR"
	case models.ErrCodeTableNotFound:
		return "TABLE_NOT_FOUND"
	case models.ErrCodeColumnNotFound:
		return "COLUMN_NOT_FOUND"
	case models.ErrCodeAmbiguousColumn:
		return "AMBIGUOUS_COLUMN"
	case models.ErrCodeAggregation:
		return "AGGREGATION_ERROR"
	case models.ErrCodeTimeout:
		return "TIMEOUT"
	default:
		return "OTHER_ERROR"
	}
}

// fragment keeps at most 100 characters of a query for error logs.
func fragment(query string) string {
	query = strings.TrimSpace(query)
	if len(query) > 100 {
		return query[:100]
	}
	return query
}
