// Package levels loads and serves the immutable level catalog.
package levels

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/models"
)

// ErrLevelNotFound is returned for ids outside 1..N.
var ErrLevelNotFound = errors.New("level not found")

// Catalog holds all levels, keyed by id. Loaded once at startup; read-only
// afterwards, so no locking is needed.
type Catalog struct {
	levels map[int]*models.Level
	order  []int
}

// Load reads every *.yaml / *.yml file in dir, one level per file, and
// validates that the ids form a dense total order 1..N.
func Load(dir string) (*Catalog, error) {
	slog.Info("loading levels", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no level files found in %s", dir)
	}

	c := &Catalog{levels: make(map[int]*models.Level)}
	for _, file := range files {
		level, err := loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load level %s: %w", file, err)
		}
		if _, exists := c.levels[level.ID]; exists {
			return nil, fmt.Errorf("duplicate level id %d in %s", level.ID, file)
		}
		c.levels[level.ID] = level
	}

	// Levels must be dense and ordered: 1..N with no gaps.
	for id := 1; id <= len(c.levels); id++ {
		if _, ok := c.levels[id]; !ok {
			return nil, fmt.Errorf("level ids must be dense 1..%d, missing %d", len(c.levels), id)
		}
		c.order = append(c.order, id)
	}
	sort.Ints(c.order)

	slog.Info("levels loaded", "count", len(c.levels))
	return c, nil
}

func loadFile(path string) (*models.Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var level models.Level
	if err := yaml.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if level.ID < 1 {
		return nil, fmt.Errorf("level id must be a positive integer, got %d", level.ID)
	}
	if level.Title == "" {
		return nil, errors.New("title is required")
	}
	if level.ExpectedQuery == "" {
		return nil, errors.New("expected_query is required")
	}
	if len(level.TablesUnlocked) == 0 {
		return nil, errors.New("tables_unlocked is required")
	}

	return &level, nil
}

// Get returns the level with the given id, or ErrLevelNotFound.
func (c *Catalog) Get(id int) (*models.Level, error) {
	level, ok := c.levels[id]
	if !ok {
		return nil, ErrLevelNotFound
	}
	return level, nil
}

// List returns all levels in id order.
func (c *Catalog) List() []*models.Level {
	out := make([]*models.Level, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.levels[id])
	}
	return out
}

// Count returns N, the number of levels.
func (c *Catalog) Count() int {
	return len(c.levels)
}

// TablesForLevel returns the unlocked table set for a level, empty for
// unknown ids.
func (c *Catalog) TablesForLevel(id int) []string {
	level, ok := c.levels[id]
	if !ok {
		return nil
	}
	return level.TablesUnlocked
}
