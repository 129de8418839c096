package levels

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLevel(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write level file: %v", err)
	}
}

const levelOne = `
id: 1
title: "The Missing Witness"
story: "A witness has vanished."
objective: "Find all suspects over 30."
hint: "Use a WHERE clause on age."
sql_concepts:
  - SELECT
  - WHERE
tables_unlocked:
  - suspects
expected_query: |
  SELECT * FROM suspects WHERE age > 30
expected_columns:
  - name
success_message: "Case one closed."
`

const levelTwo = `
id: 2
title: "The Alibi"
tables_unlocked:
  - suspects
  - alibis
expected_query: "SELECT * FROM alibis"
order_matters: true
`

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "01_missing_witness.yaml", levelOne)
	writeLevel(t, dir, "02_alibi.yaml", levelTwo)

	catalog, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if catalog.Count() != 2 {
		t.Fatalf("expected 2 levels, got %d", catalog.Count())
	}

	level, err := catalog.Get(1)
	if err != nil {
		t.Fatalf("Get(1) failed: %v", err)
	}
	if level.Title != "The Missing Witness" {
		t.Errorf("unexpected title: %s", level.Title)
	}
	if !strings.Contains(level.ExpectedQuery, "age > 30") {
		t.Errorf("unexpected expected_query: %s", level.ExpectedQuery)
	}
	if len(level.SQLConcepts) != 2 {
		t.Errorf("unexpected sql_concepts: %v", level.SQLConcepts)
	}
	if level.OrderMatters {
		t.Error("level 1 should not require ordering")
	}

	level2, err := catalog.Get(2)
	if err != nil {
		t.Fatalf("Get(2) failed: %v", err)
	}
	if !level2.OrderMatters {
		t.Error("level 2 should require ordering")
	}

	if _, err := catalog.Get(3); !errors.Is(err, ErrLevelNotFound) {
		t.Errorf("expected ErrLevelNotFound, got %v", err)
	}

	all := catalog.List()
	if len(all) != 2 || all[0].ID != 1 || all[1].ID != 2 {
		t.Errorf("expected levels in id order, got %v", all)
	}

	tables := catalog.TablesForLevel(2)
	if len(tables) != 2 || tables[0] != "suspects" {
		t.Errorf("unexpected tables for level 2: %v", tables)
	}
}

func TestLoadRejectsGaps(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "01.yaml", levelOne)
	writeLevel(t, dir, "03.yaml", strings.Replace(levelTwo, "id: 2", "id: 3", 1))

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for non-dense level ids")
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "01.yaml", levelOne)
	writeLevel(t, dir, "01_again.yaml", strings.Replace(levelTwo, "id: 2", "id: 1", 1))

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for duplicate level ids")
	}
}

func TestLoadRejectsIncompleteLevel(t *testing.T) {
	cases := map[string]string{
		"missing title":  "id: 1\nexpected_query: SELECT 1\ntables_unlocked: [suspects]\n",
		"missing query":  "id: 1\ntitle: X\ntables_unlocked: [suspects]\n",
		"missing tables": "id: 1\ntitle: X\nexpected_query: SELECT 1\n",
		"bad id":         "id: 0\ntitle: X\nexpected_query: SELECT 1\ntables_unlocked: [suspects]\n",
	}

	for name, content := range cases {
		dir := t.TempDir()
		writeLevel(t, dir, "01.yaml", content)
		if _, err := Load(dir); err == nil {
			t.Errorf("%s: expected load error", name)
		}
	}
}

func TestLoadEmptyDir(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestShippedLevels(t *testing.T) {
	dir := filepath.Join("..", "..", "levels")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("levels directory not found, skipping")
	}

	catalog, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if catalog.Count() != 7 {
		t.Errorf("expected 7 shipped levels, got %d", catalog.Count())
	}

	for _, level := range catalog.List() {
		if level.Hint == "" {
			t.Errorf("level %d has no hint", level.ID)
		}
		if len(level.TablesUnlocked) == 0 {
			t.Errorf("level %d unlocks no tables", level.ID)
		}
	}
}
