package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/analytics"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/config"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/game"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/health"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/levels"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/models"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/session"
)

type stubEngine struct {
	results map[string]*models.QueryResult
}

func (s *stubEngine) Execute(ctx context.Context, query string) *models.QueryResult {
	if r, ok := s.results[query]; ok {
		return r
	}
	return &models.QueryResult{
		Error: &models.QueryError{Code: models.ErrCodeOther, Message: "no canned result"},
	}
}

func (s *stubEngine) TableSchema(ctx context.Context, table string) ([]models.ColumnInfo, error) {
	return []models.ColumnInfo{{Name: "name", Type: "TEXT"}}, nil
}

func (s *stubEngine) SampleRows(ctx context.Context, table string, limit int) *models.QueryResult {
	return s.Execute(ctx, "SAMPLE "+table)
}

func (s *stubEngine) Ping(ctx context.Context) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	levelYAML := `
id: 1
title: "Case One"
hint: "A hint."
tables_unlocked: [suspects]
expected_query: "REF1"
`
	if err := os.WriteFile(filepath.Join(dir, "01.yaml"), []byte(levelYAML), 0o644); err != nil {
		t.Fatalf("failed to write level fixture: %v", err)
	}
	catalog, err := levels.Load(dir)
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	eng := &stubEngine{results: map[string]*models.QueryResult{
		"REF1": {Columns: []string{"name"}, Rows: [][]any{{"Alice"}}, RowCount: 1},
		"GOOD": {Columns: []string{"name"}, Rows: [][]any{{"Alice"}}, RowCount: 1},
	}}

	svc := game.NewService(catalog, eng, session.NewMemoryStore(), analytics.NoopRecorder{})
	server := NewServer(config.ServerConfig{}, svc, nil, health.NewRegistry(), analytics.NoopRecorder{})

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, *envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	return resp, &env
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, ts.Client(), "GET", ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !env.Success {
		t.Error("expected success envelope")
	}
}

func TestPlayerCookieAssigned(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, ts.Client(), "GET", ts.URL+"/api/v1/game/progress", nil)
	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "detective_player" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected player identity cookie on first request")
	}
}

func TestValidateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	_, env := doJSON(t, ts.Client(), "POST", ts.URL+"/api/v1/query/validate",
		map[string]string{"query": "DROP TABLE suspects"})
	if !env.Success {
		t.Fatal("expected success envelope for validation call")
	}

	var data struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Valid {
		t.Error("expected DROP to be invalid")
	}
	if data.Reason == "" {
		t.Error("expected a rejection reason")
	}
}

func TestCheckEndpointAdvancesProgress(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, ts.Client(), "POST", ts.URL+"/api/v1/query/check",
		map[string]any{"level_id": 1, "query": "GOOD"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var data struct {
		Verdict  *models.Verdict  `json:"verdict"`
		Progress *models.Progress `json:"progress"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if !data.Verdict.Correct {
		t.Fatalf("expected correct verdict, got: %s", data.Verdict.Message)
	}
	if data.Progress.CorrectAnswers != 1 {
		t.Errorf("expected 1 correct answer, got %d", data.Progress.CorrectAnswers)
	}
}

func TestCheckEndpointUnknownLevel(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, ts.Client(), "POST", ts.URL+"/api/v1/query/check",
		map[string]any{"level_id": 42, "query": "GOOD"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "level_not_found" {
		t.Errorf("unexpected error payload: %+v", env.Error)
	}
}

func TestAnalyticsDisabled(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, ts.Client(), "GET", ts.URL+"/api/v1/analytics/funnel", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "analytics_disabled" {
		t.Errorf("unexpected error payload: %+v", env.Error)
	}
}

func TestBlockedKeywordsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	_, env := doJSON(t, ts.Client(), "GET", ts.URL+"/api/v1/query/blocked-keywords", nil)
	var data struct {
		Keywords []string `json:"keywords"`
		Total    int      `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Total == 0 || len(data.Keywords) != data.Total {
		t.Errorf("unexpected keyword list: %+v", data)
	}
}
