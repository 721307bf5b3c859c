package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cphub/cphub/internal/config"
	"github.com/cphub/cphub/internal/sandbox"
)

const testPackYAML = `id: test-pack
name: Test Pack
version: 1.0.0
description: Problems for tests.
problems:
  - arrays/two-sum
`

const testProblemYAML = `id: 1
title: Two Sum
difficulty: Easy
category: Array
tags: [Array, Hash Table]
description: Return indices of the two numbers that add up to target.
starter_code:
  javascript: |
    function solution(nums, target) {
    }
test_cases:
  - id: 1
    input: "nums = [2,7,11,15], target = 9"
    expected: "[0,1]"
  - id: 2
    input: "nums = [3,2,4], target = 6"
    expected: "[1,2]"
`

// fakeExecutor answers invocations from a canned input-to-output
// table, so handler tests never spawn real interpreters.
type fakeExecutor struct {
	mu        sync.Mutex
	outputs   map[string]string
	failCheck bool
	invokes   int
}

func (f *fakeExecutor) Check(ctx context.Context, lang sandbox.Language, code string) error {
	if f.failCheck {
		return &sandbox.ConstructionError{Message: "SyntaxError: unexpected token"}
	}
	return nil
}

func (f *fakeExecutor) Invoke(ctx context.Context, req sandbox.InvokeRequest) (*sandbox.InvokeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invokes++
	out, ok := f.outputs[req.Input]
	if !ok {
		out = "null"
	}
	return &sandbox.InvokeResult{Output: out + "\n"}, nil
}

func (f *fakeExecutor) Close() error { return nil }

// passingExecutor answers every official case correctly.
func passingExecutor() *fakeExecutor {
	return &fakeExecutor{outputs: map[string]string{
		"nums = [2,7,11,15], target = 9": "[0,1]",
		"nums = [3,2,4], target = 6":     "[1,2]",
	}}
}

func writeTestPack(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	packDir := filepath.Join(base, "test-pack")
	if err := os.MkdirAll(filepath.Join(packDir, "arrays"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(packDir, "pack.yaml"), []byte(testPackYAML), 0o644); err != nil {
		t.Fatalf("write pack.yaml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(packDir, "arrays", "two-sum.yaml"), []byte(testProblemYAML), 0o644); err != nil {
		t.Fatalf("write two-sum.yaml: %v", err)
	}
	return base
}

func newTestServer(t *testing.T, exec sandbox.Executor) *Server {
	t.Helper()

	cfg := &config.Config{
		Port:               7433,
		Bind:               "127.0.0.1",
		Debug:              true,
		TokenSecret:        "test-secret",
		TokenMaxAge:        3600,
		AllowedOrigin:      "*",
		SandboxExecutor:    "subprocess",
		SandboxPoolSize:    2,
		SandboxTimeout:     5,
		SandboxCaseTimeout: 2,
		ProblemsPath:       writeTestPack(t),
		DataDir:            t.TempDir(),
	}

	srv, err := NewServer(context.Background(), cfg, Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Executor: exec,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response (%s): %v", rec.Body.String(), err)
	}
	return out
}

// loginDemo signs in the seeded demo account and returns its token.
func loginDemo(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "demo@example.com",
		"password": "password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("demo login status = %d, body %s", rec.Code, rec.Body.String())
	}
	token, _ := decode(t, rec)["token"].(string)
	if token == "" {
		t.Fatal("demo login returned no token")
	}
	return token
}

func TestHealthAndStatus(t *testing.T) {
	srv := newTestServer(t, passingExecutor())

	rec := doJSON(t, srv, http.MethodGet, "/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if got := decode(t, rec)["status"]; got != "healthy" {
		t.Errorf("status = %v, want healthy", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/status", "", nil)
	body := decode(t, rec)
	if got := body["problems"].(float64); got != 1 {
		t.Errorf("problems = %v, want 1", got)
	}
	if got := body["sandboxBackend"]; got != "custom" {
		t.Errorf("sandboxBackend = %v, want custom", got)
	}
}

func TestRegisterLoginAndMe(t *testing.T) {
	srv := newTestServer(t, passingExecutor())

	rec := doJSON(t, srv, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
		"name":     "Alice",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}
	user := body["user"].(map[string]any)
	if user["email"] != "alice@example.com" {
		t.Errorf("user email = %v", user["email"])
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Error("response leaked password hash")
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	if got := decode(t, rec)["email"]; got != "alice@example.com" {
		t.Errorf("me email = %v", got)
	}

	// duplicate registration
	rec = doJSON(t, srv, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
		"name":     "Alice",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, passingExecutor())

	rec := doJSON(t, srv, http.MethodGet, "/v1/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/auth/me", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

func TestListAndGetProblems(t *testing.T) {
	srv := newTestServer(t, passingExecutor())

	rec := doJSON(t, srv, http.MethodGet, "/v1/problems", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if got := decode(t, rec)["total"].(float64); got != 1 {
		t.Errorf("total = %v, want 1", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/problems?difficulty=Hard", "", nil)
	if got := decode(t, rec)["total"].(float64); got != 0 {
		t.Errorf("filtered total = %v, want 0", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/problems/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get by id status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["title"] != "Two Sum" {
		t.Errorf("title = %v", body["title"])
	}
	if body["starterCode"] == nil {
		t.Error("starter code missing from detail view")
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/problems/999", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing problem status = %d, want 404", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, passingExecutor())
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", token, map[string]any{
		"problemId": 1,
		"language":  "javascript",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	sessionID := body["id"].(string)
	if code := body["code"].(string); code == "" {
		t.Error("session not seeded with starter code")
	}

	rec = doJSON(t, srv, http.MethodPut, "/v1/sessions/"+sessionID+"/code", token, map[string]string{
		"code": "function solution(nums, target) { return [0, 1]; }",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update code status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+sessionID+"/cases", token, map[string]string{
		"input":    "nums = [1,1], target = 2",
		"expected": "[0,1]",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add case status = %d, body %s", rec.Code, rec.Body.String())
	}
	cases := decode(t, rec)["customCases"].([]any)
	if len(cases) != 1 {
		t.Fatalf("custom cases = %d, want 1", len(cases))
	}
	caseID := int(cases[0].(map[string]any)["ID"].(float64))

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/v1/sessions/%s/cases/%d", sessionID, caseID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove case status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/sessions", token, nil)
	sessions := decode(t, rec)["sessions"].([]any)
	if len(sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(sessions))
	}

	rec = doJSON(t, srv, http.MethodDelete, "/v1/sessions/"+sessionID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("abandon status = %d", rec.Code)
	}
	if got := decode(t, rec)["status"]; got != "abandoned" {
		t.Errorf("status = %v, want abandoned", got)
	}
}

func TestSessionOwnership(t *testing.T) {
	srv := newTestServer(t, passingExecutor())
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", token, map[string]any{
		"problemId": 1,
		"language":  "javascript",
	})
	sessionID := decode(t, rec)["id"].(string)

	rec = doJSON(t, srv, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":    "mallory@example.com",
		"password": "secret99",
		"name":     "Mallory",
	})
	other := decode(t, rec)["token"].(string)

	rec = doJSON(t, srv, http.MethodGet, "/v1/sessions/"+sessionID, other, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign session status = %d, want 404", rec.Code)
	}
}

func TestRunAndSubmit(t *testing.T) {
	srv := newTestServer(t, passingExecutor())
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", token, map[string]any{
		"problemId": 1,
		"language":  "javascript",
	})
	sessionID := decode(t, rec)["id"].(string)

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+sessionID+"/runs", token, map[string]string{
		"code": "function solution(nums, target) { /* solved */ }",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d, body %s", rec.Code, rec.Body.String())
	}
	run := decode(t, rec)
	if run["status"] != "completed" {
		t.Errorf("run status = %v, want completed", run["status"])
	}
	result := run["result"].(map[string]any)
	if got := result["test_cases_passed"].(float64); got != 2 {
		t.Errorf("cases passed = %v, want 2", got)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+sessionID+"/submit", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	sess := body["session"].(map[string]any)
	if sess["status"] != "submitted" {
		t.Errorf("session status = %v, want submitted", sess["status"])
	}
	prog := body["progress"].(map[string]any)
	if pts := prog["points"].(float64); pts < 10 {
		t.Errorf("points = %v, want >= 10", pts)
	}
	solved := prog["problems_solved"].([]any)
	if len(solved) != 1 {
		t.Errorf("problems solved = %d, want 1", len(solved))
	}

	// closed sessions reject further runs
	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+sessionID+"/runs", token, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("run after submit status = %d, want 409", rec.Code)
	}
}

func TestSubmitFailureRecordsAttempt(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{}} // every case returns null
	srv := newTestServer(t, exec)
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", token, map[string]any{
		"problemId": 1,
		"language":  "javascript",
	})
	sessionID := decode(t, rec)["id"].(string)

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+sessionID+"/submit", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	run := body["run"].(map[string]any)
	if run["status"] != "failed" {
		t.Errorf("run status = %v, want failed", run["status"])
	}
	prog := body["progress"].(map[string]any)
	if solved := prog["problems_solved"]; solved != nil && len(solved.([]any)) != 0 {
		t.Errorf("problems solved = %v, want none", solved)
	}
	attempted := prog["problems_attempted"].([]any)
	if len(attempted) != 1 {
		t.Errorf("problems attempted = %d, want 1", len(attempted))
	}
}

func TestRunConstructionError(t *testing.T) {
	exec := passingExecutor()
	exec.failCheck = true
	srv := newTestServer(t, exec)
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", token, map[string]any{
		"problemId": 1,
		"language":  "javascript",
	})
	sessionID := decode(t, rec)["id"].(string)

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+sessionID+"/runs", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d, body %s", rec.Code, rec.Body.String())
	}
	run := decode(t, rec)
	if run["status"] != "failed" {
		t.Errorf("run status = %v, want failed", run["status"])
	}
	result := run["result"].(map[string]any)
	if got := result["test_cases_passed"].(float64); got != 0 {
		t.Errorf("cases passed = %v, want 0 on construction error", got)
	}
	if cases, ok := result["cases"].([]any); ok && len(cases) != 0 {
		t.Errorf("attempted cases = %d, want 0", len(cases))
	}
	if exec.invokes != 0 {
		t.Errorf("invokes = %d, want 0", exec.invokes)
	}
}

func TestAnonymousRun(t *testing.T) {
	srv := newTestServer(t, passingExecutor())

	rec := doJSON(t, srv, http.MethodPost, "/v1/runs", "", map[string]any{
		"problemId": 1,
		"language":  "javascript",
		"code":      "function solution(nums, target) {}",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous run status = %d, body %s", rec.Code, rec.Body.String())
	}
	run := decode(t, rec)
	if run["status"] != "completed" {
		t.Errorf("run status = %v, want completed", run["status"])
	}

	// nothing lands in any ledger
	entries := decode(t, doJSON(t, srv, http.MethodGet, "/v1/leaderboard", "", nil))["entries"]
	if entries != nil && len(entries.([]any)) != 0 {
		t.Errorf("leaderboard entries = %v, want none", entries)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/runs", "", map[string]any{
		"problemId": 42,
		"language":  "javascript",
		"code":      "function solution() {}",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown problem status = %d, want 404", rec.Code)
	}
}

func TestProgressEndpoints(t *testing.T) {
	srv := newTestServer(t, passingExecutor())
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/v1/progress", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get progress status = %d", rec.Code)
	}
	prog := decode(t, rec)["progress"].(map[string]any)
	if got := prog["weekly_goal"].(float64); got != 15 {
		t.Errorf("weekly goal = %v, want 15", got)
	}

	rec = doJSON(t, srv, http.MethodPut, "/v1/progress/weekly-goal", token, map[string]int{"goal": 25})
	if rec.Code != http.StatusOK {
		t.Fatalf("set goal status = %d", rec.Code)
	}
	if got := decode(t, rec)["weekly_goal"].(float64); got != 25 {
		t.Errorf("weekly goal = %v, want 25", got)
	}

	rec = doJSON(t, srv, http.MethodPut, "/v1/progress/weekly-goal", token, map[string]int{"goal": 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid goal status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, "/v1/progress/learning-path", token, map[string]any{
		"topic":   "Dynamic Programming",
		"percent": 40,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("learning path status = %d", rec.Code)
	}
	paths := decode(t, rec)["learning_paths"].(map[string]any)
	if got := paths["Dynamic Programming"].(float64); got != 40 {
		t.Errorf("path percent = %v, want 40", got)
	}
}

func TestLeaderboardAfterSolve(t *testing.T) {
	srv := newTestServer(t, passingExecutor())
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", token, map[string]any{
		"problemId": 1,
		"language":  "javascript",
	})
	sessionID := decode(t, rec)["id"].(string)
	doJSON(t, srv, http.MethodPost, "/v1/sessions/"+sessionID+"/submit", token, nil)

	rec = doJSON(t, srv, http.MethodGet, "/v1/leaderboard?limit=10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard status = %d", rec.Code)
	}
	entries := decode(t, rec)["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	top := entries[0].(map[string]any)
	if top["userId"] != "demo@example.com" {
		t.Errorf("top user = %v", top["userId"])
	}
}
