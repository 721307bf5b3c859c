package session

import (
	"errors"
	"testing"

	"github.com/cphub/cphub/internal/domain"
	"github.com/cphub/cphub/internal/storage/local"
	"github.com/google/uuid"
)

type fakeCatalog struct {
	problems map[int]*domain.Problem
}

func (f *fakeCatalog) Get(id int) (*domain.Problem, error) {
	p, ok := f.problems[id]
	if !ok {
		return nil, domain.ErrProblemNotFound
	}
	return p, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	base, err := local.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	store := NewLocalStore(base)
	catalog := &fakeCatalog{problems: map[int]*domain.Problem{
		1: {
			ID:         1,
			Slug:       "arrays/two-sum",
			Title:      "Two Sum",
			Difficulty: domain.DifficultyEasy,
			StarterCode: map[string]string{
				"javascript": "function solution(nums, target) {\n}",
				"python":     "def solution(nums, target):\n    pass",
			},
			TestCases: []domain.TestCase{
				{ID: 1, Input: "nums = [2,7,11,15], target = 9", Expected: "[0,1]"},
				{ID: 2, Input: "nums = [3,2,4], target = 6", Expected: "[1,2]"},
			},
		},
	}}
	return NewService(store, catalog, nil)
}

func TestCreateSeedsStarterCode(t *testing.T) {
	svc := newTestService(t)

	sess, err := svc.Create("alice", 1, "python")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Status != StatusActive {
		t.Errorf("status = %q", sess.Status)
	}
	if sess.Code != "def solution(nums, target):\n    pass" {
		t.Errorf("code = %q", sess.Code)
	}
}

func TestCreateUnknownProblem(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Create("alice", 42, "python"); !errors.Is(err, domain.ErrProblemNotFound) {
		t.Errorf("err = %v, want ErrProblemNotFound", err)
	}
}

func TestCreateBadLanguage(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Create("alice", 1, "cobol"); err == nil {
		t.Error("expected error for unsupported language")
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc := newTestService(t)
	sess, _ := svc.Create("alice", 1, "python")

	if _, err := svc.Get(sess.ID, "mallory"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(sess.ID, "alice"); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
}

func TestUpdateCode(t *testing.T) {
	svc := newTestService(t)
	sess, _ := svc.Create("alice", 1, "javascript")

	updated, err := svc.UpdateCode(sess.ID, "alice", "function solution() { return 42; }")
	if err != nil {
		t.Fatalf("UpdateCode: %v", err)
	}
	if updated.Code != "function solution() { return 42; }" {
		t.Errorf("code = %q", updated.Code)
	}

	reloaded, _ := svc.Get(sess.ID, "alice")
	if reloaded.Code != updated.Code {
		t.Error("code change was not persisted")
	}
}

func TestSwitchLanguageResetsCode(t *testing.T) {
	svc := newTestService(t)
	sess, _ := svc.Create("alice", 1, "javascript")
	svc.UpdateCode(sess.ID, "alice", "scribbles")

	switched, err := svc.SwitchLanguage(sess.ID, "alice", "python")
	if err != nil {
		t.Fatalf("SwitchLanguage: %v", err)
	}
	if switched.Language != "python" {
		t.Errorf("language = %q", switched.Language)
	}
	if switched.Code != "def solution(nums, target):\n    pass" {
		t.Errorf("code = %q, want python starter", switched.Code)
	}
}

func TestCustomCases(t *testing.T) {
	svc := newTestService(t)
	sess, _ := svc.Create("alice", 1, "python")

	withCase, err := svc.AddCustomCase(sess.ID, "alice", "nums = [1,1], target = 2", "[0,1]")
	if err != nil {
		t.Fatalf("AddCustomCase: %v", err)
	}
	if len(withCase.CustomCases) != 1 {
		t.Fatalf("custom cases = %d", len(withCase.CustomCases))
	}
	tc := withCase.CustomCases[0]
	if tc.ID != 3 {
		t.Errorf("case ID = %d, want 3 (after the problem's two cases)", tc.ID)
	}
	if !tc.Custom {
		t.Error("case not flagged custom")
	}

	removed, err := svc.RemoveCustomCase(sess.ID, "alice", tc.ID)
	if err != nil {
		t.Fatalf("RemoveCustomCase: %v", err)
	}
	if len(removed.CustomCases) != 0 {
		t.Errorf("custom cases = %d after removal", len(removed.CustomCases))
	}

	if _, err := svc.RemoveCustomCase(sess.ID, "alice", 99); err == nil {
		t.Error("expected error removing unknown case")
	}
}

func TestSubmitClosesSession(t *testing.T) {
	svc := newTestService(t)
	sess, _ := svc.Create("alice", 1, "python")

	submitted, err := svc.Submit(sess.ID, "alice")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != StatusSubmitted {
		t.Errorf("status = %q", submitted.Status)
	}
	if submitted.SubmittedAt == nil {
		t.Error("submittedAt not stamped")
	}

	if _, err := svc.UpdateCode(sess.ID, "alice", "late edit"); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestAbandon(t *testing.T) {
	svc := newTestService(t)
	sess, _ := svc.Create("alice", 1, "python")

	abandoned, err := svc.Abandon(sess.ID, "alice")
	if err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if abandoned.Status != StatusAbandoned {
		t.Errorf("status = %q", abandoned.Status)
	}
}

func TestAttachRun(t *testing.T) {
	svc := newTestService(t)
	sess, _ := svc.Create("alice", 1, "python")
	runID := uuid.New()

	updated, err := svc.AttachRun(sess.ID, "alice", runID)
	if err != nil {
		t.Fatalf("AttachRun: %v", err)
	}
	if updated.LastRunID != runID {
		t.Errorf("lastRunID = %s", updated.LastRunID)
	}
}

func TestListForUser(t *testing.T) {
	svc := newTestService(t)
	svc.Create("alice", 1, "python")
	svc.Create("alice", 1, "javascript")
	svc.Create("bob", 1, "python")

	sessions, err := svc.ListForUser("alice")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("sessions = %d, want 2", len(sessions))
	}
}
