package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/cphub/cphub/internal/domain"
	"github.com/google/uuid"
)

func testSubmission(userID string, problemID int, when time.Time) *domain.Submission {
	return &domain.Submission{
		ID:            uuid.New(),
		SessionID:     uuid.New(),
		UserID:        userID,
		ProblemID:     problemID,
		Language:      "javascript",
		Code:          "function solution() {}",
		Status:        domain.RunStatusCompleted,
		Passed:        3,
		Total:         3,
		Output:        "3/3 test cases passed",
		ExecutionTime: 120 * time.Millisecond,
		CreatedAt:     when,
	}
}

func TestSubmissionStoreRoundTrip(t *testing.T) {
	store := NewSubmissionStore(newTestDB(t))

	sub := testSubmission("alice", 1, time.Now().Truncate(time.Second))
	if err := store.Save(sub); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SessionID != sub.SessionID {
		t.Errorf("sessionID = %s, want %s", got.SessionID, sub.SessionID)
	}
	if got.Passed != 3 || got.Total != 3 {
		t.Errorf("passed/total = %d/%d", got.Passed, got.Total)
	}
	if got.ExecutionTime != 120*time.Millisecond {
		t.Errorf("executionTime = %s", got.ExecutionTime)
	}
}

func TestSubmissionStoreGetMissing(t *testing.T) {
	store := NewSubmissionStore(newTestDB(t))

	if _, err := store.Get(uuid.New()); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestSubmissionStoreListByUser(t *testing.T) {
	store := NewSubmissionStore(newTestDB(t))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		if err := store.Save(testSubmission("alice", i+1, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	store.Save(testSubmission("bob", 1, base))

	subs, err := store.ListByUser("alice", 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("submissions = %d, want 3", len(subs))
	}
	// Newest first
	if subs[0].ProblemID != 3 {
		t.Errorf("first submission problem = %d, want 3", subs[0].ProblemID)
	}

	limited, _ := store.ListByUser("alice", 2)
	if len(limited) != 2 {
		t.Errorf("limited = %d, want 2", len(limited))
	}
}

func TestSubmissionStoreListByProblem(t *testing.T) {
	store := NewSubmissionStore(newTestDB(t))

	now := time.Now()
	store.Save(testSubmission("alice", 1, now))
	store.Save(testSubmission("alice", 1, now.Add(time.Minute)))
	store.Save(testSubmission("alice", 2, now))

	subs, err := store.ListByProblem("alice", 1)
	if err != nil {
		t.Fatalf("ListByProblem: %v", err)
	}
	if len(subs) != 2 {
		t.Errorf("submissions = %d, want 2", len(subs))
	}
}
