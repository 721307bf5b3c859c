package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/cphub/cphub/internal/progress"
)

func TestProgressStoreRoundTrip(t *testing.T) {
	store := NewProgressStore(newTestDB(t))

	now := time.Now().Truncate(time.Second)
	rec := &progress.UserProgress{
		SchemaVersion:     1,
		UserID:            "alice@example.com",
		ProblemsSolved:    []int{1, 3},
		ProblemsAttempted: []int{2},
		CurrentStreak:     4,
		LongestStreak:     9,
		TotalTimeSeconds:  1200,
		Accuracy:          66.7,
		Points:            135,
		Level:             "Silver",
		Achievements:      []string{"first-solve"},
		WeeklyGoal:        15,
		WeeklyProgress:    3,
		LastActivityDate:  now,
		LearningPaths:     map[string]float64{"arrays": 40},
		RecentActivity: []progress.Activity{
			{ID: "activity_1", Type: progress.ActivitySolve, ProblemName: "Two Sum", Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get("alice@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Points != 135 || got.Level != "Silver" {
		t.Errorf("points/level = %d/%s", got.Points, got.Level)
	}
	if len(got.ProblemsSolved) != 2 || got.ProblemsSolved[1] != 3 {
		t.Errorf("solved = %v", got.ProblemsSolved)
	}
	if got.LearningPaths["arrays"] != 40 {
		t.Errorf("learning paths = %v", got.LearningPaths)
	}
	if len(got.RecentActivity) != 1 || got.RecentActivity[0].ProblemName != "Two Sum" {
		t.Errorf("activity = %v", got.RecentActivity)
	}
}

func TestProgressStoreUpsert(t *testing.T) {
	store := NewProgressStore(newTestDB(t))

	rec := &progress.UserProgress{UserID: "bob", Points: 10, Level: "Bronze", CreatedAt: time.Now()}
	if err := store.Save(rec); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	rec.Points = 60
	if err := store.Save(rec); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := store.Get("bob")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Points != 60 {
		t.Errorf("points = %d, want 60", got.Points)
	}
}

func TestProgressStoreGetMissing(t *testing.T) {
	store := NewProgressStore(newTestDB(t))

	if _, err := store.Get("ghost"); !errors.Is(err, progress.ErrNotFound) {
		t.Errorf("err = %v, want progress.ErrNotFound", err)
	}
}

func TestProgressStoreList(t *testing.T) {
	store := NewProgressStore(newTestDB(t))

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(&progress.UserProgress{UserID: id, Level: "Bronze", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("records = %d, want 3", len(records))
	}
}
