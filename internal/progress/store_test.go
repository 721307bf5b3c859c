package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cphub/cphub/internal/domain"
)

func TestGetProgress_CorruptRecordFallsBack(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	s := NewService(store)

	// Sabotage the stored record.
	if err := os.MkdirAll(filepath.Join(dir, "progress"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "progress", "user@example.com.json")
	if err := os.WriteFile(path, []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := s.GetProgress("user@example.com")
	if p == nil {
		t.Fatal("GetProgress() returned nil for corrupt record")
	}
	if p.Level != LevelBronze || p.Points != 0 {
		t.Errorf("corrupt record did not reset to defaults: %+v", p)
	}
}

func TestLocalStore_List(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	s := NewService(store)

	s.SolveProblem("a@x.com", 1, "p", domain.DifficultyEasy, 60)
	s.SolveProblem("b@x.com", 2, "q", domain.DifficultyMedium, 60)

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("List() length = %d; want 2", len(entries))
	}
}
