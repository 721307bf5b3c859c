package local

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := setupStore(t)

	in := record{Name: "two-sum", Count: 3}
	if err := store.Save("progress", "user@example.com", in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out record
	if err := store.Load("progress", "user@example.com", &out); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out != in {
		t.Errorf("Load() = %+v; want %+v", out, in)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := setupStore(t)

	var out record
	err := store.Load("progress", "nobody", &out)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v; want ErrNotFound", err)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "progress"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "progress", "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out record
	err = store.Load("progress", "bad", &out)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load() error = %v; want ErrCorrupt", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store := setupStore(t)

	store.Save("sessions", "s1", record{Name: "a"})
	if err := store.Delete("sessions", "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists("sessions", "s1") {
		t.Error("Exists() = true after Delete()")
	}
	if err := store.Delete("sessions", "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v; want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	store := setupStore(t)

	ids, err := store.List("empty")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("List() = %v; want empty", ids)
	}

	store.Save("users", "a@x.com", record{})
	store.Save("users", "b@x.com", record{})

	ids, err = store.List("users")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("List() length = %d; want 2", len(ids))
	}
}

func TestStore_SanitizesIDs(t *testing.T) {
	store := setupStore(t)

	if err := store.Save("progress", "a/b:c", record{Name: "x"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	var out record
	if err := store.Load("progress", "a/b:c", &out); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.Name != "x" {
		t.Errorf("Name = %q; want %q", out.Name, "x")
	}
}
