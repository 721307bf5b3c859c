package catalog

import (
	"errors"
	"testing"

	"github.com/cphub/cphub/internal/domain"
)

func testProblem(id int, slug, title string, diff domain.Difficulty, category string, tags ...string) *domain.Problem {
	return &domain.Problem{
		ID:         id,
		Slug:       slug,
		PackID:     "test-pack",
		Title:      title,
		Difficulty: diff,
		Category:   category,
		Tags:       tags,
	}
}

func populatedRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(nil)
	pack := &domain.ProblemPack{ID: "test-pack", Name: "Test Pack"}
	problems := []*domain.Problem{
		testProblem(1, "arrays/two-sum", "Two Sum", domain.DifficultyEasy, "Array", "Array", "Hash Table"),
		testProblem(2, "stacks/valid-parentheses", "Valid Parentheses", domain.DifficultyEasy, "Stack", "Stack", "String"),
		testProblem(3, "arrays/container", "Container With Most Water", domain.DifficultyMedium, "Array", "Array", "Two Pointers"),
	}
	if err := r.RegisterPack(pack, problems); err != nil {
		t.Fatalf("RegisterPack: %v", err)
	}
	return r
}

func TestRegistryGet(t *testing.T) {
	r := populatedRegistry(t)

	problem, err := r.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if problem.Title != "Two Sum" {
		t.Errorf("title = %q", problem.Title)
	}

	if _, err := r.Get(99); !errors.Is(err, domain.ErrProblemNotFound) {
		t.Errorf("Get(99) err = %v, want ErrProblemNotFound", err)
	}
}

func TestRegistryGetBySlug(t *testing.T) {
	r := populatedRegistry(t)

	problem, err := r.GetBySlug("stacks/valid-parentheses")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if problem.ID != 2 {
		t.Errorf("ID = %d, want 2", problem.ID)
	}
}

func TestRegistryDuplicateID(t *testing.T) {
	r := populatedRegistry(t)

	pack := &domain.ProblemPack{ID: "other-pack"}
	clash := []*domain.Problem{testProblem(1, "other/clash", "Clash", domain.DifficultyHard, "Array")}
	if err := r.RegisterPack(pack, clash); err == nil {
		t.Error("expected duplicate ID error")
	}
}

func TestRegistryListFilters(t *testing.T) {
	r := populatedRegistry(t)

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"all", Filter{}, []int{1, 2, 3}},
		{"by difficulty", Filter{Difficulty: "easy"}, []int{1, 2}},
		{"by category", Filter{Category: "Stack"}, []int{2}},
		{"by tag", Filter{Tag: "two pointers"}, []int{3}},
		{"by search", Filter{Search: "water"}, []int{3}},
		{"combined", Filter{Difficulty: "Easy", Category: "Array"}, []int{1}},
		{"no match", Filter{Difficulty: "Hard"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.List(tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("List returned %d problems, want %d", len(got), len(tt.want))
			}
			for i, p := range got {
				if p.ID != tt.want[i] {
					t.Errorf("result[%d].ID = %d, want %d", i, p.ID, tt.want[i])
				}
			}
		})
	}
}

func TestRegistryListCacheInvalidation(t *testing.T) {
	r := populatedRegistry(t)

	if got := r.List(Filter{Difficulty: "Hard"}); len(got) != 0 {
		t.Fatalf("unexpected hard problems: %d", len(got))
	}

	pack := &domain.ProblemPack{ID: "hard-pack"}
	hard := []*domain.Problem{testProblem(10, "hard/one", "Hard One", domain.DifficultyHard, "Array")}
	if err := r.RegisterPack(pack, hard); err != nil {
		t.Fatalf("RegisterPack: %v", err)
	}

	if got := r.List(Filter{Difficulty: "Hard"}); len(got) != 1 {
		t.Errorf("cached result survived registration, got %d problems", len(got))
	}
}

func TestRegistryCountAndPacks(t *testing.T) {
	r := populatedRegistry(t)

	if r.Count() != 3 {
		t.Errorf("Count = %d, want 3", r.Count())
	}
	packs := r.ListPacks()
	if len(packs) != 1 || packs[0].ID != "test-pack" {
		t.Errorf("packs = %v", packs)
	}
	if _, err := r.GetPack("missing"); !errors.Is(err, domain.ErrPackNotFound) {
		t.Errorf("GetPack err = %v, want ErrPackNotFound", err)
	}
}
