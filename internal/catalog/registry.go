package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cphub/cphub/internal/domain"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	queryCacheSize = 128
	queryCacheTTL  = 5 * time.Minute
)

// Filter narrows a problem listing. Zero values match everything.
type Filter struct {
	Difficulty string
	Category   string
	Tag        string
	Search     string
}

// Registry manages available problems and packs
type Registry struct {
	mu       sync.RWMutex
	problems map[int]*domain.Problem
	bySlug   map[string]*domain.Problem
	packs    map[string]*domain.ProblemPack
	queries  *expirable.LRU[string, []*domain.Problem]
	logger   *slog.Logger
}

// NewRegistry creates a new problem registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		problems: make(map[int]*domain.Problem),
		bySlug:   make(map[string]*domain.Problem),
		packs:    make(map[string]*domain.ProblemPack),
		queries:  expirable.NewLRU[string, []*domain.Problem](queryCacheSize, nil, queryCacheTTL),
		logger:   logger,
	}
}

// LoadFrom loads all packs and their problems from a loader
func (r *Registry) LoadFrom(loader *Loader) error {
	packs, err := loader.LoadAllPacks()
	if err != nil {
		return fmt.Errorf("load packs: %w", err)
	}

	for _, pack := range packs {
		problems, err := loader.LoadPackProblems(pack.ID)
		if err != nil {
			return fmt.Errorf("load pack %s: %w", pack.ID, err)
		}
		if err := r.RegisterPack(pack, problems); err != nil {
			return err
		}
		r.logger.Info("pack loaded",
			slog.String("pack", pack.ID),
			slog.Int("problems", len(problems)))
	}
	return nil
}

// RegisterPack adds a pack and its problems to the registry
func (r *Registry) RegisterPack(pack *domain.ProblemPack, problems []*domain.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range problems {
		if existing, ok := r.problems[p.ID]; ok && existing.Slug != p.Slug {
			return fmt.Errorf("duplicate problem id %d: %s and %s", p.ID, existing.Slug, p.Slug)
		}
	}
	r.packs[pack.ID] = pack
	for _, p := range problems {
		r.problems[p.ID] = p
		r.bySlug[p.Slug] = p
	}
	r.queries.Purge()
	return nil
}

// Get returns a problem by its numeric ID
func (r *Registry) Get(id int) (*domain.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	problem, ok := r.problems[id]
	if !ok {
		return nil, domain.ErrProblemNotFound
	}
	return problem, nil
}

// GetBySlug returns a problem by its slug
func (r *Registry) GetBySlug(slug string) (*domain.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	problem, ok := r.bySlug[slug]
	if !ok {
		return nil, domain.ErrProblemNotFound
	}
	return problem, nil
}

// GetPack returns a pack by ID
func (r *Registry) GetPack(id string) (*domain.ProblemPack, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pack, ok := r.packs[id]
	if !ok {
		return nil, domain.ErrPackNotFound
	}
	return pack, nil
}

// ListPacks returns all registered packs sorted by ID
func (r *Registry) ListPacks() []*domain.ProblemPack {
	r.mu.RLock()
	defer r.mu.RUnlock()

	packs := make([]*domain.ProblemPack, 0, len(r.packs))
	for _, pack := range r.packs {
		packs = append(packs, pack)
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].ID < packs[j].ID })
	return packs
}

// List returns problems matching the filter, sorted by ID. Results for
// a given filter are cached until the next pack registration.
func (r *Registry) List(filter Filter) []*domain.Problem {
	key := filter.Difficulty + "|" + filter.Category + "|" + filter.Tag + "|" + filter.Search
	if cached, ok := r.queries.Get(key); ok {
		return cached
	}

	r.mu.RLock()
	var result []*domain.Problem
	for _, p := range r.problems {
		if matches(p, filter) {
			result = append(result, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	r.queries.Add(key, result)
	return result
}

// Count returns the total number of registered problems
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.problems)
}

func matches(p *domain.Problem, f Filter) bool {
	if f.Difficulty != "" && !strings.EqualFold(string(p.Difficulty), f.Difficulty) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, tag := range p.Tags {
			if strings.EqualFold(tag, f.Tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	return true
}
