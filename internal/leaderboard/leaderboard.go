// Package leaderboard ranks users by points earned from solved
// problems.
package leaderboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/cphub/cphub/internal/progress"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultLimit = 25
	cacheSize    = 4
	cacheTTL     = 30 * time.Second
)

// Entry is one row of the leaderboard.
type Entry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	Points        int    `json:"points"`
	Level         string `json:"level"`
	Solved        int    `json:"solved"`
	CurrentStreak int    `json:"currentStreak"`
}

// Lister provides every user's progress record.
type Lister interface {
	ListAll() ([]*progress.UserProgress, error)
}

// Service computes ranked standings. Standings are cached briefly, so
// a rank can lag a solve by up to the cache TTL.
type Service struct {
	source Lister
	cache  *expirable.LRU[string, []Entry]
}

// NewService creates a leaderboard service.
func NewService(source Lister) *Service {
	return &Service{
		source: source,
		cache:  expirable.NewLRU[string, []Entry](cacheSize, nil, cacheTTL),
	}
}

// Top returns the highest-ranked users, at most limit entries.
func (s *Service) Top(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	entries, err := s.standings()
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// RankOf returns a single user's entry, or ok=false when the user has
// no progress record.
func (s *Service) RankOf(userID string) (Entry, bool, error) {
	entries, err := s.standings()
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.UserID == userID {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// standings returns the full ranked list. Ties break on solved count,
// then user ID so the order is stable.
func (s *Service) standings() ([]Entry, error) {
	if cached, ok := s.cache.Get("standings"); ok {
		return cached, nil
	}

	records, err := s.source.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Entry{
			UserID:        rec.UserID,
			Points:        rec.Points,
			Level:         rec.Level,
			Solved:        len(rec.ProblemsSolved),
			CurrentStreak: rec.CurrentStreak,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		if entries[i].Solved != entries[j].Solved {
			return entries[i].Solved > entries[j].Solved
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	s.cache.Add("standings", entries)
	return entries, nil
}
