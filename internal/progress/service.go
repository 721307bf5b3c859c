package progress

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cphub/cphub/internal/domain"
	"github.com/google/uuid"
)

// ErrNotFound indicates no ledger entry exists for a user
var ErrNotFound = errors.New("progress not found")

// Store is the persistence interface for ledger entries, keyed by
// user id. Implementations do whole-record writes, last writer wins.
type Store interface {
	Get(userID string) (*UserProgress, error)
	Save(p *UserProgress) error
	List() ([]*UserProgress, error)
}

// Achievement ids awarded by the ledger
const (
	AchievementFirstSolve = "first-solve"
	AchievementStreak7    = "streak-7"
	AchievementStreak30   = "streak-30"
	AchievementPoints1000 = "points-1000"
)

// Service is the progress ledger: durable bookkeeping of one user's
// practice history. All reads and writes are best-effort; a failed
// read degrades to a default record and a failed write is logged, not
// raised, so the caller's flow never breaks on ledger trouble.
type Service struct {
	store Store
}

// NewService creates a new ledger service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetProgress returns the user's ledger entry, lazily creating a
// default one on first read or when the stored record is unreadable.
func (s *Service) GetProgress(userID string) *UserProgress {
	p, err := s.store.Get(userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("progress record unreadable, resetting to default",
				"user", userID, "error", err)
		}
		p = defaultProgress(userID)
		s.persist(p)
		return p
	}
	return p
}

// SolveProblem records a successful submission: moves the problem into
// the solved set, advances the streak under the once-per-calendar-day
// rule, awards points and recomputes the level, and appends a solve
// activity entry. Returns the updated record.
func (s *Service) SolveProblem(userID string, problemID int, title string, difficulty domain.Difficulty, timeTakenSeconds int) *UserProgress {
	p := s.GetProgress(userID)
	now := time.Now()

	if !p.hasSolved(problemID) {
		p.ProblemsSolved = append(p.ProblemsSolved, problemID)
	}
	// A solved problem never stays in the attempted set.
	p.ProblemsAttempted = removeID(p.ProblemsAttempted, problemID)

	s.advanceStreak(p, now)

	p.TotalTimeSeconds += timeTakenSeconds
	p.recomputeAccuracy()

	points := calculatePoints(difficulty, timeTakenSeconds)
	p.Points += points
	p.Level = calculateLevel(p.Points)
	p.WeeklyProgress++
	p.LastActivityDate = now
	p.UpdatedAt = now

	p.addActivity(Activity{
		ID:          activityID(),
		Type:        ActivitySolve,
		ProblemID:   problemID,
		ProblemName: title,
		Difficulty:  difficulty,
		TimeTaken:   timeTakenSeconds,
		Points:      points,
		Timestamp:   now,
	})

	s.awardAchievements(p, now)
	s.persist(p)
	return p
}

// AttemptProblem records a failed submission: the problem joins the
// attempted set unless already solved or attempted. No points, no
// streak movement.
func (s *Service) AttemptProblem(userID string, problemID int, title string, difficulty domain.Difficulty, timeTakenSeconds int) *UserProgress {
	p := s.GetProgress(userID)
	now := time.Now()

	if !p.hasSolved(problemID) && !p.hasAttempted(problemID) {
		p.ProblemsAttempted = append(p.ProblemsAttempted, problemID)
	}

	p.TotalTimeSeconds += timeTakenSeconds
	p.recomputeAccuracy()
	p.LastActivityDate = now
	p.UpdatedAt = now

	p.addActivity(Activity{
		ID:          activityID(),
		Type:        ActivityAttempt,
		ProblemID:   problemID,
		ProblemName: title,
		Difficulty:  difficulty,
		TimeTaken:   timeTakenSeconds,
		Timestamp:   now,
	})

	s.persist(p)
	return p
}

// UpdateLearningPath sets the completion percentage for a topic
func (s *Service) UpdateLearningPath(userID, topic string, percent float64) *UserProgress {
	p := s.GetProgress(userID)
	if p.LearningPaths == nil {
		p.LearningPaths = map[string]float64{}
	}
	p.LearningPaths[topic] = percent
	p.UpdatedAt = time.Now()
	s.persist(p)
	return p
}

// SetWeeklyGoal sets the weekly solve target
func (s *Service) SetWeeklyGoal(userID string, goal int) *UserProgress {
	p := s.GetProgress(userID)
	p.WeeklyGoal = goal
	p.UpdatedAt = time.Now()
	s.persist(p)
	return p
}

// ResetWeeklyProgress zeroes the weekly counter
func (s *Service) ResetWeeklyProgress(userID string) *UserProgress {
	p := s.GetProgress(userID)
	p.WeeklyProgress = 0
	p.UpdatedAt = time.Now()
	s.persist(p)
	return p
}

// ListAll returns every ledger entry; used by the leaderboard
func (s *Service) ListAll() ([]*UserProgress, error) {
	entries, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return entries, nil
}

// advanceStreak applies the once-per-calendar-day streak rule: same
// day leaves the streak alone, the next day increments it, a gap of
// two or more days resets it to 1.
func (s *Service) advanceStreak(p *UserProgress, now time.Time) {
	switch daysBetween(p.LastActivityDate, now) {
	case 0:
		// Already counted today; first-ever solve still starts at 1.
		if p.CurrentStreak == 0 {
			p.CurrentStreak = 1
		}
	case 1:
		p.CurrentStreak++
	default:
		p.CurrentStreak = 1
	}
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
}

// awardAchievements grants any newly-earned achievements and logs them
// as activity entries.
func (s *Service) awardAchievements(p *UserProgress, now time.Time) {
	award := func(id string) {
		if p.hasAchievement(id) {
			return
		}
		p.Achievements = append(p.Achievements, id)
		p.addActivity(Activity{
			ID:          activityID(),
			Type:        ActivityAchievement,
			ProblemName: id,
			Timestamp:   now,
		})
	}

	if len(p.ProblemsSolved) >= 1 {
		award(AchievementFirstSolve)
	}
	if p.CurrentStreak >= 7 {
		award(AchievementStreak7)
	}
	if p.CurrentStreak >= 30 {
		award(AchievementStreak30)
	}
	if p.Points >= 1000 {
		award(AchievementPoints1000)
	}
}

// persist writes the record, logging failures instead of raising them
func (s *Service) persist(p *UserProgress) {
	if err := s.store.Save(p); err != nil {
		slog.Error("progress write failed", "user", p.UserID, "error", err)
	}
}

// daysBetween counts calendar days from a to b in local time
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.Local)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.Local)
	return int(end.Sub(start).Hours() / 24)
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func activityID() string {
	return "activity_" + uuid.NewString()
}
