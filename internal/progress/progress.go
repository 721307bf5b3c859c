package progress

import (
	"time"

	"github.com/cphub/cphub/internal/domain"
)

// SchemaVersion is stamped on every persisted record so future layout
// changes can migrate old documents instead of discarding them.
const SchemaVersion = 1

// maxRecentActivity bounds the activity log; oldest entries are
// evicted first, keyed on insertion order.
const maxRecentActivity = 50

// UserProgress is one user's practice ledger entry
type UserProgress struct {
	SchemaVersion     int                `json:"schema_version"`
	UserID            string             `json:"user_id"`
	ProblemsSolved    []int              `json:"problems_solved"`
	ProblemsAttempted []int              `json:"problems_attempted"`
	CurrentStreak     int                `json:"current_streak"`
	LongestStreak     int                `json:"longest_streak"`
	TotalTimeSeconds  int                `json:"total_time_seconds"`
	Accuracy          float64            `json:"accuracy"`
	Points            int                `json:"points"`
	Level             string             `json:"level"`
	Achievements      []string           `json:"achievements"`
	WeeklyGoal        int                `json:"weekly_goal"`
	WeeklyProgress    int                `json:"weekly_progress"`
	LastActivityDate  time.Time          `json:"last_activity_date"`
	LearningPaths     map[string]float64 `json:"learning_paths"`
	RecentActivity    []Activity         `json:"recent_activity"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Activity is one entry in the capped recent-activity log
type Activity struct {
	ID          string            `json:"id"`
	Type        ActivityType      `json:"type"`
	ProblemID   int               `json:"problem_id,omitempty"`
	ProblemName string            `json:"problem_name,omitempty"`
	Difficulty  domain.Difficulty `json:"difficulty,omitempty"`
	TimeTaken   int               `json:"time_taken,omitempty"`
	Points      int               `json:"points,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// ActivityType classifies ledger activity entries
type ActivityType string

const (
	ActivitySolve       ActivityType = "solve"
	ActivityAttempt     ActivityType = "attempt"
	ActivityAchievement ActivityType = "achievement"
	ActivityStreak      ActivityType = "streak"
)

// Level tier names, derived from cumulative points
const (
	LevelBronze   = "Bronze"
	LevelSilver   = "Silver"
	LevelGold     = "Gold"
	LevelPlatinum = "Platinum"
	LevelDiamond  = "Diamond"
)

// basePoints maps difficulty to its fixed solve award
var basePoints = map[domain.Difficulty]int{
	domain.DifficultyEasy:   10,
	domain.DifficultyMedium: 25,
	domain.DifficultyHard:   50,
}

// calculatePoints returns base(difficulty) plus a non-negative speed
// bonus: max(0, 10 - timeTakenSeconds/60).
func calculatePoints(difficulty domain.Difficulty, timeTakenSeconds int) int {
	base, ok := basePoints[difficulty]
	if !ok {
		base = basePoints[domain.DifficultyEasy]
	}
	bonus := 10 - timeTakenSeconds/60
	if bonus < 0 {
		bonus = 0
	}
	return base + bonus
}

// calculateLevel maps cumulative points to a tier name. Thresholds are
// inclusive on the lower bound.
func calculateLevel(points int) string {
	switch {
	case points >= 2000:
		return LevelDiamond
	case points >= 1000:
		return LevelPlatinum
	case points >= 500:
		return LevelGold
	case points >= 100:
		return LevelSilver
	default:
		return LevelBronze
	}
}

// recomputeAccuracy derives accuracy from the solved and attempted
// sets. Accuracy is never patched incrementally.
func (p *UserProgress) recomputeAccuracy() {
	total := len(p.ProblemsSolved) + len(p.ProblemsAttempted)
	if total == 0 {
		p.Accuracy = 0
		return
	}
	p.Accuracy = float64(len(p.ProblemsSolved)) / float64(total) * 100
}

// addActivity prepends an entry and evicts past the cap
func (p *UserProgress) addActivity(a Activity) {
	p.RecentActivity = append([]Activity{a}, p.RecentActivity...)
	if len(p.RecentActivity) > maxRecentActivity {
		p.RecentActivity = p.RecentActivity[:maxRecentActivity]
	}
}

// hasSolved reports whether problemID is in the solved set
func (p *UserProgress) hasSolved(problemID int) bool {
	for _, id := range p.ProblemsSolved {
		if id == problemID {
			return true
		}
	}
	return false
}

// hasAttempted reports whether problemID is in the attempted set
func (p *UserProgress) hasAttempted(problemID int) bool {
	for _, id := range p.ProblemsAttempted {
		if id == problemID {
			return true
		}
	}
	return false
}

// hasAchievement reports whether the achievement was already awarded
func (p *UserProgress) hasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// defaultProgress returns a freshly-initialized ledger entry
func defaultProgress(userID string) *UserProgress {
	now := time.Now()
	return &UserProgress{
		SchemaVersion:     SchemaVersion,
		UserID:            userID,
		ProblemsSolved:    []int{},
		ProblemsAttempted: []int{},
		Level:             LevelBronze,
		Achievements:      []string{},
		WeeklyGoal:        15,
		LearningPaths:     map[string]float64{},
		RecentActivity:    []Activity{},
		LastActivityDate:  now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
