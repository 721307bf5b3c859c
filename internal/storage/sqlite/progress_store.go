package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cphub/cphub/internal/progress"
)

// ProgressStore implements progress persistence backed by SQLite.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a new SQLite-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Save persists a progress record (insert or update).
func (s *ProgressStore) Save(p *progress.UserProgress) error {
	solved, err := json.Marshal(p.ProblemsSolved)
	if err != nil {
		return fmt.Errorf("marshal problems_solved: %w", err)
	}
	attempted, err := json.Marshal(p.ProblemsAttempted)
	if err != nil {
		return fmt.Errorf("marshal problems_attempted: %w", err)
	}
	achievements, err := json.Marshal(p.Achievements)
	if err != nil {
		return fmt.Errorf("marshal achievements: %w", err)
	}
	paths, err := json.Marshal(p.LearningPaths)
	if err != nil {
		return fmt.Errorf("marshal learning_paths: %w", err)
	}
	activity, err := json.Marshal(p.RecentActivity)
	if err != nil {
		return fmt.Errorf("marshal recent_activity: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO progress (user_id, schema_version, problems_solved,
			problems_attempted, current_streak, longest_streak,
			total_time_seconds, accuracy, points, level, achievements,
			weekly_goal, weekly_progress, last_activity_date,
			learning_paths, recent_activity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			schema_version=excluded.schema_version,
			problems_solved=excluded.problems_solved,
			problems_attempted=excluded.problems_attempted,
			current_streak=excluded.current_streak,
			longest_streak=excluded.longest_streak,
			total_time_seconds=excluded.total_time_seconds,
			accuracy=excluded.accuracy,
			points=excluded.points,
			level=excluded.level,
			achievements=excluded.achievements,
			weekly_goal=excluded.weekly_goal,
			weekly_progress=excluded.weekly_progress,
			last_activity_date=excluded.last_activity_date,
			learning_paths=excluded.learning_paths,
			recent_activity=excluded.recent_activity,
			updated_at=excluded.updated_at`,
		p.UserID, p.SchemaVersion, solved, attempted,
		p.CurrentStreak, p.LongestStreak, p.TotalTimeSeconds,
		p.Accuracy, p.Points, p.Level, achievements,
		p.WeeklyGoal, p.WeeklyProgress, p.LastActivityDate,
		paths, activity, p.CreatedAt, time.Now())
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Get loads one user's progress record.
func (s *ProgressStore) Get(userID string) (*progress.UserProgress, error) {
	row := s.db.QueryRow(`
		SELECT user_id, schema_version, problems_solved, problems_attempted,
			current_streak, longest_streak, total_time_seconds, accuracy,
			points, level, achievements, weekly_goal, weekly_progress,
			last_activity_date, learning_paths, recent_activity,
			created_at, updated_at
		FROM progress WHERE user_id = ?`, userID)

	p, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, progress.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List loads every progress record.
func (s *ProgressStore) List() ([]*progress.UserProgress, error) {
	rows, err := s.db.Query(`
		SELECT user_id, schema_version, problems_solved, problems_attempted,
			current_streak, longest_streak, total_time_seconds, accuracy,
			points, level, achievements, weekly_goal, weekly_progress,
			last_activity_date, learning_paths, recent_activity,
			created_at, updated_at
		FROM progress`)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var records []*progress.UserProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(row scanner) (*progress.UserProgress, error) {
	var (
		p            progress.UserProgress
		solved       []byte
		attempted    []byte
		achievements []byte
		paths        []byte
		activity     []byte
		lastActivity sql.NullTime
	)
	err := row.Scan(&p.UserID, &p.SchemaVersion, &solved, &attempted,
		&p.CurrentStreak, &p.LongestStreak, &p.TotalTimeSeconds,
		&p.Accuracy, &p.Points, &p.Level, &achievements,
		&p.WeeklyGoal, &p.WeeklyProgress, &lastActivity,
		&paths, &activity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(solved, &p.ProblemsSolved); err != nil {
		return nil, fmt.Errorf("unmarshal problems_solved: %w", err)
	}
	if err := json.Unmarshal(attempted, &p.ProblemsAttempted); err != nil {
		return nil, fmt.Errorf("unmarshal problems_attempted: %w", err)
	}
	if err := json.Unmarshal(achievements, &p.Achievements); err != nil {
		return nil, fmt.Errorf("unmarshal achievements: %w", err)
	}
	if err := json.Unmarshal(paths, &p.LearningPaths); err != nil {
		return nil, fmt.Errorf("unmarshal learning_paths: %w", err)
	}
	if err := json.Unmarshal(activity, &p.RecentActivity); err != nil {
		return nil, fmt.Errorf("unmarshal recent_activity: %w", err)
	}
	if lastActivity.Valid {
		p.LastActivityDate = lastActivity.Time
	}
	return &p, nil
}
