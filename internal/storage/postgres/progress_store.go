package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/cphub/cphub/internal/progress"
)

// ProgressStore implements progress persistence backed by PostgreSQL.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a new PostgreSQL-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Save persists a progress record (insert or update).
func (s *ProgressStore) Save(p *progress.UserProgress) error {
	paths, err := jsonbColumn(p.LearningPaths)
	if err != nil {
		return fmt.Errorf("marshal learning_paths: %w", err)
	}
	activity, err := jsonbColumn(p.RecentActivity)
	if err != nil {
		return fmt.Errorf("marshal recent_activity: %w", err)
	}

	_, err = s.db.ExecContext(context.Background(), `
		INSERT INTO progress (user_id, schema_version, problems_solved,
			problems_attempted, current_streak, longest_streak,
			total_time_seconds, accuracy, points, level, achievements,
			weekly_goal, weekly_progress, last_activity_date,
			learning_paths, recent_activity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (user_id) DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			problems_solved = EXCLUDED.problems_solved,
			problems_attempted = EXCLUDED.problems_attempted,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			total_time_seconds = EXCLUDED.total_time_seconds,
			accuracy = EXCLUDED.accuracy,
			points = EXCLUDED.points,
			level = EXCLUDED.level,
			achievements = EXCLUDED.achievements,
			weekly_goal = EXCLUDED.weekly_goal,
			weekly_progress = EXCLUDED.weekly_progress,
			last_activity_date = EXCLUDED.last_activity_date,
			learning_paths = EXCLUDED.learning_paths,
			recent_activity = EXCLUDED.recent_activity,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.SchemaVersion,
		pq.Array(p.ProblemsSolved), pq.Array(p.ProblemsAttempted),
		p.CurrentStreak, p.LongestStreak, p.TotalTimeSeconds,
		p.Accuracy, p.Points, p.Level, pq.Array(p.Achievements),
		p.WeeklyGoal, p.WeeklyProgress, nullTime(p.LastActivityDate),
		paths, activity, p.CreatedAt, time.Now())
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Get loads one user's progress record.
func (s *ProgressStore) Get(userID string) (*progress.UserProgress, error) {
	row := s.db.QueryRowContext(context.Background(), `
		SELECT user_id, schema_version, problems_solved, problems_attempted,
			current_streak, longest_streak, total_time_seconds, accuracy,
			points, level, achievements, weekly_goal, weekly_progress,
			last_activity_date, learning_paths, recent_activity,
			created_at, updated_at
		FROM progress WHERE user_id = $1`, userID)

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
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT user_id, schema_version, problems_solved, problems_attempted,
			current_streak, longest_streak, total_time_seconds, accuracy,
			points, level, achievements, weekly_goal, weekly_progress,
			last_activity_date, learning_paths, recent_activity,
			created_at, updated_at
		FROM progress ORDER BY points DESC`)
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
		solved       pq.Int64Array
		attempted    pq.Int64Array
		achievements pq.StringArray
		paths        pqtype.NullRawMessage
		activity     pqtype.NullRawMessage
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

	p.ProblemsSolved = intSlice(solved)
	p.ProblemsAttempted = intSlice(attempted)
	p.Achievements = achievements
	if lastActivity.Valid {
		p.LastActivityDate = lastActivity.Time
	}
	if paths.Valid {
		if err := json.Unmarshal(paths.RawMessage, &p.LearningPaths); err != nil {
			return nil, fmt.Errorf("unmarshal learning_paths: %w", err)
		}
	}
	if activity.Valid {
		if err := json.Unmarshal(activity.RawMessage, &p.RecentActivity); err != nil {
			return nil, fmt.Errorf("unmarshal recent_activity: %w", err)
		}
	}
	return &p, nil
}

func jsonbColumn(v any) (pqtype.NullRawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func intSlice(a pq.Int64Array) []int {
	out := make([]int, len(a))
	for i, v := range a {
		out[i] = int(v)
	}
	return out
}
