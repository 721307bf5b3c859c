package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// cmdProgress shows the signed-in user's ledger
func cmdProgress() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'cphub start' first)")
	}

	var resp struct {
		Progress struct {
			ProblemsSolved    []int    `json:"problems_solved"`
			ProblemsAttempted []int    `json:"problems_attempted"`
			CurrentStreak     int      `json:"current_streak"`
			LongestStreak     int      `json:"longest_streak"`
			Points            int      `json:"points"`
			Level             string   `json:"level"`
			Accuracy          float64  `json:"accuracy"`
			WeeklyGoal        int      `json:"weekly_goal"`
			WeeklyProgress    int      `json:"weekly_progress"`
			Achievements      []string `json:"achievements"`
			RecentActivity    []struct {
				Type        string    `json:"type"`
				ProblemName string    `json:"problem_name"`
				Points      int       `json:"points"`
				Timestamp   time.Time `json:"timestamp"`
			} `json:"recent_activity"`
		} `json:"progress"`
		Rank int `json:"rank"`
	}
	if err := apiRequest(http.MethodGet, "/v1/progress", nil, &resp); err != nil {
		return err
	}
	p := resp.Progress

	fmt.Println("Progress")
	fmt.Println("========")
	fmt.Printf("Level:     %s (%d points)\n", p.Level, p.Points)
	if resp.Rank > 0 {
		fmt.Printf("Rank:      #%d\n", resp.Rank)
	}
	fmt.Printf("Solved:    %d (%d attempted)\n", len(p.ProblemsSolved), len(p.ProblemsAttempted))
	fmt.Printf("Accuracy:  %.1f%%\n", p.Accuracy)
	fmt.Printf("Streak:    %d day(s), longest %d\n", p.CurrentStreak, p.LongestStreak)

	weekly := 0.0
	if p.WeeklyGoal > 0 {
		weekly = float64(p.WeeklyProgress) / float64(p.WeeklyGoal)
	}
	fmt.Printf("Weekly:    %s %d/%d\n", renderProgressBar(weekly, 20), p.WeeklyProgress, p.WeeklyGoal)

	if len(p.Achievements) > 0 {
		fmt.Println("\nAchievements")
		fmt.Println("------------")
		for _, a := range p.Achievements {
			fmt.Printf("  ★ %s\n", a)
		}
	}

	if len(p.RecentActivity) > 0 {
		fmt.Println("\nRecent Activity")
		fmt.Println("---------------")
		for i, a := range p.RecentActivity {
			if i >= 10 {
				break
			}
			line := fmt.Sprintf("%-10s %s", a.Type, a.ProblemName)
			if a.Points > 0 {
				line += fmt.Sprintf(" (+%d)", a.Points)
			}
			fmt.Printf("  %s  %s\n", a.Timestamp.Format("Jan 02 15:04"), line)
		}
	}

	return nil
}

// cmdLeaderboard shows the points standings
func cmdLeaderboard(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'cphub start' first)")
	}

	path := "/v1/leaderboard"
	if len(args) > 0 {
		if _, err := strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("usage: cphub leaderboard [limit]")
		}
		path += "?limit=" + args[0]
	}

	var resp struct {
		Entries []struct {
			Rank          int    `json:"rank"`
			UserID        string `json:"userId"`
			Points        int    `json:"points"`
			Level         string `json:"level"`
			Solved        int    `json:"solved"`
			CurrentStreak int    `json:"currentStreak"`
		} `json:"entries"`
	}
	if err := apiRequest(http.MethodGet, path, nil, &resp); err != nil {
		return err
	}

	if len(resp.Entries) == 0 {
		fmt.Println("No one on the board yet.")
		return nil
	}

	fmt.Printf("%-5s %-30s %-8s %-10s %-7s %s\n", "RANK", "USER", "POINTS", "LEVEL", "SOLVED", "STREAK")
	for _, e := range resp.Entries {
		fmt.Printf("%-5d %-30s %-8d %-10s %-7d %d\n",
			e.Rank, e.UserID, e.Points, e.Level, e.Solved, e.CurrentStreak)
	}
	return nil
}
