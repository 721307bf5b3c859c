package domain

import "fmt"

// Problem represents a single catalog entry. Problems are immutable
// after load; holders reference them, never copy them.
type Problem struct {
	ID             int
	Slug           string // "arrays/two-sum"
	PackID         string
	Title          string
	Difficulty     Difficulty
	Category       string
	Tags           []string
	Companies      []string
	AcceptanceRate float64
	Description    string
	Examples       []Example
	Constraints    []string
	StarterCode    map[string]string // language name -> starter source
	Solution       string            // reference solution, optional
	TestCases      []TestCase
}

// Example is a worked input/output pair shown alongside the description.
type Example struct {
	Input       string
	Output      string
	Explanation string
}

// TestCase holds one graded input/expected-output pair. Input and
// expected output are free-form text, not structured values.
type TestCase struct {
	ID          int
	Input       string
	Expected    string
	Description string
	// Custom marks a session-scoped case supplied by the user. Custom
	// cases are discarded when the session ends.
	Custom bool
}

// Difficulty represents problem difficulty
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// IsValid checks if the difficulty is a known tier
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// String returns the difficulty as a string
func (d Difficulty) String() string {
	return string(d)
}

// ParseDifficulty converts a string to a Difficulty
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !d.IsValid() {
		return "", fmt.Errorf("unknown difficulty: %s", s)
	}
	return d, nil
}

// ProblemPack represents a collection of related problems
type ProblemPack struct {
	ID          string
	Name        string
	Version     string
	Description string
	ProblemIDs  []string // ordered list of problem slugs
}

// StarterFor returns the starter code for a language, or the empty
// string when the problem carries none.
func (p *Problem) StarterFor(language string) string {
	return p.StarterCode[language]
}

// HasTestCases reports whether the problem ships graded cases.
func (p *Problem) HasTestCases() bool {
	return len(p.TestCases) > 0
}
