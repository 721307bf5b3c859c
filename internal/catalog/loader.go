package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cphub/cphub/internal/domain"
	"gopkg.in/yaml.v3"
)

// PackFile represents the YAML structure for a problem pack manifest
type PackFile struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Problems    []string `yaml:"problems"`
}

// ProblemFile represents the YAML structure for a single problem
type ProblemFile struct {
	ID             int               `yaml:"id"`
	Title          string            `yaml:"title"`
	Difficulty     string            `yaml:"difficulty"`
	Category       string            `yaml:"category"`
	Tags           []string          `yaml:"tags"`
	Companies      []string          `yaml:"companies"`
	AcceptanceRate float64           `yaml:"acceptance_rate"`
	Description    string            `yaml:"description"`
	Examples       []struct {
		Input       string `yaml:"input"`
		Output      string `yaml:"output"`
		Explanation string `yaml:"explanation"`
	} `yaml:"examples"`
	Constraints []string          `yaml:"constraints"`
	StarterCode map[string]string `yaml:"starter_code"`
	Solution    string            `yaml:"solution"`
	TestCases   []struct {
		ID          int    `yaml:"id"`
		Input       string `yaml:"input"`
		Expected    string `yaml:"expected"`
		Description string `yaml:"description"`
	} `yaml:"test_cases"`
}

// Loader handles loading problems from YAML files
type Loader struct {
	basePath string
}

// NewLoader creates a new problem loader
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// LoadPack loads a pack manifest from a directory
func (l *Loader) LoadPack(packID string) (*domain.ProblemPack, error) {
	packPath := filepath.Join(l.basePath, packID, "pack.yaml")

	data, err := os.ReadFile(packPath)
	if err != nil {
		return nil, fmt.Errorf("read pack file: %w", err)
	}

	var packFile PackFile
	if err := yaml.Unmarshal(data, &packFile); err != nil {
		return nil, fmt.Errorf("parse pack file: %w", err)
	}

	pack := &domain.ProblemPack{
		ID:          packFile.ID,
		Name:        packFile.Name,
		Version:     packFile.Version,
		Description: packFile.Description,
		ProblemIDs:  make([]string, len(packFile.Problems)),
	}
	copy(pack.ProblemIDs, packFile.Problems)
	return pack, nil
}

// LoadAllPacks loads every pack manifest under the base path
func (l *Loader) LoadAllPacks() ([]*domain.ProblemPack, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("read packs directory: %w", err)
	}

	var packs []*domain.ProblemPack
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pack, err := l.LoadPack(entry.Name())
		if err != nil {
			// Directories without a manifest are not packs.
			continue
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

// LoadProblem loads a single problem by its slug ("arrays/two-sum")
func (l *Loader) LoadProblem(packID, slug string) (*domain.Problem, error) {
	if strings.Contains(slug, "..") {
		return nil, fmt.Errorf("invalid problem slug: %s", slug)
	}
	path := filepath.Join(l.basePath, packID, slug+".yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read problem file: %w", err)
	}

	var pf ProblemFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse problem file %s: %w", slug, err)
	}

	difficulty, err := domain.ParseDifficulty(pf.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", slug, err)
	}

	problem := &domain.Problem{
		ID:             pf.ID,
		Slug:           slug,
		PackID:         packID,
		Title:          pf.Title,
		Difficulty:     difficulty,
		Category:       pf.Category,
		Tags:           pf.Tags,
		Companies:      pf.Companies,
		AcceptanceRate: pf.AcceptanceRate,
		Description:    pf.Description,
		Constraints:    pf.Constraints,
		StarterCode:    pf.StarterCode,
		Solution:       pf.Solution,
	}

	for _, ex := range pf.Examples {
		problem.Examples = append(problem.Examples, domain.Example{
			Input:       ex.Input,
			Output:      ex.Output,
			Explanation: ex.Explanation,
		})
	}
	for _, tc := range pf.TestCases {
		problem.TestCases = append(problem.TestCases, domain.TestCase{
			ID:          tc.ID,
			Input:       tc.Input,
			Expected:    tc.Expected,
			Description: tc.Description,
		})
	}

	return problem, nil
}

// LoadPackProblems loads all problems listed in a pack's manifest
func (l *Loader) LoadPackProblems(packID string) ([]*domain.Problem, error) {
	pack, err := l.LoadPack(packID)
	if err != nil {
		return nil, err
	}

	problems := make([]*domain.Problem, 0, len(pack.ProblemIDs))
	for _, slug := range pack.ProblemIDs {
		problem, err := l.LoadProblem(packID, slug)
		if err != nil {
			return nil, fmt.Errorf("load problem %s/%s: %w", packID, slug, err)
		}
		problems = append(problems, problem)
	}
	return problems, nil
}
