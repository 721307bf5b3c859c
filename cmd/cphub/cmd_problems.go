package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// cmdProblems lists or shows problems
func cmdProblems(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'cphub start' first)")
	}

	subCmd := "list"
	if len(args) > 0 {
		subCmd = args[0]
		args = args[1:]
	}

	switch subCmd {
	case "list", "":
		return cmdProblemsList(args)
	case "show":
		if len(args) < 1 {
			return fmt.Errorf("usage: cphub problems show <id>")
		}
		return cmdProblemsShow(args[0])
	default:
		return fmt.Errorf("unknown problems command: %s (valid: list, show)", subCmd)
	}
}

func cmdProblemsList(args []string) error {
	query := url.Values{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--difficulty":
			if i+1 < len(args) {
				query.Set("difficulty", args[i+1])
				i++
			}
		case "--category":
			if i+1 < len(args) {
				query.Set("category", args[i+1])
				i++
			}
		case "--search":
			if i+1 < len(args) {
				query.Set("search", args[i+1])
				i++
			}
		}
	}

	path := "/v1/problems"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp struct {
		Problems []struct {
			ID         int      `json:"id"`
			Title      string   `json:"title"`
			Difficulty string   `json:"difficulty"`
			Category   string   `json:"category"`
			Tags       []string `json:"tags"`
		} `json:"problems"`
		Total int `json:"total"`
	}
	if err := apiRequest(http.MethodGet, path, nil, &resp); err != nil {
		return err
	}

	if resp.Total == 0 {
		fmt.Println("No problems matched.")
		return nil
	}

	fmt.Printf("%-4s %-40s %-8s %s\n", "ID", "TITLE", "LEVEL", "CATEGORY")
	for _, p := range resp.Problems {
		fmt.Printf("%-4d %-40s %-8s %s\n", p.ID, p.Title, p.Difficulty, p.Category)
	}
	fmt.Printf("\n%d problem(s)\n", resp.Total)
	return nil
}

func cmdProblemsShow(id string) error {
	var p struct {
		ID          int      `json:"id"`
		Title       string   `json:"title"`
		Difficulty  string   `json:"difficulty"`
		Category    string   `json:"category"`
		Tags        []string `json:"tags"`
		Description string   `json:"description"`
		Examples    []struct {
			Input       string `json:"input"`
			Output      string `json:"output"`
			Explanation string `json:"explanation"`
		} `json:"examples"`
		Constraints []string          `json:"constraints"`
		StarterCode map[string]string `json:"starterCode"`
	}
	if err := apiRequest(http.MethodGet, "/v1/problems/"+id, nil, &p); err != nil {
		return err
	}

	fmt.Printf("#%d %s [%s]\n", p.ID, p.Title, p.Difficulty)
	fmt.Printf("Category: %s", p.Category)
	if len(p.Tags) > 0 {
		fmt.Printf("  Tags: %s", strings.Join(p.Tags, ", "))
	}
	fmt.Println()
	fmt.Println()
	fmt.Println(p.Description)

	for i, ex := range p.Examples {
		fmt.Printf("\nExample %d:\n", i+1)
		fmt.Printf("  Input:  %s\n", ex.Input)
		fmt.Printf("  Output: %s\n", ex.Output)
		if ex.Explanation != "" {
			fmt.Printf("  Why:    %s\n", ex.Explanation)
		}
	}

	if len(p.Constraints) > 0 {
		fmt.Println("\nConstraints:")
		for _, c := range p.Constraints {
			fmt.Printf("  - %s\n", c)
		}
	}

	langs := make([]string, 0, len(p.StarterCode))
	for lang := range p.StarterCode {
		langs = append(langs, lang)
	}
	if len(langs) > 0 {
		fmt.Printf("\nLanguages: %s\n", strings.Join(langs, ", "))
	}
	return nil
}
