package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type caseResult struct {
	CaseID   int    `json:"case_id"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
	Error    string `json:"error"`
}

type runResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result *struct {
		Success         bool          `json:"success"`
		Cases           []caseResult  `json:"cases"`
		TestCasesPassed int           `json:"test_cases_passed"`
		TotalTestCases  int           `json:"total_test_cases"`
		Output          string        `json:"output"`
		ExecutionTime   time.Duration `json:"execution_time"`
	} `json:"result"`
}

// cmdRun grades a solution file against a problem without submitting
func cmdRun(args []string) error {
	problemID, code, language, err := parseSolutionArgs(args, "run")
	if err != nil {
		return err
	}

	sessionID, err := openSession(problemID, language)
	if err != nil {
		return err
	}

	var run runResult
	err = apiRequest(http.MethodPost, "/v1/sessions/"+sessionID+"/runs", map[string]string{
		"code": code,
	}, &run)
	if err != nil {
		return err
	}

	printRun(&run)
	return nil
}

// cmdSubmit grades a solution file officially and updates progress
func cmdSubmit(args []string) error {
	problemID, code, language, err := parseSolutionArgs(args, "submit")
	if err != nil {
		return err
	}

	sessionID, err := openSession(problemID, language)
	if err != nil {
		return err
	}

	if err := apiRequest(http.MethodPut, "/v1/sessions/"+sessionID+"/code", map[string]string{
		"code": code,
	}, nil); err != nil {
		return err
	}

	var resp struct {
		Run      runResult `json:"run"`
		Progress struct {
			Points        int    `json:"points"`
			Level         string `json:"level"`
			CurrentStreak int    `json:"current_streak"`
		} `json:"progress"`
	}
	if err := apiRequest(http.MethodPost, "/v1/sessions/"+sessionID+"/submit", nil, &resp); err != nil {
		return err
	}

	printRun(&resp.Run)
	if resp.Run.Result != nil && resp.Run.Result.Success {
		fmt.Printf("\n✓ Accepted. %d points, level %s, streak %d\n",
			resp.Progress.Points, resp.Progress.Level, resp.Progress.CurrentStreak)
	}
	return nil
}

// parseSolutionArgs handles `<problem-id> <file> [--lang name]`,
// inferring the language from the file extension when not given.
func parseSolutionArgs(args []string, cmd string) (problemID int, code, language string, err error) {
	if !isRunning() {
		return 0, "", "", fmt.Errorf("daemon not running (run 'cphub start' first)")
	}
	if len(args) < 2 {
		return 0, "", "", fmt.Errorf("usage: cphub %s <problem-id> <file> [--lang javascript|python]", cmd)
	}

	problemID, err = strconv.Atoi(args[0])
	if err != nil {
		return 0, "", "", fmt.Errorf("problem id must be a number, got %q", args[0])
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return 0, "", "", fmt.Errorf("read solution file: %w", err)
	}
	code = string(data)

	for i := 2; i < len(args); i++ {
		if args[i] == "--lang" && i+1 < len(args) {
			language = args[i+1]
			i++
		}
	}
	if language == "" {
		switch filepath.Ext(args[1]) {
		case ".js", ".mjs":
			language = "javascript"
		case ".py":
			language = "python"
		default:
			return 0, "", "", fmt.Errorf("cannot infer language from %q, pass --lang", args[1])
		}
	}

	return problemID, code, language, nil
}

func openSession(problemID int, language string) (string, error) {
	var sess struct {
		ID string `json:"id"`
	}
	err := apiRequest(http.MethodPost, "/v1/sessions", map[string]any{
		"problemId": problemID,
		"language":  language,
	}, &sess)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

func printRun(run *runResult) {
	if run.Result == nil {
		fmt.Printf("Run %s: %s\n", run.ID, run.Status)
		return
	}
	res := run.Result

	if res.TotalTestCases > 0 && len(res.Cases) == 0 {
		// Construction failure: nothing was attempted
		fmt.Println("✗ Compilation/syntax error:")
		fmt.Println(indent(res.Output, "  "))
		return
	}

	for _, c := range res.Cases {
		if c.Passed {
			fmt.Printf("✓ case %d\n", c.CaseID)
			continue
		}
		fmt.Printf("✗ case %d\n", c.CaseID)
		fmt.Printf("    input:    %s\n", c.Input)
		fmt.Printf("    expected: %s\n", c.Expected)
		if c.Error != "" {
			fmt.Printf("    error:    %s\n", c.Error)
		} else {
			fmt.Printf("    actual:   %s\n", c.Actual)
		}
	}

	fmt.Printf("\n%d/%d cases passed in %s\n",
		res.TestCasesPassed, res.TotalTestCases, res.ExecutionTime)
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
