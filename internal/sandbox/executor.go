package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Executor runs untrusted user code one test case at a time. The
// grader first calls Check to catch construction (syntax) errors at
// the batch level, then Invoke once per case.
type Executor interface {
	// Check verifies the source can be constructed at all. A failure
	// is returned as a *ConstructionError.
	Check(ctx context.Context, lang Language, code string) error

	// Invoke runs the source against one test case input and captures
	// the stringified return value.
	Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error)

	// Close releases backend resources.
	Close() error
}

// InvokeRequest describes one test-case invocation
type InvokeRequest struct {
	Language Language
	Code     string
	Input    string // free-form test case input text
}

// InvokeResult is the raw outcome of one invocation
type InvokeResult struct {
	Output   string // stdout: the stringified return value
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// ConstructionError marks source that could not be constructed into an
// invocable unit (a syntax error). The grader reports it at the batch
// level and attempts no cases.
type ConstructionError struct {
	Message string
}

func (e *ConstructionError) Error() string {
	return "construction failed: " + e.Message
}

// SubprocessExecutor executes code in a subprocess per invocation with
// a temp work dir. Suitable for development and trusted single-user
// setups; DockerExecutor adds real resource isolation.
type SubprocessExecutor struct {
	configs map[Language]LanguageConfig
}

// NewSubprocessExecutor creates a new subprocess executor
func NewSubprocessExecutor() *SubprocessExecutor {
	return &SubprocessExecutor{configs: DefaultLanguageConfigs()}
}

func (e *SubprocessExecutor) Check(ctx context.Context, lang Language, code string) error {
	cfg, ok := e.configs[lang]
	if !ok {
		return fmt.Errorf("unsupported language: %s", lang)
	}

	tmpDir, err := os.MkdirTemp("", "cphub-check-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	srcPath := filepath.Join(tmpDir, "source"+cfg.FileExt)
	if err := os.WriteFile(srcPath, []byte(code), 0o644); err != nil {
		return fmt.Errorf("write source: %w", err)
	}

	args := append(append([]string{}, cfg.CheckCommand[1:]...), srcPath)
	cmd := exec.CommandContext(ctx, cfg.CheckCommand[0], args...)
	cmd.Dir = tmpDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &ConstructionError{Message: shortenOutput(string(output), tmpDir)}
	}
	return nil
}

func (e *SubprocessExecutor) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	cfg, ok := e.configs[req.Language]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", req.Language)
	}

	harness, err := buildHarness(req.Language, req.Code, req.Input)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "cphub-run-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	mainPath := filepath.Join(tmpDir, "main"+cfg.FileExt)
	if err := os.WriteFile(mainPath, []byte(harness), 0o644); err != nil {
		return nil, fmt.Errorf("write harness: %w", err)
	}

	args := append(append([]string{}, cfg.RunCommand[1:]...), mainPath)
	cmd := exec.CommandContext(ctx, cfg.RunCommand[0], args...)
	cmd.Dir = tmpDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := &InvokeResult{
		Output:   stdout.String(),
		Stderr:   shortenOutput(stderr.String(), tmpDir),
		Duration: duration,
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("invoke %s: %w", req.Language, runErr)
	}

	return result, nil
}

func (e *SubprocessExecutor) Close() error { return nil }

// shortenOutput trims interpreter noise: temp paths are stripped and
// the message is capped so UI payloads stay small.
func shortenOutput(s, tmpDir string) string {
	s = strings.ReplaceAll(s, tmpDir+string(os.PathSeparator), "")
	s = strings.TrimSpace(s)
	const maxLen = 2000
	if len(s) > maxLen {
		s = s[:maxLen] + "\n... (truncated)"
	}
	return s
}
