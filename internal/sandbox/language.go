package sandbox

import "fmt"

// Language represents a supported submission language
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
)

// IsValid checks if the language is supported
func (l Language) IsValid() bool {
	switch l {
	case LanguageJavaScript, LanguagePython:
		return true
	default:
		return false
	}
}

// String returns the language as a string
func (l Language) String() string {
	return string(l)
}

// ParseLanguage converts a string to a Language
func ParseLanguage(s string) (Language, error) {
	lang := Language(s)
	if !lang.IsValid() {
		return "", fmt.Errorf("unsupported language: %s", s)
	}
	return lang, nil
}

// LanguageConfig contains language-specific execution settings
type LanguageConfig struct {
	FileExt      string
	DockerImage  string
	RunCommand   []string // argv prefix; the harness file path is appended
	CheckCommand []string // syntax check argv prefix; the source path is appended
}

// DefaultLanguageConfigs returns default configurations for all
// supported languages.
func DefaultLanguageConfigs() map[Language]LanguageConfig {
	return map[Language]LanguageConfig{
		LanguageJavaScript: {
			FileExt:      ".js",
			DockerImage:  "node:20-alpine",
			RunCommand:   []string{"node"},
			CheckCommand: []string{"node", "--check"},
		},
		LanguagePython: {
			FileExt:      ".py",
			DockerImage:  "python:3.12-alpine",
			RunCommand:   []string{"python3"},
			CheckCommand: []string{"python3", "-m", "py_compile"},
		},
	}
}
