package sandbox

import (
	"strings"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input   string
		want    Language
		wantErr bool
	}{
		{"javascript", LanguageJavaScript, false},
		{"python", LanguagePython, false},
		{"cobol", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLanguage(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLanguage(%q) error = %v; wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultLanguageConfigs_Complete(t *testing.T) {
	configs := DefaultLanguageConfigs()
	for _, lang := range []Language{LanguageJavaScript, LanguagePython} {
		cfg, ok := configs[lang]
		if !ok {
			t.Fatalf("no config for %s", lang)
		}
		if cfg.FileExt == "" || cfg.DockerImage == "" {
			t.Errorf("%s config incomplete: %+v", lang, cfg)
		}
		if len(cfg.RunCommand) == 0 || len(cfg.CheckCommand) == 0 {
			t.Errorf("%s config missing commands", lang)
		}
	}
}

func TestBuildHarness_EmbedsCodeAndInput(t *testing.T) {
	code := "function solution(a, b) { return a + b; }"
	input := "a = 1, b = 2"

	harness, err := buildHarness(LanguageJavaScript, code, input)
	if err != nil {
		t.Fatalf("buildHarness() error = %v", err)
	}
	if !strings.Contains(harness, code) {
		t.Error("harness does not embed user code")
	}
	if !strings.Contains(harness, `"a = 1, b = 2"`) {
		t.Error("harness does not embed quoted input")
	}
}

func TestBuildHarness_QuotesSpecialCharacters(t *testing.T) {
	harness, err := buildHarness(LanguagePython, "def solution(s):\n    return s", `s = "he\"llo"`)
	if err != nil {
		t.Fatalf("buildHarness() error = %v", err)
	}
	if !strings.Contains(harness, `\"he\\\"llo\"`) {
		t.Errorf("input not safely quoted:\n%s", harness)
	}
}

func TestBuildHarness_UnsupportedLanguage(t *testing.T) {
	if _, err := buildHarness("fortran", "", ""); err == nil {
		t.Error("buildHarness() accepted an unsupported language")
	}
}
