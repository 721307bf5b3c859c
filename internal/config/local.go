package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const tokenSecretFileName = "secret"

// LocalConfig holds configuration for local daemon mode
type LocalConfig struct {
	Daemon  DaemonConfig  `yaml:"daemon"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Grading GradingConfig `yaml:"grading"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// SandboxConfig holds code execution settings
type SandboxConfig struct {
	Executor string              `yaml:"executor"`
	Docker   DockerSandboxConfig `yaml:"docker"`
}

// DockerSandboxConfig holds Docker executor settings
type DockerSandboxConfig struct {
	MemoryMB   int               `yaml:"memory_mb"`
	CPULimit   float64           `yaml:"cpu_limit"`
	NetworkOff bool              `yaml:"network_off"`
	Images     map[string]string `yaml:"images,omitempty"`
}

// GradingConfig holds grading timeouts
type GradingConfig struct {
	TimeoutSeconds     int `yaml:"timeout_seconds"`
	CaseTimeoutSeconds int `yaml:"case_timeout_seconds"`
}

// HubDir returns the path to ~/.cphub
func HubDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".cphub"), nil
}

// EnsureHubDir creates ~/.cphub and subdirectories if they don't exist
func EnsureHubDir() (string, error) {
	dir, err := HubDir()
	if err != nil {
		return "", err
	}

	subdirs := []string{
		"",
		"logs",
		"data",
		"problems",
	}

	for _, subdir := range subdirs {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7433,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Sandbox: SandboxConfig{
			Executor: "subprocess",
			Docker: DockerSandboxConfig{
				MemoryMB:   256,
				CPULimit:   0.5,
				NetworkOff: true,
			},
		},
		Grading: GradingConfig{
			TimeoutSeconds:     30,
			CaseTimeoutSeconds: 10,
		},
	}
}

// LoadLocalConfig loads configuration from ~/.cphub/config.yaml
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := HubDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, "config.yaml")

	// If config doesn't exist, return defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultLocalConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// EnsureTokenSecret returns the daemon token secret persisted under
// ~/.cphub, generating one on first start so a local install works
// with zero configuration.
func EnsureTokenSecret() (string, error) {
	dir, err := EnsureHubDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, tokenSecretFileName)

	if data, err := os.ReadFile(path); err == nil {
		if secret := strings.TrimSpace(string(data)); secret != "" {
			return secret, nil
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	secret := hex.EncodeToString(buf)

	if err := os.WriteFile(path, []byte(secret+"\n"), 0600); err != nil {
		return "", fmt.Errorf("write secret: %w", err)
	}
	return secret, nil
}

// SaveLocalConfig saves configuration to ~/.cphub/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureHubDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(dir, "config.yaml")

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
