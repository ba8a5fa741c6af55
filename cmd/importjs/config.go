package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds optional CLI-wide defaults from .importjs/config.yaml,
// separate from the per-invocation .importjsrc.yaml pkg/config resolves
// relative to the file being edited.
type ProjectConfig struct {
	Version       string `yaml:"version"`
	WorkspaceRoot string `yaml:"workspace_root"`
}

// loadProjectConfig reads .importjs/config.yaml from the current directory.
// Returns nil (no error) if the file does not exist.
func loadProjectConfig() (*ProjectConfig, error) {
	data, err := os.ReadFile(".importjs/config.yaml")
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveWorkspaceRoot returns the directory watch/index should scan,
// applying the fallback chain:
//  1. Explicit --root flag value (non-empty override)
//  2. workspace_root from .importjs/config.yaml
//  3. Current working directory
func resolveWorkspaceRoot(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg, err := loadProjectConfig(); err == nil && cfg != nil && cfg.WorkspaceRoot != "" {
		return cfg.WorkspaceRoot
	}
	return "."
}
