package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coldframe/frost/pkg/llm"
)

// FrostFolderName is the per-directory workspace folder.
const FrostFolderName = ".frost"

// AppConfig is the on-disk configuration under .frost/config.json.
type AppConfig struct {
	LLM       llm.Config `json:"llm"`
	Inventory string     `json:"inventory"`
	Operator  string     `json:"operator"`
	MaxSteps  int        `json:"max_steps"`
	Theme     string     `json:"theme"`
	Debug     bool       `json:"debug"`
}

// DefaultAppConfig returns the configuration written on first run.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		LLM: llm.Config{
			Provider:    "openai",
			BaseURL:     "http://localhost:11434/v1",
			Model:       "qwen2.5:14b",
			Temperature: 0.2,
			TimeoutSecs: 300,
		},
		Inventory: filepath.Join(FrostFolderName, "inventory.yaml"),
		MaxSteps:  DefaultMaxSteps,
		Theme:     "dark",
	}
}

// InitializeFrostFolder creates the .frost directory with a default
// config, an empty inventory file, and the backup directory. Existing
// files are left untouched.
func InitializeFrostFolder() error {
	if _, err := os.Stat(FrostFolderName); os.IsNotExist(err) {
		fmt.Println("Initializing .frost folder for the first time...")
		if err := os.Mkdir(FrostFolderName, 0755); err != nil {
			return fmt.Errorf("failed to create .frost folder: %w", err)
		}
	}

	configPath := filepath.Join(FrostFolderName, "config.json")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeConfig(configPath, DefaultAppConfig()); err != nil {
			return err
		}
	}

	inventoryPath := filepath.Join(FrostFolderName, "inventory.yaml")
	if _, err := os.Stat(inventoryPath); os.IsNotExist(err) {
		seed := "boxes: []\nrecords: []\ntakeouts: []\n"
		if err := os.WriteFile(inventoryPath, []byte(seed), 0644); err != nil {
			return fmt.Errorf("failed to create inventory file: %w", err)
		}
	}

	backupDir := filepath.Join(FrostFolderName, "backups")
	if _, err := os.Stat(backupDir); os.IsNotExist(err) {
		if err := os.Mkdir(backupDir, 0755); err != nil {
			return fmt.Errorf("failed to create backups folder: %w", err)
		}
	}

	return nil
}

// LoadConfig reads .frost/config.json, initializing the folder first when
// needed. Unknown fields in the file are ignored; missing fields keep
// their defaults.
func LoadConfig() (AppConfig, error) {
	if err := InitializeFrostFolder(); err != nil {
		return AppConfig{}, err
	}

	configPath := filepath.Join(FrostFolderName, "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return AppConfig{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultAppConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration back to .frost/config.json.
func SaveConfig(cfg AppConfig) error {
	return writeConfig(filepath.Join(FrostFolderName, "config.json"), cfg)
}

func writeConfig(path string, cfg AppConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
