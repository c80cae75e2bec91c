package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings are the server-level knobs persisted between runs.
type Settings struct {
	ConfigDir     string `json:"config_dir"`     // Default orchestration config directory
	ServerName    string `json:"server_name"`    // Advertised MCP server name
	ServerVersion string `json:"server_version"` // Advertised MCP server version
}

// Store manages settings.json under the user's .mco directory.
type Store struct {
	mu       sync.RWMutex
	path     string
	settings *Settings
}

func defaultSettings() *Settings {
	return &Settings{
		ServerName:    "mco-server",
		ServerVersion: "1.0.0",
	}
}

// NewStore loads settings from ~/.mco/settings.json, creating the
// directory and falling back to defaults when the file does not exist.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	configDir := filepath.Join(homeDir, ".mco")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	store := &Store{
		path:     filepath.Join(configDir, "settings.json"),
		settings: defaultSettings(),
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewStoreAt is NewStore with an explicit path, for tests.
func NewStoreAt(path string) (*Store, error) {
	store := &Store{path: path, settings: defaultSettings()}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal(data, s.settings); err != nil {
		return fmt.Errorf("failed to parse settings: %w", err)
	}
	return nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.settings
}

// SetConfigDir updates the default configuration directory and saves.
func (s *Store) SetConfigDir(dir string) error {
	s.mu.Lock()
	s.settings.ConfigDir = dir
	s.mu.Unlock()
	return s.Save()
}

// Save writes the settings file.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.settings, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
