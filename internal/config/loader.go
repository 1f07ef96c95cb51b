package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "lazyvfs"
	// ConfigFile is the config file name
	ConfigFile = "config.json"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs FileSystem
}

// NewLoader creates a Loader reading through fs.
func NewLoader(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Path returns the dotfile location, ~/.config/lazyvfs/config.json.
func (l *Loader) Path() (string, error) {
	homeDir, err := l.fs.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", ConfigDir, ConfigFile), nil
}

// Load reads the dotfile and merges it over the defaults.
// Returns default config if dotfile doesn't exist.
// Returns error only for parse errors, unknown keys, permission issues, or validation failures.
func (l *Loader) Load() (*Config, error) {
	configPath, err := l.Path()
	if err != nil {
		return DefaultConfig(), nil // Use defaults if can't get home dir
	}

	data, err := l.fs.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	return Parse(data)
}

// Parse decodes a JSON document over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Cause: err}
	}

	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &ParseError{Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
