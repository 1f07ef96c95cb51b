package config

import (
	"runtime"
	"time"
)

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Index   IndexConfig   `json:"index"`
	Refresh RefreshConfig `json:"refresh"`
	Watch   WatchConfig   `json:"watch"`
	Log     LogConfig     `json:"log"`
	UI      UIConfig      `json:"ui"`
	Metrics MetricsConfig `json:"metrics"`
}

type IndexConfig struct {
	CaseSensitivity string `json:"case_sensitivity"` // Default: "auto" (auto | sensitive | insensitive)
}

// CaseSensitive resolves "auto" from the host platform.
func (c IndexConfig) CaseSensitive() bool {
	switch c.CaseSensitivity {
	case CaseSensitive:
		return true
	case CaseInsensitive:
		return false
	default:
		return runtime.GOOS != "windows" && runtime.GOOS != "darwin"
	}
}

const (
	CaseAuto        = "auto"
	CaseSensitive   = "sensitive"
	CaseInsensitive = "insensitive"
)

type RefreshConfig struct {
	MaxParallelRoots   int      `json:"max_parallel_roots"`   // Default: 4
	RespectGitignore   bool     `json:"respect_gitignore"`    // Default: true
	IgnorePatterns     []string `json:"ignore_patterns"`      // Default: none
	MarkDotfilesHidden bool     `json:"mark_dotfiles_hidden"` // Default: true
}

type WatchConfig struct {
	Debounce     time.Duration `json:"debounce"`      // Default: 250ms
	PollInterval time.Duration `json:"poll_interval"` // Default: 0 (disabled)
}

type LogConfig struct {
	Level      string `json:"level"`       // Default: "info"
	Format     string `json:"format"`      // Default: "console"
	OutputPath string `json:"output_path"` // Default: "" (stderr)
}

type UIConfig struct {
	TickInterval  time.Duration `json:"tick_interval"`   // Default: 100ms
	MaxEventLines int           `json:"max_event_lines"` // Default: 500
	ColorPrimary  string        `json:"color_primary"`   // Default: "63"
}

type MetricsConfig struct {
	ListenAddr string `json:"listen_addr"` // Default: "" (disabled)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			CaseSensitivity: CaseAuto,
		},
		Refresh: RefreshConfig{
			MaxParallelRoots:   4,
			RespectGitignore:   true,
			MarkDotfilesHidden: true,
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		UI: UIConfig{
			TickInterval:  100 * time.Millisecond,
			MaxEventLines: 500,
			ColorPrimary:  "63",
		},
	}
}
