package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete maestro configuration
type Config struct {
	Git       GitConfig       `mapstructure:"git"`
	Orchestra OrchestraConfig `mapstructure:"orchestra"`
	Branch    BranchConfig    `mapstructure:"branch"`
	Tmux      TmuxConfig      `mapstructure:"tmux"`
	Context   ContextConfig   `mapstructure:"context"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// GitConfig controls workspace provisioning defaults
type GitConfig struct {
	// DefaultBase is the branch/revision workspaces are created from when a
	// feature does not name its own base (default: "main")
	DefaultBase string `mapstructure:"default_base"`
	// WorktreeDir is the directory worktrees are created under.
	// If empty, defaults to ".maestro/worktrees" relative to the project root.
	WorktreeDir string `mapstructure:"worktree_dir"`
}

// OrchestraConfig controls orchestration run behavior
type OrchestraConfig struct {
	// Parallel provisions workspaces concurrently instead of in dependency
	// order (default: false). Session building is always sequential.
	Parallel bool `mapstructure:"parallel"`
}

// BranchConfig controls branch naming conventions
type BranchConfig struct {
	// Prefix is the branch name prefix (default: "maestro")
	// Feature branches are named <prefix>/<feature>.
	Prefix string `mapstructure:"prefix"`
}

// TmuxConfig controls tmux session construction
type TmuxConfig struct {
	// MaxPanesHorizontal caps pane count for horizontal-dominant layouts (default: 10)
	MaxPanesHorizontal int `mapstructure:"max_panes_horizontal"`
	// MaxPanesVertical caps pane count for vertical-dominant layouts (default: 15)
	MaxPanesVertical int `mapstructure:"max_panes_vertical"`
	// SettleDelayMs is the pause between interrupting a pane and injecting
	// its prompt, giving the shell time to come up (default: 300)
	SettleDelayMs int `mapstructure:"settle_delay_ms"`
	// Width is the width of new detached sessions
	Width int `mapstructure:"width"`
	// Height is the height of new detached sessions
	Height int `mapstructure:"height"`
	// HistoryLimit is the number of lines of scrollback to keep (default: 10000)
	HistoryLimit int `mapstructure:"history_limit"`
}

// ContextConfig controls the per-workspace context document
type ContextConfig struct {
	// Mode is "split" (replace the context file) or "shared" (append to it)
	Mode string `mapstructure:"mode"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// SettleDelay returns the injection settle delay as a time.Duration
func (t *TmuxConfig) SettleDelay() time.Duration {
	return time.Duration(t.SettleDelayMs) * time.Millisecond
}

// ResolveWorktreeDir returns the resolved worktree directory path.
// If WorktreeDir is empty, it returns the default path relative to baseDir.
// A relative path is resolved relative to baseDir.
func (g *GitConfig) ResolveWorktreeDir(baseDir string) string {
	if g.WorktreeDir == "" {
		return filepath.Join(baseDir, ".maestro", "worktrees")
	}
	path := g.WorktreeDir
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Git: GitConfig{
			DefaultBase: "main",
			WorktreeDir: "",
		},
		Orchestra: OrchestraConfig{
			Parallel: false,
		},
		Branch: BranchConfig{
			Prefix: "maestro",
		},
		Tmux: TmuxConfig{
			MaxPanesHorizontal: 10,
			MaxPanesVertical:   15,
			SettleDelayMs:      300,
			Width:              200,
			Height:             50,
			HistoryLimit:       10000,
		},
		Context: ContextConfig{
			Mode: "split",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("git.default_base", defaults.Git.DefaultBase)
	viper.SetDefault("git.worktree_dir", defaults.Git.WorktreeDir)

	viper.SetDefault("orchestra.parallel", defaults.Orchestra.Parallel)

	viper.SetDefault("branch.prefix", defaults.Branch.Prefix)

	viper.SetDefault("tmux.max_panes_horizontal", defaults.Tmux.MaxPanesHorizontal)
	viper.SetDefault("tmux.max_panes_vertical", defaults.Tmux.MaxPanesVertical)
	viper.SetDefault("tmux.settle_delay_ms", defaults.Tmux.SettleDelayMs)
	viper.SetDefault("tmux.width", defaults.Tmux.Width)
	viper.SetDefault("tmux.height", defaults.Tmux.Height)
	viper.SetDefault("tmux.history_limit", defaults.Tmux.HistoryLimit)

	viper.SetDefault("context.mode", defaults.Context.Mode)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "maestro")
	}
	// Fall back to ~/.config/maestro
	home, err := os.UserHomeDir()
	if err != nil {
		return ".maestro"
	}
	return filepath.Join(home, ".config", "maestro")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidContextModes returns the list of valid context mode values
func ValidContextModes() []string {
	return []string{"split", "shared"}
}

// IsValidContextMode checks if the given mode is valid
func IsValidContextMode(mode string) bool {
	for _, valid := range ValidContextModes() {
		if mode == valid {
			return true
		}
	}
	return false
}
