package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FeatureFileName is the per-project feature graph file.
const FeatureFileName = "maestro.yaml"

// Layout names accepted for a session, matching tmux's named layouts.
const (
	LayoutEvenHorizontal = "even-horizontal"
	LayoutEvenVertical   = "even-vertical"
	LayoutMainHorizontal = "main-horizontal"
	LayoutMainVertical   = "main-vertical"
	LayoutTiled          = "tiled"
)

// featureNamePattern restricts feature names to what is safe as a branch
// name, a directory name and a tmux session name prefix.
var featureNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Feature is one unit of orchestrated work: an isolated worktree plus a set
// of tmux sessions pre-loaded with staged commands.
type Feature struct {
	Name         string    `yaml:"name"`
	Description  string    `yaml:"description,omitempty"`
	Base         string    `yaml:"base,omitempty"`
	Sessions     []Session `yaml:"sessions,omitempty"`
	Dependencies []string  `yaml:"dependencies,omitempty"`
	// Context and Agents are opaque annotation data; the engine writes them
	// verbatim into the workspace context document without interpretation.
	Context string   `yaml:"context,omitempty"`
	Agents  []string `yaml:"agents,omitempty"`
}

// Session is one tmux session request within a feature.
type Session struct {
	Name   string `yaml:"name"`
	Panes  int    `yaml:"panes"`
	Layout string `yaml:"layout,omitempty"`
	// Prompts are literal command strings staged into panes by position.
	// Shorter than Panes leaves trailing panes untouched; extras are ignored.
	Prompts []string `yaml:"prompts,omitempty"`
}

// featureFile is the on-disk shape of maestro.yaml.
type featureFile struct {
	Features []Feature `yaml:"features"`
}

// ValidLayouts returns the accepted layout names.
func ValidLayouts() []string {
	return []string{
		LayoutEvenHorizontal,
		LayoutEvenVertical,
		LayoutMainHorizontal,
		LayoutMainVertical,
		LayoutTiled,
	}
}

// IsValidLayout checks if the given layout name is valid. The empty string is
// valid and means "engine default".
func IsValidLayout(layout string) bool {
	if layout == "" {
		return true
	}
	for _, valid := range ValidLayouts() {
		if layout == valid {
			return true
		}
	}
	return false
}

// LoadFeatures reads and validates the feature graph from the given
// maestro.yaml path. It returns the features keyed by name.
func LoadFeatures(path string) (map[string]Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature file: %w", err)
	}
	return ParseFeatures(data)
}

// ParseFeatures parses and validates feature graph YAML.
func ParseFeatures(data []byte) (map[string]Feature, error) {
	var file featureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feature file: %w", err)
	}

	features := make(map[string]Feature, len(file.Features))
	for _, f := range file.Features {
		if err := validateFeature(f); err != nil {
			return nil, err
		}
		if _, exists := features[f.Name]; exists {
			return nil, fmt.Errorf("duplicate feature name %q", f.Name)
		}
		features[f.Name] = f
	}
	return features, nil
}

// validateFeature enforces the structural constraints the engine relies on.
// Dependency names referencing unknown features are allowed here; the
// resolver skips them.
func validateFeature(f Feature) error {
	if f.Name == "" {
		return fmt.Errorf("feature with empty name")
	}
	if !featureNamePattern.MatchString(f.Name) {
		return fmt.Errorf("invalid feature name %q: only letters, digits, dash and underscore are allowed", f.Name)
	}
	seen := make(map[string]bool, len(f.Sessions))
	for _, s := range f.Sessions {
		if s.Name == "" {
			return fmt.Errorf("feature %q: session with empty name", f.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("feature %q: duplicate session name %q", f.Name, s.Name)
		}
		seen[s.Name] = true
		if s.Panes < 1 {
			return fmt.Errorf("feature %q session %q: panes must be >= 1, got %d", f.Name, s.Name, s.Panes)
		}
		if !IsValidLayout(s.Layout) {
			return fmt.Errorf("feature %q session %q: unknown layout %q", f.Name, s.Name, s.Layout)
		}
	}
	return nil
}
