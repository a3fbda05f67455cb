package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleFeatureYAML = `
features:
  - name: auth
    description: Authentication service
    base: develop
    sessions:
      - name: dev
        panes: 3
        layout: main-vertical
        prompts:
          - "make test"
          - "make run"
    context: |
      Uses the shared token library.
    agents:
      - reviewer
  - name: api
    dependencies: [auth]
    sessions:
      - name: dev
        panes: 2
  - name: ui
    dependencies: [auth, api]
`

func TestParseFeatures(t *testing.T) {
	features, err := ParseFeatures([]byte(sampleFeatureYAML))
	if err != nil {
		t.Fatalf("ParseFeatures: %v", err)
	}
	if len(features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(features))
	}

	auth := features["auth"]
	if auth.Base != "develop" {
		t.Errorf("expected base develop, got %q", auth.Base)
	}
	if len(auth.Sessions) != 1 || auth.Sessions[0].Panes != 3 {
		t.Errorf("unexpected auth sessions: %+v", auth.Sessions)
	}
	if auth.Sessions[0].Layout != LayoutMainVertical {
		t.Errorf("expected layout main-vertical, got %q", auth.Sessions[0].Layout)
	}
	if !strings.Contains(auth.Context, "token library") {
		t.Errorf("context not preserved: %q", auth.Context)
	}

	ui := features["ui"]
	if len(ui.Dependencies) != 2 {
		t.Errorf("expected 2 dependencies for ui, got %v", ui.Dependencies)
	}
}

func TestLoadFeatures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FeatureFileName)
	if err := os.WriteFile(path, []byte(sampleFeatureYAML), 0644); err != nil {
		t.Fatalf("write feature file: %v", err)
	}

	features, err := LoadFeatures(path)
	if err != nil {
		t.Fatalf("LoadFeatures: %v", err)
	}
	if _, ok := features["api"]; !ok {
		t.Error("expected api feature to be loaded")
	}
}

func TestLoadFeatures_Missing(t *testing.T) {
	_, err := LoadFeatures(filepath.Join(t.TempDir(), FeatureFileName))
	if err == nil {
		t.Fatal("expected error for missing feature file")
	}
}

func TestParseFeatures_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty feature name",
			yaml: "features:\n  - description: no name\n",
			want: "empty name",
		},
		{
			name: "bad feature name",
			yaml: "features:\n  - name: \"has space\"\n",
			want: "invalid feature name",
		},
		{
			name: "duplicate feature",
			yaml: "features:\n  - name: a\n  - name: a\n",
			want: "duplicate feature name",
		},
		{
			name: "zero panes",
			yaml: "features:\n  - name: a\n    sessions:\n      - name: s\n        panes: 0\n",
			want: "panes must be >= 1",
		},
		{
			name: "unknown layout",
			yaml: "features:\n  - name: a\n    sessions:\n      - name: s\n        panes: 2\n        layout: spiral\n",
			want: "unknown layout",
		},
		{
			name: "duplicate session",
			yaml: "features:\n  - name: a\n    sessions:\n      - name: s\n        panes: 1\n      - name: s\n        panes: 1\n",
			want: "duplicate session name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFeatures([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestIsValidLayout(t *testing.T) {
	for _, layout := range ValidLayouts() {
		if !IsValidLayout(layout) {
			t.Errorf("expected %q to be valid", layout)
		}
	}
	if !IsValidLayout("") {
		t.Error("empty layout means engine default and must be valid")
	}
	if IsValidLayout("diagonal") {
		t.Error("expected diagonal to be invalid")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Git.DefaultBase != "main" {
		t.Errorf("expected default base main, got %q", cfg.Git.DefaultBase)
	}
	if cfg.Tmux.MaxPanesHorizontal != 10 || cfg.Tmux.MaxPanesVertical != 15 {
		t.Errorf("unexpected pane caps: %d/%d", cfg.Tmux.MaxPanesHorizontal, cfg.Tmux.MaxPanesVertical)
	}
	if !IsValidContextMode(cfg.Context.Mode) {
		t.Errorf("default context mode %q is not valid", cfg.Context.Mode)
	}
}

func TestResolveWorktreeDir(t *testing.T) {
	g := GitConfig{}
	if got := g.ResolveWorktreeDir("/repo"); got != filepath.Join("/repo", ".maestro", "worktrees") {
		t.Errorf("unexpected default worktree dir: %q", got)
	}
	g.WorktreeDir = "trees"
	if got := g.ResolveWorktreeDir("/repo"); got != filepath.Join("/repo", "trees") {
		t.Errorf("unexpected relative worktree dir: %q", got)
	}
	g.WorktreeDir = "/abs/trees"
	if got := g.ResolveWorktreeDir("/repo"); got != "/abs/trees" {
		t.Errorf("unexpected absolute worktree dir: %q", got)
	}
}
