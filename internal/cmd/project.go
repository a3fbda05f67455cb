package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/TimHeckel/maestro/internal/annotate"
	"github.com/TimHeckel/maestro/internal/config"
	"github.com/TimHeckel/maestro/internal/logging"
	"github.com/TimHeckel/maestro/internal/orchestrator"
	"github.com/TimHeckel/maestro/internal/state"
	"github.com/TimHeckel/maestro/internal/tmux"
	"github.com/TimHeckel/maestro/internal/topology"
	"github.com/TimHeckel/maestro/internal/workspace"
)

// project bundles everything a command needs: the resolved repository root,
// configuration, the feature graph and the wired orchestrator collaborators.
type project struct {
	root     string
	cfg      *config.Config
	features map[string]config.Feature
	manager  *workspace.Manager
	tracker  *state.Tracker
	tmux     *tmux.Client
	logger   *logging.Logger
	orch     *orchestrator.Orchestrator
}

// openProject locates the repository containing the working directory, loads
// maestro.yaml and wires the orchestrator.
func openProject() (*project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err := workspace.FindGitRoot(cwd)
	if err != nil {
		return nil, err
	}

	cfg := config.Get()
	features, err := config.LoadFeatures(filepath.Join(root, config.FeatureFileName))
	if err != nil {
		return nil, err
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(filepath.Join(root, ".maestro", "logs"), cfg.Logging.Level, logging.Options{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}

	manager, err := workspace.NewManager(root, cfg.Git.ResolveWorktreeDir(root), cfg.Branch.Prefix)
	if err != nil {
		logger.Close()
		return nil, err
	}

	mux := &tmux.Client{
		Width:        cfg.Tmux.Width,
		Height:       cfg.Tmux.Height,
		HistoryLimit: cfg.Tmux.HistoryLimit,
	}
	tracker := state.NewTracker(root)

	orch := orchestrator.New(
		features,
		workspace.NewProvisioner(manager, logger),
		manager,
		topology.NewBuilder(mux, cfg.Tmux),
		topology.NewInjector(mux, cfg.Tmux.SettleDelay()),
		mux,
		annotate.Annotate,
		tracker,
		logger,
	)

	return &project{
		root:     root,
		cfg:      cfg,
		features: features,
		manager:  manager,
		tracker:  tracker,
		tmux:     mux,
		logger:   logger,
		orch:     orch,
	}, nil
}

func (p *project) close() {
	if p.logger != nil {
		p.logger.Close()
	}
}

// options builds orchestration options from configuration plus command flags.
func (p *project) options(parallel bool, contextMode string) (orchestrator.Options, error) {
	if contextMode == "" {
		contextMode = p.cfg.Context.Mode
	}
	if !config.IsValidContextMode(contextMode) {
		return orchestrator.Options{}, fmt.Errorf("invalid context mode %q (valid: %v)", contextMode, config.ValidContextModes())
	}
	return orchestrator.Options{
		Parallel:    parallel || p.cfg.Orchestra.Parallel,
		ContextMode: contextMode,
		DefaultBase: p.cfg.Git.DefaultBase,
	}, nil
}
