package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimHeckel/maestro/internal/errors"
)

var (
	orchestrateParallel    bool
	orchestrateContextMode string
	orchestrateBase        string
)

var orchestrateCmd = &cobra.Command{
	Use:   "orchestrate <feature>...",
	Short: "Provision workspaces and tmux sessions for features",
	Long: `Resolve the requested features into dependency order, create one git
worktree per feature, build the configured tmux sessions with their prompts
staged (never executed), and record the run in .maestro/state.json.

A failure after workspaces exist rolls back everything created by this run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOrchestrate,
}

func init() {
	orchestrateCmd.Flags().BoolVar(&orchestrateParallel, "parallel", false, "provision workspaces concurrently")
	orchestrateCmd.Flags().StringVar(&orchestrateContextMode, "context-mode", "", "context document mode: split or shared")
	orchestrateCmd.Flags().StringVar(&orchestrateBase, "base", "", "base branch for features that do not name their own")
	rootCmd.AddCommand(orchestrateCmd)
}

func runOrchestrate(cmd *cobra.Command, args []string) error {
	proj, err := openProject()
	if err != nil {
		return err
	}
	defer proj.close()

	opts, err := proj.options(orchestrateParallel, orchestrateContextMode)
	if err != nil {
		return err
	}
	if orchestrateBase != "" {
		opts.DefaultBase = orchestrateBase
	}

	result, err := proj.orch.Run(cmd.Context(), args, opts)
	if err != nil && !errors.IsWarning(err) {
		return err
	}

	for _, name := range result.Order {
		feat := result.State.FindFeature(name)
		fmt.Printf("%s\n", name)
		fmt.Printf("  workspace: %s\n", result.Workspaces[name])
		for _, sess := range feat.Sessions {
			fmt.Printf("  session: %s (%d panes)\n", sess.SessionID, sess.Panes)
		}
	}
	fmt.Printf("\nOrchestrated %d feature(s). Attach with: maestro attach <session>\n", len(result.Order))

	if result.Warning != nil {
		fmt.Printf("warning: %v\n", result.Warning)
	}
	return nil
}
