package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	provisionParallel bool
	provisionBase     string
)

var provisionCmd = &cobra.Command{
	Use:   "provision <feature>...",
	Short: "Create workspaces without building sessions",
	Long: `Resolve the requested features and create their git worktrees in
dependency order, without building tmux sessions or writing state. Useful
for preparing workspaces ahead of a full orchestration.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().BoolVar(&provisionParallel, "parallel", false, "provision workspaces concurrently")
	provisionCmd.Flags().StringVar(&provisionBase, "base", "", "base branch for features that do not name their own")
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, args []string) error {
	proj, err := openProject()
	if err != nil {
		return err
	}
	defer proj.close()

	opts, err := proj.options(provisionParallel, "")
	if err != nil {
		return err
	}
	if provisionBase != "" {
		opts.DefaultBase = provisionBase
	}

	created, err := proj.orch.Provision(cmd.Context(), args, opts)
	if err != nil {
		return err
	}
	for name, path := range created {
		fmt.Printf("%s: %s\n", name, path)
	}
	return nil
}
