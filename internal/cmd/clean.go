package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanKeepBranches bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Tear down everything from the last orchestration run",
	Long: `Kill the recorded tmux sessions, remove the provisioned worktrees and
their branches, and delete the state document. Cleanup is best-effort:
resources that are already gone are skipped, and one failure does not stop
the rest.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanKeepBranches, "keep-branches", false, "keep the feature branches after removing worktrees")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	proj, err := openProject()
	if err != nil {
		return err
	}
	defer proj.close()

	orchestra, err := proj.tracker.Load()
	if err != nil {
		return err
	}
	if orchestra == nil {
		fmt.Println("Nothing to clean")
		return nil
	}

	var failures int
	for _, feat := range orchestra.Features {
		for _, sess := range feat.Sessions {
			if !proj.tmux.HasSession(sess.SessionID) {
				continue
			}
			if err := proj.tmux.KillSession(sess.SessionID); err != nil {
				fmt.Printf("failed to kill session %s: %v\n", sess.SessionID, err)
				failures++
			}
		}

		if proj.manager.WorkspaceExists(feat.Name) {
			if err := proj.manager.DeleteWorkspace(feat.Name, true); err != nil {
				fmt.Printf("failed to remove workspace %s: %v\n", feat.Name, err)
				failures++
				continue
			}
		}
		if !cleanKeepBranches {
			if err := proj.manager.DeleteBranch(feat.Name); err != nil {
				proj.logger.Debug("branch delete failed", "feature", feat.Name, "error", err)
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("cleanup finished with %d failure(s); state kept for retry", failures)
	}
	if err := proj.tracker.Remove(); err != nil {
		return err
	}
	fmt.Printf("Cleaned up %d feature(s)\n", len(orchestra.Features))
	return nil
}
