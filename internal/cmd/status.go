package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current orchestration state",
	Long:  `Display the features, workspaces and sessions recorded by the last orchestration run.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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
		fmt.Println("No orchestration has been run in this project")
		return nil
	}

	fmt.Printf("Status: %s\n", orchestra.Status)
	fmt.Printf("Created: %s\n", orchestra.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Features: %d\n\n", len(orchestra.Features))

	for _, feat := range orchestra.Features {
		fmt.Printf("%s (%s)\n", feat.Name, feat.Status)
		fmt.Printf("    Workspace: %s\n", feat.WorkspacePath)
		for _, sess := range feat.Sessions {
			live := "gone"
			if proj.tmux.HasSession(sess.SessionID) {
				live = "running"
			}
			fmt.Printf("    Session: %s (%d panes, %s, attached %d times)\n",
				sess.SessionID, sess.Panes, live, sess.AttachedCount)
		}
		fmt.Println()
	}
	return nil
}
