package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimHeckel/maestro/internal/errors"
	"github.com/TimHeckel/maestro/internal/state"
	"github.com/TimHeckel/maestro/internal/topology"
)

var attachCmd = &cobra.Command{
	Use:   "attach <session-id> | attach <feature> <session>",
	Short: "Attach to an orchestrated tmux session",
	Long: `Attach the current terminal to a session created by orchestration and
record the attachment in the state document. The session can be named either
by its full id or by feature and session name.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
}

func runAttach(cmd *cobra.Command, args []string) error {
	proj, err := openProject()
	if err != nil {
		return err
	}
	defer proj.close()

	sessionID := args[0]
	if len(args) == 2 {
		sessionID = topology.SessionID(args[0], args[1])
	}
	orchestra, err := proj.tracker.Load()
	if err != nil {
		return err
	}
	if orchestra == nil {
		return fmt.Errorf("%w; run maestro orchestrate first", errors.ErrNoState)
	}
	_, sess := orchestra.FindSession(sessionID)
	if sess == nil {
		return fmt.Errorf("session %q not found in orchestration state", sessionID)
	}
	if !proj.tmux.HasSession(sessionID) {
		return fmt.Errorf("session %q is no longer running", sessionID)
	}

	// Bookkeeping before attach: the attach call blocks until the user
	// detaches, and losing the count on a killed terminal is worse than
	// counting an attach that immediately fails.
	sess.AttachedCount++
	sess.Status = state.StatusActive
	if err := proj.tracker.Save(orchestra); err != nil {
		proj.logger.Warn("failed to record attach", "session", sessionID, "error", err)
	}

	return proj.tmux.AttachSession(sessionID)
}
