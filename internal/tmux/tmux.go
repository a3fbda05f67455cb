// Package tmux provides an exec-based client for the tmux operations maestro
// needs: detached session creation, pane splitting, named layouts, literal
// key injection and session lifecycle queries. Commands run against the
// user's default tmux server; session names are the only namespace.
package tmux

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Client runs tmux commands. The zero value is usable; Width, Height and
// HistoryLimit only apply when non-zero.
type Client struct {
	Width        int
	Height       int
	HistoryLimit int
}

// run executes a tmux command and surfaces stderr verbatim on failure so the
// operator sees the original tmux diagnostic.
func (c *Client) run(args ...string) error {
	cmd := exec.Command("tmux", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("tmux %s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("tmux %s: %w", args[0], err)
	}
	return nil
}

// NewSession creates a detached session named name rooted at workDir, running
// the user's default interactive shell.
func (c *Client) NewSession(name, workDir string) error {
	args := []string{"new-session", "-d", "-s", name, "-c", workDir}
	if c.Width > 0 {
		args = append(args, "-x", fmt.Sprintf("%d", c.Width))
	}
	if c.Height > 0 {
		args = append(args, "-y", fmt.Sprintf("%d", c.Height))
	}
	if err := c.run(args...); err != nil {
		return err
	}
	if c.HistoryLimit > 0 {
		// Best-effort; a session without extra scrollback is still usable.
		_ = c.run("set-option", "-t", name, "history-limit", fmt.Sprintf("%d", c.HistoryLimit))
	}
	return nil
}

// SplitWindow splits the target pane. horizontal selects a side-by-side
// split (-h); otherwise the split stacks vertically (-v). The new pane starts
// at workDir.
func (c *Client) SplitWindow(target string, horizontal bool, workDir string) error {
	flag := "-v"
	if horizontal {
		flag = "-h"
	}
	return c.run("split-window", flag, "-t", target, "-c", workDir)
}

// SelectLayout applies a named layout to the session's current window.
func (c *Client) SelectLayout(session, layout string) error {
	return c.run("select-layout", "-t", session, layout)
}

// RenameWindow renames the session's current window.
func (c *Client) RenameWindow(session, name string) error {
	return c.run("rename-window", "-t", session, name)
}

// SendLiteralKeys writes text into the target pane exactly as typed, without
// submitting it. The -l flag prevents tmux key-name interpretation, and no
// Enter is appended: injected commands are staged for the operator.
func (c *Client) SendLiteralKeys(target, text string) error {
	return c.run("send-keys", "-l", "-t", target, text)
}

// SendInterrupt sends Ctrl-C to the target pane, cancelling anything already
// running there.
func (c *Client) SendInterrupt(target string) error {
	return c.run("send-keys", "-t", target, "C-c")
}

// HasSession reports whether a session with the given name exists.
func (c *Client) HasSession(name string) bool {
	// Exact match: -t name would prefix-match session names.
	return exec.Command("tmux", "has-session", "-t", "="+name).Run() == nil
}

// KillSession terminates the named session.
func (c *Client) KillSession(name string) error {
	return c.run("kill-session", "-t", "="+name)
}

// ListSessions returns all tmux session names. A missing or idle tmux server
// yields an empty list, not an error.
func (c *Client) ListSessions() ([]string, error) {
	out, err := exec.Command("tmux", "list-sessions", "-F", "#{session_name}").Output()
	if err != nil {
		// No server running or no sessions.
		return nil, nil
	}
	var sessions []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" {
			sessions = append(sessions, line)
		}
	}
	return sessions, nil
}

// AttachSession attaches the current terminal to the named session. Inside an
// existing tmux client, switch-client is used instead, since nesting attach
// fails.
func (c *Client) AttachSession(name string) error {
	verb := "attach-session"
	if os.Getenv("TMUX") != "" {
		verb = "switch-client"
	}
	cmd := exec.Command("tmux", verb, "-t", "="+name)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tmux %s: %w", verb, err)
	}
	return nil
}
