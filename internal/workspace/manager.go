// Package workspace provisions one isolated git worktree per feature. The
// Manager wraps the git CLI; the Provisioner drives it for an ordered feature
// set, sequentially or concurrently.
package workspace

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/TimHeckel/maestro/internal/errors"
)

// Workspace is one provisioned worktree.
type Workspace struct {
	Name string
	Path string
}

// Manager handles git worktree operations for a single repository.
type Manager struct {
	repoDir      string
	worktreeDir  string
	branchPrefix string
}

// FindGitRoot walks up from startDir to the directory containing .git, which
// may be a directory (normal checkout) or a file (worktree).
func FindGitRoot(startDir string) (string, error) {
	dir := startDir
	for {
		gitPath := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			if info.IsDir() || info.Mode().IsRegular() {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a git repository (or any parent up to mount point)")
		}
		dir = parent
	}
}

// NewManager creates a Manager rooted at the repository containing repoDir.
// Worktrees are created under worktreeDir; branches are named
// <branchPrefix>/<feature>.
func NewManager(repoDir, worktreeDir, branchPrefix string) (*Manager, error) {
	gitRoot, err := FindGitRoot(repoDir)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %s", repoDir)
	}
	if branchPrefix == "" {
		branchPrefix = "maestro"
	}
	return &Manager{
		repoDir:      gitRoot,
		worktreeDir:  worktreeDir,
		branchPrefix: branchPrefix,
	}, nil
}

func (m *Manager) git(args ...string) ([]byte, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = m.repoDir
	return cmd.CombinedOutput()
}

// BranchName returns the branch a feature's workspace is checked out on.
func (m *Manager) BranchName(feature string) string {
	return m.branchPrefix + "/" + feature
}

// WorkspacePath returns the absolute path a feature's workspace occupies.
func (m *Manager) WorkspacePath(feature string) string {
	return filepath.Join(m.worktreeDir, feature)
}

// CreateWorkspace creates a worktree for the feature with a fresh branch
// starting from base, and returns the worktree's absolute path.
func (m *Manager) CreateWorkspace(feature, base string) (string, error) {
	path := m.WorkspacePath(feature)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w at %s", errors.ErrWorkspaceExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating worktree dir: %w", err)
	}

	args := []string{"worktree", "add", "-b", m.BranchName(feature), path}
	if base != "" {
		args = append(args, base)
	}
	if output, err := m.git(args...); err != nil {
		return "", fmt.Errorf("failed to create worktree: %w\n%s", err, string(output))
	}
	return path, nil
}

// DeleteWorkspace removes a feature's worktree. With force, uncommitted
// changes in the worktree are discarded and leftover directories are cleaned
// up manually if git refuses.
func (m *Manager) DeleteWorkspace(feature string, force bool) error {
	path := m.WorkspacePath(feature)

	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)

	if output, err := m.git(args...); err != nil {
		if !force {
			return fmt.Errorf("failed to remove worktree: %w\n%s", err, string(output))
		}
		// Clean up manually and prune stale references.
		_ = os.RemoveAll(path)
		_, _ = m.git("worktree", "prune")
	}
	return nil
}

// WorkspaceExists reports whether the feature's worktree directory is present.
func (m *Manager) WorkspaceExists(feature string) bool {
	_, err := os.Stat(m.WorkspacePath(feature))
	return err == nil
}

// ListWorkspaces returns the worktrees under the manager's worktree
// directory, as reported by git.
func (m *Manager) ListWorkspaces() ([]Workspace, error) {
	output, err := m.git("worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to list worktrees: %w\n%s", err, string(output))
	}

	var workspaces []Workspace
	for _, line := range strings.Split(string(output), "\n") {
		path, ok := strings.CutPrefix(line, "worktree ")
		if !ok {
			continue
		}
		rel, err := filepath.Rel(m.worktreeDir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		workspaces = append(workspaces, Workspace{Name: rel, Path: path})
	}
	return workspaces, nil
}

// DeleteBranch removes a feature's branch after its worktree is gone.
func (m *Manager) DeleteBranch(feature string) error {
	if output, err := m.git("branch", "-D", m.BranchName(feature)); err != nil {
		return fmt.Errorf("failed to delete branch: %w\n%s", err, string(output))
	}
	return nil
}
