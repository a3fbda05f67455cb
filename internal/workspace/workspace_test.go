package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/TimHeckel/maestro/internal/config"
	"github.com/TimHeckel/maestro/internal/errors"
	"github.com/TimHeckel/maestro/internal/testutil"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	testutil.SkipIfNoGit(t)
	repo := testutil.SetupTestRepo(t)
	m, err := NewManager(repo, filepath.Join(repo, ".maestro", "worktrees"), "maestro")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, repo
}

func TestFindGitRoot(t *testing.T) {
	testutil.SkipIfNoGit(t)
	repo := testutil.SetupTestRepo(t)
	nested := filepath.Join(repo, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	root, err := FindGitRoot(nested)
	if err != nil {
		t.Fatalf("FindGitRoot: %v", err)
	}
	if resolved, _ := filepath.EvalSymlinks(root); resolved != mustEval(t, repo) {
		t.Fatalf("root = %q, want %q", root, repo)
	}

	if _, err := FindGitRoot(t.TempDir()); err == nil {
		t.Fatal("expected error outside a repository")
	}
}

func mustEval(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatal(err)
	}
	return resolved
}

func TestCreateAndDeleteWorkspace(t *testing.T) {
	m, _ := newTestManager(t)

	path, err := m.CreateWorkspace("auth", "main")
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	if !m.WorkspaceExists("auth") {
		t.Fatal("workspace should exist after creation")
	}
	if _, err := os.Stat(filepath.Join(path, "README.md")); err != nil {
		t.Fatalf("worktree missing checked-out files: %v", err)
	}

	// Branch follows the prefix convention.
	if got := testutil.GetCurrentBranch(t, path); got != "maestro/auth" {
		t.Fatalf("branch = %q, want maestro/auth", got)
	}

	if err := m.DeleteWorkspace("auth", true); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}
	if m.WorkspaceExists("auth") {
		t.Fatal("workspace should be gone after delete")
	}
}

func TestCreateWorkspaceDuplicate(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.CreateWorkspace("auth", "main"); err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	_, err := m.CreateWorkspace("auth", "main")
	if !errors.Is(err, errors.ErrWorkspaceExists) {
		t.Fatalf("err = %v, want ErrWorkspaceExists", err)
	}
}

func TestCreateWorkspaceFromBranch(t *testing.T) {
	m, repo := newTestManager(t)
	testutil.CreateBranch(t, repo, "develop")

	path, err := m.CreateWorkspace("auth", "develop")
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	// The worktree's branch follows the prefix convention even when the base
	// is not the default branch.
	if got := testutil.GetCurrentBranch(t, path); got != "maestro/auth" {
		t.Fatalf("branch = %q, want maestro/auth", got)
	}
}

func TestCreateWorkspaceBadBase(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.CreateWorkspace("auth", "no-such-branch")
	if err == nil {
		t.Fatal("expected unknown base to fail")
	}
	if m.WorkspaceExists("auth") {
		t.Fatal("failed creation should leave no workspace")
	}
}

func TestListWorkspaces(t *testing.T) {
	m, _ := newTestManager(t)

	for _, name := range []string{"auth", "api"} {
		if _, err := m.CreateWorkspace(name, "main"); err != nil {
			t.Fatalf("CreateWorkspace(%s): %v", name, err)
		}
	}

	workspaces, err := m.ListWorkspaces()
	if err != nil {
		t.Fatalf("ListWorkspaces: %v", err)
	}
	names := map[string]bool{}
	for _, ws := range workspaces {
		names[ws.Name] = true
	}
	if !names["auth"] || !names["api"] {
		t.Fatalf("workspaces = %v, want auth and api", workspaces)
	}
}

func TestProvisionSequential(t *testing.T) {
	m, _ := newTestManager(t)
	p := NewProvisioner(m, nil)

	feats := []config.Feature{
		{Name: "auth"},
		{Name: "api"},
	}
	created, err := p.Provision(context.Background(), feats, "main", false)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %v, want 2 entries", created)
	}
	for name, path := range created {
		if !m.WorkspaceExists(name) {
			t.Errorf("workspace %s missing on disk", name)
		}
		if path != m.WorkspacePath(name) {
			t.Errorf("path for %s = %q, want %q", name, path, m.WorkspacePath(name))
		}
	}
}

func TestProvisionSequentialStopsOnFailure(t *testing.T) {
	m, _ := newTestManager(t)
	p := NewProvisioner(m, nil)

	feats := []config.Feature{
		{Name: "auth"},
		{Name: "api", Base: "no-such-branch"},
		{Name: "ui"},
	}
	created, err := p.Provision(context.Background(), feats, "main", false)
	if err == nil {
		t.Fatal("expected failure on bad base")
	}
	if _, ok := created["auth"]; !ok {
		t.Fatal("partial map should include the workspace created before the failure")
	}
	if _, ok := created["ui"]; ok {
		t.Fatal("sequential mode must not create workspaces after a failure")
	}
	if m.WorkspaceExists("ui") {
		t.Fatal("ui workspace should not exist")
	}
}

func TestProvisionParallel(t *testing.T) {
	m, _ := newTestManager(t)
	p := NewProvisioner(m, nil)

	feats := []config.Feature{
		{Name: "auth"},
		{Name: "api"},
		{Name: "ui"},
	}
	created, err := p.Provision(context.Background(), feats, "main", true)
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("created = %v, want 3 entries", created)
	}
}

func TestProvisionParallelPartialFailure(t *testing.T) {
	m, _ := newTestManager(t)
	p := NewProvisioner(m, nil)

	feats := []config.Feature{
		{Name: "auth"},
		{Name: "api", Base: "no-such-branch"},
	}
	created, err := p.Provision(context.Background(), feats, "main", true)
	if err == nil {
		t.Fatal("expected failure on bad base")
	}
	// Successful creations are still reported so the caller can roll back.
	if path, ok := created["auth"]; ok {
		if !m.WorkspaceExists("auth") {
			t.Fatalf("reported workspace %s missing on disk", path)
		}
	}
	if _, ok := created["api"]; ok {
		t.Fatal("failed feature must not appear in the created map")
	}
}
