package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/TimHeckel/maestro/internal/errors"
	"github.com/TimHeckel/maestro/internal/testutil"
)

// chdir changes to dir for the duration of the test (t.Chdir requires Go 1.24+)
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

const testFeatureYAML = `features:
  - name: auth
    description: Authentication service
  - name: api
    dependencies: [auth]
  - name: ui
    dependencies: [auth, api]
`

func TestRootCommand(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}
	if rootCmd.Use != "maestro" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "maestro")
	}

	expected := []string{"orchestrate", "resolve", "provision", "status", "attach", "clean"}
	registered := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestResolveCommand(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repo := testutil.SetupTestRepoWithContent(t, map[string]string{
		"maestro.yaml": testFeatureYAML,
	})
	chdir(t, repo)

	out, err := executeCommand(rootCmd, "resolve", "ui")
	if err != nil {
		t.Fatalf("resolve: %v\n%s", err, out)
	}
}

func TestResolveUnknownFeature(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repo := testutil.SetupTestRepoWithContent(t, map[string]string{
		"maestro.yaml": testFeatureYAML,
	})
	chdir(t, repo)

	out, err := executeCommand(rootCmd, "resolve", "nope")
	if err == nil {
		t.Fatalf("expected unknown feature to fail, output:\n%s", out)
	}
	if !strings.Contains(err.Error(), "feature not found") {
		t.Fatalf("err = %v, want feature-not-found", err)
	}
}

func TestStatusWithoutState(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repo := testutil.SetupTestRepoWithContent(t, map[string]string{
		"maestro.yaml": testFeatureYAML,
	})
	chdir(t, repo)

	if _, err := executeCommand(rootCmd, "status"); err != nil {
		t.Fatalf("status on a fresh project should succeed: %v", err)
	}
}

func TestAttachWithoutState(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repo := testutil.SetupTestRepoWithContent(t, map[string]string{
		"maestro.yaml": testFeatureYAML,
	})
	chdir(t, repo)

	_, err := executeCommand(rootCmd, "attach", "auth-dev")
	if !errors.Is(err, errors.ErrNoState) {
		t.Fatalf("err = %v, want ErrNoState", err)
	}
}

func TestCleanWithoutState(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repo := testutil.SetupTestRepoWithContent(t, map[string]string{
		"maestro.yaml": testFeatureYAML,
	})
	chdir(t, repo)

	// Nothing to clean is a no-op, repeatedly.
	for i := 0; i < 2; i++ {
		if _, err := executeCommand(rootCmd, "clean"); err != nil {
			t.Fatalf("clean on a fresh project should succeed: %v", err)
		}
	}
}
