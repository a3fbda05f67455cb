package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <feature>...",
	Short: "Show the dependency-first provisioning order",
	Long: `Expand the requested features into the order they would be provisioned
in, dependencies first, without creating anything.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	proj, err := openProject()
	if err != nil {
		return err
	}
	defer proj.close()

	order, err := proj.orch.Resolve(args)
	if err != nil {
		return err
	}
	for i, name := range order {
		fmt.Printf("%d. %s\n", i+1, name)
	}
	return nil
}
