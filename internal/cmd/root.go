// Package cmd implements the maestro CLI.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TimHeckel/maestro/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "maestro",
	Short: "Feature orchestration over git worktrees and tmux",
	Long: `Maestro provisions one isolated git worktree per feature and builds a
multi-pane tmux session for each, with shell commands staged into the panes
but never executed. Features are described in maestro.yaml and provisioned
in dependency order, with automatic rollback on partial failure.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/maestro/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/maestro")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MAESTRO")
	// Replace dots with underscores for nested keys in env vars
	// e.g., MAESTRO_GIT_DEFAULT_BASE for git.default_base
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
