// Package cmd implements the autoblog command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag and viper keys shared by every command.
const (
	flagConfig = "config"
	flagDebug  = "debug"
	flagState  = "state"
	flagAt     = "at"

	envPrefix = "AUTOBLOG"
)

// NewRootCommand builds the command tree. Each call returns an independent
// tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	env := &environment{viper: v}
	root := &cobra.Command{
		Use:           "autoblog",
		Short:         "Adaptive content selection for the auto-blog",
		Long:          `Chooses image styles, thumbnail variants, keywords and sub-topics from click-through statistics, and enforces cooldowns, the keyword blacklist and budget limits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.String(flagConfig, "", "config file (default is $CONFIG_PATH or ./config.yml)")
	flags.Bool(flagDebug, false, "enable debug logging")
	flags.String(flagState, "", "state file path (overrides service.state_path)")
	flags.String(flagAt, "", "evaluate at this RFC3339 time instead of now")
	_ = flags.MarkHidden(flagAt)

	for _, name := range []string{flagConfig, flagDebug, flagState, flagAt} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newPlanCommand(env),
		newCommitCommand(env),
		newIngestCommand(env),
		newCooldownCommand(env),
		newBlacklistCommand(env),
		newBudgetCommand(env),
		newStatsCommand(env),
		newServeCommand(env),
	)
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// Main runs the CLI and exits with status 1 on error.
func Main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
