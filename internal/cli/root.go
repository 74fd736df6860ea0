// Package cli provides the command-line interface for themetree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/themetree/internal/config"
	"github.com/jmylchreest/themetree/internal/version"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	verbose    bool
	quiet      bool
	configPath string
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "themetree",
		Short: "Colour editor windows by git branch",
		Long: `themetree gives every git branch its own window colour.

It watches the current branch of the workspace's primary repository and
writes a matching accent colour into the workspace settings of your editor
(.vscode/settings.json), so windows opened on different branches or
worktrees are easy to tell apart.

The colour is picked deterministically from a fixed palette of twelve
entries by hashing the branch name, so a branch has the same colour on every
machine. A detached HEAD clears the colours.`,
		Version:      version.Short(),
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")
	pf.StringVar(&opts.configPath, "config", "", "user config file (default ~/.config/themetree/config.yaml)")
	pf.StringP(config.KeyWorkspace, "w", "", "workspace directory (default: current directory)")
	pf.String(config.KeySettingsFile, "", "settings file relative to the workspace (default .vscode/settings.json)")
	pf.String(config.KeyLogLevel, "info", "log level (trace, debug, info, warn, error)")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		newWatchCmd(opts),
		newApplyCmd(opts),
		newClearCmd(opts),
		newRefreshCmd(opts),
		newStatusCmd(opts),
		newPaletteCmd(),
		newNameCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
