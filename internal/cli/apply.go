package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/themetree/internal/config"
	"github.com/jmylchreest/themetree/internal/scm"
)

func newApplyCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply [branch]",
		Short: "Colour the workspace once",
		Long: `Apply the colours for a branch and exit.

Without an argument the current branch of the primary repository is used. A
detached HEAD, or a workspace without a repository, clears the colours.

Examples:
  # Colour the workspace for the current branch
  themetree apply

  # Preview the keys written for a branch
  themetree apply feature/login --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, opts)
			if err != nil {
				return err
			}
			defer ws.close()

			branch := scm.NoBranch
			if len(args) == 1 {
				branch = scm.Named(args[0])
			} else if branch, err = ws.currentBranch(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			name, ok := branch.Name()

			if dryRun {
				if !ok {
					fmt.Fprintln(out, "No branch checked out; colours would be cleared.")
					return nil
				}
				entry := ws.applier.Select(name)
				fmt.Fprintf(out, "Branch %s -> %s\n\n", name, entry.Name)
				colors := ws.applier.Colors(entry)
				table := NewTable("Key", "Value")
				for _, key := range slices.Sorted(maps.Keys(colors)) {
					table.AddRow(key, colors[key])
				}
				fmt.Fprint(out, table.Render())
				return nil
			}

			if err := ws.applier.ApplyTheme(cmd.Context(), branch); err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(out, "Applied %s for branch %s to %s\n", ws.applier.Select(name).Name, name, ws.store.Path())
			} else {
				fmt.Fprintf(out, "No branch checked out; cleared colours in %s\n", ws.store.Path())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&dryRun, "dry-run", false, "print the colours instead of writing them")
	f.String(config.KeySCM, "git", "source control integration to use")
	f.Int(config.KeyScanDepth, 1, "directory levels below the workspace searched for repositories")
	f.StringSlice(config.KeySurfaces, nil, "surfaces to colour (titleBar, statusBar, activityBar)")
	return cmd
}
