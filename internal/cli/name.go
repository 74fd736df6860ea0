package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/themetree/internal/config"
	"github.com/jmylchreest/themetree/internal/friendlyname"
)

func newNameCmd(opts *rootOptions) *cobra.Command {
	var existing []string

	cmd := &cobra.Command{
		Use:   "name [project]",
		Short: "Generate a friendly workspace name",
		Long: `Generate a memorable name such as "myproject-swift-falcon" for a new
worktree or workspace. The project defaults to the workspace directory name.
Names passed with --existing are avoided.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := ""
			if len(args) == 1 {
				project = args[0]
			} else {
				cfg, err := config.Load(config.WithFlags(cmd.Flags()), userConfig(opts))
				if err != nil {
					return fmt.Errorf("load configuration: %w", err)
				}
				project = filepath.Base(cfg.Workspace)
			}

			taken := make(map[string]bool, len(existing))
			for _, name := range existing {
				taken[name] = true
			}
			fmt.Fprintln(cmd.OutOrStdout(), friendlyname.Generate(project, taken, nil))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&existing, "existing", nil, "names already in use")
	return cmd
}
