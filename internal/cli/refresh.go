package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/themetree/internal/config"
	"github.com/jmylchreest/themetree/internal/proc"
)

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Ask the workspace watcher to re-apply colours",
		Long: `Signal the 'themetree watch' process of this workspace to re-read its branch
and re-apply the colours, even if the branch has not changed.

Only the watcher recorded for the workspace is signalled. Watchers of other
workspaces and other themetree commands are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd, opts)
			if err != nil {
				return err
			}
			defer ws.close()

			self, err := proc.SelfName()
			if err != nil {
				return err
			}
			pid, err := proc.RefreshWatcher(ws.pidFile(), self)
			if err != nil {
				return fmt.Errorf("refresh watcher of %s: %w", ws.cfg.Workspace, err)
			}
			ws.logger.Debug("signalled watcher", "pid", pid)
			if !opts.quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Refreshed watcher (PID %d)\n", pid)
			}
			return nil
		},
	}

	cmd.Flags().String(config.KeyRuntimeDir, "", "directory for watcher pid files (default $XDG_RUNTIME_DIR/themetree)")
	return cmd
}
