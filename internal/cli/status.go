package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/themetree/internal/config"
	"github.com/jmylchreest/themetree/internal/proc"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the workspace, branch and colour state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd, opts)
			if err != nil {
				return err
			}
			defer ws.close()

			ctx := cmd.Context()
			branch, err := ws.currentBranch(ctx)
			if err != nil {
				return err
			}
			stored, err := ws.store.Colors(ctx)
			if err != nil {
				return err
			}

			table := NewTable("Property", "Value")
			table.AddRow("Workspace", ws.cfg.Workspace)
			table.AddRow("Settings", ws.store.Path())
			if len(ws.cfg.Sources) > 0 {
				table.AddRow("Config", strings.Join(ws.cfg.Sources, ", "))
			}

			repos := ws.git.Repositories()
			if len(repos) == 0 {
				table.AddRow("Repository", "(none)")
			}
			for i, repo := range repos {
				label := "Repository"
				if i > 0 {
					label = ""
				}
				table.AddRow(label, repo.Root())
			}
			table.AddRow("Branch", branch.String())

			applied := "no"
			if name, ok := branch.Name(); ok {
				entry := ws.applier.Select(name)
				table.AddRow("Theme", fmt.Sprintf("%s (%s)", entry.Name, entry.Primary))
				if matches(stored, ws.applier.Colors(entry)) {
					applied = "yes"
				}
			}
			table.AddRow("Applied", applied)

			editor := "not running"
			if running, err := proc.Running(ws.cfg.EditorProcess); err != nil {
				editor = "unknown"
				ws.logger.Debug("process lookup failed", "error", err)
			} else if running {
				editor = "running"
			}
			table.AddRow("Editor", fmt.Sprintf("%s (%s)", ws.cfg.EditorProcess, editor))
			table.AddRow("Watcher", watcherState(ws))

			fmt.Fprint(cmd.OutOrStdout(), table.Render())
			return nil
		},
	}

	f := cmd.Flags()
	f.String(config.KeySCM, "git", "source control integration to use")
	f.Int(config.KeyScanDepth, 1, "directory levels below the workspace searched for repositories")
	f.String(config.KeyEditorProcess, "code", "editor executable name")
	f.String(config.KeyRuntimeDir, "", "directory for watcher pid files (default $XDG_RUNTIME_DIR/themetree)")
	return cmd
}

// watcherState describes the recorded watcher of the workspace.
func watcherState(ws *workspace) string {
	self, err := proc.SelfName()
	if err != nil {
		ws.logger.Debug("process lookup failed", "error", err)
		return "unknown"
	}
	pid, err := ws.pidFile().Alive(self)
	switch {
	case errors.Is(err, proc.ErrNoProcesses):
		return "not running"
	case err != nil:
		ws.logger.Debug("watcher lookup failed", "error", err)
		return "unknown"
	}
	return fmt.Sprintf("running (PID %d)", pid)
}

// matches reports whether every wanted key is stored with the same value.
func matches(stored, want map[string]string) bool {
	for k, v := range want {
		if !strings.EqualFold(stored[k], v) {
			return false
		}
	}
	return len(want) > 0
}
