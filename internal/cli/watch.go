package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/themetree/internal/config"
	"github.com/jmylchreest/themetree/internal/proc"
	"github.com/jmylchreest/themetree/internal/scm"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Colour the workspace and follow branch changes",
		Long: `Watch the primary repository of the workspace and recolour the editor
window whenever the checked-out branch changes.

The primary repository is the first one found: the workspace root itself, then
nested repositories in lexical order up to --scan-depth levels down.

The watcher records its pid per workspace under --runtime-dir. Send SIGHUP
(or run 'themetree refresh' in the same workspace) to re-apply the current
colours.
SIGINT and SIGTERM stop watching; with --clear-on-exit the colours are removed
on the way out.

Examples:
  # Watch the current directory
  themetree watch

  # Watch another workspace, colouring only the status bar
  themetree watch -w ~/src/project --surfaces statusBar`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.String(config.KeySCM, "git", "source control integration to use")
	f.Int(config.KeyScanDepth, 1, "directory levels below the workspace searched for repositories")
	f.Duration(config.KeyDebounce, 100*time.Millisecond, "delay used to coalesce filesystem events")
	f.StringSlice(config.KeySurfaces, nil, "surfaces to colour (titleBar, statusBar, activityBar)")
	f.Bool(config.KeyClearOnExit, false, "remove the colours when the watcher stops")
	f.String(config.KeyRuntimeDir, "", "directory for watcher pid files (default $XDG_RUNTIME_DIR/themetree)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *rootOptions) error {
	ws, err := openWorkspace(cmd, opts)
	if err != nil {
		return err
	}
	defer ws.close()

	ctx := cmd.Context()
	logger := ws.logger

	mon := ws.newMonitor(func(branch scm.Branch) {
		if err := ws.applier.ApplyTheme(ctx, branch); err != nil {
			logger.Error("failed to apply theme", "branch", branch.String(), "error", err)
		}
	})
	defer mon.Dispose()

	refresh := make(chan os.Signal, 1)
	proc.NotifyRefresh(refresh)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(refresh)
	defer signal.Stop(stop)

	pf := ws.pidFile()
	if self, err := proc.SelfName(); err == nil {
		if pid, err := pf.Alive(self); err == nil && pid != os.Getpid() {
			logger.Warn("replacing watcher record", "pid", pid, "file", pf.Path())
		}
	}
	if err := pf.Write(); err != nil {
		logger.Warn("failed to record watcher pid, refresh will not find it", "error", err)
	}
	defer func() {
		if err := pf.Remove(); err != nil {
			logger.Debug("failed to remove pid file", "error", err)
		}
	}()

	if err := mon.Initialize(ctx); err != nil {
		return err
	}
	if err := ws.applier.ApplyTheme(ctx, mon.CurrentBranch()); err != nil {
		logger.Error("failed to apply theme", "error", err)
	}

	logger.Info("watching", "workspace", ws.cfg.Workspace, "settings", ws.store.Path())

loop:
	for {
		select {
		case <-refresh:
			logger.Debug("refresh requested")
			mon.Refresh()
		case sig := <-stop:
			logger.Info("stopping", "signal", sig.String())
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	mon.Dispose()
	if ws.cfg.ClearOnExit {
		// ctx may already be cancelled.
		if err := ws.applier.ClearColors(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	}
	return nil
}
