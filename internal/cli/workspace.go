package cli

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/themetree/internal/config"
	"github.com/jmylchreest/themetree/internal/monitor"
	"github.com/jmylchreest/themetree/internal/proc"
	"github.com/jmylchreest/themetree/internal/scm"
	"github.com/jmylchreest/themetree/internal/scm/gitfs"
	"github.com/jmylchreest/themetree/internal/settings"
	"github.com/jmylchreest/themetree/internal/theme"
)

// workspace bundles the components a command works with.
type workspace struct {
	cfg      *config.Config
	logger   hclog.Logger
	store    *settings.File
	applier  *theme.Applier
	registry *scm.Registry
	git      *gitfs.Integration
}

// openWorkspace loads configuration and builds the components. It does not
// touch the repository or the settings file.
func openWorkspace(cmd *cobra.Command, opts *rootOptions) (*workspace, error) {
	cfg, err := config.Load(config.WithFlags(cmd.Flags()), userConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger(cmd, opts, cfg.LogLevel)
	logger.Debug("configuration loaded", "workspace", cfg.Workspace, "sources", cfg.Sources)

	store, err := settings.NewFile(cfg.Workspace, cfg.SettingsFile, logger.Named("settings"))
	if err != nil {
		return nil, err
	}

	surfaces := make([]theme.Surface, 0, len(cfg.Surfaces))
	for _, s := range cfg.Surfaces {
		surface, err := theme.ParseSurface(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", config.KeySurfaces, err)
		}
		surfaces = append(surfaces, surface)
	}

	applier := theme.NewApplier(store,
		theme.WithSurfaces(surfaces...),
		theme.WithLogger(logger.Named("theme")),
	)

	git := gitfs.New(cfg.Workspace,
		gitfs.WithScanDepth(cfg.ScanDepth),
		gitfs.WithDebounce(cfg.Debounce),
		gitfs.WithLogger(logger.Named("git")),
	)
	registry := scm.NewRegistry()
	registry.Register(git)

	return &workspace{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		applier:  applier,
		registry: registry,
		git:      git,
	}, nil
}

// newMonitor creates a branch monitor over the workspace integrations.
func (w *workspace) newMonitor(handler monitor.Handler) *monitor.Monitor {
	return monitor.New(w.registry, handler,
		monitor.WithIntegration(w.cfg.SCM),
		monitor.WithLogger(w.logger.Named("monitor")),
	)
}

// currentBranch reads the branch of the primary repository once.
func (w *workspace) currentBranch(ctx context.Context) (scm.Branch, error) {
	mon := w.newMonitor(func(scm.Branch) {})
	defer mon.Dispose()

	if err := mon.Initialize(ctx); err != nil {
		return scm.NoBranch, err
	}
	return mon.CurrentBranch(), nil
}

// pidFile returns the file recording the watcher of this workspace.
func (w *workspace) pidFile() *proc.PIDFile {
	return proc.NewPIDFile(w.cfg.RuntimeDir, w.cfg.Workspace)
}

// close releases the integration watchers.
func (w *workspace) close() {
	if err := w.git.Close(); err != nil {
		w.logger.Debug("failed to close git integration", "error", err)
	}
}

// userConfig applies the --config flag, if set.
func userConfig(opts *rootOptions) config.Option {
	return config.WithUserConfig(opts.configPath)
}

// newLogger builds the root logger from the verbosity flags and log level.
func newLogger(cmd *cobra.Command, opts *rootOptions, level string) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	switch {
	case opts.verbose:
		lvl = hclog.Debug
	case opts.quiet:
		lvl = hclog.Error
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "themetree",
		Output: cmd.ErrOrStderr(),
		Level:  lvl,
		Color:  hclog.AutoColor,
	})
}
