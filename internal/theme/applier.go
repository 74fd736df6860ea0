// Package theme maps branch identities to persisted accent colours.
package theme

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/themetree/internal/colour"
	"github.com/jmylchreest/themetree/internal/scm"
)

// Surface is a group of window chrome colour keys.
type Surface string

// Surfaces written by the applier.
const (
	TitleBar    Surface = "titleBar"
	StatusBar   Surface = "statusBar"
	ActivityBar Surface = "activityBar"
)

// AllSurfaces lists every surface in key order.
var AllSurfaces = []Surface{TitleBar, StatusBar, ActivityBar}

// ParseSurface converts a configuration value to a Surface.
func ParseSurface(s string) (Surface, error) {
	for _, surface := range AllSurfaces {
		if strings.EqualFold(string(surface), strings.TrimSpace(s)) {
			return surface, nil
		}
	}
	return "", fmt.Errorf("unknown surface %q (valid: titleBar, statusBar, activityBar)", s)
}

// keys returns the colour keys of a surface mapped to the entry colours.
func (s Surface) keys(e colour.Entry) map[string]string {
	switch s {
	case TitleBar:
		return map[string]string{
			"titleBar.activeBackground":   e.Primary,
			"titleBar.activeForeground":   e.Foreground,
			"titleBar.inactiveBackground": e.PrimaryDark,
			"titleBar.inactiveForeground": e.Foreground,
		}
	case StatusBar:
		return map[string]string{
			"statusBar.background": e.Primary,
			"statusBar.foreground": e.Foreground,
		}
	case ActivityBar:
		return map[string]string{
			"activityBar.background": e.PrimaryDark,
			"activityBar.foreground": e.Foreground,
		}
	}
	return nil
}

// Keys returns every colour key the applier may write, grouped by surface.
func Keys() []string {
	var keys []string
	for _, s := range AllSurfaces {
		keys = append(keys, sortedKeys(s.keys(colour.Entry{}))...)
	}
	return keys
}

// Store persists workspace-scoped colour customizations.
type Store interface {
	// Update sets the keys in set and removes the keys in remove as one
	// write. Absent keys are ignored and a key in both is set.
	Update(ctx context.Context, set map[string]string, remove []string) error
}

// Option configures an Applier.
type Option func(*Applier)

// WithSurfaces limits which surfaces are coloured.
func WithSurfaces(surfaces ...Surface) Option {
	return func(a *Applier) {
		if len(surfaces) > 0 {
			a.surfaces = surfaces
		}
	}
}

// WithPalette replaces the default palette.
func WithPalette(p colour.Palette) Option {
	return func(a *Applier) {
		if p.Len() > 0 {
			a.palette = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(a *Applier) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Applier writes the palette entry selected for a branch into a Store.
// It keeps no state between calls.
type Applier struct {
	store    Store
	palette  colour.Palette
	surfaces []Surface
	logger   hclog.Logger
}

// NewApplier creates an Applier writing to store.
func NewApplier(store Store, opts ...Option) *Applier {
	a := &Applier{
		store:    store,
		palette:  colour.Default(),
		surfaces: AllSurfaces,
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Select returns the palette entry for a branch name.
func (a *Applier) Select(name string) colour.Entry {
	return a.palette.Select(name)
}

// Colors returns the keys and values written for entry.
func (a *Applier) Colors(e colour.Entry) map[string]string {
	colors := make(map[string]string)
	for _, s := range a.surfaces {
		for k, v := range s.keys(e) {
			colors[k] = v
		}
	}
	return colors
}

// ApplyTheme colours the workspace for branch. An absent branch clears the
// colours instead.
func (a *Applier) ApplyTheme(ctx context.Context, branch scm.Branch) error {
	name, ok := branch.Name()
	if !ok {
		return a.ClearColors(ctx)
	}

	entry := a.Select(name)
	colors := a.Colors(entry)
	if err := a.store.Update(ctx, colors, a.disabledKeys(colors)); err != nil {
		return fmt.Errorf("apply theme %s: %w", entry.Name, err)
	}

	a.logger.Info("applied theme", "branch", name, "theme", entry.Name)
	return nil
}

// ClearColors removes every key the applier may have written.
func (a *Applier) ClearColors(ctx context.Context) error {
	if err := a.store.Update(ctx, nil, Keys()); err != nil {
		return fmt.Errorf("clear colours: %w", err)
	}
	a.logger.Info("cleared colours")
	return nil
}

func (a *Applier) disabledKeys(written map[string]string) []string {
	var stale []string
	for _, k := range Keys() {
		if _, ok := written[k]; !ok {
			stale = append(stale, k)
		}
	}
	return stale
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
