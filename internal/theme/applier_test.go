package theme

import (
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmylchreest/themetree/internal/colour"
	"github.com/jmylchreest/themetree/internal/scm"
	"github.com/jmylchreest/themetree/internal/settings"
)

// memoryStore is an in-memory Store.
type memoryStore struct {
	colors  map[string]string
	err     error
	writes  int
	lastSet map[string]string
}

func newMemoryStore(initial map[string]string) *memoryStore {
	s := &memoryStore{colors: make(map[string]string)}
	maps.Copy(s.colors, initial)
	return s
}

func (s *memoryStore) Update(_ context.Context, set map[string]string, remove []string) error {
	s.writes++
	s.lastSet = set
	if s.err != nil {
		return s.err
	}
	for _, k := range remove {
		if _, kept := set[k]; !kept {
			delete(s.colors, k)
		}
	}
	maps.Copy(s.colors, set)
	return nil
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != 8 {
		t.Fatalf("Keys() returned %d keys, want 8", len(keys))
	}
	seen := make(map[string]bool)
	for _, k := range keys {
		if seen[k] {
			t.Errorf("duplicate key %s", k)
		}
		seen[k] = true
	}
	for _, want := range []string{"titleBar.activeBackground", "statusBar.background", "activityBar.background"} {
		if !seen[want] {
			t.Errorf("Keys() missing %s", want)
		}
	}
}

func TestApplyThemeMain(t *testing.T) {
	store := newMemoryStore(nil)
	a := NewApplier(store)

	if err := a.ApplyTheme(context.Background(), scm.Named("main")); err != nil {
		t.Fatalf("ApplyTheme() error = %v", err)
	}

	entry := colour.Default().At(colour.Default().IndexFor("main"))
	want := map[string]string{
		"titleBar.activeBackground":   entry.Primary,
		"titleBar.activeForeground":   entry.Foreground,
		"titleBar.inactiveBackground": entry.PrimaryDark,
		"titleBar.inactiveForeground": entry.Foreground,
		"statusBar.background":        entry.Primary,
		"statusBar.foreground":        entry.Foreground,
		"activityBar.background":      entry.PrimaryDark,
		"activityBar.foreground":      entry.Foreground,
	}
	if !maps.Equal(store.colors, want) {
		t.Errorf("stored colours = %v, want %v", store.colors, want)
	}
}

func TestApplyThemeDeterministic(t *testing.T) {
	a := NewApplier(newMemoryStore(nil))
	b := NewApplier(newMemoryStore(nil))

	for _, name := range []string{"main", "feature/login", ""} {
		if a.Select(name) != b.Select(name) {
			t.Errorf("Select(%q) differs between appliers", name)
		}
	}
}

func TestApplyThemePreservesUnrelated(t *testing.T) {
	store := newMemoryStore(map[string]string{"editor.background": "#101010"})
	a := NewApplier(store)

	if err := a.ApplyTheme(context.Background(), scm.Named("develop")); err != nil {
		t.Fatal(err)
	}
	if store.colors["editor.background"] != "#101010" {
		t.Error("unrelated key was overwritten")
	}

	if err := a.ClearColors(context.Background()); err != nil {
		t.Fatal(err)
	}
	if want := map[string]string{"editor.background": "#101010"}; !maps.Equal(store.colors, want) {
		t.Errorf("after ClearColors = %v, want %v", store.colors, want)
	}
}

func TestApplyThemeAbsentClears(t *testing.T) {
	store := newMemoryStore(nil)
	a := NewApplier(store)
	ctx := context.Background()

	if err := a.ApplyTheme(ctx, scm.Named("main")); err != nil {
		t.Fatal(err)
	}
	if err := a.ApplyTheme(ctx, scm.NoBranch); err != nil {
		t.Fatalf("ApplyTheme(absent) error = %v", err)
	}
	if len(store.colors) != 0 {
		t.Errorf("colours after ApplyTheme(absent) = %v, want none", store.colors)
	}
	if store.writes != 2 || len(store.lastSet) != 0 {
		t.Errorf("ApplyTheme(absent) should only remove keys, writes = %d, set = %v", store.writes, store.lastSet)
	}
}

func TestApplyThemeSurfaces(t *testing.T) {
	store := newMemoryStore(nil)
	ctx := context.Background()

	if err := NewApplier(store).ApplyTheme(ctx, scm.Named("main")); err != nil {
		t.Fatal(err)
	}

	a := NewApplier(store, WithSurfaces(StatusBar))
	if err := a.ApplyTheme(ctx, scm.Named("main")); err != nil {
		t.Fatal(err)
	}
	if len(store.colors) != 2 {
		t.Errorf("expected only status bar keys, got %v", store.colors)
	}
	if _, ok := store.colors["titleBar.activeBackground"]; ok {
		t.Error("disabled surface key was not removed")
	}
	if store.writes != 2 {
		t.Errorf("narrowed ApplyTheme took %d writes, want 1", store.writes-1)
	}
}

func TestApplyThemeSurfacesFailureKeepsState(t *testing.T) {
	store := newMemoryStore(nil)
	ctx := context.Background()
	if err := NewApplier(store).ApplyTheme(ctx, scm.Named("main")); err != nil {
		t.Fatal(err)
	}
	before := maps.Clone(store.colors)

	boom := errors.New("storage unavailable")
	store.err = boom
	err := NewApplier(store, WithSurfaces(StatusBar)).ApplyTheme(ctx, scm.Named("develop"))
	if !errors.Is(err, boom) {
		t.Fatalf("ApplyTheme() error = %v, want %v", err, boom)
	}
	if !maps.Equal(store.colors, before) {
		t.Errorf("failed ApplyTheme changed colours to %v, want %v", store.colors, before)
	}
}

func TestApplyThemeSurfacesOnFile(t *testing.T) {
	ctx := context.Background()
	store, err := settings.NewFile(t.TempDir(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewApplier(store).ApplyTheme(ctx, scm.Named("main")); err != nil {
		t.Fatal(err)
	}
	if err := NewApplier(store, WithSurfaces(TitleBar)).ApplyTheme(ctx, scm.Named("main")); err != nil {
		t.Fatal(err)
	}

	colors, err := store.Colors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(colors) != 4 {
		t.Errorf("expected only title bar keys, got %v", colors)
	}
	if _, ok := colors["statusBar.background"]; ok {
		t.Error("disabled surface key was not removed")
	}
}

func TestApplyThemeWriteFailure(t *testing.T) {
	boom := errors.New("storage unavailable")
	store := newMemoryStore(nil)
	store.err = boom

	err := NewApplier(store).ApplyTheme(context.Background(), scm.Named("main"))
	if !errors.Is(err, boom) {
		t.Errorf("ApplyTheme() error = %v, want %v", err, boom)
	}
	if store.writes != 1 {
		t.Errorf("expected exactly one write attempt, got %d", store.writes)
	}
}

func TestWithPalette(t *testing.T) {
	only := colour.Palette{{Name: "Mono", Primary: "#222222", PrimaryDark: "#111111", Foreground: "#eeeeee"}}
	a := NewApplier(newMemoryStore(nil), WithPalette(only))

	if got := a.Select("anything").Name; got != "Mono" {
		t.Errorf("Select() = %s, want Mono", got)
	}
	if got := NewApplier(nil, WithPalette(nil)).Select("x"); got.Name == "" {
		t.Error("empty palette option should keep the default palette")
	}
}

func TestParseSurface(t *testing.T) {
	tests := []struct {
		input   string
		want    Surface
		wantErr bool
	}{
		{input: "titleBar", want: TitleBar},
		{input: " statusbar ", want: StatusBar},
		{input: "ACTIVITYBAR", want: ActivityBar},
		{input: "sideBar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSurface(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSurface(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSurface(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestClearAndAbsentMatchOnFile(t *testing.T) {
	ctx := context.Background()
	seed := `{"workbench.colorCustomizations": {"editor.background": "#101010"}}`

	run := func(t *testing.T, fn func(a *Applier) error) string {
		t.Helper()
		workspace := t.TempDir()
		store, err := settings.NewFile(workspace, "", nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.MkdirAll(filepath.Dir(store.Path()), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(store.Path(), []byte(seed), 0o644); err != nil {
			t.Fatal(err)
		}
		a := NewApplier(store)
		if err := a.ApplyTheme(ctx, scm.Named("main")); err != nil {
			t.Fatal(err)
		}
		if err := fn(a); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(store.Path())
		if err != nil {
			t.Fatal(err)
		}
		return string(data)
	}

	cleared := run(t, func(a *Applier) error { return a.ClearColors(ctx) })
	clearedTwice := run(t, func(a *Applier) error {
		if err := a.ClearColors(ctx); err != nil {
			return err
		}
		return a.ClearColors(ctx)
	})
	absent := run(t, func(a *Applier) error { return a.ApplyTheme(ctx, scm.NoBranch) })

	if cleared != clearedTwice {
		t.Errorf("ClearColors twice differs from once:\n%s\nvs\n%s", cleared, clearedTwice)
	}
	if cleared != absent {
		t.Errorf("ApplyTheme(absent) differs from ClearColors:\n%s\nvs\n%s", cleared, absent)
	}
}
